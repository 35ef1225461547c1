package diagnostics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"keel/pkg/core"
)

// DefaultAddress is where the diagnostics server listens unless configured.
const DefaultAddress = "127.0.0.1:9464"

const serverShutdownTimeout = 5 * time.Second

// Config is bound from Modules:Diagnostics.
type Config struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Address string `mapstructure:"address" yaml:"address"`
}

// DefaultConfig returns the server defaults.
func DefaultConfig() Config {
	return Config{Enabled: true, Address: DefaultAddress}
}

// Server is a background task serving the diagnostics router.
type Server struct {
	config  Config
	metrics *Metrics

	mu   sync.Mutex
	addr net.Addr
}

// NewServer creates the task. An empty address falls back to DefaultAddress.
func NewServer(config Config, metrics *Metrics) *Server {
	if config.Address == "" {
		config.Address = DefaultAddress
	}
	return &Server{config: config, metrics: metrics}
}

func (s *Server) Name() string {
	return "diagnostics.server"
}

// Addr returns the bound listener address, or nil before the server listens.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Execute serves until ctx is cancelled, then shuts the server down gracefully.
// When the server is disabled it only waits for cancellation.
func (s *Server) Execute(ctx context.Context, app *core.Context) error {
	logger := app.Logger("Diagnostics")

	if !s.config.Enabled {
		logger.Debug("Diagnostics server disabled")
		<-ctx.Done()
		return ctx.Err()
	}

	listener, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return fmt.Errorf("diagnostics server failed to listen on %s: %w", s.config.Address, err)
	}

	s.mu.Lock()
	s.addr = listener.Addr()
	s.mu.Unlock()

	server := &http.Server{
		Handler:           NewRouter(s.metrics, app.Features(), logger),
		ReadHeaderTimeout: requestTimeout,
	}

	errChan := make(chan error, 1)
	go func() {
		logger.Info("Diagnostics server listening on %s", listener.Addr())
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		// ctx is already cancelled, shutdown needs its own deadline
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), serverShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error(err, "Diagnostics server shutdown error")
			return err
		}
		logger.Debug("Diagnostics server stopped")
		return ctx.Err()
	case err := <-errChan:
		return fmt.Errorf("diagnostics server failed: %w", err)
	}
}
