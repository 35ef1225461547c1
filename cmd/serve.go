package cmd

import (
	"context"
	"fmt"

	"keel/internal/app"

	"github.com/spf13/cobra"
)

// serveDebug enables debug logging regardless of the Logging section.
var serveDebug bool

// serveConfigPath replaces keel.yaml with a specific file that must exist.
var serveConfigPath string

// serveEnvironment selects the host environment and keel.<environment>.yaml.
var serveEnvironment string

// serveCmd starts the host and keeps it running until interrupted.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the application host and run until interrupted",
	Long: `Builds the application host from configuration and runs it until SIGINT or SIGTERM.

Startup initializes modules in registration order, runs the startup pipeline,
notifies lifecycle handlers and launches background tasks. Shutdown reverses
this: handlers are told the host is stopping, background tasks are cancelled
and awaited (bounded by Host:ShutdownTimeout), then handlers are told the host stopped.

Configuration:
  keel merges, in order: built-in defaults, keel.yaml (or --config),
  keel.<environment>.yaml, and KEEL_ environment variables where "__"
  separates levels, e.g. KEEL_HOST__SHUTDOWNTIMEOUT=10s.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := app.NewConfig(serveDebug, false, serveConfigPath, serveEnvironment)
	cfg.Version = GetVersion()

	application, err := app.NewApplication(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return application.Run(ctx)
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&serveDebug, "debug", false, "Enable debug logging")
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "", "Configuration file to load instead of keel.yaml")
	serveCmd.Flags().StringVar(&serveEnvironment, "environment", "", "Host environment name (Development, Staging, Production)")
}
