package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"keel/internal/diagnostics"
	"keel/internal/schedule"
	"keel/internal/systemd"
	"keel/pkg/config"
	"keel/pkg/host"
	"keel/pkg/logging"
)

// Application holds a built but not yet started host.
type Application struct {
	config   *Config
	settings Settings
	host     *host.Host
}

// NewApplication loads configuration, configures logging and builds the host.
// The host is not started; see Run.
func NewApplication(cfg *Config) (*Application, error) {
	var logOutput io.Writer = os.Stdout
	if cfg.Silent {
		logOutput = io.Discard
	}
	initLevel := logging.LevelInfo
	if cfg.Debug {
		initLevel = logging.LevelDebug
	}
	logging.InitForCLI(initLevel, logOutput)

	conf, err := loadConfiguration(cfg)
	if err != nil {
		logging.Error("Bootstrap", err, "Failed to load configuration")
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	var logCfg logging.Config
	if err := conf.Bind(sectionLogging, &logCfg); err != nil {
		return nil, fmt.Errorf("invalid logging configuration: %w", err)
	}
	if cfg.Debug {
		logCfg.Level = logging.LevelDebug.String()
	}
	if err := logging.Configure(logCfg, logOutput); err != nil {
		return nil, fmt.Errorf("invalid logging configuration: %w", err)
	}

	settings, err := loadSettings(conf)
	if err != nil {
		return nil, err
	}

	h, err := buildHost(cfg, settings, conf)
	if err != nil {
		logging.Error("Bootstrap", err, "Failed to build host")
		return nil, fmt.Errorf("failed to build host: %w", err)
	}

	return &Application{config: cfg, settings: settings, host: h}, nil
}

// Host returns the built host.
func (a *Application) Host() *host.Host {
	return a.host
}

func loadConfiguration(cfg *Config) (*config.Configuration, error) {
	b := config.NewBuilder().AddDefaults(defaults())

	path := cfg.ConfigPath
	if path == "" {
		b.AddYAMLFile(DefaultConfigFile, true)
		path = DefaultConfigFile
	} else {
		b.AddYAMLFile(path, false)
	}

	if cfg.Environment != "" {
		b.AddYAMLFile(environmentFile(path, cfg.Environment), true)
	}

	return b.AddEnvironment(EnvironmentPrefix).Build()
}

// environmentFile returns keel.<environment>.yaml next to path.
func environmentFile(path, environment string) string {
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	if ext == "" {
		ext = ".yaml"
	}
	return fmt.Sprintf("%s.%s%s", base, strings.ToLower(environment), ext)
}

func loadSettings(conf *config.Configuration) (Settings, error) {
	var s Settings
	bindings := []struct {
		path string
		out  interface{}
	}{
		{sectionDiagnostics, &s.Diagnostics},
		{sectionSystemd, &s.Systemd},
		{sectionHeartbeat, &s.Heartbeat},
	}
	for _, binding := range bindings {
		if err := conf.Bind(binding.path, binding.out); err != nil {
			return Settings{}, fmt.Errorf("invalid %s configuration: %w", binding.path, err)
		}
	}
	return s, nil
}

func buildHost(cfg *Config, settings Settings, conf *config.Configuration) (*host.Host, error) {
	metrics := diagnostics.NewMetrics()
	loggers := logging.DefaultFactory()

	b := host.NewBuilder().
		UseConfiguration(conf).
		UseLoggerFactory(loggers).
		AddModule(diagnostics.NewModule(metrics, cfg.Version)).
		AddStartupFilter(diagnostics.NewTimingFilter(metrics)).
		AddLifecycleHandler(diagnostics.NewPhaseRecorder(metrics)).
		AddBackgroundTask(diagnostics.NewServer(diagnostics.Config{
			Enabled: settings.Diagnostics.Enabled,
			Address: settings.Diagnostics.Address,
		}, metrics)).
		OnTaskFault(func(f host.TaskFault) {
			metrics.ObserveTaskFault(f.Task)
		})

	if cfg.Environment != "" {
		b.UseEnvironment(cfg.Environment)
	}

	if settings.Systemd.Enabled {
		b.AddLifecycleHandler(systemd.NewNotifier(nil, loggers.CreateLogger("Systemd"))).
			AddBackgroundTask(systemd.NewWatchdog(nil, nil))
	}

	if settings.Heartbeat.Enabled {
		task, err := schedule.NewTask("schedule", []schedule.Job{
			heartbeatJob(settings.Heartbeat.Schedule, loggers.CreateLogger("Heartbeat")),
		}, metrics.ObserveJobRun)
		if err != nil {
			return nil, err
		}
		b.AddBackgroundTask(task)
	}

	return b.Build()
}

func heartbeatJob(spec string, logger logging.Logger) schedule.Job {
	var runs atomic.Int64
	return schedule.Job{
		Name: "heartbeat",
		Spec: spec,
		Run: func(context.Context) error {
			logger.Info("Host alive (heartbeat %d)", runs.Add(1))
			return nil
		},
	}
}
