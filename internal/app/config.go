package app

import "time"

// DefaultConfigFile is loaded from the working directory when no --config is given.
const DefaultConfigFile = "keel.yaml"

// EnvironmentPrefix selects the environment variables merged into configuration.
const EnvironmentPrefix = "KEEL_"

// Config holds the command line settings of one keel invocation.
type Config struct {
	// Debug forces debug logging regardless of the Logging section.
	Debug bool

	// Silent discards all log output.
	Silent bool

	// ConfigPath replaces keel.yaml. Unlike the default file it must exist.
	ConfigPath string

	// Environment overrides Host:EnvironmentName and selects keel.<environment>.yaml.
	Environment string

	// Version is reported by the built-in modules.
	Version string
}

func NewConfig(debug, silent bool, configPath, environment string) *Config {
	return &Config{
		Debug:       debug,
		Silent:      silent,
		ConfigPath:  configPath,
		Environment: environment,
		Version:     "dev",
	}
}

// Settings are the sections the binary reads for its built-in components.
type Settings struct {
	Diagnostics DiagnosticsSettings
	Systemd     SystemdSettings
	Heartbeat   HeartbeatSettings
}

type DiagnosticsSettings struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Address string `mapstructure:"address" yaml:"address"`
}

type SystemdSettings struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

type HeartbeatSettings struct {
	Enabled  bool   `mapstructure:"enabled" yaml:"enabled"`
	Schedule string `mapstructure:"schedule" yaml:"schedule"`
}

const (
	sectionLogging     = "Logging"
	sectionDiagnostics = "Modules:Diagnostics"
	sectionSystemd     = "Modules:Systemd"
	sectionHeartbeat   = "Modules:Schedule:Heartbeat"
)

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"Logging": map[string]interface{}{
			"Level":  "info",
			"Format": "text",
		},
		"Host": map[string]interface{}{
			"ShutdownTimeout": (5 * time.Second).String(),
		},
		"Modules": map[string]interface{}{
			"Diagnostics": map[string]interface{}{
				"Enabled": true,
				"Address": "127.0.0.1:9464",
			},
			"Systemd": map[string]interface{}{
				"Enabled": true,
			},
			"Schedule": map[string]interface{}{
				"Heartbeat": map[string]interface{}{
					"Enabled":  true,
					"Schedule": "@every 1m",
				},
			},
		},
	}
}
