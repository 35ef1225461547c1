// Package logging provides leveled, structured logging for keel.
//
// Output is produced by zerolog, either as human readable console lines or
// as line-delimited JSON. Every entry carries a subsystem (or category) field
// so that host components can be told apart.
//
// # Levels
//
//   - Debug: detailed information for troubleshooting
//   - Info: normal operation, such as phase transitions
//   - Warn: degraded but recoverable situations, such as shutdown timeouts
//   - Error: failures, always logged with the error attached
//
// # Usage
//
//	logging.InitForCLI(logging.LevelInfo, os.Stdout)
//
//	logging.Info("Bootstrap", "Loaded configuration from %s", path)
//	logging.Error("Bootstrap", err, "Failed to build host")
//
// Components that receive their logger by injection use a Factory:
//
//	logger := loggers.CreateLogger("ModuleLoader")
//	logger.Info("Initializing %d module(s)", n)
//
// DefaultFactory returns loggers that follow the package-level configuration,
// so a Factory can be created before Configure runs. NopFactory discards
// everything and is convenient in tests.
//
// # Configuration
//
// Configure accepts the "Logging" configuration section:
//
//	Logging:
//	  Level: debug   # debug, info, warn, error
//	  Format: json   # text (default) or json
//
// # Thread Safety
//
// All functions are safe for concurrent use. Reconfiguring while other
// goroutines log is allowed; each entry is written with whichever logger was
// current when it started.
package logging
