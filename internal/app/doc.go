// Package app wires the keel binary: it loads layered configuration,
// configures logging and builds a host with the built-in components.
//
// # Configuration Loading
//
// Sources are merged in order, later sources winning:
//  1. Built-in defaults
//  2. keel.yaml in the working directory, or the file passed with --config
//  3. keel.<environment>.yaml next to it, when an environment is selected
//  4. KEEL_ environment variables, with "__" separating levels
//     (KEEL_MODULES__DIAGNOSTICS__ADDRESS sets Modules:Diagnostics:Address)
//
// # Built-in Components
//
//   - Diagnostics module, phase recorder, timing filter and HTTP server
//   - systemd notifier and watchdog
//   - Scheduler running the heartbeat job
//
// # Example
//
//	cfg := app.NewConfig(false, false, "", "Development")
//	application, err := app.NewApplication(cfg)
//	if err != nil {
//	    return err
//	}
//	return application.Run(ctx)
package app
