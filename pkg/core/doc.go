// Package core defines the contracts shared by the host and the components
// it runs: the application Context and the four participant kinds.
//
//   - Module: initialized once, in registration order, before anything else runs.
//   - StartupFilter: middleware wrapped around the startup action.
//   - LifecycleHandler: notified on starting, started, stopping and stopped.
//   - BackgroundTask: runs concurrently from start until shutdown.
//
// Func adapters (StartupFilterFunc, BackgroundTaskFunc, LifecycleHooks)
// cover the common case of a participant without state.
package core
