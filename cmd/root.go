package cmd

import (
	"os"

	"keel/pkg/result"

	"github.com/spf13/cobra"
)

// Exit codes for CLI commands.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (command failed, invalid arguments).
	ExitCodeError = 1
	// ExitCodeConfiguration indicates invalid configuration or host options.
	ExitCodeConfiguration = 2
	// ExitCodeStartup indicates the host failed while starting.
	ExitCodeStartup = 3
)

// rootCmd represents the base command for the keel application.
// It is the entry point when the application is called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "keel",
	Short: "Run an application host with modules, lifecycle hooks and background tasks",
	Long: `keel hosts a long-running application: it loads layered configuration,
initializes modules, runs the startup pipeline, notifies lifecycle handlers
and supervises background tasks until it is asked to stop.`,
	// SilenceUsage prevents Cobra from printing the usage message on errors that are handled by the application.
	SilenceUsage: true,
}

// SetVersion sets the version for the root command.
// This function is typically called from the main package to inject the application version at build time.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute is the main entry point for the CLI application.
// This function is called by main.main().
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "keel version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(getExitCode(err))
	}
}

// getExitCode maps the error's result code onto a process exit code.
func getExitCode(err error) int {
	if err == nil {
		return ExitCodeSuccess
	}

	switch result.FromError(err).Code() {
	case result.CodeConfiguration, result.CodeValidation:
		return ExitCodeConfiguration
	case result.CodeModuleInitialization, result.CodeStartupPipeline, result.CodeLifecycleHandler:
		return ExitCodeStartup
	default:
		return ExitCodeError
	}
}

func init() {
	rootCmd.AddCommand(newVersionCmd())
}
