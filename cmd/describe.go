package cmd

import (
	"fmt"

	"keel/internal/app"
	"keel/internal/formatting"

	"github.com/spf13/cobra"
)

var (
	describeConfigPath  string
	describeEnvironment string
	describeOutput      string
	describeNoColor     bool
)

// describeCmd builds the host without starting it and prints its registrations.
var describeCmd = &cobra.Command{
	Use:   "describe",
	Short: "Show the modules, handlers and tasks the host would run",
	Long: `Builds the application host exactly as 'keel serve' would, without starting it,
and prints its options, environment, modules, lifecycle handlers, background tasks,
services and features.`,
	Args: cobra.NoArgs,
	RunE: runDescribe,
}

func runDescribe(cmd *cobra.Command, args []string) error {
	format, err := formatting.ParseFormat(describeOutput)
	if err != nil {
		return err
	}

	cfg := app.NewConfig(false, true, describeConfigPath, describeEnvironment)
	cfg.Version = GetVersion()

	application, err := app.NewApplication(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer application.Host().Close()

	return application.Describe(cmd.OutOrStdout(), formatting.Options{
		Format: format,
		Color:  !describeNoColor,
	})
}

func init() {
	rootCmd.AddCommand(describeCmd)

	describeCmd.Flags().StringVar(&describeConfigPath, "config", "", "Configuration file to load instead of keel.yaml")
	describeCmd.Flags().StringVar(&describeEnvironment, "environment", "", "Host environment name")
	describeCmd.Flags().StringVarP(&describeOutput, "output", "o", "table", "Output format: table, json or yaml")
	describeCmd.Flags().BoolVar(&describeNoColor, "no-color", false, "Disable colored table headers")
}
