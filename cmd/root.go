package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	cmdUtils "github.com/ramp-payments/verification-engine/cmd/utils"
	"github.com/ramp-payments/verification-engine/internal/logging"
	"github.com/ramp-payments/verification-engine/internal/monitor"
)

// globalOptions holds the CLI options shared by every subcommand.
var globalOptions cmdUtils.GlobalOptionsType

const dbConfigOptionFlagName = "database-url"

func rootCmd() *cobra.Command {
	configOpts := cmdUtils.ConfigOptions{
		{
			Name:           "log-level",
			Usage:          `The log level used in this project. Options: "TRACE", "DEBUG", "INFO", "WARN", "ERROR", "FATAL", or "PANIC".`,
			OptType:        cmdUtils.ConfigOptionTypeString,
			FlagDefault:    "INFO",
			ConfigKey:      &globalOptions.LogLevel,
			CustomSetValue: cmdUtils.SetConfigOptionLogLevel,
			Required:       true,
		},
		{
			Name:      "sentry-dsn",
			Usage:     "The DSN (client key) of the Sentry project. If not provided, Sentry will not be used.",
			OptType:   cmdUtils.ConfigOptionTypeString,
			ConfigKey: &globalOptions.SentryDSN,
		},
		{
			Name:        "environment",
			Usage:       `The environment where the application is running. Example: "development", "staging", "production".`,
			OptType:     cmdUtils.ConfigOptionTypeString,
			FlagDefault: "development",
			ConfigKey:   &globalOptions.Environment,
			Required:    true,
		},
		{
			Name:        dbConfigOptionFlagName,
			Usage:       "Postgres DB URL the engine's transactions/audit_events tables live in.",
			OptType:     cmdUtils.ConfigOptionTypeString,
			FlagDefault: "postgres://localhost:5432/verification?sslmode=disable",
			ConfigKey:   &globalOptions.DatabaseURL,
			Required:    true,
		},
	}

	rootCmd := &cobra.Command{
		Use:     "verification-engine",
		Short:   "Two-Phase Payment Verification Engine",
		Long:    "verification-engine polls payment providers to confirm pending transactions, retries/expires them on a schedule, and notifies merchants of the outcome.",
		Version: globalOptions.Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := cmdUtils.LoadEnvFile(); err != nil {
				return fmt.Errorf("loading env file: %w", err)
			}
			if err := configOpts.Require(); err != nil {
				return err
			}
			if err := configOpts.SetValues(); err != nil {
				return fmt.Errorf("setting values of config options: %w", err)
			}
			logging.Ctx(cmd.Context()).Infof("Version: %s", globalOptions.Version)
			logging.Ctx(cmd.Context()).Infof("GitCommit: %s", globalOptions.GitCommit)
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	if err := configOpts.Init(rootCmd); err != nil {
		logging.Fatalf("initializing config options: %v", err)
	}

	return rootCmd
}

// SetupCLI builds the root command with every subcommand attached.
func SetupCLI(version, gitCommit string) *cobra.Command {
	globalOptions.Version = version
	globalOptions.GitCommit = gitCommit
	root := rootCmd()

	root.AddCommand((&DatabaseCommand{}).Command())
	root.AddCommand((&WorkerCommand{}).Command(&monitor.MonitorService{}))
	root.AddCommand((&ConfigureCommand{}).Command())

	return root
}
