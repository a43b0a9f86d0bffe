package cmd

import (
	"fmt"
	"strconv"

	migrate "github.com/rubenv/sql-migrate"
	"github.com/spf13/cobra"

	cmdUtils "github.com/ramp-payments/verification-engine/cmd/utils"
	"github.com/ramp-payments/verification-engine/db"
	"github.com/ramp-payments/verification-engine/db/migrations"
	"github.com/ramp-payments/verification-engine/internal/logging"
)

// DatabaseCommand groups the engine's schema migration helpers.
type DatabaseCommand struct{}

func (c *DatabaseCommand) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:              "db",
		Short:            "Database schema migration helpers",
		PersistentPreRun: cmdUtils.DefaultPersistentPreRun,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(c.migrateCmd())
	return cmd
}

func (c *DatabaseCommand) migrateCmd() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:              "migrate",
		Short:            "Apply or revert schema migrations against --database-url",
		PersistentPreRun: cmdUtils.DefaultPersistentPreRun,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	migrateCmd.AddCommand(&cobra.Command{
		Use:              "up [count]",
		Short:            "Migrates the database up [count] migrations, or all pending if omitted",
		Args:             cobra.MaximumNArgs(1),
		PersistentPreRun: cmdUtils.DefaultPersistentPreRun,
		RunE: func(cmd *cobra.Command, args []string) error {
			count, err := migrationCount(args)
			if err != nil {
				return err
			}
			return c.run(cmd, migrate.Up, count)
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:              "down <count>",
		Short:            "Migrates the database down <count> migrations",
		Args:             cobra.ExactArgs(1),
		PersistentPreRun: cmdUtils.DefaultPersistentPreRun,
		RunE: func(cmd *cobra.Command, args []string) error {
			count, err := migrationCount(args)
			if err != nil {
				return err
			}
			return c.run(cmd, migrate.Down, count)
		},
	})

	return migrateCmd
}

func (c *DatabaseCommand) run(cmd *cobra.Command, dir migrate.MigrationDirection, count int) error {
	n, err := db.Migrate(globalOptions.DatabaseURL, dir, count, migrations.FS)
	if err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}

	if n == 0 {
		logging.Ctx(cmd.Context()).Info("No migrations applied.")
	} else {
		logging.Ctx(cmd.Context()).Infof("Successfully applied %d migrations %s.", n, migrationDirectionStr(dir))
	}
	return nil
}

func migrationCount(args []string) (int, error) {
	if len(args) == 0 {
		return 0, nil
	}
	count, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("invalid [count] argument %q: %w", args[0], err)
	}
	return count, nil
}

func migrationDirectionStr(dir migrate.MigrationDirection) string {
	if dir == migrate.Up {
		return "up"
	}
	return "down"
}
