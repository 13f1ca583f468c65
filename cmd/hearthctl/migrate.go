package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"hearth/internal/logger"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		_, manager, err := openDatabase()
		if err != nil {
			return err
		}
		defer manager.Close()

		return manager.RunMigrations()
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down [N]",
	Short: "Roll back the last N migrations (default 1)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		steps := 1
		if len(args) == 1 {
			n, err := strconv.Atoi(args[0])
			if err != nil || n < 1 {
				return fmt.Errorf("invalid step count %q", args[0])
			}
			steps = n
		}

		_, manager, err := openDatabase()
		if err != nil {
			return err
		}
		defer manager.Close()

		if err := manager.RollbackMigrations(steps); err != nil {
			return err
		}
		logger.Get().Infof("Rolled back %d migration(s)", steps)
		return nil
	},
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the current schema version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, manager, err := openDatabase()
		if err != nil {
			return err
		}
		defer manager.Close()

		version, dirty, err := manager.MigrationVersion()
		if err != nil {
			return fmt.Errorf("failed to get version: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "version %d, dirty %v\n", version, dirty)
		return nil
	},
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateVersionCmd)
	rootCmd.AddCommand(migrateCmd)
}
