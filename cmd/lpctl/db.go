package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"lpcontrol/pkg/config"
)

func dbCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Manage the journal schema",
	}

	run := func(apply func(dir string)) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			s, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			if s.DBHost == "" {
				return fmt.Errorf("DB_HOST is not set")
			}
			config.InitDB(s)
			apply(s.MigrationsPath)
			return nil
		}
	}

	cmd.AddCommand(
		&cobra.Command{Use: "migrate", Short: "Apply pending migrations", RunE: run(config.ExecuteMigrations)},
		&cobra.Command{Use: "rollback", Short: "Roll back the last migration", RunE: run(config.RollbackMigration)},
	)
	return cmd
}
