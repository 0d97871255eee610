package main

import (
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded schema to the configured database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, logger, database, err := loadRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer database.Close() //nolint:errcheck // process is exiting

			if err := database.Migrate(cmd.Context()); err != nil {
				logger.Error("failed to migrate database", "error", err)
				return err
			}

			logger.Info("database is up to date")
			return nil
		},
	}
}
