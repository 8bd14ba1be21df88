package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"openshelf/internal/config"
	"openshelf/internal/database"
	"openshelf/internal/database/migration"
	"openshelf/internal/logger"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the catalog schema if it does not exist",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load()
			log := logger.New(os.Stdout, cfg.Location())

			db, err := database.NewPostgres(cmd.Context(), cfg.Database, log)
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}
			defer db.Close()

			return migration.EnsureMigrated(cmd.Context(), db, log, cfg.Database.Host)
		},
	}
}
