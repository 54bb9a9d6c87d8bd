package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"juntas/internal/platform/database"
)

func migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := commonRun()
			if err != nil {
				return err
			}
			if cfg.Storage != "postgres" {
				return fmt.Errorf("migrate needs JUNTAS_STORAGE=postgres, got %q", cfg.Storage)
			}
			ctx := cmd.Context()
			db, err := database.Open(ctx, cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()
			return database.Migrate(ctx, db, log)
		},
	}
}
