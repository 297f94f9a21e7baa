package main

import (
	"github.com/spf13/cobra"

	"github.com/halyard-group/halyard-web/internal/database"
	"github.com/halyard-group/halyard-web/pkg/logger"
)

func newMigrateCommand() *cobra.Command {
	var down bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Long:  "Applies every pending migration, or with --down reverts the most recent one.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			db, err := database.Connect(cmd.Context(), cfg.Database)
			if err != nil {
				return err
			}
			defer func() {
				if err := db.Close(); err != nil {
					logger.Error("Failed to close database connection: %v", err)
				}
			}()

			if down {
				return database.Rollback(db, cfg.Database.Database)
			}
			return database.Migrate(db, cfg.Database.Database)
		},
	}
	cmd.Flags().BoolVar(&down, "down", false, "revert the most recent migration")
	return cmd
}
