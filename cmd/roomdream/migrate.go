package main

import (
	"github.com/spf13/cobra"

	"github.com/basel-ax/roomdream/internal/repository"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer log.Sync()

		db, err := repository.OpenDB(cmd.Context(), cfg.DB)
		if err != nil {
			return err
		}
		defer db.Close()

		return repository.RunMigrations(cmd.Context(), db, log)
	},
}
