package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/Varun5711/authlocal/internal/config"
	"github.com/Varun5711/authlocal/internal/logger"
	"github.com/Varun5711/authlocal/internal/storage"
)

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the users and groups tables in DB_PRIMARY_DSN.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.Database.PrimaryDSN == "" {
				return errors.New("DB_PRIMARY_DSN is required")
			}

			if err := storage.Migrate(cmd.Context(), cfg.Database.PrimaryDSN); err != nil {
				return err
			}

			logger.New("auth-local").Info("Database schema is up to date")
			return nil
		},
	}
}
