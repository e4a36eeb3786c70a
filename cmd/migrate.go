package main

import (
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"ELDEREASE_BACK-END/internal/config"
	"ELDEREASE_BACK-END/internal/store"
)

func runMigrate(cmd *cobra.Command, _ []string) error {
	config.LoadEnvFiles()
	cfg := config.FromEnv()
	if cfg.Database.Password == "" {
		return oops.Code("CONFIG_INVALID").Errorf("DB_PASSWORD is required")
	}

	ctx := cmd.Context()

	cmd.Println("Connecting to database...")
	pool, err := store.NewPool(ctx, cfg)
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").With("operation", "connect to database").Wrap(err)
	}
	defer pool.Close()

	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	cmd.Println("Running migrations...")
	if err := store.Migrate(ctx, db); err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "run migrations").Wrap(err)
	}

	cmd.Println("Migrations completed successfully")
	return nil
}
