// Command seed loads the YAML brand dataset into the Postgres brands table.
// CATALOG_SEED_FILE selects a dataset; the embedded one is used otherwise.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/probin-johori/sustainable/internal/catalog"
	"github.com/probin-johori/sustainable/internal/config"
	"github.com/probin-johori/sustainable/internal/source/postgres"
	"github.com/probin-johori/sustainable/internal/source/static"
	"github.com/probin-johori/sustainable/pkg/database"
	"github.com/probin-johori/sustainable/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log := logger.New("catalog-seed", cfg.LogLevel)
	if err := run(cfg, log); err != nil {
		log.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.LoadTimeout)
	defer cancel()

	brands, err := static.New(cfg.SeedFile, log).Load(ctx)
	if err != nil {
		return err
	}
	if err := catalog.Validate(brands); err != nil {
		return fmt.Errorf("dataset rejected: %w", err)
	}

	pool, err := database.NewPostgresPool(ctx, &cfg.Postgres, log)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()

	if err := database.RunMigrations(ctx, pool, postgres.Migrations(), log); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	store := catalog.New(brands, log)
	if err := postgres.New(pool, cfg.SlowQueryThreshold, log).Replace(ctx, store.All()); err != nil {
		return err
	}

	log.Info("brands seeded", slog.Int("count", store.Len()))
	return nil
}
