package main

import (
	"context"
	"fmt"
	"time"

	"github.com/EightFlix/Error/internal/config"
	"github.com/EightFlix/Error/internal/db"
	"github.com/EightFlix/Error/internal/logger"
	"github.com/EightFlix/Error/internal/ops"
	"github.com/EightFlix/Error/internal/pgstore"
)

// connectTimeout bounds the initial Postgres connection.
const connectTimeout = 15 * time.Second

// openStore opens the configured backend: SQLite under dir, or Postgres at
// cfg.PostgresDSN after applying migrations.
func openStore(ctx context.Context, dir string, cfg *config.Config, log *logger.Logger) (ops.Store, error) {
	switch cfg.Backend {
	case config.BackendPostgres:
		if err := pgstore.Migrate(cfg.PostgresDSN, log.Logger); err != nil {
			return nil, err
		}

		ctx, cancel := context.WithTimeout(ctx, connectTimeout)
		defer cancel()
		pool, err := pgstore.Connect(ctx, cfg.PostgresDSN, pgstore.PoolOptions{
			MaxConns: int32(cfg.DBMaxOpenConns),
			MinConns: int32(cfg.DBMaxIdleConns),
		}, log.Logger)
		if err != nil {
			return nil, err
		}
		return pgstore.New(pool, pgstore.Options{UseCaptionFilter: cfg.UseCaptionFilter}), nil

	case config.BackendSQLite, "":
		database, err := db.Init(dir)
		if err != nil {
			return nil, err
		}
		db.ConfigurePool(database, cfg)
		return db.NewStore(database, db.Options{UseCaptionFilter: cfg.UseCaptionFilter}), nil

	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}
