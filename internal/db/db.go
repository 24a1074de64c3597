package db

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	"orderdesk/internal/tablestore"
)

func NewPool(ctx context.Context) (*pgxpool.Pool, error) {
	connStr := os.Getenv("DATABASE_URL")
	if connStr == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable not set")
	}

	config, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to parse DATABASE_URL: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return pool, nil
}

// NewStore selects the table store backend from the environment:
// STORE_BACKEND=postgres (default, needs DATABASE_URL), xlsx (needs
// STORE_XLSX_PATH) or memory. The returned close function releases the
// backend's resources; it is a no-op for the memory store.
func NewStore(ctx context.Context) (tablestore.Store, func(), error) {
	switch backend := os.Getenv("STORE_BACKEND"); backend {
	case "", "postgres":
		pool, err := NewPool(ctx)
		if err != nil {
			return nil, nil, err
		}
		return tablestore.NewPGStore(pool), pool.Close, nil
	case "xlsx":
		path := os.Getenv("STORE_XLSX_PATH")
		if path == "" {
			return nil, nil, fmt.Errorf("STORE_XLSX_PATH environment variable not set")
		}
		store, err := tablestore.OpenXLSXStore(path)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	case "memory":
		return tablestore.NewMemStore(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown STORE_BACKEND %q", backend)
	}
}
