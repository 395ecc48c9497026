package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	pool    *pgxpool.Pool
	once    sync.Once
	initErr error
)

// ErrNoDatabaseURL is returned by InitDB when no connection string is set.
var ErrNoDatabaseURL = errors.New("database url not set")

// InitDB opens the shared connection pool and makes sure the sweep_results
// table exists. Subsequent calls return the first call's result.
func InitDB(ctx context.Context, dbURL string) error {
	once.Do(func() {
		initErr = initPool(ctx, dbURL)
	})
	return initErr
}

func initPool(ctx context.Context, dbURL string) error {
	if dbURL == "" {
		return ErrNoDatabaseURL
	}

	config, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return fmt.Errorf("failed to parse database config: %w", err)
	}

	p, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return fmt.Errorf("failed to open pool: %w", err)
	}
	if err := EnsureSchema(ctx, p); err != nil {
		p.Close()
		return err
	}
	pool = p
	return nil
}

// EnsureSchema creates the cache table if it is missing.
func EnsureSchema(ctx context.Context, p *pgxpool.Pool) error {
	const ddl = `
		CREATE TABLE IF NOT EXISTS sweep_results (
			cache_key  TEXT PRIMARY KEY,
			payload    JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`
	if _, err := p.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("failed to create sweep_results: %w", err)
	}
	return nil
}

// GetPool returns the database connection pool, nil before InitDB succeeds.
func GetPool() *pgxpool.Pool {
	return pool
}

// Close closes the database connection pool
func Close() {
	if pool != nil {
		pool.Close()
	}
}
