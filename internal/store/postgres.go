package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// PostgresConfig holds connection settings for a Postgres-backed store.
type PostgresConfig struct {
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
	ConnMaxLife  time.Duration
}

// NewPostgresStore connects to Postgres through the pgx stdlib driver and
// prepares the schema.
func NewPostgresStore(ctx context.Context, cfg PostgresConfig) (*SQLStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("%w: postgres DSN is required", ErrStorage)
	}
	db, err := sql.Open("pgx", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("%w: open postgres: %w", ErrStorage, err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLife > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLife)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: ping postgres: %w", ErrStorage, err)
	}
	return newSQLStore(db, dialectPostgres)
}

// Open returns a store for the given driver name: "sqlite" opens target as
// a file path, "postgres" treats it as a DSN.
func Open(ctx context.Context, driver, target string) (*SQLStore, error) {
	switch driver {
	case "", "sqlite":
		return NewSQLiteStore(target)
	case "postgres", "pgx":
		return NewPostgresStore(ctx, PostgresConfig{DSN: target})
	}
	return nil, fmt.Errorf("%w: unknown driver %q", ErrStorage, driver)
}
