package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/JonMunkholm/contacts/internal/config"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Connect opens a pool for the configured driver, pings it and returns the
// matching Persister. The returned func closes the pool.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (Persister, func(), error) {
	switch strings.ToLower(cfg.Driver) {
	case config.DriverPgx, "":
		return connectPgx(ctx, cfg)
	case config.DriverPostgres:
		return connectSQL(ctx, cfg)
	default:
		return nil, nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func connectPgx(ctx context.Context, cfg config.DatabaseConfig) (Persister, func(), error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return NewPgxStore(pool, cfg.Table), pool.Close, nil
}

func connectSQL(ctx context.Context, cfg config.DatabaseConfig) (Persister, func(), error) {
	db, err := OpenSQL(cfg.URL)
	if err != nil {
		return nil, nil, err
	}

	db.SetMaxOpenConns(cfg.MaxConns)
	db.SetMaxIdleConns(cfg.MinConns)
	db.SetConnMaxLifetime(cfg.MaxConnLifetime)
	db.SetConnMaxIdleTime(cfg.MaxConnIdleTime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return NewSQLStore(db, cfg.Table), func() { db.Close() }, nil
}
