// Package db opens the Postgres pool and applies migrations.
package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"crm_messaging_backend/platform/config"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	maxConns          = 20
	minConns          = 2
	maxConnLifetime   = time.Hour
	maxConnIdleTime   = 15 * time.Minute
	healthCheckPeriod = time.Minute
)

// NewPool parses the database URL, opens a pool and pings it once. Pool
// limits in the URL (pool_max_conns etc.) take precedence over the defaults.
func NewPool(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.GetDatabaseURL())
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	url := cfg.GetDatabaseURL()
	if !strings.Contains(url, "pool_max_conns") {
		poolConfig.MaxConns = maxConns
	}
	if !strings.Contains(url, "pool_min_conns") {
		poolConfig.MinConns = minConns
	}
	poolConfig.MaxConnLifetime = maxConnLifetime
	poolConfig.MaxConnIdleTime = maxConnIdleTime
	poolConfig.HealthCheckPeriod = healthCheckPeriod

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}
