// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package postgres provides the managed PostgreSQL connection pool shared by
// the document store and the identity account repository.
//
// # Architecture
//
// This package is part of the Infrastructure layer. It owns the physical
// connections (pgxpool); the repositories that query through them live next
// to their domain (docstore, identity).
package postgres

import (
	stdctx "context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/gatekeeper/internal/platform/constants"
)

// PoolOptions tunes the connection pool. Zero values fall back to the defaults below.
type PoolOptions struct {
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Defaults sized for a coordinator that mostly performs single-document reads and writes.
const (
	defaultMaxConns        = 15
	defaultMinConns        = 2
	defaultMaxConnLifetime = 60 * time.Minute
	defaultMaxConnIdleTime = 10 * time.Minute
	healthCheckPeriod      = 1 * time.Minute
	connectTimeout         = 5 * time.Second
	pingTimeout            = 2 * time.Second
)

func (options PoolOptions) withDefaults() PoolOptions {
	if options.MaxConns <= 0 {
		options.MaxConns = defaultMaxConns
	}
	if options.MinConns <= 0 {
		options.MinConns = defaultMinConns
	}
	if options.MaxConnLifetime <= 0 {
		options.MaxConnLifetime = defaultMaxConnLifetime
	}
	if options.MaxConnIdleTime <= 0 {
		options.MaxConnIdleTime = defaultMaxConnIdleTime
	}
	return options
}

/*
NewPool creates and validates a new PostgreSQL connection pool.

Parameters:
  - context: Context for the initial connection attempt
  - dsn: A libpq-compatible connection string or postgres:// URL
  - options: Pool tuning (zero value uses defaults)
  - logger: Structured logger for pool-level events

Returns:
  - *pgxpool.Pool: A pool that already answered a ping
  - error: Configuration or connectivity failures
*/
func NewPool(context stdctx.Context, dsn string, options PoolOptions, logger *slog.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: invalid DSN: %w", err)
	}

	options = options.withDefaults()
	poolConfig.MaxConns = options.MaxConns
	poolConfig.MinConns = options.MinConns
	poolConfig.MaxConnLifetime = options.MaxConnLifetime
	poolConfig.MaxConnIdleTime = options.MaxConnIdleTime
	poolConfig.HealthCheckPeriod = healthCheckPeriod
	poolConfig.ConnConfig.ConnectTimeout = connectTimeout
	poolConfig.ConnConfig.RuntimeParams["application_name"] = constants.AppName

	// Every physical connection gets a statement timeout matching the request deadline.
	poolConfig.AfterConnect = func(connectCtx stdctx.Context, connection *pgx.Conn) error {
		timeoutQuery := fmt.Sprintf("SET statement_timeout = '%ds'", int(constants.GlobalRequestTimeout.Seconds()))
		_, err := connection.Exec(connectCtx, timeoutQuery)
		return err
	}

	connectCtx, cancel := stdctx.WithTimeout(context, connectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to create pool: %w", err)
	}

	if err := Ping(context, pool); err != nil {
		pool.Close()
		return nil, err
	}

	stats := pool.Stat()
	logger.Info("postgres_pool_connected",
		slog.Int("max_conns", int(stats.MaxConns())),
		slog.Int("total_conns", int(stats.TotalConns())),
	)

	return pool, nil
}

// Ping verifies that the PostgreSQL connection pool is healthy.
func Ping(context stdctx.Context, pool *pgxpool.Pool) error {
	pingCtx, cancel := stdctx.WithTimeout(context, pingTimeout)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		return fmt.Errorf("postgres: ping failed: %w", err)
	}

	return nil
}
