// Package postgres implements the durable stores on PostgreSQL via pgx.
package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

// Connect opens and validates a pgx connection pool.
func Connect(ctx context.Context, databaseURL string, maxConns int32) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "[postgres.Connect] parse config")
	}
	if maxConns > 0 {
		poolConfig.MaxConns = maxConns
	}
	poolConfig.MaxConnIdleTime = 15 * time.Minute
	poolConfig.MaxConnLifetime = time.Hour

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, errors.Wrap(err, "[postgres.Connect] new pool")
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "[postgres.Connect] ping")
	}
	return pool, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS credentials (
	id              UUID PRIMARY KEY,
	name            TEXT NOT NULL,
	normalized_name TEXT NOT NULL UNIQUE,
	password_hash   TEXT NOT NULL DEFAULT '',
	role            TEXT NOT NULL,
	is_registered   BOOLEAN NOT NULL DEFAULT FALSE,
	is_active       BOOLEAN NOT NULL DEFAULT TRUE,
	created_at      TIMESTAMPTZ NOT NULL,
	updated_at      TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS failed_attempts (
	id           UUID PRIMARY KEY,
	operation    TEXT NOT NULL,
	identifier   TEXT NOT NULL,
	reason       TEXT NOT NULL,
	attempted_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS failed_attempts_window_idx
	ON failed_attempts (operation, identifier, attempted_at);
CREATE INDEX IF NOT EXISTS failed_attempts_sweep_idx
	ON failed_attempts (attempted_at);

CREATE TABLE IF NOT EXISTS security_events (
	id         UUID PRIMARY KEY,
	event_type TEXT NOT NULL,
	identifier TEXT NOT NULL,
	actor_id   TEXT NOT NULL DEFAULT '',
	detail     TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS security_events_recent_idx
	ON security_events (event_type, identifier, created_at);
CREATE INDEX IF NOT EXISTS security_events_sweep_idx
	ON security_events (created_at);
`

// EnsureSchema creates the auth core tables and indexes when missing.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return errors.Wrap(err, "[postgres.EnsureSchema] exec")
	}
	return nil
}
