package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/workwheel/workwheel/logger"
)

type Config struct {
	DSN string
}

// Store holds the shared connection pool the DAOs run on. Schema setup is
// idempotent and happens on construction.
type Store struct {
	pool *pgxpool.Pool
}

const schema = `
CREATE TABLE IF NOT EXISTS workflow_definition (
	name       TEXT        NOT NULL,
	version    INT         NOT NULL,
	definition JSONB       NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (name, version)
);

CREATE TABLE IF NOT EXISTS workflow_instance (
	id         TEXT        NOT NULL PRIMARY KEY,
	status     TEXT        NOT NULL,
	data       JSONB       NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS activity_execution (
	id          TEXT        NOT NULL PRIMARY KEY,
	instance_id TEXT        NOT NULL,
	activity_id TEXT        NOT NULL,
	assigned_to TEXT        NOT NULL DEFAULT '',
	status      TEXT        NOT NULL,
	started_at  TIMESTAMPTZ NOT NULL,
	data        JSONB       NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_execution_instance ON activity_execution (instance_id);
CREATE INDEX IF NOT EXISTS idx_execution_assignee ON activity_execution (assigned_to, status);

CREATE TABLE IF NOT EXISTS round_robin_entry (
	activity_name    TEXT        NOT NULL,
	group_hash       TEXT        NOT NULL,
	user_id          TEXT        NOT NULL,
	assignment_count INT         NOT NULL DEFAULT 0,
	last_assigned_at TIMESTAMPTZ,
	active           BOOLEAN     NOT NULL DEFAULT TRUE,
	PRIMARY KEY (activity_name, group_hash, user_id)
);
`

func NewStore(ctx context.Context, conf Config) (*Store, error) {
	pool, err := pgxpool.New(ctx, conf.DSN)
	if err != nil {
		return nil, fmt.Errorf("error creating postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("error connecting to postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("error applying schema: %w", err)
	}
	logger.Info("connected to postgres")
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

// inTx runs fn inside a transaction, committing on nil and rolling back
// otherwise.
func (s *Store) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
