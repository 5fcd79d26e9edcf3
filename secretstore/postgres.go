package secretstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	schemaSQL = `CREATE TABLE IF NOT EXISTS authnet_secrets (
	namespace  TEXT NOT NULL,
	slot       TEXT NOT NULL,
	value      TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (namespace, slot)
)`

	upsertSQL = `INSERT INTO authnet_secrets (namespace, slot, value)
VALUES ($1, $2, $3)
ON CONFLICT (namespace, slot) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`

	selectSQL = `SELECT value FROM authnet_secrets WHERE namespace = $1 AND slot = $2`

	deleteSQL = `DELETE FROM authnet_secrets WHERE namespace = $1 AND slot = ANY($2)`
)

// Querier is the subset of pgx used by Postgres. *pgxpool.Pool, *pgx.Conn
// and pgx.Tx all satisfy it.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Postgres stores slots as rows of the authnet_secrets table, partitioned by
// namespace so several identities can share one database.
type Postgres struct {
	db        Querier
	namespace string
}

// NewPostgres returns a Store backed by db. An empty namespace defaults to
// "default".
func NewPostgres(db Querier, namespace string) *Postgres {
	if namespace == "" {
		namespace = "default"
	}
	return &Postgres{db: db, namespace: namespace}
}

// EnsureSchema creates the secrets table if it does not exist.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("%w: create schema: %w", ErrStorage, err)
	}
	return nil
}

// Set upserts value under slot.
func (p *Postgres) Set(ctx context.Context, slot Slot, value string) error {
	if _, err := p.db.Exec(ctx, upsertSQL, p.namespace, string(slot), value); err != nil {
		return fmt.Errorf("%w: set %s: %w", ErrStorage, slot, err)
	}
	return nil
}

// Get returns the value stored under slot.
func (p *Postgres) Get(ctx context.Context, slot Slot) (string, bool, error) {
	var value string
	err := p.db.QueryRow(ctx, selectSQL, p.namespace, string(slot)).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: get %s: %w", ErrStorage, slot, err)
	}
	return value, true, nil
}

// Clear deletes the given slots in one statement.
func (p *Postgres) Clear(ctx context.Context, slots ...Slot) error {
	if len(slots) == 0 {
		return nil
	}
	names := make([]string, 0, len(slots))
	for _, slot := range slots {
		names = append(names, string(slot))
	}
	if _, err := p.db.Exec(ctx, deleteSQL, p.namespace, names); err != nil {
		return fmt.Errorf("%w: clear: %w", ErrStorage, err)
	}
	return nil
}
