package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	appErrors "github.com/noah-isme/classroom-registry/pkg/errors"
)

const registrySnapshotSchema = `CREATE TABLE IF NOT EXISTS registry_snapshots (
    key TEXT PRIMARY KEY,
    payload BYTEA NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
)`

// PostgresBackend keeps the snapshot as one row keyed by name. The upsert is a
// single statement, so the row flips from old to new atomically.
type PostgresBackend struct {
	db  *sqlx.DB
	key string
}

// NewPostgresBackend constructs a PostgreSQL snapshot backend.
func NewPostgresBackend(db *sqlx.DB, key string) *PostgresBackend {
	if key == "" {
		key = "classroom:registry:snapshot"
	}
	return &PostgresBackend{db: db, key: key}
}

func (b *PostgresBackend) Name() string { return "postgres" }

// EnsureSchema creates the snapshot table when missing.
func (b *PostgresBackend) EnsureSchema(ctx context.Context) error {
	if _, err := b.db.ExecContext(ctx, registrySnapshotSchema); err != nil {
		return fmt.Errorf("create registry_snapshots: %w", err)
	}
	return nil
}

func (b *PostgresBackend) Read(ctx context.Context) ([]byte, error) {
	const query = `SELECT payload FROM registry_snapshots WHERE key = $1`
	var payload []byte
	if err := b.db.GetContext(ctx, &payload, query, b.key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrSnapshotMissing
		}
		return nil, fmt.Errorf("load registry snapshot: %w", err)
	}
	return payload, nil
}

func (b *PostgresBackend) Write(ctx context.Context, payload []byte) error {
	const query = `INSERT INTO registry_snapshots (key, payload, updated_at)
VALUES ($1, $2, $3)
ON CONFLICT (key)
DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`
	if _, err := b.db.ExecContext(ctx, query, b.key, payload, time.Now().UTC()); err != nil {
		return fmt.Errorf("save registry snapshot: %w", err)
	}
	return nil
}
