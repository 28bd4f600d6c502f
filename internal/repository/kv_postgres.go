package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// PostgresStore persists collections as JSONB documents in app_collections.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore constructs a Postgres backed persistence.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Read loads the document stored under key.
func (s *PostgresStore) Read(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.GetContext(ctx, &value, `SELECT value FROM app_collections WHERE key = $1`, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrKeyNotFound
		}
		return nil, fmt.Errorf("read collection %s: %w", key, err)
	}
	return value, nil
}

// Write upserts the document stored under key.
func (s *PostgresStore) Write(ctx context.Context, key string, value []byte) error {
	// jsonb columns take the document as text; []byte would be sent as bytea.
	_, err := s.db.ExecContext(ctx, `INSERT INTO app_collections (key, value, updated_at)
		VALUES ($1, $2::jsonb, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`, key, string(value))
	if err != nil {
		return fmt.Errorf("write collection %s: %w", key, err)
	}
	return nil
}
