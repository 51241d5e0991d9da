package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	apperrors "github.com/allisson/credproxy/internal/errors"
)

// PostgreSQLBlobStore implements blob persistence for PostgreSQL databases.
type PostgreSQLBlobStore struct {
	db *sql.DB
}

// Put inserts or replaces the blob stored under key.
func (p *PostgreSQLBlobStore) Put(ctx context.Context, key string, value []byte) error {
	query := `INSERT INTO credential_blobs (blob_key, value, updated_at)
			  VALUES ($1, $2, $3)
			  ON CONFLICT (blob_key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`

	if _, err := p.db.ExecContext(ctx, query, key, value, time.Now().UTC()); err != nil {
		return apperrors.Wrap(err, "failed to put blob")
	}
	return nil
}

// Get retrieves the blob stored under key.
func (p *PostgreSQLBlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	query := `SELECT value FROM credential_blobs WHERE blob_key = $1`

	var value []byte
	if err := p.db.QueryRowContext(ctx, query, key).Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get blob")
	}
	return value, nil
}

// NewPostgreSQLBlobStore creates a new PostgreSQL blob store.
func NewPostgreSQLBlobStore(db *sql.DB) *PostgreSQLBlobStore {
	return &PostgreSQLBlobStore{db: db}
}
