package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	apperrors "github.com/allisson/credproxy/internal/errors"
)

// MySQLBlobStore implements blob persistence for MySQL databases.
type MySQLBlobStore struct {
	db *sql.DB
}

// Put inserts or replaces the blob stored under key.
func (m *MySQLBlobStore) Put(ctx context.Context, key string, value []byte) error {
	query := `INSERT INTO credential_blobs (blob_key, value, updated_at)
			  VALUES (?, ?, ?)
			  ON DUPLICATE KEY UPDATE value = VALUES(value), updated_at = VALUES(updated_at)`

	if _, err := m.db.ExecContext(ctx, query, key, value, time.Now().UTC()); err != nil {
		return apperrors.Wrap(err, "failed to put blob")
	}
	return nil
}

// Get retrieves the blob stored under key.
func (m *MySQLBlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	query := `SELECT value FROM credential_blobs WHERE blob_key = ?`

	var value []byte
	if err := m.db.QueryRowContext(ctx, query, key).Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get blob")
	}
	return value, nil
}

// NewMySQLBlobStore creates a new MySQL blob store.
func NewMySQLBlobStore(db *sql.DB) *MySQLBlobStore {
	return &MySQLBlobStore{db: db}
}
