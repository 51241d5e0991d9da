package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	apperrors "github.com/allisson/credproxy/internal/errors"
)

// SQLiteBlobStore implements blob persistence for a local SQLite file.
type SQLiteBlobStore struct {
	db *sql.DB
}

// NewSQLiteBlobStore creates a new SQLite blob store.
func NewSQLiteBlobStore(db *sql.DB) *SQLiteBlobStore {
	return &SQLiteBlobStore{db: db}
}

// Put inserts or replaces the blob stored under key.
func (s *SQLiteBlobStore) Put(ctx context.Context, key string, value []byte) error {
	query := `INSERT INTO credential_blobs (blob_key, value, updated_at)
			  VALUES (?, ?, ?)
			  ON CONFLICT (blob_key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`

	if _, err := s.db.ExecContext(ctx, query, key, value, time.Now().UTC()); err != nil {
		return apperrors.Wrap(err, "failed to put blob")
	}
	return nil
}

// Get retrieves the blob stored under key.
func (s *SQLiteBlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM credential_blobs WHERE blob_key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get blob")
	}
	return value, nil
}
