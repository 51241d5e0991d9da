package repository

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	apperrors "github.com/allisson/credproxy/internal/errors"
)

// FileBlobStore writes one file per key under dir, readable by the owner only.
type FileBlobStore struct {
	dir string
}

// NewFileBlobStore creates dir (0700) if needed.
func NewFileBlobStore(dir string) (*FileBlobStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, apperrors.Wrap(err, "failed to create blob directory")
	}
	return &FileBlobStore{dir: dir}, nil
}

func (f *FileBlobStore) path(key string) string {
	return filepath.Join(f.dir, filepath.Base(key)+".blob")
}

// Put writes value atomically via a temp file and rename.
func (f *FileBlobStore) Put(_ context.Context, key string, value []byte) error {
	tmp, err := os.CreateTemp(f.dir, ".blob-*")
	if err != nil {
		return apperrors.Wrap(err, "failed to create temp blob")
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return apperrors.Wrap(err, "failed to chmod temp blob")
	}
	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		return apperrors.Wrap(err, "failed to write blob")
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return apperrors.Wrap(err, "failed to sync blob")
	}
	if err := tmp.Close(); err != nil {
		return apperrors.Wrap(err, "failed to close blob")
	}

	if err := os.Rename(tmpName, f.path(key)); err != nil {
		return apperrors.Wrap(err, "failed to move blob into place")
	}
	return nil
}

// Get reads the blob for key.
func (f *FileBlobStore) Get(_ context.Context, key string) ([]byte, error) {
	value, err := os.ReadFile(f.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.Wrap(err, "failed to read blob")
	}
	return value, nil
}
