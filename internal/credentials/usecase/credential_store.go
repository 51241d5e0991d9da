package usecase

import (
	"context"
	"log/slog"

	credentialsDomain "github.com/allisson/credproxy/internal/credentials/domain"
	apperrors "github.com/allisson/credproxy/internal/errors"
)

// credentialStore implements CredentialStore on top of a BlobStore.
type credentialStore struct {
	blobs  BlobStore
	logger *slog.Logger
}

// NewCredentialStore creates a CredentialStore backed by blobs.
func NewCredentialStore(blobs BlobStore, logger *slog.Logger) CredentialStore {
	return &credentialStore{
		blobs:  blobs,
		logger: logger,
	}
}

// Save validates bundleJSON and writes base64(bundleJSON) under BlobKey.
func (c *credentialStore) Save(ctx context.Context, bundleJSON []byte) error {
	if _, err := credentialsDomain.UnmarshalBundle(bundleJSON); err != nil {
		return err
	}

	if err := c.blobs.Put(ctx, credentialsDomain.BlobKey, credentialsDomain.EncodeBlob(bundleJSON)); err != nil {
		return apperrors.Wrap(err, "failed to save credential bundle")
	}
	return nil
}

// Load reads the blob back. A blob that does not decode is treated as absent.
func (c *credentialStore) Load(ctx context.Context) ([]byte, error) {
	blob, err := c.blobs.Get(ctx, credentialsDomain.BlobKey)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.Wrap(err, "failed to load credential bundle")
	}

	bundleJSON, err := credentialsDomain.DecodeBlob(blob)
	if err != nil {
		c.logger.Warn("ignoring malformed stored credential bundle",
			slog.Int("blob_bytes", len(blob)),
			slog.Any("error", err),
		)
		return nil, apperrors.ErrNotFound
	}

	return bundleJSON, nil
}
