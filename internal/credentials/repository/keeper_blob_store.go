package repository

import (
	"context"

	apperrors "github.com/allisson/credproxy/internal/errors"
)

// Keeper encrypts and decrypts with an externally held key.
type Keeper interface {
	Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)
}

// BlobStore is the store interface decorated by KeeperBlobStore.
type BlobStore interface {
	Put(ctx context.Context, key string, value []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
}

// KeeperBlobStore wraps every blob with a KMS keeper before it reaches the
// underlying store, adding a second layer on top of the password-derived one.
type KeeperBlobStore struct {
	next   BlobStore
	keeper Keeper
}

// NewKeeperBlobStore decorates next with keeper.
func NewKeeperBlobStore(next BlobStore, keeper Keeper) *KeeperBlobStore {
	return &KeeperBlobStore{next: next, keeper: keeper}
}

// Put encrypts value with the keeper and stores the result.
func (k *KeeperBlobStore) Put(ctx context.Context, key string, value []byte) error {
	wrapped, err := k.keeper.Encrypt(ctx, value)
	if err != nil {
		return apperrors.Wrap(err, "failed to wrap blob with kms")
	}
	return k.next.Put(ctx, key, wrapped)
}

// Get loads and unwraps the blob. Keeper failures are returned as errors, not
// as a missing blob.
func (k *KeeperBlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	wrapped, err := k.next.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	value, err := k.keeper.Decrypt(ctx, wrapped)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to unwrap blob with kms")
	}
	return value, nil
}
