// Package usecase persists encrypted credential bundles through an opaque
// blob store.
package usecase

import (
	"context"
)

// BlobStore is an opaque key/value store for persisted blobs. Get returns
// errors.ErrNotFound when the key holds nothing.
type BlobStore interface {
	Put(ctx context.Context, key string, value []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
}

// CredentialStore saves and loads the single encrypted credential bundle.
type CredentialStore interface {
	// Save persists bundle JSON under the fixed credential key.
	Save(ctx context.Context, bundleJSON []byte) error

	// Load returns the stored bundle JSON. A missing or malformed blob is
	// reported as errors.ErrNotFound.
	Load(ctx context.Context) ([]byte, error)
}
