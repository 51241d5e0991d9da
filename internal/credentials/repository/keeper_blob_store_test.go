package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocloud.dev/secrets/localsecrets"

	apperrors "github.com/allisson/credproxy/internal/errors"
)

func newTestKeeper(t *testing.T) Keeper {
	t.Helper()
	key, err := localsecrets.NewRandomKey()
	require.NoError(t, err)

	keeper := localsecrets.NewKeeper(key)
	t.Cleanup(func() { _ = keeper.Close() })
	return keeper
}

func TestKeeperBlobStore(t *testing.T) {
	ctx := context.Background()

	t.Run("wraps values at rest", func(t *testing.T) {
		inner := NewMemoryBlobStore()
		store := NewKeeperBlobStore(inner, newTestKeeper(t))

		require.NoError(t, store.Put(ctx, "aws_credentials", []byte("blob")))

		raw, err := inner.Get(ctx, "aws_credentials")
		require.NoError(t, err)
		assert.NotEqual(t, []byte("blob"), raw)

		got, err := store.Get(ctx, "aws_credentials")
		require.NoError(t, err)
		assert.Equal(t, []byte("blob"), got)
	})

	t.Run("missing key passes through", func(t *testing.T) {
		store := NewKeeperBlobStore(NewMemoryBlobStore(), newTestKeeper(t))

		_, err := store.Get(ctx, "aws_credentials")
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("different keeper cannot open", func(t *testing.T) {
		inner := NewMemoryBlobStore()
		require.NoError(t, NewKeeperBlobStore(inner, newTestKeeper(t)).Put(ctx, "aws_credentials", []byte("blob")))

		_, err := NewKeeperBlobStore(inner, newTestKeeper(t)).Get(ctx, "aws_credentials")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to unwrap blob with kms")
	})
}
