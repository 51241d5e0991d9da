package secret

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("zero filled", func(t *testing.T) {
		buf, err := New(32)
		require.NoError(t, err)
		defer func() { _ = buf.Close() }()

		assert.Equal(t, 32, buf.Len())
		assert.Equal(t, make([]byte, 32), buf.Bytes())
	})

	t.Run("empty buffer", func(t *testing.T) {
		buf, err := New(0)
		require.NoError(t, err)
		assert.Equal(t, 0, buf.Len())
		assert.Empty(t, buf.Bytes())
		assert.NoError(t, buf.Close())
	})

	t.Run("negative size", func(t *testing.T) {
		_, err := New(-1)
		assert.ErrorIs(t, err, ErrNegativeSize)
	})
}

func TestNewFromBytes(t *testing.T) {
	source := []byte("super-secret-key-material")
	expected := append([]byte(nil), source...)

	buf, err := NewFromBytes(source)
	require.NoError(t, err)
	defer func() { _ = buf.Close() }()

	assert.Equal(t, expected, buf.Bytes())
	assert.Equal(t, make([]byte, len(expected)), source, "source must be wiped")
}

func TestNewFromString(t *testing.T) {
	buf, err := NewFromString("SECRET1")
	require.NoError(t, err)
	defer func() { _ = buf.Close() }()

	assert.Equal(t, "SECRET1", buf.String())
	assert.Equal(t, 7, buf.Len())
}

func TestBuffer_Close(t *testing.T) {
	t.Run("wipes and blocks reads", func(t *testing.T) {
		buf, err := NewFromString("key")
		require.NoError(t, err)

		require.NoError(t, buf.Close())

		assert.True(t, buf.closed)
		assert.Panics(t, func() { _ = buf.Bytes() })
		assert.Panics(t, func() { _ = buf.String() })
	})

	t.Run("idempotent", func(t *testing.T) {
		buf, err := New(8)
		require.NoError(t, err)
		assert.NoError(t, buf.Close())
		assert.NoError(t, buf.Close())
	})

	t.Run("nil buffer", func(t *testing.T) {
		var buf *Buffer
		assert.NotPanics(t, func() { _ = buf.Close() })
	})
}

func TestWipe(t *testing.T) {
	b := []byte{1, 2, 3, 4, 5}
	Wipe(b)
	assert.Equal(t, []byte{0, 0, 0, 0, 0}, b)

	assert.NotPanics(t, func() { Wipe(nil) })
}
