package domain

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSalt() [SaltLength]byte {
	var salt [SaltLength]byte
	for i := range salt {
		salt[i] = byte(i + 1)
	}
	return salt
}

func TestNewKeyData(t *testing.T) {
	t.Run("takes ownership of key bytes", func(t *testing.T) {
		key := make([]byte, KeyLength)
		for i := range key {
			key[i] = 0xAB
		}

		kd, err := NewKeyData(key, testSalt())
		require.NoError(t, err)
		defer func() { _ = kd.Close() }()

		assert.Equal(t, make([]byte, KeyLength), key, "caller slice must be wiped")
		for _, b := range kd.Key() {
			assert.Equal(t, byte(0xAB), b)
		}
		assert.Equal(t, testSalt(), kd.salt)
	})

	t.Run("rejects short key", func(t *testing.T) {
		key := []byte{1, 2, 3}
		_, err := NewKeyData(key, testSalt())
		assert.ErrorIs(t, err, ErrInvalidKeySize)
		assert.Equal(t, []byte{0, 0, 0}, key)
	})
}

func TestKeyData_Close(t *testing.T) {
	kd, err := NewKeyData(make([]byte, KeyLength), testSalt())
	require.NoError(t, err)

	require.NoError(t, kd.Close())
	assert.Equal(t, base64.StdEncoding.EncodeToString(make([]byte, SaltLength)), kd.SaltBase64())
	assert.Panics(t, func() { _ = kd.Key() })
	assert.NoError(t, kd.Close())

	var nilKey *KeyData
	assert.NoError(t, nilKey.Close())
}

func TestDecodeSalt(t *testing.T) {
	salt := testSalt()
	encoded := base64.StdEncoding.EncodeToString(salt[:])

	t.Run("valid", func(t *testing.T) {
		decoded, err := DecodeSalt(encoded)
		require.NoError(t, err)
		assert.Equal(t, salt, decoded)
	})

	t.Run("round trip through key data", func(t *testing.T) {
		kd, err := NewKeyData(make([]byte, KeyLength), salt)
		require.NoError(t, err)
		defer func() { _ = kd.Close() }()
		assert.Equal(t, encoded, kd.SaltBase64())
	})

	t.Run("invalid base64", func(t *testing.T) {
		_, err := DecodeSalt("not base64!")
		assert.ErrorIs(t, err, ErrInvalidSaltSize)
	})

	t.Run("wrong length", func(t *testing.T) {
		_, err := DecodeSalt(base64.StdEncoding.EncodeToString([]byte("short")))
		assert.ErrorIs(t, err, ErrInvalidSaltSize)
	})
}
