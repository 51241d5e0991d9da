package service

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	credentialsDomain "github.com/allisson/credproxy/internal/credentials/domain"
	cryptoDomain "github.com/allisson/credproxy/internal/crypto/domain"
	apperrors "github.com/allisson/credproxy/internal/errors"
)

func deriveTestKey(t *testing.T, v Vault, password string) *cryptoDomain.KeyData {
	t.Helper()
	salt, err := v.NewSalt()
	require.NoError(t, err)

	key, err := v.DeriveKey(password, salt)
	require.NoError(t, err)
	t.Cleanup(func() { _ = key.Close() })
	return key
}

func TestVault_DeriveKey(t *testing.T) {
	v := NewVault(NewKDF())

	t.Run("deterministic for same password and salt", func(t *testing.T) {
		salt := [cryptoDomain.SaltLength]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}

		k1, err := v.DeriveKey("hunter2", salt)
		require.NoError(t, err)
		defer func() { _ = k1.Close() }()
		k2, err := v.DeriveKey("hunter2", salt)
		require.NoError(t, err)
		defer func() { _ = k2.Close() }()

		assert.Len(t, k1.Key(), cryptoDomain.KeyLength)
		assert.Equal(t, k1.Key(), k2.Key())
		assert.Equal(t, base64.StdEncoding.EncodeToString(salt[:]), k1.SaltBase64())
	})

	t.Run("different salts give different keys", func(t *testing.T) {
		k1 := deriveTestKey(t, v, "hunter2")
		k2 := deriveTestKey(t, v, "hunter2")

		assert.NotEqual(t, k1.SaltBase64(), k2.SaltBase64())
		assert.NotEqual(t, k1.Key(), k2.Key())
	})

	t.Run("different passwords give different keys", func(t *testing.T) {
		var salt [cryptoDomain.SaltLength]byte

		k1, err := v.DeriveKey("a", salt)
		require.NoError(t, err)
		defer func() { _ = k1.Close() }()
		k2, err := v.DeriveKey("b", salt)
		require.NoError(t, err)
		defer func() { _ = k2.Close() }()

		assert.NotEqual(t, k1.Key(), k2.Key())
	})

	t.Run("empty password is accepted", func(t *testing.T) {
		key := deriveTestKey(t, v, "")
		assert.Len(t, key.Key(), cryptoDomain.KeyLength)
	})
}

func TestVault_Field(t *testing.T) {
	v := NewVault(NewKDF())
	key := deriveTestKey(t, v, "password")

	t.Run("round trip", func(t *testing.T) {
		for _, plaintext := range []string{"SECRET1", "", "ünïcødé ✓", strings.Repeat("x", 4096)} {
			encoded, err := v.EncryptField(key, plaintext)
			require.NoError(t, err)

			decoded, err := v.DecryptField(key, encoded)
			require.NoError(t, err)
			assert.Equal(t, plaintext, decoded)
		}
	})

	t.Run("invalid utf-8 rejected before sealing", func(t *testing.T) {
		encoded, err := v.EncryptField(key, "\xff\xfe")
		assert.ErrorIs(t, err, cryptoDomain.ErrInvalidPlaintext)
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
		assert.NotErrorIs(t, err, cryptoDomain.ErrDecryptionFailed)
		assert.Empty(t, encoded)
	})

	t.Run("encoding layout", func(t *testing.T) {
		encoded, err := v.EncryptField(key, "abc")
		require.NoError(t, err)

		parts := strings.Split(encoded, ":")
		require.Len(t, parts, 2)

		nonce, err := base64.StdEncoding.DecodeString(parts[0])
		require.NoError(t, err)
		assert.Len(t, nonce, cryptoDomain.NonceLength)

		ciphertext, err := base64.StdEncoding.DecodeString(parts[1])
		require.NoError(t, err)
		assert.Len(t, ciphertext, 3+cryptoDomain.TagLength)
	})

	t.Run("same plaintext encrypts differently", func(t *testing.T) {
		e1, err := v.EncryptField(key, "same")
		require.NoError(t, err)
		e2, err := v.EncryptField(key, "same")
		require.NoError(t, err)
		assert.NotEqual(t, e1, e2)
	})

	t.Run("wrong key", func(t *testing.T) {
		encoded, err := v.EncryptField(key, "abc")
		require.NoError(t, err)

		other := deriveTestKey(t, v, "password")
		_, err = v.DecryptField(other, encoded)
		assert.ErrorIs(t, err, cryptoDomain.ErrDecryptionFailed)
	})

	t.Run("flipped ciphertext bit", func(t *testing.T) {
		encoded, err := v.EncryptField(key, "abc")
		require.NoError(t, err)

		nonceB64, ctB64, _ := strings.Cut(encoded, ":")
		ct, err := base64.StdEncoding.DecodeString(ctB64)
		require.NoError(t, err)
		ct[len(ct)-1] ^= 0x80
		tampered := nonceB64 + ":" + base64.StdEncoding.EncodeToString(ct)

		_, err = v.DecryptField(key, tampered)
		assert.ErrorIs(t, err, cryptoDomain.ErrDecryptionFailed)
	})

	t.Run("malformed input", func(t *testing.T) {
		for _, encoded := range []string{"", "bad:bad", "noseparator", ":", "AAAA:", ":AAAA", "!!!:AAAA"} {
			_, err := v.DecryptField(key, encoded)
			assert.ErrorIs(t, err, cryptoDomain.ErrDecryptionFailed, "input %q", encoded)
		}
	})
}

func TestVault_Credentials(t *testing.T) {
	v := NewVault(NewKDF())
	key := deriveTestKey(t, v, "password")

	creds, err := credentialsDomain.NewPlaintextCredentials("lambda.example", "KEYID", "SECRET1")
	require.NoError(t, err)
	defer func() { _ = creds.Close() }()

	t.Run("round trip", func(t *testing.T) {
		bundle, err := v.EncryptCredentials(creds, key)
		require.NoError(t, err)
		assert.Equal(t, key.SaltBase64(), bundle.SaltB64)
		assert.NotContains(t, bundle.SecretKey, "SECRET1")

		opened, err := v.DecryptCredentials(bundle, key)
		require.NoError(t, err)
		defer func() { _ = opened.Close() }()

		assert.Equal(t, "lambda.example", opened.EndpointHost)
		assert.Equal(t, "KEYID", opened.AccessKeyID)
		assert.Equal(t, "SECRET1", opened.SecretKey.String())
	})

	t.Run("fields use independent nonces", func(t *testing.T) {
		same, err := credentialsDomain.NewPlaintextCredentials("x", "x", "x")
		require.NoError(t, err)
		defer func() { _ = same.Close() }()

		bundle, err := v.EncryptCredentials(same, key)
		require.NoError(t, err)

		nonceOf := func(field string) string {
			n, _, _ := strings.Cut(field, ":")
			return n
		}
		assert.NotEqual(t, nonceOf(bundle.EndpointHost), nonceOf(bundle.AccessKeyID))
		assert.NotEqual(t, nonceOf(bundle.AccessKeyID), nonceOf(bundle.SecretKey))
	})

	t.Run("wrong password fails as a whole", func(t *testing.T) {
		bundle, err := v.EncryptCredentials(creds, key)
		require.NoError(t, err)

		salt, err := cryptoDomain.DecodeSalt(bundle.SaltB64)
		require.NoError(t, err)
		wrong, err := v.DeriveKey("not-the-password", salt)
		require.NoError(t, err)
		defer func() { _ = wrong.Close() }()

		opened, err := v.DecryptCredentials(bundle, wrong)
		assert.ErrorIs(t, err, cryptoDomain.ErrDecryptionFailed)
		assert.Nil(t, opened)
	})

	t.Run("one corrupt field fails", func(t *testing.T) {
		bundle, err := v.EncryptCredentials(creds, key)
		require.NoError(t, err)
		bundle.SecretKey = "bad:bad"

		_, err = v.DecryptCredentials(bundle, key)
		assert.ErrorIs(t, err, cryptoDomain.ErrDecryptionFailed)
	})
}
