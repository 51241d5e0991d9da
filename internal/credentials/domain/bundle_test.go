package domain

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/credproxy/internal/errors"
)

func sampleBundle() *EncryptedBundle {
	return &EncryptedBundle{
		SaltB64:      "AAECAwQFBgcICQoLDA0ODw==",
		EndpointHost: "bm9uY2U=:Y2lwaGVy",
		AccessKeyID:  "bm9uY2U=:a2V5aWQ=",
		SecretKey:    "bm9uY2U=:c2VjcmV0",
	}
}

func TestEncryptedBundle_Marshal(t *testing.T) {
	data, err := sampleBundle().Marshal()
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"salt": "AAECAwQFBgcICQoLDA0ODw==",
		"lambda_host": "bm9uY2U=:Y2lwaGVy",
		"key_id": "bm9uY2U=:a2V5aWQ=",
		"access_key": "bm9uY2U=:c2VjcmV0"
	}`, string(data))
}

func TestUnmarshalBundle(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		data, err := sampleBundle().Marshal()
		require.NoError(t, err)

		bundle, err := UnmarshalBundle(data)
		require.NoError(t, err)
		assert.Equal(t, sampleBundle(), bundle)
	})

	t.Run("invalid json", func(t *testing.T) {
		_, err := UnmarshalBundle([]byte("{not json"))
		assert.ErrorIs(t, err, ErrMalformedBlob)
		assert.True(t, errors.Is(err, errors.ErrInvalidInput))
	})

	t.Run("missing field", func(t *testing.T) {
		_, err := UnmarshalBundle([]byte(`{"salt":"AAECAwQFBgcICQoLDA0ODw=="}`))
		assert.ErrorIs(t, err, ErrMalformedBlob)
	})
}

func TestBlobCodec(t *testing.T) {
	data, err := sampleBundle().Marshal()
	require.NoError(t, err)

	t.Run("round trip", func(t *testing.T) {
		blob := EncodeBlob(data)
		assert.Equal(t, base64.StdEncoding.EncodeToString(data), string(blob))

		decoded, err := DecodeBlob(blob)
		require.NoError(t, err)
		assert.Equal(t, data, decoded)
	})

	t.Run("not base64", func(t *testing.T) {
		_, err := DecodeBlob([]byte("%%%"))
		assert.ErrorIs(t, err, ErrMalformedBlob)
	})

	t.Run("base64 of garbage", func(t *testing.T) {
		_, err := DecodeBlob(EncodeBlob([]byte("garbage")))
		assert.ErrorIs(t, err, ErrMalformedBlob)
	})
}

func TestPlaintextCredentials(t *testing.T) {
	creds, err := NewPlaintextCredentials("host.example", "AKIA1", "SECRET1")
	require.NoError(t, err)

	assert.Equal(t, "host.example", creds.EndpointHost)
	assert.Equal(t, "AKIA1", creds.AccessKeyID)
	assert.Equal(t, "SECRET1", creds.SecretKey.String())

	require.NoError(t, creds.Close())
	assert.Panics(t, func() { _ = creds.SecretKey.Bytes() })

	var nilCreds *PlaintextCredentials
	assert.NoError(t, nilCreds.Close())
}
