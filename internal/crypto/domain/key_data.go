package domain

import (
	"encoding/base64"

	"github.com/allisson/credproxy/internal/secret"
)

// KeyData is a derived vault key together with the salt it was derived from.
//
// The key lives in a guarded secret.Buffer. Whoever owns a KeyData must call
// Close when it is superseded or dropped; Close zeroes the key and the salt.
// KeyData is never serialized, only its salt travels (base64) inside a bundle.
type KeyData struct {
	key  *secret.Buffer
	salt [SaltLength]byte
}

// NewKeyData takes ownership of key, moving it into a guarded buffer and
// wiping the caller's slice. key must be exactly KeyLength bytes.
func NewKeyData(key []byte, salt [SaltLength]byte) (*KeyData, error) {
	if len(key) != KeyLength {
		secret.Wipe(key)
		return nil, ErrInvalidKeySize
	}

	buf, err := secret.NewFromBytes(key)
	if err != nil {
		return nil, err
	}

	return &KeyData{key: buf, salt: salt}, nil
}

// Key returns the raw key bytes. The slice aliases guarded memory and must
// not be retained past Close.
func (k *KeyData) Key() []byte {
	return k.key.Bytes()
}

// SaltBase64 returns the salt in the standard padded base64 used by bundles.
func (k *KeyData) SaltBase64() string {
	return base64.StdEncoding.EncodeToString(k.salt[:])
}

// Close wipes the key and salt. Safe to call more than once and on nil.
func (k *KeyData) Close() error {
	if k == nil {
		return nil
	}
	secret.Wipe(k.salt[:])
	return k.key.Close()
}

// DecodeSalt parses a base64 salt and checks its length.
func DecodeSalt(saltB64 string) ([SaltLength]byte, error) {
	var salt [SaltLength]byte

	decoded, err := base64.StdEncoding.DecodeString(saltB64)
	if err != nil {
		return salt, ErrInvalidSaltSize
	}
	if len(decoded) != SaltLength {
		return salt, ErrInvalidSaltSize
	}

	copy(salt[:], decoded)
	return salt, nil
}
