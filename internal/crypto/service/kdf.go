package service

import (
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/argon2"

	cryptoDomain "github.com/allisson/credproxy/internal/crypto/domain"
)

// argon2KDF derives vault keys with Argon2id using the fixed parameters in
// crypto/domain. The output length is always passed explicitly.
type argon2KDF struct{}

// NewKDF returns the Argon2id key derivation function.
func NewKDF() KDF {
	return &argon2KDF{}
}

// NewSalt returns SaltLength bytes from crypto/rand.
func (k *argon2KDF) NewSalt() ([cryptoDomain.SaltLength]byte, error) {
	var salt [cryptoDomain.SaltLength]byte
	if _, err := rand.Read(salt[:]); err != nil {
		return salt, fmt.Errorf("failed to generate salt: %w", err)
	}
	return salt, nil
}

// DeriveKey runs Argon2id over password and salt. Identical inputs always
// produce identical key bytes.
func (k *argon2KDF) DeriveKey(password string, salt [cryptoDomain.SaltLength]byte) (*cryptoDomain.KeyData, error) {
	key := argon2.IDKey(
		[]byte(password),
		salt[:],
		cryptoDomain.Argon2Time,
		cryptoDomain.Argon2Memory,
		cryptoDomain.Argon2Threads,
		cryptoDomain.KeyLength,
	)

	// NewKeyData moves key into guarded memory and wipes this slice.
	return cryptoDomain.NewKeyData(key, salt)
}
