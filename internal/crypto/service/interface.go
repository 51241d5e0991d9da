// Package service provides the credential vault: Argon2id key derivation and
// AES-256-GCM sealing of individual credential fields and whole bundles.
package service

import (
	credentialsDomain "github.com/allisson/credproxy/internal/credentials/domain"
	cryptoDomain "github.com/allisson/credproxy/internal/crypto/domain"
)

// AEAD defines the interface for Authenticated Encryption with Associated Data.
type AEAD interface {
	// Encrypt encrypts plaintext with optional AAD and returns ciphertext and nonce.
	Encrypt(plaintext, aad []byte) (ciphertext, nonce []byte, err error)

	// Decrypt decrypts ciphertext using the provided nonce and AAD.
	Decrypt(ciphertext, nonce, aad []byte) ([]byte, error)
}

// KDF derives vault keys from user passwords.
type KDF interface {
	// NewSalt returns a fresh random salt.
	NewSalt() ([cryptoDomain.SaltLength]byte, error)

	// DeriveKey deterministically derives a 32-byte key. The caller owns the
	// returned KeyData and must Close it.
	DeriveKey(password string, salt [cryptoDomain.SaltLength]byte) (*cryptoDomain.KeyData, error)
}

// Vault seals and opens credentials.
type Vault interface {
	KDF

	// EncryptField seals one string as base64(nonce) + ":" + base64(ciphertext||tag).
	EncryptField(key *cryptoDomain.KeyData, plaintext string) (string, error)

	// DecryptField opens an encoded field. Every failure is ErrDecryptionFailed.
	DecryptField(key *cryptoDomain.KeyData, encoded string) (string, error)

	// EncryptCredentials seals each credential field under its own nonce.
	EncryptCredentials(
		creds *credentialsDomain.PlaintextCredentials,
		key *cryptoDomain.KeyData,
	) (*credentialsDomain.EncryptedBundle, error)

	// DecryptCredentials opens all three fields or fails as a whole.
	DecryptCredentials(
		bundle *credentialsDomain.EncryptedBundle,
		key *cryptoDomain.KeyData,
	) (*credentialsDomain.PlaintextCredentials, error)
}
