package service

import (
	"encoding/base64"
	"fmt"
	"strings"
	"unicode/utf8"

	credentialsDomain "github.com/allisson/credproxy/internal/credentials/domain"
	cryptoDomain "github.com/allisson/credproxy/internal/crypto/domain"
	"github.com/allisson/credproxy/internal/secret"
)

// fieldSeparator splits the nonce segment from the ciphertext segment.
const fieldSeparator = ":"

// vaultService implements Vault on top of Argon2id and AES-256-GCM.
type vaultService struct {
	KDF
}

// NewVault creates the credential vault.
func NewVault(kdf KDF) Vault {
	return &vaultService{KDF: kdf}
}

func (v *vaultService) cipher(key *cryptoDomain.KeyData) (AEAD, error) {
	return NewAESGCM(key.Key())
}

// EncryptField seals plaintext under a fresh nonce. Plaintext must be valid
// UTF-8 so that every sealed field can be opened again.
func (v *vaultService) EncryptField(key *cryptoDomain.KeyData, plaintext string) (string, error) {
	if !utf8.ValidString(plaintext) {
		return "", cryptoDomain.ErrInvalidPlaintext
	}

	aead, err := v.cipher(key)
	if err != nil {
		return "", err
	}

	ciphertext, nonce, err := aead.Encrypt([]byte(plaintext), nil)
	if err != nil {
		return "", fmt.Errorf("failed to encrypt field: %w", err)
	}

	return base64.StdEncoding.EncodeToString(nonce) +
		fieldSeparator +
		base64.StdEncoding.EncodeToString(ciphertext), nil
}

// DecryptField splits encoded on the first ':' and opens it.
func (v *vaultService) DecryptField(key *cryptoDomain.KeyData, encoded string) (string, error) {
	nonceB64, ciphertextB64, found := strings.Cut(encoded, fieldSeparator)
	if !found || nonceB64 == "" || ciphertextB64 == "" {
		return "", cryptoDomain.ErrDecryptionFailed
	}

	nonce, err := base64.StdEncoding.DecodeString(nonceB64)
	if err != nil {
		return "", cryptoDomain.ErrDecryptionFailed
	}
	ciphertext, err := base64.StdEncoding.DecodeString(ciphertextB64)
	if err != nil {
		return "", cryptoDomain.ErrDecryptionFailed
	}

	aead, err := v.cipher(key)
	if err != nil {
		return "", err
	}

	plaintext, err := aead.Decrypt(ciphertext, nonce, nil)
	if err != nil {
		return "", cryptoDomain.ErrDecryptionFailed
	}
	defer secret.Wipe(plaintext)

	if !utf8.Valid(plaintext) {
		return "", cryptoDomain.ErrDecryptionFailed
	}

	return string(plaintext), nil
}

// EncryptCredentials seals host, key id and secret key independently and
// records the key's salt.
func (v *vaultService) EncryptCredentials(
	creds *credentialsDomain.PlaintextCredentials,
	key *cryptoDomain.KeyData,
) (*credentialsDomain.EncryptedBundle, error) {
	host, err := v.EncryptField(key, creds.EndpointHost)
	if err != nil {
		return nil, err
	}
	keyID, err := v.EncryptField(key, creds.AccessKeyID)
	if err != nil {
		return nil, err
	}
	secretKey, err := v.EncryptField(key, creds.SecretKey.String())
	if err != nil {
		return nil, err
	}

	return &credentialsDomain.EncryptedBundle{
		SaltB64:      key.SaltBase64(),
		EndpointHost: host,
		AccessKeyID:  keyID,
		SecretKey:    secretKey,
	}, nil
}

// DecryptCredentials opens every field; the first failure aborts the whole
// operation and nothing partial is returned.
func (v *vaultService) DecryptCredentials(
	bundle *credentialsDomain.EncryptedBundle,
	key *cryptoDomain.KeyData,
) (*credentialsDomain.PlaintextCredentials, error) {
	host, err := v.DecryptField(key, bundle.EndpointHost)
	if err != nil {
		return nil, err
	}
	keyID, err := v.DecryptField(key, bundle.AccessKeyID)
	if err != nil {
		return nil, err
	}
	secretKey, err := v.DecryptField(key, bundle.SecretKey)
	if err != nil {
		return nil, err
	}

	return credentialsDomain.NewPlaintextCredentials(host, keyID, secretKey)
}
