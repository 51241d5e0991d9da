package domain

import (
	"github.com/allisson/credproxy/internal/errors"
)

// Vault error definitions. All wrap ErrInvalidInput so the HTTP layer
// reports them as 422 without leaking which check failed.
var (
	// ErrInvalidKeySize indicates a key that is not exactly KeyLength bytes.
	ErrInvalidKeySize = errors.Wrap(errors.ErrInvalidInput, "invalid key size")

	// ErrInvalidSaltSize indicates a salt that is not exactly SaltLength bytes,
	// or a salt that is not valid base64.
	ErrInvalidSaltSize = errors.Wrap(errors.ErrInvalidInput, "invalid salt")

	// ErrInvalidPlaintext indicates a field value that is not valid UTF-8.
	ErrInvalidPlaintext = errors.Wrap(errors.ErrInvalidInput, "plaintext is not valid UTF-8")

	// ErrInvalidKMSKeyURI indicates a blob store key URI with a missing or
	// unknown scheme.
	ErrInvalidKMSKeyURI = errors.Wrap(errors.ErrInvalidInput, "invalid kms key uri")

	// ErrDecryptionFailed indicates an encoded field could not be opened.
	//
	// Causes are deliberately collapsed into this one error:
	//   - missing ':' separator or an empty nonce/ciphertext segment
	//   - invalid base64 in either segment
	//   - nonce of the wrong length
	//   - GCM authentication failure (wrong key or tampered ciphertext)
	//   - plaintext that is not valid UTF-8
	ErrDecryptionFailed = errors.Wrap(errors.ErrInvalidInput, "decryption failed")
)
