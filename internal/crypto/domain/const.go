package domain

// Sizes of the credential vault primitives.
//
// The vault seals every credential field with AES-256-GCM under a key derived
// from the user password with Argon2id:
//   - 32-byte (256-bit) key
//   - 16-byte random salt per key derivation
//   - 12-byte (96-bit) random nonce per sealed field
//   - 16-byte authentication tag appended to the ciphertext
const (
	KeyLength   = 32
	SaltLength  = 16
	NonceLength = 12
	TagLength   = 16
)

// Argon2id cost parameters. These are the standard defaults (RFC 9106 second
// recommended option, also the RustCrypto defaults) and must never change:
// bundles sealed with one set can only be opened with the same set.
const (
	Argon2Time    uint32 = 2
	Argon2Memory  uint32 = 19 * 1024 // KiB
	Argon2Threads uint8  = 1
)
