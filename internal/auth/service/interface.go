// Package service provides the API token service guarding the HTTP API.
//
// Tokens are random 32-byte values handed to operators once. Only an Argon2id
// hash (go-pwdhash PHC string) is configured on the server.
package service

// APITokenService defines operations for API token generation and verification.
type APITokenService interface {
	// GenerateToken creates a new random token and its hash. The plain token
	// is shown once and never stored.
	GenerateToken() (plainToken string, tokenHash string, err error)

	// HashToken hashes a plain token with Argon2id.
	HashToken(plainToken string) (string, error)

	// VerifyToken reports whether plainToken matches tokenHash. It is
	// constant-time with respect to the token.
	VerifyToken(plainToken string, tokenHash string) bool

	// Fingerprint returns a fast SHA-256 digest of plainToken, used to cache a
	// successful verification.
	Fingerprint(plainToken string) string
}
