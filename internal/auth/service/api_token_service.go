package service

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"

	"github.com/allisson/go-pwdhash"

	apperrors "github.com/allisson/credproxy/internal/errors"
)

// apiTokenService implements APITokenService using Argon2id for hashing.
type apiTokenService struct {
	hasher *pwdhash.PasswordHasher
}

// GenerateToken creates a new cryptographically secure 32-byte random token.
// The token is base64 URL-encoded for use in an Authorization header.
func (s *apiTokenService) GenerateToken() (plainToken string, tokenHash string, err error) {
	randomBytes := make([]byte, 32)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", "", apperrors.Wrap(err, "failed to generate random token")
	}

	plainToken = base64.URLEncoding.EncodeToString(randomBytes)

	tokenHash, err = s.HashToken(plainToken)
	if err != nil {
		return "", "", err
	}

	return plainToken, tokenHash, nil
}

// HashToken hashes a plain token using Argon2id.
func (s *apiTokenService) HashToken(plainToken string) (string, error) {
	if plainToken == "" {
		return "", apperrors.Wrap(apperrors.ErrInvalidInput, "token cannot be empty")
	}
	tokenHash, err := s.hasher.Hash([]byte(plainToken))
	if err != nil {
		return "", apperrors.Wrap(err, "failed to hash token")
	}
	return tokenHash, nil
}

// VerifyToken performs a constant-time comparison between a plain token and its hash.
func (s *apiTokenService) VerifyToken(plainToken string, tokenHash string) bool {
	if plainToken == "" || tokenHash == "" {
		return false
	}
	ok, err := s.hasher.Verify([]byte(plainToken), tokenHash)
	if err != nil {
		return false
	}
	return ok
}

// Fingerprint hashes a plain token using SHA-256 and returns it hex encoded.
func (s *apiTokenService) Fingerprint(plainToken string) string {
	hash := sha256.Sum256([]byte(plainToken))
	return hex.EncodeToString(hash[:])
}

// NewAPITokenService creates a new APITokenService using the Moderate policy.
func NewAPITokenService() APITokenService {
	hasher, err := pwdhash.New(
		pwdhash.WithPolicy(pwdhash.PolicyModerate),
	)
	if err != nil {
		// This should never happen with valid policy
		panic(err)
	}

	return &apiTokenService{
		hasher: hasher,
	}
}
