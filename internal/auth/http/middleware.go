// Package http provides HTTP middleware guarding the API: bearer token
// authentication and per-IP rate limiting.
package http

import (
	"crypto/subtle"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/gin-gonic/gin"

	authService "github.com/allisson/credproxy/internal/auth/service"
	apperrors "github.com/allisson/credproxy/internal/errors"
	"github.com/allisson/credproxy/internal/httputil"
)

// AuthenticationMiddleware requires "Authorization: Bearer <token>" where the
// token matches tokenHash (a go-pwdhash PHC string).
//
// Argon2id verification is slow, so the fingerprint of the last verified
// token is cached and later requests carrying the same token skip the hash.
//
// Error handling:
//   - Missing or malformed Authorization header → 401 Unauthorized
//   - Token does not match → 401 Unauthorized
func AuthenticationMiddleware(
	tokenHash string,
	tokenService authService.APITokenService,
	logger *slog.Logger,
) gin.HandlerFunc {
	var verified atomic.Pointer[string]

	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			logger.Debug("authentication failed: missing authorization header")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		// Parse Bearer token (case-insensitive)
		const bearerPrefix = "bearer "
		if len(authHeader) < len(bearerPrefix) ||
			!strings.EqualFold(authHeader[:len(bearerPrefix)], bearerPrefix) {
			logger.Debug("authentication failed: malformed authorization header")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		plainToken := authHeader[len(bearerPrefix):]
		if plainToken == "" {
			logger.Debug("authentication failed: empty bearer token")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		fingerprint := tokenService.Fingerprint(plainToken)
		if cached := verified.Load(); cached != nil &&
			subtle.ConstantTimeCompare([]byte(*cached), []byte(fingerprint)) == 1 {
			c.Next()
			return
		}

		if !tokenService.VerifyToken(plainToken, tokenHash) {
			logger.Debug("authentication failed: token mismatch")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		verified.Store(&fingerprint)
		logger.Debug("authentication successful")

		c.Next()
	}
}
