package http

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/credproxy/internal/auth/service/mocks"
	"github.com/allisson/credproxy/internal/httputil"
)

const testTokenHash = "$argon2id$v=19$m=65536,t=3,p=4$c2FsdA$aGFzaA"

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func newAuthRouter(tokenService *mocks.MockAPITokenService) *gin.Engine {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	router := gin.New()
	router.Use(AuthenticationMiddleware(testTokenHash, tokenService, logger))
	router.GET("/v1/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return router
}

func doAuthRequest(router *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/status", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	router.ServeHTTP(w, req)
	return w
}

func TestAuthenticationMiddleware(t *testing.T) {
	t.Run("Success_ValidToken", func(t *testing.T) {
		tokenService := &mocks.MockAPITokenService{}
		tokenService.On("Fingerprint", "good-token").Return("fp-good")
		tokenService.On("VerifyToken", "good-token", testTokenHash).Return(true).Once()

		w := doAuthRequest(newAuthRouter(tokenService), "Bearer good-token")

		assert.Equal(t, http.StatusOK, w.Code)
		tokenService.AssertExpectations(t)
	})

	t.Run("Success_CaseInsensitiveScheme", func(t *testing.T) {
		tokenService := &mocks.MockAPITokenService{}
		tokenService.On("Fingerprint", "good-token").Return("fp-good")
		tokenService.On("VerifyToken", "good-token", testTokenHash).Return(true)

		w := doAuthRequest(newAuthRouter(tokenService), "bEaReR good-token")

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Success_VerifiedTokenIsCached", func(t *testing.T) {
		tokenService := &mocks.MockAPITokenService{}
		tokenService.On("Fingerprint", "good-token").Return("fp-good")
		tokenService.On("VerifyToken", "good-token", testTokenHash).Return(true).Once()
		router := newAuthRouter(tokenService)

		for i := 0; i < 3; i++ {
			w := doAuthRequest(router, "Bearer good-token")
			assert.Equal(t, http.StatusOK, w.Code)
		}

		tokenService.AssertNumberOfCalls(t, "VerifyToken", 1)
	})

	t.Run("Error_WrongTokenAfterCachedToken", func(t *testing.T) {
		tokenService := &mocks.MockAPITokenService{}
		tokenService.On("Fingerprint", "good-token").Return("fp-good")
		tokenService.On("Fingerprint", "bad-token").Return("fp-bad")
		tokenService.On("VerifyToken", "good-token", testTokenHash).Return(true)
		tokenService.On("VerifyToken", "bad-token", testTokenHash).Return(false)
		router := newAuthRouter(tokenService)

		assert.Equal(t, http.StatusOK, doAuthRequest(router, "Bearer good-token").Code)
		assert.Equal(t, http.StatusUnauthorized, doAuthRequest(router, "Bearer bad-token").Code)
	})

	tests := []struct {
		name   string
		header string
	}{
		{"Error_MissingHeader", ""},
		{"Error_WrongScheme", "Basic dXNlcjpwYXNz"},
		{"Error_EmptyToken", "Bearer "},
		{"Error_TooShort", "Bear"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokenService := &mocks.MockAPITokenService{}

			w := doAuthRequest(newAuthRouter(tokenService), tt.header)

			assert.Equal(t, http.StatusUnauthorized, w.Code)

			var response httputil.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
			assert.Equal(t, "unauthorized", response.Error)
			tokenService.AssertNotCalled(t, "VerifyToken")
		})
	}

	t.Run("Error_TokenMismatch", func(t *testing.T) {
		tokenService := &mocks.MockAPITokenService{}
		tokenService.On("Fingerprint", "bad-token").Return("fp-bad")
		tokenService.On("VerifyToken", "bad-token", testTokenHash).Return(false)

		w := doAuthRequest(newAuthRouter(tokenService), "Bearer bad-token")

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
