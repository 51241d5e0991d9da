// Package http provides the HTTP handlers in front of the backend proxy:
// status, credential setup and unlock, and signed backend calls.
package http

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	credentialsUseCase "github.com/allisson/credproxy/internal/credentials/usecase"
	apperrors "github.com/allisson/credproxy/internal/errors"
	"github.com/allisson/credproxy/internal/httputil"
	"github.com/allisson/credproxy/internal/proxy"
	"github.com/allisson/credproxy/internal/proxy/http/dto"
	customValidation "github.com/allisson/credproxy/internal/validation"
)

// MaxPayloadBytes bounds a backend request body.
const MaxPayloadBytes = 1 << 20

// ProxyClient is the subset of proxy.Client used by the handlers.
type ProxyClient interface {
	Status(ctx context.Context) (proxy.Status, error)
	SetCredsPlaintext(ctx context.Context, req proxy.SetCredsPlaintext) ([]byte, error)
	SetCredsEncrypted(ctx context.Context, password string, bundle []byte) error
	Backend(ctx context.Context, payload []byte) ([]byte, error)
}

// ProxyHandler handles HTTP requests for the backend proxy.
type ProxyHandler struct {
	client ProxyClient
	store  credentialsUseCase.CredentialStore
	logger *slog.Logger
}

// NewProxyHandler creates a new proxy handler with required dependencies.
func NewProxyHandler(
	client ProxyClient,
	store credentialsUseCase.CredentialStore,
	logger *slog.Logger,
) *ProxyHandler {
	return &ProxyHandler{
		client: client,
		store:  store,
		logger: logger,
	}
}

// StatusHandler reports the proxy status.
// GET /v1/status - Returns 200 OK with {"status": "not_ready"|"ready"}.
func (h *ProxyHandler) StatusHandler(c *gin.Context) {
	status, err := h.client.Status(c.Request.Context())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapStatusToResponse(status))
}

// SetupHandler encrypts plaintext credentials, persists the bundle and returns it.
// POST /v1/credentials - Returns 201 Created with the base64 bundle.
// The proxy holds the new credentials and is ready once this returns.
func (h *ProxyHandler) SetupHandler(c *gin.Context) {
	var req dto.SetupCredentialsRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	bundle, err := h.client.SetCredsPlaintext(c.Request.Context(), req.ToProxyRequest())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapBundleToStatusResponse(bundle))
}

// UnlockHandler unlocks a bundle, or the stored one when none is given.
// POST /v1/credentials/unlock - Returns 200 OK with {"status": "ready"}.
// A wrong password or unusable bundle returns 422 and leaves the proxy as it was.
func (h *ProxyHandler) UnlockHandler(c *gin.Context) {
	var req dto.UnlockCredentialsRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	err := h.client.SetCredsEncrypted(c.Request.Context(), req.Password, req.BundleBytes())
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotReady) {
			err = apperrors.Wrap(apperrors.ErrInvalidInput, "credentials could not be unlocked")
		}
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapStatusToResponse(proxy.StatusReady))
}

// BundleHandler returns the stored encrypted bundle so a frontend can unlock later.
// GET /v1/credentials - Returns 200 OK with the base64 bundle, 404 when nothing is stored.
func (h *ProxyHandler) BundleHandler(c *gin.Context) {
	bundle, err := h.store.Load(c.Request.Context())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapBundleToResponse(bundle))
}

// BackendHandler signs the raw request body, sends it to the backend and
// relays the backend's body.
// POST /v1/backend - Returns 200 OK with the backend body,
// 503 when no credentials are unlocked, 502 when the backend is unreachable.
func (h *ProxyHandler) BackendHandler(c *gin.Context) {
	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, MaxPayloadBytes))
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	body, err := h.client.Backend(c.Request.Context(), payload)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Data(http.StatusOK, "application/json", body)
}
