// Package httputil writes the JSON error bodies returned by the API.
package httputil

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"

	apperrors "github.com/allisson/credproxy/internal/errors"
)

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// errorMapping describes how one error kind is reported. An empty message
// echoes err.Error() to the client.
type errorMapping struct {
	status  int
	code    string
	message string
}

var errorMappings = map[error]errorMapping{
	apperrors.ErrNotFound:     {http.StatusNotFound, "not_found", "The requested resource was not found"},
	apperrors.ErrInvalidInput: {http.StatusUnprocessableEntity, "invalid_input", ""},
	apperrors.ErrUnauthorized: {http.StatusUnauthorized, "unauthorized", "Authentication is required"},
	apperrors.ErrNotReady:     {http.StatusServiceUnavailable, "not_ready", "Credentials are not unlocked"},
	apperrors.ErrUnavailable:  {http.StatusBadGateway, "backend_unavailable", "The backend could not be reached"},
}

var internalError = errorMapping{http.StatusInternalServerError, "internal_error", "An internal error occurred"}

// HandleErrorGin writes the status and body for err's kind. Unclassified
// errors become a 500 whose body hides the cause. Server-side failures are
// logged at error level, client mistakes at warn.
func HandleErrorGin(c *gin.Context, err error, logger *slog.Logger) {
	if err == nil {
		return
	}

	mapping, ok := errorMappings[apperrors.Kind(err)]
	if !ok {
		mapping = internalError
	}
	message := mapping.message
	if message == "" {
		message = err.Error()
	}

	if logger != nil {
		level := slog.LevelWarn
		if mapping.status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.Log(requestContext(c), level, "request failed",
			slog.Int("status_code", mapping.status),
			slog.String("error_code", mapping.code),
			slog.Any("error", err),
		)
	}

	writeError(c, mapping.status, mapping.code, message)
}

// HandleBadRequestGin writes a 400 for a body that is not valid JSON.
func HandleBadRequestGin(c *gin.Context, err error, logger *slog.Logger) {
	if logger != nil {
		logger.Warn("bad request", slog.Any("error", err))
	}
	writeError(c, http.StatusBadRequest, "bad_request", err.Error())
}

// HandleValidationErrorGin writes a 422 for a request that failed validation.
func HandleValidationErrorGin(c *gin.Context, err error, logger *slog.Logger) {
	if logger != nil {
		logger.Warn("validation failed", slog.Any("error", err))
	}
	writeError(c, http.StatusUnprocessableEntity, "validation_error", err.Error())
}

func writeError(c *gin.Context, status int, code, message string) {
	c.JSON(status, ErrorResponse{
		Error:     code,
		Message:   message,
		RequestID: requestID(c),
	})
}

func requestContext(c *gin.Context) context.Context {
	if c.Request == nil {
		return context.Background()
	}
	return c.Request.Context()
}

func requestID(c *gin.Context) string {
	if c.Request == nil {
		return ""
	}
	return requestid.Get(c)
}
