// Package transport delivers signed requests to the credential backend.
package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	apperrors "github.com/allisson/credproxy/internal/errors"
	"github.com/allisson/credproxy/internal/signer"
)

// MaxResponseBytes is the largest backend response body accepted. Larger
// bodies fail the request instead of being truncated.
const MaxResponseBytes = 10 << 20

// Request is one signed outbound call.
type Request struct {
	Signed signer.SignedRequest
	Body   []byte
}

// Sender sends a signed request and returns the raw response body.
type Sender interface {
	Send(ctx context.Context, req *Request) ([]byte, error)
}

// HTTPSender posts signed requests to https://{host}/.
//
// The response body is returned for every HTTP status; interpreting backend
// errors is up to the caller. Only a failure to complete the exchange is an
// error. Timeouts come from the underlying http.Client.
type HTTPSender struct {
	client *http.Client
	scheme string
	logger *slog.Logger
}

// NewHTTPSender creates an HTTPSender. An empty scheme means "https".
func NewHTTPSender(client *http.Client, scheme string, logger *slog.Logger) *HTTPSender {
	if scheme == "" {
		scheme = "https"
	}
	return &HTTPSender{
		client: client,
		scheme: scheme,
		logger: logger,
	}
}

// NewHTTPClient returns an http.Client with the given overall timeout.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// Send performs the POST.
func (s *HTTPSender) Send(ctx context.Context, req *Request) ([]byte, error) {
	url := s.scheme + "://" + req.Signed.Host + "/"

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(req.Body))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
	}

	httpReq.Host = req.Signed.Host
	httpReq.Header.Set(signer.HeaderContentType, req.Signed.ContentType)
	httpReq.Header.Set(signer.HeaderAmzDate, req.Signed.AmzDate)
	httpReq.Header.Set(signer.HeaderAuthorization, req.Signed.Authorization)

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrUnavailable, fmt.Sprintf("backend request failed: %v", err))
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			s.logger.Error("failed to close backend response body", slog.Any("error", closeErr))
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseBytes+1))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrUnavailable, fmt.Sprintf("failed to read backend response: %v", err))
	}
	if len(body) > MaxResponseBytes {
		return nil, apperrors.Wrap(apperrors.ErrUnavailable, "backend response too large")
	}

	if resp.StatusCode >= http.StatusBadRequest {
		s.logger.Warn("backend returned error status",
			slog.Int("status", resp.StatusCode),
			slog.Int("response_bytes", len(body)),
		)
	}

	return body, nil
}
