package proxy

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	apperrors "github.com/allisson/credproxy/internal/errors"
)

// ErrProxyStopped is returned by Client calls once the proxy has shut down.
var ErrProxyStopped = apperrors.Wrap(apperrors.ErrUnavailable, "proxy stopped")

// Client turns the proxy's channel protocol into blocking calls. Each call is
// a separate caller; responses are matched back by CallerID.
type Client struct {
	proxy  *Proxy
	logger *slog.Logger

	mu      sync.Mutex
	pending map[CallerID]chan Response
	stopped bool
}

// NewClient creates a Client for p. Start Dispatch on its own goroutine.
func NewClient(p *Proxy, logger *slog.Logger) *Client {
	return &Client{
		proxy:   p,
		logger:  logger,
		pending: make(map[CallerID]chan Response),
	}
}

// Dispatch routes deliveries to waiting calls until the proxy's outbound
// channel closes, then fails every call still waiting.
func (c *Client) Dispatch() {
	for d := range c.proxy.Outbound() {
		c.mu.Lock()
		ch, ok := c.pending[d.Caller]
		delete(c.pending, d.Caller)
		c.mu.Unlock()

		if !ok {
			c.logger.Debug("dropping response for departed caller", slog.String("caller", string(d.Caller)))
			continue
		}
		ch <- d.Response
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopped = true
	for caller, ch := range c.pending {
		close(ch)
		delete(c.pending, caller)
	}
}

// Call submits req and waits for its response.
func (c *Client) Call(ctx context.Context, req Request) (Response, error) {
	caller := CallerID(uuid.NewString())
	ch := make(chan Response, 1)

	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return nil, ErrProxyStopped
	}
	c.pending[caller] = ch
	c.mu.Unlock()

	select {
	case c.proxy.Inbound() <- Envelope{Caller: caller, Request: req}:
	case <-c.proxy.Done():
		c.forget(caller)
		return nil, ErrProxyStopped
	case <-ctx.Done():
		c.forget(caller)
		return nil, ctx.Err()
	}

	select {
	case resp, ok := <-ch:
		if !ok {
			return nil, ErrProxyStopped
		}
		return resp, nil
	case <-ctx.Done():
		c.forget(caller)
		return nil, ctx.Err()
	}
}

func (c *Client) forget(caller CallerID) {
	c.mu.Lock()
	delete(c.pending, caller)
	c.mu.Unlock()
}

// Status returns the proxy's current status.
func (c *Client) Status(ctx context.Context) (Status, error) {
	resp, err := c.Call(ctx, StatusRequest{})
	if err != nil {
		return StatusNotReady, err
	}
	return statusOf(resp)
}

// SetCredsPlaintext sets up new credentials and returns the encrypted bundle
// JSON once it has been persisted.
func (c *Client) SetCredsPlaintext(ctx context.Context, req SetCredsPlaintext) ([]byte, error) {
	resp, err := c.Call(ctx, req)
	if err != nil {
		return nil, err
	}

	status, ok := resp.(StatusResponse)
	if !ok || status.Status != StatusCredsEncrypted {
		return nil, apperrors.Wrap(apperrors.ErrNotReady, "credentials were not set up")
	}
	return status.Bundle, nil
}

// SetCredsEncrypted unlocks a bundle. An empty bundle unlocks the stored one.
// A wrong password or unusable bundle returns errors.ErrNotReady.
func (c *Client) SetCredsEncrypted(ctx context.Context, password string, bundle []byte) error {
	resp, err := c.Call(ctx, SetCredsEncrypted{Password: password, Bundle: bundle})
	if err != nil {
		return err
	}

	status, err := statusOf(resp)
	if err != nil {
		return err
	}
	if status != StatusReady {
		return apperrors.Wrap(apperrors.ErrNotReady, "credentials could not be unlocked")
	}
	return nil
}

// Backend signs and sends payload, returning the backend's response body.
func (c *Client) Backend(ctx context.Context, payload []byte) ([]byte, error) {
	resp, err := c.Call(ctx, BackendRequest{Payload: payload})
	if err != nil {
		return nil, err
	}

	switch r := resp.(type) {
	case BackendResponse:
		if r.Err != nil {
			return nil, apperrors.Wrap(apperrors.ErrUnavailable, r.Err.Error())
		}
		return r.Body, nil
	case StatusResponse:
		return nil, apperrors.ErrNotReady
	default:
		return nil, apperrors.Wrapf(ErrInvariantViolation, "unexpected response %T", resp)
	}
}

func statusOf(resp Response) (Status, error) {
	status, ok := resp.(StatusResponse)
	if !ok {
		return StatusNotReady, apperrors.Wrapf(ErrInvariantViolation, "unexpected response %T", resp)
	}
	return status.Status, nil
}
