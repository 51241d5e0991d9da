// Package proxy owns the unlocked credentials and is the only component that
// signs backend requests with them.
//
// A Proxy runs a single event loop (Run). Callers talk to it through the
// Inbound and Outbound channels, usually via Client. Backend calls run on
// their own goroutines; their responses pass through a ResponseQueue so each
// caller sees them in submission order.
package proxy

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	credentialsDomain "github.com/allisson/credproxy/internal/credentials/domain"
	credentialsUsecase "github.com/allisson/credproxy/internal/credentials/usecase"
	cryptoDomain "github.com/allisson/credproxy/internal/crypto/domain"
	cryptoService "github.com/allisson/credproxy/internal/crypto/service"
	apperrors "github.com/allisson/credproxy/internal/errors"
	"github.com/allisson/credproxy/internal/metrics"
	"github.com/allisson/credproxy/internal/signer"
	"github.com/allisson/credproxy/internal/transport"
)

// ErrInvariantViolation marks a request aborted by a panic while it was
// being signed or sent.
var ErrInvariantViolation = apperrors.New("internal invariant violation")

// DefaultOutboundBuffer is the outbound channel capacity used when Config
// leaves it at zero.
const DefaultOutboundBuffer = 64

// storeTimeout bounds a single credential store read or write.
const storeTimeout = 10 * time.Second

// Config tunes a Proxy.
type Config struct {
	// OutboundBuffer is the capacity of the Outbound channel.
	OutboundBuffer int

	// Now supplies request timestamps. Defaults to time.Now.
	Now func() time.Time
}

type completionKind int

const (
	completionBackend completionKind = iota
	completionSaved
)

// completion is how goroutines report back to the loop.
type completion struct {
	kind   completionKind
	caller CallerID
	slot   uint64
	body   []byte
	bundle []byte
	err    error
}

// Proxy is the credential-holding request proxy.
type Proxy struct {
	vault   cryptoService.Vault
	signer  *signer.Signer
	sender  transport.Sender
	store   credentialsUsecase.CredentialStore
	logger  *slog.Logger
	metrics metrics.BusinessMetrics
	now     func() time.Time

	inbound     chan Envelope
	outbound    chan Delivery
	completions chan completion
	stopping    chan struct{}
	done        chan struct{}
	inflight    sync.WaitGroup

	// Owned by the loop goroutine.
	state workerState
	queue *ResponseQueue

	// afterCompletion runs on the loop once a completion has been applied.
	afterCompletion func(c completion)
}

// New creates a Proxy in the Uninitialized state. Call Run to start it.
func New(
	vault cryptoService.Vault,
	sig *signer.Signer,
	sender transport.Sender,
	store credentialsUsecase.CredentialStore,
	logger *slog.Logger,
	m metrics.BusinessMetrics,
	cfg Config,
) *Proxy {
	if cfg.OutboundBuffer <= 0 {
		cfg.OutboundBuffer = DefaultOutboundBuffer
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Proxy{
		vault:       vault,
		signer:      sig,
		sender:      sender,
		store:       store,
		logger:      logger,
		metrics:     m,
		now:         cfg.Now,
		inbound:     make(chan Envelope),
		outbound:    make(chan Delivery, cfg.OutboundBuffer),
		completions: make(chan completion),
		stopping:    make(chan struct{}),
		done:        make(chan struct{}),
		queue:       NewResponseQueue(),
	}
}

// Inbound accepts requests for the loop.
func (p *Proxy) Inbound() chan<- Envelope {
	return p.inbound
}

// Outbound yields responses. It is closed when Run returns.
func (p *Proxy) Outbound() <-chan Delivery {
	return p.outbound
}

// Done is closed when Run has returned.
func (p *Proxy) Done() <-chan struct{} {
	return p.done
}

// Run processes requests until ctx is cancelled. It must be called once.
//
// On return every in-flight backend call and store write has finished, the
// held key and credentials are wiped and Outbound is closed. Backend calls
// already issued are not cancelled; they run until the transport returns.
func (p *Proxy) Run(ctx context.Context) error {
	p.logger.Info("proxy started")
	defer p.shutdown()

	for {
		select {
		case <-ctx.Done():
			return nil
		case env := <-p.inbound:
			p.handle(ctx, env)
		case c := <-p.completions:
			p.complete(ctx, c)
		}
	}
}

func (p *Proxy) shutdown() {
	close(p.stopping)
	p.inflight.Wait()
	p.state.wipe()
	close(p.outbound)
	close(p.done)
	undelivered := p.queue.Len()
	p.metrics.AddPendingResponses(context.Background(), -int64(undelivered))
	p.logger.Info("proxy stopped", slog.Int("undelivered", undelivered))
}

func (p *Proxy) handle(ctx context.Context, env Envelope) {
	switch req := env.Request.(type) {
	case BackendRequest:
		p.handleBackend(ctx, env.Caller, req)
	case StatusRequest:
		p.deliver(ctx, env.Caller, StatusResponse{Status: p.state.status()})
	case SetCredsPlaintext:
		p.handleSetPlaintext(ctx, env.Caller, req)
	case SetCredsEncrypted:
		p.handleSetEncrypted(ctx, env.Caller, req)
	default:
		p.logger.Error("unknown request type",
			slog.String("caller", string(env.Caller)),
			slog.String("type", fmt.Sprintf("%T", env.Request)),
		)
		p.deliver(ctx, env.Caller, StatusResponse{Status: p.state.status()})
	}
}

func (p *Proxy) handleBackend(ctx context.Context, caller CallerID, req BackendRequest) {
	if !p.state.ready() {
		p.record(ctx, "backend_request", metrics.StatusNotReady)
		p.deliver(ctx, caller, StatusResponse{Status: StatusNotReady})
		return
	}

	number := p.queue.Reserve(caller)
	p.metrics.AddPendingResponses(ctx, 1)
	logger := p.logger.With(
		slog.String("caller", string(caller)),
		slog.Uint64("slot", number),
	)

	signed, err := p.sign(req.Payload)
	if err != nil {
		logger.Error("failed to sign backend request", slog.Any("error", err))
		p.record(ctx, "backend_request", metrics.StatusError)
		p.fill(ctx, number, BackendResponse{Err: err})
		return
	}

	logger.Debug("backend request dispatched", slog.Int("payload_bytes", len(req.Payload)))
	p.record(ctx, "backend_request", metrics.StatusDispatched)

	out := &transport.Request{Signed: signed, Body: req.Payload}
	sendCtx := context.WithoutCancel(ctx)
	p.spawn(func() completion {
		body, err := p.send(sendCtx, out)
		return completion{kind: completionBackend, caller: caller, slot: number, body: body, err: err}
	})
}

// sign runs on the loop so the secret key never leaves it.
func (p *Proxy) sign(payload []byte) (signed signer.SignedRequest, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = apperrors.Wrapf(ErrInvariantViolation, "panic while signing: %v", r)
		}
	}()

	return p.signer.Sign(signer.Input{
		Host:        p.state.creds.EndpointHost,
		AccessKeyID: p.state.creds.AccessKeyID,
		SecretKey:   p.state.creds.SecretKey,
		Body:        payload,
		Timestamp:   p.now(),
	}), nil
}

func (p *Proxy) send(ctx context.Context, req *transport.Request) (body []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			body = nil
			err = apperrors.Wrapf(ErrInvariantViolation, "panic while sending: %v", r)
		}
	}()

	return p.sender.Send(ctx, req)
}

func (p *Proxy) handleSetPlaintext(ctx context.Context, caller CallerID, req SetCredsPlaintext) {
	key, creds, bundleJSON, err := p.encryptNew(req)
	if err != nil {
		p.logger.Error("failed to set up credentials",
			slog.String("caller", string(caller)),
			slog.Any("error", err),
		)
		p.record(ctx, "credentials_setup", metrics.StatusError)
		p.deliver(ctx, caller, StatusResponse{Status: StatusNotReady})
		return
	}

	p.state.replace(key, creds)
	p.record(ctx, "credentials_setup", metrics.StatusSuccess)
	p.logger.Info("credentials set up", slog.String("caller", string(caller)))

	saveCtx := context.WithoutCancel(ctx)
	p.spawn(func() completion {
		storeCtx, cancel := context.WithTimeout(saveCtx, storeTimeout)
		defer cancel()
		err := p.store.Save(storeCtx, bundleJSON)
		return completion{kind: completionSaved, caller: caller, bundle: bundleJSON, err: err}
	})
}

func (p *Proxy) encryptNew(
	req SetCredsPlaintext,
) (*cryptoDomain.KeyData, *credentialsDomain.PlaintextCredentials, []byte, error) {
	salt, err := p.vault.NewSalt()
	if err != nil {
		return nil, nil, nil, err
	}

	key, err := p.vault.DeriveKey(req.Password, salt)
	if err != nil {
		return nil, nil, nil, err
	}

	creds, err := credentialsDomain.NewPlaintextCredentials(req.EndpointHost, req.AccessKeyID, req.SecretKey)
	if err != nil {
		_ = key.Close()
		return nil, nil, nil, err
	}

	bundle, err := p.vault.EncryptCredentials(creds, key)
	if err != nil {
		_ = key.Close()
		_ = creds.Close()
		return nil, nil, nil, err
	}

	bundleJSON, err := bundle.Marshal()
	if err != nil {
		_ = key.Close()
		_ = creds.Close()
		return nil, nil, nil, err
	}

	return key, creds, bundleJSON, nil
}

func (p *Proxy) handleSetEncrypted(ctx context.Context, caller CallerID, req SetCredsEncrypted) {
	logger := p.logger.With(slog.String("caller", string(caller)))

	key, creds, err := p.unlock(ctx, req)
	if err != nil {
		logger.Warn("failed to unlock credentials", slog.Any("error", err))
		p.record(ctx, "credentials_unlock", metrics.StatusError)
		p.deliver(ctx, caller, StatusResponse{Status: StatusNotReady})
		return
	}

	p.state.replace(key, creds)
	p.record(ctx, "credentials_unlock", metrics.StatusSuccess)
	logger.Info("credentials unlocked")
	p.deliver(ctx, caller, StatusResponse{Status: StatusReady})
}

func (p *Proxy) unlock(
	ctx context.Context,
	req SetCredsEncrypted,
) (*cryptoDomain.KeyData, *credentialsDomain.PlaintextCredentials, error) {
	bundleJSON := req.Bundle
	if len(bundleJSON) == 0 {
		storeCtx, cancel := context.WithTimeout(ctx, storeTimeout)
		defer cancel()

		stored, err := p.store.Load(storeCtx)
		if err != nil {
			return nil, nil, err
		}
		bundleJSON = stored
	}

	bundle, err := credentialsDomain.UnmarshalBundle(bundleJSON)
	if err != nil {
		return nil, nil, err
	}

	salt, err := cryptoDomain.DecodeSalt(bundle.SaltB64)
	if err != nil {
		return nil, nil, err
	}

	key, err := p.vault.DeriveKey(req.Password, salt)
	if err != nil {
		return nil, nil, err
	}

	creds, err := p.vault.DecryptCredentials(bundle, key)
	if err != nil {
		_ = key.Close()
		return nil, nil, err
	}

	return key, creds, nil
}

func (p *Proxy) complete(ctx context.Context, c completion) {
	switch c.kind {
	case completionBackend:
		if c.err != nil {
			p.logger.Warn("backend request failed",
				slog.String("caller", string(c.caller)),
				slog.Uint64("slot", c.slot),
				slog.Any("error", c.err),
			)
			p.fill(ctx, c.slot, BackendResponse{Err: c.err})
		} else {
			p.fill(ctx, c.slot, BackendResponse{Body: c.body})
		}
	case completionSaved:
		if c.err != nil {
			p.logger.Error("failed to persist credential bundle",
				slog.String("caller", string(c.caller)),
				slog.Any("error", c.err),
			)
		}
		p.deliver(ctx, c.caller, StatusResponse{Status: StatusCredsEncrypted, Bundle: c.bundle})
	}

	if p.afterCompletion != nil {
		p.afterCompletion(c)
	}
}

func (p *Proxy) fill(ctx context.Context, number uint64, resp Response) {
	if err := p.queue.Fill(number, resp); err != nil {
		p.logger.Error("failed to fill response slot", slog.Uint64("slot", number), slog.Any("error", err))
		return
	}

	drained := p.queue.Drain()
	p.metrics.AddPendingResponses(ctx, -int64(len(drained)))
	for _, d := range drained {
		p.deliver(ctx, d.Caller, d.Response)
	}
}

func (p *Proxy) deliver(ctx context.Context, caller CallerID, resp Response) {
	select {
	case p.outbound <- Delivery{Caller: caller, Response: resp}:
	case <-ctx.Done():
		p.logger.Warn("dropping response on shutdown", slog.String("caller", string(caller)))
	}
}

// spawn runs fn on a tracked goroutine and hands its result to the loop.
func (p *Proxy) spawn(fn func() completion) {
	p.inflight.Add(1)
	go func() {
		defer p.inflight.Done()
		c := fn()
		select {
		case p.completions <- c:
		case <-p.stopping:
		}
	}()
}

func (p *Proxy) record(ctx context.Context, operation, status string) {
	p.metrics.RecordOperation(ctx, metrics.DomainProxy, operation, status)
}
