package transport

import (
	"context"
	"time"

	"github.com/allisson/credproxy/internal/metrics"
)

// senderWithMetrics decorates Sender with metrics instrumentation.
type senderWithMetrics struct {
	next    Sender
	metrics metrics.BusinessMetrics
}

// NewSenderWithMetrics wraps a Sender with metrics recording.
func NewSenderWithMetrics(sender Sender, m metrics.BusinessMetrics) Sender {
	return &senderWithMetrics{
		next:    sender,
		metrics: m,
	}
}

// Send records metrics for backend calls.
func (s *senderWithMetrics) Send(ctx context.Context, req *Request) ([]byte, error) {
	start := time.Now()
	body, err := s.next.Send(ctx, req)

	status := metrics.StatusOf(err)
	s.metrics.RecordOperation(ctx, metrics.DomainBackend, "backend_send", status)
	s.metrics.RecordDuration(ctx, metrics.DomainBackend, "backend_send", time.Since(start), status)

	return body, err
}
