package metrics

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric domains.
const (
	DomainProxy       = "proxy"
	DomainCredentials = "credentials"
	DomainBackend     = "backend"
)

// Operation statuses. StatusNotReady and StatusDispatched only appear on
// proxy backend requests.
const (
	StatusSuccess    = "success"
	StatusError      = "error"
	StatusNotReady   = "not_ready"
	StatusDispatched = "dispatched"
)

// StatusOf maps an operation result to StatusSuccess or StatusError.
func StatusOf(err error) string {
	if err != nil {
		return StatusError
	}
	return StatusSuccess
}

// BusinessMetrics records what the proxy does, independent of the HTTP layer.
type BusinessMetrics interface {
	// RecordOperation counts one operation, e.g. ("proxy", "backend_request", "dispatched")
	// or ("credentials", "bundle_save", "error").
	RecordOperation(ctx context.Context, domain, operation, status string)

	// RecordDuration observes how long an operation took, in seconds.
	RecordDuration(ctx context.Context, domain, operation string, duration time.Duration, status string)

	// AddPendingResponses moves the gauge of backend responses that are
	// reserved but not yet delivered. Negative deltas release slots.
	AddPendingResponses(ctx context.Context, delta int64)
}

type businessMetrics struct {
	operations metric.Int64Counter
	durations  metric.Float64Histogram
	pending    metric.Int64UpDownCounter
}

// NewBusinessMetrics registers the proxy instruments on meterProvider, with
// every metric name prefixed by namespace.
func NewBusinessMetrics(meterProvider metric.MeterProvider, namespace string) (BusinessMetrics, error) {
	meter := meterProvider.Meter(namespace)

	operations, err := meter.Int64Counter(
		namespace+"_operations_total",
		metric.WithDescription("Operations handled by the proxy, credential store and backend sender"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create operation counter: %w", err)
	}

	durations, err := meter.Float64Histogram(
		namespace+"_operation_duration_seconds",
		metric.WithDescription("Operation latency in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create duration histogram: %w", err)
	}

	pending, err := meter.Int64UpDownCounter(
		namespace+"_proxy_pending_responses",
		metric.WithDescription("Backend responses reserved in the ordered queue and not yet delivered"),
		metric.WithUnit("{response}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create pending responses gauge: %w", err)
	}

	return &businessMetrics{
		operations: operations,
		durations:  durations,
		pending:    pending,
	}, nil
}

func operationAttrs(domain, operation, status string) metric.MeasurementOption {
	return metric.WithAttributes(
		attribute.String("domain", domain),
		attribute.String("operation", operation),
		attribute.String("status", status),
	)
}

func (b *businessMetrics) RecordOperation(ctx context.Context, domain, operation, status string) {
	b.operations.Add(ctx, 1, operationAttrs(domain, operation, status))
}

func (b *businessMetrics) RecordDuration(
	ctx context.Context,
	domain, operation string,
	duration time.Duration,
	status string,
) {
	b.durations.Record(ctx, duration.Seconds(), operationAttrs(domain, operation, status))
}

func (b *businessMetrics) AddPendingResponses(ctx context.Context, delta int64) {
	if delta == 0 {
		return
	}
	b.pending.Add(ctx, delta)
}

// NoOpBusinessMetrics is used when metrics are disabled.
type NoOpBusinessMetrics struct{}

// NewNoOpBusinessMetrics creates a no-op BusinessMetrics implementation.
func NewNoOpBusinessMetrics() BusinessMetrics {
	return &NoOpBusinessMetrics{}
}

// RecordOperation does nothing.
func (n *NoOpBusinessMetrics) RecordOperation(ctx context.Context, domain, operation, status string) {}

// RecordDuration does nothing.
func (n *NoOpBusinessMetrics) RecordDuration(
	ctx context.Context,
	domain, operation string,
	duration time.Duration,
	status string,
) {
}

// AddPendingResponses does nothing.
func (n *NoOpBusinessMetrics) AddPendingResponses(ctx context.Context, delta int64) {}
