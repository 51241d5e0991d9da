package usecase

import (
	"context"
	"time"

	apperrors "github.com/allisson/credproxy/internal/errors"
	"github.com/allisson/credproxy/internal/metrics"
)

// credentialStoreWithMetrics decorates CredentialStore with metrics instrumentation.
type credentialStoreWithMetrics struct {
	next    CredentialStore
	metrics metrics.BusinessMetrics
}

// NewCredentialStoreWithMetrics wraps a CredentialStore with metrics recording.
func NewCredentialStoreWithMetrics(store CredentialStore, m metrics.BusinessMetrics) CredentialStore {
	return &credentialStoreWithMetrics{
		next:    store,
		metrics: m,
	}
}

// Save records metrics for bundle writes.
func (c *credentialStoreWithMetrics) Save(ctx context.Context, bundleJSON []byte) error {
	start := time.Now()
	err := c.next.Save(ctx, bundleJSON)

	status := metrics.StatusOf(err)
	c.metrics.RecordOperation(ctx, metrics.DomainCredentials, "bundle_save", status)
	c.metrics.RecordDuration(ctx, metrics.DomainCredentials, "bundle_save", time.Since(start), status)

	return err
}

// Load records metrics for bundle reads. A missing bundle counts as success.
func (c *credentialStoreWithMetrics) Load(ctx context.Context) ([]byte, error) {
	start := time.Now()
	bundleJSON, err := c.next.Load(ctx)

	status := metrics.StatusSuccess
	if err != nil && !apperrors.Is(err, apperrors.ErrNotFound) {
		status = metrics.StatusError
	}

	c.metrics.RecordOperation(ctx, metrics.DomainCredentials, "bundle_load", status)
	c.metrics.RecordDuration(ctx, metrics.DomainCredentials, "bundle_load", time.Since(start), status)

	return bundleJSON, err
}
