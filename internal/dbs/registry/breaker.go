package registry

import (
	"context"
	"log/slog"

	"childminder/internal/dbs/models"
	"childminder/pkg/domain"
	"childminder/pkg/platform/circuit"
)

// BreakerClient refuses lookups while the registry keeps failing, so a
// household summary during an outage fails fast instead of waiting out a
// timeout per member. Only retryable failures count against the registry.
type BreakerClient struct {
	next    Client
	breaker *circuit.Breaker
	logger  *slog.Logger
}

func NewBreakerClient(next Client, breaker *circuit.Breaker, logger *slog.Logger) *BreakerClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &BreakerClient{next: next, breaker: breaker, logger: logger}
}

func (c *BreakerClient) Lookup(ctx context.Context, number domain.CertificateNumber) (*models.RegistryRecord, error) {
	if !c.breaker.Allow() {
		return nil, NewLookupError(ErrorProviderOutage, "circuit open", nil)
	}

	record, err := c.next.Lookup(ctx, number)

	var change circuit.StateChange
	switch {
	case err == nil:
		change = c.breaker.RecordSuccess()
	case IsRetryable(err):
		change = c.breaker.RecordFailure()
	}
	if change.Opened {
		c.logger.WarnContext(ctx, "dbs registry circuit opened", "breaker", c.breaker.Name(), "error", err)
	}
	if change.Closed {
		c.logger.InfoContext(ctx, "dbs registry circuit closed", "breaker", c.breaker.Name())
	}
	return record, err
}
