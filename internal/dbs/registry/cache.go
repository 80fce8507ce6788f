package registry

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"childminder/internal/dbs/models"
	"childminder/internal/dbs/tracer"
	"childminder/pkg/domain"
)

// ErrCacheMiss is returned by a LookupCache when it holds nothing fresh.
var ErrCacheMiss = errors.New("registry cache miss")

// DefaultCacheTTL applies when CachingClient is built with a non-positive TTL.
const DefaultCacheTTL = 5 * time.Minute

// CacheEntry is a remembered registry answer. A nil Record means "not on file".
type CacheEntry struct {
	Record *models.RegistryRecord
}

// LookupCache stores registry answers across requests and instances.
type LookupCache interface {
	Get(ctx context.Context, number domain.CertificateNumber) (CacheEntry, error)
	Put(ctx context.Context, number domain.CertificateNumber, entry CacheEntry, ttl time.Duration) error
}

// CachingClient serves repeat lookups from a LookupCache. Failures are never cached.
type CachingClient struct {
	next    Client
	cache   LookupCache
	ttl     time.Duration
	metrics *Metrics
	logger  *slog.Logger
}

type CacheOption func(*CachingClient)

func WithCacheMetrics(m *Metrics) CacheOption {
	return func(c *CachingClient) {
		c.metrics = m
	}
}

func WithCacheLogger(logger *slog.Logger) CacheOption {
	return func(c *CachingClient) {
		c.logger = logger
	}
}

func NewCachingClient(next Client, cache LookupCache, ttl time.Duration, opts ...CacheOption) *CachingClient {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	c := &CachingClient{
		next:   next,
		cache:  cache,
		ttl:    ttl,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Lookup checks the cache first, then the wrapped client.
//
// Side effects: a cache read error is logged and treated as a miss; a cache
// write error is logged and the upstream answer is still returned.
func (c *CachingClient) Lookup(ctx context.Context, number domain.CertificateNumber) (*models.RegistryRecord, error) {
	entry, err := c.cache.Get(ctx, number)
	switch {
	case err == nil:
		c.metrics.recordCache(true)
		return entry.Record, nil
	case !errors.Is(err, ErrCacheMiss):
		c.logger.WarnContext(ctx, "registry cache read failed",
			"certificate", tracer.HashCertificate(number.String()),
			"error", err,
		)
	}
	c.metrics.recordCache(false)

	record, err := c.next.Lookup(ctx, number)
	if err != nil {
		return nil, err
	}

	if err := c.cache.Put(ctx, number, CacheEntry{Record: record}, c.ttl); err != nil {
		c.logger.WarnContext(ctx, "registry cache write failed",
			"certificate", tracer.HashCertificate(number.String()),
			"error", err,
		)
	}
	return record, nil
}

var (
	_ Client = (*HTTPClient)(nil)
	_ Client = (*CachingClient)(nil)
)
