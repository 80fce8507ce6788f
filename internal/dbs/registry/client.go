// Package registry queries the external DBS certificate registry.
package registry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"childminder/internal/dbs/models"
	"childminder/internal/dbs/tracer"
	"childminder/pkg/domain"
	dErrors "childminder/pkg/domain-errors"
)

const (
	defaultTimeout = 5 * time.Second
	maxBodyBytes   = 1 << 20
)

// Client looks up a certificate. A nil record with a nil error means the
// registry holds no certificate with that number.
type Client interface {
	Lookup(ctx context.Context, number domain.CertificateNumber) (*models.RegistryRecord, error)
}

// HTTPDoer is the minimal interface needed from an HTTP client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config configures the HTTP registry client.
type Config struct {
	BaseURL string
	APIKey  string
	// Timeout bounds a single lookup, including reading the body.
	Timeout    time.Duration
	HTTPClient HTTPDoer
}

// HTTPClient calls GET {base}/certificates/{number}.
type HTTPClient struct {
	baseURL string
	apiKey  string
	timeout time.Duration
	client  HTTPDoer
	tracer  tracer.Tracer
	metrics *Metrics
	logger  *slog.Logger
}

type Option func(*HTTPClient)

func WithTracer(t tracer.Tracer) Option {
	return func(c *HTTPClient) {
		c.tracer = t
	}
}

func WithMetrics(m *Metrics) Option {
	return func(c *HTTPClient) {
		c.metrics = m
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *HTTPClient) {
		c.logger = logger
	}
}

func NewHTTPClient(cfg Config, opts ...Option) *HTTPClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	doer := cfg.HTTPClient
	if doer == nil {
		doer = &http.Client{Timeout: cfg.Timeout}
	}

	c := &HTTPClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		timeout: cfg.Timeout,
		client:  doer,
		tracer:  tracer.NewNoop(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Lookup queries the registry for number.
//
// Errors: CodePreconditionFailed for an empty number; *LookupError for any
// registry failure; the caller's context error if it was cancelled.
func (c *HTTPClient) Lookup(ctx context.Context, number domain.CertificateNumber) (*models.RegistryRecord, error) {
	if number.IsZero() {
		return nil, dErrors.New(dErrors.CodePreconditionFailed, "certificate number is required for a registry lookup")
	}

	ctx, span := c.tracer.Start(ctx, tracer.SpanRegistryLookup,
		tracer.String(tracer.AttrCertificate, tracer.HashCertificate(number.String())),
	)
	start := time.Now()

	record, err := c.lookup(ctx, number)

	outcome := outcomeNotFound
	switch {
	case err != nil:
		outcome = "error"
		if le, ok := AsLookupError(err); ok {
			outcome = string(le.Category)
			span.SetAttributes(tracer.String(tracer.AttrErrorCategory, outcome))
		}
	case record != nil:
		outcome = outcomeFound
	}
	c.metrics.observeLookup(outcome, time.Since(start))
	span.SetAttributes(tracer.Bool(tracer.AttrFound, record != nil))
	span.End(err)

	return record, err
}

func (c *HTTPClient) lookup(ctx context.Context, number domain.CertificateNumber) (*models.RegistryRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/certificates/%s", c.baseURL, url.PathEscape(number.String()))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, NewLookupError(ErrorConfiguration, "failed to build registry request", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, classifyTransportError(ctx, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, classifyTransportError(ctx, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, nil
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return nil, newStatusError(ErrorAuthentication, resp.StatusCode, fmt.Sprintf("authentication failed: %d", resp.StatusCode))
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, newStatusError(ErrorRateLimited, resp.StatusCode, "rate limit exceeded")
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		c.logger.WarnContext(ctx, "unexpected registry status",
			"status", resp.StatusCode,
			"certificate", tracer.HashCertificate(number.String()),
		)
		return nil, newStatusError(ErrorProviderOutage, resp.StatusCode, fmt.Sprintf("registry unavailable: %d", resp.StatusCode))
	}

	record, err := parseRecord(body, number)
	if err != nil {
		return nil, NewLookupError(ErrorBadData, "failed to parse registry response", err)
	}
	return record, nil
}

// classifyTransportError separates our own deadline from the caller
// cancelling the request. Only the former is a registry failure.
func classifyTransportError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return NewLookupError(ErrorTimeout, "request timeout", err)
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		return ctx.Err()
	}
	return NewLookupError(ErrorProviderOutage, "failed to execute request", err)
}
