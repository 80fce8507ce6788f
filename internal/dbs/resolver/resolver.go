// Package resolver computes the single outstanding DBS action for a person.
package resolver

import (
	"context"
	"log/slog"
	"time"

	"childminder/internal/dbs/models"
	"childminder/internal/dbs/recency"
	"childminder/internal/dbs/registry"
	"childminder/internal/dbs/tracer"
	"childminder/pkg/domain"
	dErrors "childminder/pkg/domain-errors"
	"childminder/pkg/requestcontext"
)

// Resolver walks the DBS decision tree. It holds no per-person state; the
// registry outcome is remembered on the Person itself.
type Resolver struct {
	registry           registry.Client
	degradedAsNotFound bool
	tracer             tracer.Tracer
	metrics            *Metrics
	logger             *slog.Logger
}

type Option func(*Resolver)

// WithDegradedAsNotFound treats every registry failure as "not on file".
// The outcome is not cached in that mode so the next resolution retries.
func WithDegradedAsNotFound(enabled bool) Option {
	return func(r *Resolver) {
		r.degradedAsNotFound = enabled
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(r *Resolver) {
		r.tracer = t
	}
}

func WithMetrics(m *Metrics) Option {
	return func(r *Resolver) {
		r.metrics = m
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

func New(client registry.Client, opts ...Option) *Resolver {
	r := &Resolver{
		registry: client,
		tracer:   tracer.NewNoop(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the outstanding action for p given the certificate number
// and the answers captured so far.
//
// Side effects: if number differs from p's current number it is set first,
// which clears every dependent field. The registry outcome is then recorded
// on p, and cached there unless the lookup degraded.
//
// Errors: CodePreconditionFailed for a nil person or empty number. Registry
// failures are not errors; they resolve to StatusLookupFailed. Anything
// else from the registry client (a cancelled context) is returned as-is.
func (r *Resolver) Resolve(ctx context.Context, p *models.Person, number domain.CertificateNumber, capitaAnswer, onUpdateAnswer models.Tristate) (status models.Status, err error) {
	if p == nil {
		return "", dErrors.New(dErrors.CodePreconditionFailed, "person is required")
	}
	if number.IsZero() {
		return "", dErrors.New(dErrors.CodePreconditionFailed, "certificate number is required to resolve DBS status")
	}

	ctx, span := r.tracer.Start(ctx, tracer.SpanResolve,
		tracer.String(tracer.AttrRole, string(p.Role)),
		tracer.String(tracer.AttrCertificate, tracer.HashCertificate(number.String())),
	)
	defer func() {
		span.SetAttributes(tracer.String(tracer.AttrStatus, status.String()))
		span.End(err)
		if err == nil {
			r.metrics.observeStatus(status)
		}
	}()

	p.SetCertificateNumber(number)

	outcome, cached := p.CachedLookup(number)
	span.SetAttributes(tracer.Bool(tracer.AttrCacheHit, cached))
	r.metrics.observePersonCache(cached)

	cacheOutcome := true
	if !cached {
		record, lookupErr := r.registry.Lookup(ctx, number)
		if lookupErr != nil {
			le, ok := registry.AsLookupError(lookupErr)
			if !ok {
				return "", lookupErr
			}
			if !r.degradedAsNotFound {
				r.logger.WarnContext(ctx, "dbs registry lookup failed",
					"person_id", p.ID.String(),
					"category", string(le.Category),
					"retryable", le.Retryable,
					"error", lookupErr,
				)
				return models.StatusLookupFailed, nil
			}
			r.logger.WarnContext(ctx, "dbs registry lookup failed, treating as not found",
				"person_id", p.ID.String(),
				"category", string(le.Category),
			)
			record = nil
			cacheOutcome = false
		}
		outcome = models.LookupOutcomeFor(number, record)
	}

	fields, status := decide(p.DateOfBirth, outcome, capitaAnswer, onUpdateAnswer, requestcontext.Now(ctx))
	if cacheOutcome {
		p.RecordLookup(fields, &outcome)
	} else {
		p.RecordLookup(fields, nil)
	}
	return status, nil
}

// decide is the decision tree. Branch order defines precedence.
func decide(dob domain.Date, outcome models.LookupOutcome, capitaAnswer, onUpdateAnswer models.Tristate, now time.Time) (models.LookupFields, models.Status) {
	if !outcome.Found {
		fields := models.LookupFields{Capita: models.False}
		switch capitaAnswer {
		case models.Unknown:
			return fields, models.StatusNeedAskIfCapita
		case models.False:
			return fields, models.StatusNeedApplyForNew
		}
		return fields, onUpdateStatus(onUpdateAnswer)
	}

	// A mismatched date of birth means nothing else on the record is trusted.
	if !outcome.DateOfBirth.Equal(dob) {
		return models.LookupFields{Capita: models.True}, models.StatusDobMismatch
	}

	recent := recency.IsRecent(outcome.IssuedAt, now)
	fields := models.LookupFields{
		Capita:            models.True,
		WithinThreeMonths: models.FromBool(recent),
		CertificateInfo:   outcome.CertificateInfo,
	}
	if recent {
		return fields, models.StatusOK
	}
	return fields, onUpdateStatus(onUpdateAnswer)
}

func onUpdateStatus(onUpdateAnswer models.Tristate) models.Status {
	switch onUpdateAnswer {
	case models.True:
		return models.StatusNeedUpdateServiceCheck
	case models.False:
		return models.StatusNeedUpdateServiceSignUp
	default:
		return models.StatusNeedAskIfOnUpdate
	}
}

// AwaitingUserAction reports whether any status needs the user to act
// outside the form before the application can progress.
func AwaitingUserAction(statuses []models.Status) bool {
	for _, s := range statuses {
		if s.RequiresExternalAction() {
			return true
		}
	}
	return false
}
