// Package tracer is a small tracing abstraction for the DBS engine.
//
// The registry client and the status resolver open spans through this
// interface; production wires the OpenTelemetry adapter, tests the noop one.
package tracer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Span represents an active trace span.
type Span interface {
	// End completes the span. A non-nil err marks the span as failed.
	// End must be called exactly once, typically via defer.
	End(err error)
	SetAttributes(attrs ...Attribute)
	AddEvent(name string, attrs ...Attribute)
}

// Tracer creates spans. Implementations must be safe for concurrent use.
type Tracer interface {
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Attribute represents a key-value pair attached to spans.
type Attribute struct {
	Key   string
	Value any
}

func String(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

func Bool(key string, value bool) Attribute {
	return Attribute{Key: key, Value: value}
}

func Int64(key string, value int64) Attribute {
	return Attribute{Key: key, Value: value}
}

// Duration creates a duration attribute in milliseconds.
func Duration(key string, value time.Duration) Attribute {
	return Attribute{Key: key, Value: value.Milliseconds()}
}

// HashCertificate returns a short SHA-256 digest of a certificate number so
// traces and logs can be correlated without carrying the number itself.
func HashCertificate(number string) string {
	if number == "" {
		return ""
	}
	hash := sha256.Sum256([]byte(number))
	return hex.EncodeToString(hash[:8])
}

// Span names.
const (
	SpanRegistryLookup = "dbs.registry.lookup"
	SpanResolve        = "dbs.resolve"
)

// Attribute keys.
const (
	AttrCertificate   = "certificate"
	AttrCacheHit      = "cache.hit"
	AttrFound         = "registry.found"
	AttrErrorCategory = "registry.error_category"
	AttrStatus        = "dbs.status"
	AttrRole          = "person.role"
)
