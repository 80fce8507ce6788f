// Package events publishes household and DBS domain events.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"childminder/internal/dbs/models"
	"childminder/internal/platform/kafka/producer"
	"childminder/pkg/requestcontext"
)

type Type string

const (
	TypeStatusResolved     Type = "dbs.status_resolved"
	TypeMemberRemoved      Type = "household.member_removed"
	TypeCertificateChanged Type = "dbs.certificate_changed"
)

// Event is the wire form. It never carries certificate numbers.
type Event struct {
	ID            string        `json:"id"`
	Type          Type          `json:"type"`
	ApplicationID string        `json:"application_id"`
	PersonID      string        `json:"person_id"`
	Role          models.Role   `json:"role"`
	Position      int           `json:"position,omitempty"`
	Status        models.Status `json:"status,omitempty"`
	OccurredAt    time.Time     `json:"occurred_at"`
	RequestID     string        `json:"request_id,omitempty"`
}

// New stamps an event for p with the request's time and ID.
func New(ctx context.Context, t Type, p *models.Person) Event {
	return Event{
		ID:            uuid.NewString(),
		Type:          t,
		ApplicationID: p.ApplicationID.String(),
		PersonID:      p.ID.String(),
		Role:          p.Role,
		Position:      p.Position,
		OccurredAt:    requestcontext.Now(ctx).UTC(),
		RequestID:     requestcontext.RequestID(ctx),
	}
}

// Producer is the subset of the Kafka producer the publisher needs.
type Producer interface {
	Produce(ctx context.Context, msg *producer.Message) error
}

// KafkaPublisher writes events to one topic keyed by application so an
// application's events stay ordered within a partition.
type KafkaPublisher struct {
	producer Producer
	topic    string
	logger   *slog.Logger
}

func NewKafkaPublisher(p Producer, topic string, logger *slog.Logger) *KafkaPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &KafkaPublisher{producer: p, topic: topic, logger: logger}
}

func (p *KafkaPublisher) Publish(ctx context.Context, e Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", e.Type, err)
	}
	msg := &producer.Message{
		Topic: p.topic,
		Key:   []byte(e.ApplicationID),
		Value: payload,
		Headers: map[string]string{
			"event_type": string(e.Type),
		},
	}
	if e.RequestID != "" {
		msg.Headers["request_id"] = e.RequestID
	}
	if err := p.producer.Produce(ctx, msg); err != nil {
		return fmt.Errorf("publish %s event: %w", e.Type, err)
	}
	p.logger.DebugContext(ctx, "event published",
		"type", string(e.Type),
		"event_id", e.ID,
		"topic", p.topic,
	)
	return nil
}

// NoopPublisher drops events. Used when Kafka is not configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }

// RecordingPublisher keeps published events in memory for tests and local runs.
type RecordingPublisher struct {
	mu     sync.Mutex
	events []Event
}

func (r *RecordingPublisher) Publish(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

// Events returns a copy of everything published so far.
func (r *RecordingPublisher) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.events)
}

// OfType filters recorded events.
func (r *RecordingPublisher) OfType(t Type) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, e := range r.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}
