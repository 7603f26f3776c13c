package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

const (
	// EventCourseCompleted is emitted the first time a course reaches completed status.
	EventCourseCompleted = "progress.completed"
	// EventCertificateIssued is emitted when a certificate is created or re-issued.
	EventCertificateIssued = "certificate.issued"
	// EventCertificateRevoked is emitted when an administrator revokes a certificate.
	EventCertificateRevoked = "certificate.revoked"
)

// DomainEvent is the envelope published for lifecycle transitions.
type DomainEvent struct {
	Type              string    `json:"type"`
	UserID            string    `json:"user_id"`
	CourseID          string    `json:"course_id"`
	CertificateNumber string    `json:"certificate_number,omitempty"`
	OccurredAt        time.Time `json:"occurred_at"`
}

// EventPublisher delivers domain events to downstream consumers.
type EventPublisher interface {
	Publish(ctx context.Context, event DomainEvent) error
}

type nopPublisher struct{}

// NewNopPublisher returns a publisher that discards events.
func NewNopPublisher() EventPublisher {
	return nopPublisher{}
}

func (nopPublisher) Publish(context.Context, DomainEvent) error { return nil }

type natsPublisher struct {
	conn    *nats.Conn
	subject string
}

// NewNATSPublisher publishes events on "<subject>.<event type>".
func NewNATSPublisher(conn *nats.Conn, subject string) EventPublisher {
	if conn == nil {
		return NewNopPublisher()
	}
	subject = strings.Trim(strings.TrimSpace(subject), ".")
	if subject == "" {
		subject = "ceu"
	}
	return &natsPublisher{conn: conn, subject: subject}
}

func (p *natsPublisher) Publish(ctx context.Context, event DomainEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return p.conn.Publish(p.subject+"."+event.Type, payload)
}

func publishEvent(ctx context.Context, publisher EventPublisher, logger zerolog.Logger, event DomainEvent) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, event); err != nil {
		logger.Warn().Err(err).Str("event", event.Type).Str("course_id", event.CourseID).Msg("failed to publish domain event")
	}
}
