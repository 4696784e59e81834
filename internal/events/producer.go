package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/campuscore/campuscore/pkg/logging"
)

const Topic = "auth_events"

// Producer publishes audit events for the login subsystem. Publishing is
// best-effort: a broker outage must never fail a login, so errors are
// logged and dropped.
type Producer struct {
	writer *kafka.Writer
}

func NewProducer(brokers []string) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        Topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireOne,
		},
	}
}

type Event struct {
	Type     string    `json:"type"`
	Email    string    `json:"email"`
	UserType string    `json:"user_type,omitempty"`
	Role     string    `json:"role,omitempty"`
	At       time.Time `json:"at"`
}

func (p *Producer) Publish(ctx context.Context, ev Event) {
	if p == nil || p.writer == nil {
		return
	}
	ev.At = time.Now().UTC()

	data, err := json.Marshal(ev)
	if err != nil {
		logging.FromContext(ctx).Error("audit_event_marshal_failed", "error", err)
		return
	}

	msg := kafka.Message{Key: []byte(ev.Email), Value: data}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		logging.FromContext(ctx).Warn("audit_event_publish_failed", "type", ev.Type, "error", err)
	}
}

func (p *Producer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
