package client

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// Event types published by the procurement service.
const (
	EventRequestSubmitted = "request_submitted"
	EventApprovalRequired = "approval_required"
	EventRequestApproved  = "request_approved"
	EventRequestDenied    = "request_denied"
	EventPurchaseOrder    = "purchase_order_issued"
)

// DefaultSubjectPrefix is used when no prefix is configured.
const DefaultSubjectPrefix = "notifications.procurement"

// MessagePublisher is the publish side of a NATS connection.
type MessagePublisher interface {
	Publish(subject string, data []byte) error
}

// NotificationPublisher publishes procurement workflow events to NATS for
// the notifications service.
//
// Subject convention: <prefix>.<event_type>
//
// Publishing never fails the caller. Errors are logged and dropped so a
// notification outage cannot block an approval.
type NotificationPublisher struct {
	conn   MessagePublisher
	prefix string
	log    zerolog.Logger
}

// NotificationEvent is the JSON schema published to NATS.
type NotificationEvent struct {
	EventType    string                 `json:"event_type"`
	ActorID      string                 `json:"actor_id"`
	Recipients   []string               `json:"recipients"`
	ResourceType string                 `json:"resource_type,omitempty"`
	ResourceID   string                 `json:"resource_id,omitempty"`
	IsActionable bool                   `json:"is_actionable,omitempty"`
	Severity     string                 `json:"severity,omitempty"`
	Category     string                 `json:"category,omitempty"`
	OccurredAt   time.Time              `json:"occurred_at"`
	Payload      map[string]interface{} `json:"payload,omitempty"`
}

// NewNotificationPublisher creates a publisher. A nil conn yields a
// publisher that drops every event.
func NewNotificationPublisher(conn MessagePublisher, prefix string, log zerolog.Logger) *NotificationPublisher {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return &NotificationPublisher{conn: conn, prefix: prefix, log: log}
}

// ConnectNATS dials url with reconnect handling that logs through log.
func ConnectNATS(url, name string, log zerolog.Logger) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn().Err(err).Msg("NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info().Str("url", c.ConnectedUrl()).Msg("NATS reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return nc, nil
}

// PublishRequestEvent publishes a procurement request event.
// Subject: <prefix>.<eventType>
func (p *NotificationPublisher) PublishRequestEvent(ctx context.Context, eventType, requestID, actorID string, recipients []string, payload map[string]interface{}) {
	p.publish(ctx, eventType, "procurement_request", requestID, actorID, recipients, payload)
}

// PublishPurchaseOrderEvent publishes a purchase order event.
func (p *NotificationPublisher) PublishPurchaseOrderEvent(ctx context.Context, eventType, poID, actorID string, recipients []string, payload map[string]interface{}) {
	p.publish(ctx, eventType, "purchase_order", poID, actorID, recipients, payload)
}

func (p *NotificationPublisher) publish(ctx context.Context, eventType, resourceType, resourceID, actorID string, recipients []string, payload map[string]interface{}) {
	if p == nil || p.conn == nil {
		return
	}
	if len(recipients) == 0 {
		return
	}
	if ctx.Err() != nil {
		return
	}

	event := &NotificationEvent{
		EventType:    eventType,
		ActorID:      actorID,
		Recipients:   recipients,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		IsActionable: eventType == EventApprovalRequired,
		Severity:     "info",
		Category:     "procurement",
		OccurredAt:   time.Now().UTC(),
		Payload:      payload,
	}

	data, err := json.Marshal(event)
	if err != nil {
		p.log.Warn().Err(err).Str("event_type", eventType).Msg("notification: failed to marshal event")
		return
	}

	subject := fmt.Sprintf("%s.%s", p.prefix, eventType)
	if err := p.conn.Publish(subject, data); err != nil {
		p.log.Warn().Err(err).
			Str("subject", subject).
			Str("resource_id", resourceID).
			Msg("notification: failed to publish NATS event (non-fatal)")
		return
	}

	p.log.Debug().
		Str("subject", subject).
		Str("resource_id", resourceID).
		Int("recipients", len(recipients)).
		Msg("notification: event published")
}
