package telemetry

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"squad-service/internal/observability"
	"squad-service/internal/rabbitmq"
)

const AuditRoutingKey = "squad-service.audit"

const auditSchemaVersion = 2

type Level string

const (
	LevelInfo  Level = "INFO"
	LevelError Level = "ERROR"
)

// Audited actions. The log collector groups by these, so they are stable.
const (
	ActionFriendRequest = "friend.request"
	ActionFriendInvite  = "friend.invite"
	ActionFriendRespond = "friend.respond"
	ActionRSVP          = "event.rsvp"
	ActionEventInvite   = "event.invite"
)

// Record is one user-visible mutation. Subject names the row acted on
// (friendship or event id) and is empty when the request never got that far.
type Record struct {
	Level     Level
	Action    string
	Text      string
	Reason    string
	RequestID string
	ActorID   *uuid.UUID
	Subject   string
}

// Envelope matches the log-collector audit_log schema.
type Envelope struct {
	SchemaVersion int          `json:"schema_version"`
	EventID       string       `json:"event_id"`
	EventType     string       `json:"event_type"`
	OccurredAt    string       `json:"occurred_at"`
	Service       string       `json:"service"`
	Environment   string       `json:"environment"`
	RequestID     string       `json:"request_id"`
	UserID        *uuid.UUID   `json:"user_id,omitempty"`
	Payload       AuditPayload `json:"payload"`
}

type AuditPayload struct {
	Level   Level  `json:"level"`
	Action  string `json:"action"`
	Text    string `json:"text"`
	Reason  string `json:"reason,omitempty"`
	Subject string `json:"subject,omitempty"`
}

type AuditEmitter struct {
	publisher   rabbitmq.Publisher
	service     string
	environment string
	now         func() time.Time
}

func NewAuditEmitter(publisher rabbitmq.Publisher, service, environment string) *AuditEmitter {
	return &AuditEmitter{publisher: publisher, service: service, environment: environment, now: time.Now}
}

// Emit publishes r best effort. Audit delivery never fails the request that
// produced it; a nil emitter is a valid no-op.
func (e *AuditEmitter) Emit(ctx context.Context, r Record) {
	if e == nil || e.publisher == nil {
		return
	}
	if r.Level == "" {
		r.Level = LevelInfo
	}

	envelope := Envelope{
		SchemaVersion: auditSchemaVersion,
		EventID:       uuid.NewString(),
		EventType:     "audit_log",
		OccurredAt:    e.now().UTC().Format(time.RFC3339Nano),
		Service:       e.service,
		Environment:   e.environment,
		RequestID:     r.RequestID,
		UserID:        r.ActorID,
		Payload: AuditPayload{
			Level:   r.Level,
			Action:  r.Action,
			Text:    r.Text,
			Reason:  r.Reason,
			Subject: r.Subject,
		},
	}

	if err := e.publisher.Publish(context.WithoutCancel(ctx), AuditRoutingKey, envelope); err != nil {
		slog.Warn("failed to publish audit log", "action", r.Action, "error", err)
		return
	}
	observability.IncAuditEventPublished(string(r.Level))
}
