// Package feed routes row change snapshots from the database to the
// lifecycle hooks and notification workflows they trigger.
package feed

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"squad-service/internal/models"
	"squad-service/internal/observability"
)

const (
	TypeInsert = "INSERT"
	TypeUpdate = "UPDATE"
	TypeDelete = "DELETE"
)

// Change is one row change in the database webhook payload format.
type Change struct {
	Type      string          `json:"type"`
	Table     string          `json:"table"`
	Schema    string          `json:"schema"`
	Record    json.RawMessage `json:"record"`
	OldRecord json.RawMessage `json:"old_record"`
}

type InviteMaterializer interface {
	MaterializeInvites(ctx context.Context, profile models.Profile) ([]models.Friendship, error)
}

type EventWatcher interface {
	EventPosted(ctx context.Context, old *models.Event, event models.Event) error
	EventChanged(ctx context.Context, old *models.Event, event models.Event) error
	EventMessagePosted(ctx context.Context, msg models.EventMessage) error
}

type Router struct {
	invites InviteMaterializer
	events  EventWatcher
	logger  *slog.Logger
}

func NewRouter(invites InviteMaterializer, events EventWatcher, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{invites: invites, events: events, logger: logger.With("component", "feed")}
}

// Decode parses a webhook body.
func Decode(body []byte) (Change, error) {
	var c Change
	if err := json.Unmarshal(body, &c); err != nil {
		return Change{}, fmt.Errorf("invalid change payload: %w", err)
	}
	if c.Table == "" || c.Type == "" {
		return Change{}, errors.New("invalid change payload: missing type or table")
	}
	return c, nil
}

// HandleDelivery decodes and routes a message body. It has the shape of a
// rabbitmq.DeliveryHandler.
func (r *Router) HandleDelivery(ctx context.Context, routingKey string, body []byte) error {
	c, err := Decode(body)
	if err != nil {
		observability.IncChangeFeedEvent("unknown", "invalid")
		return err
	}
	return r.Handle(ctx, c)
}

// Handle dispatches c by table and change type. Changes nothing listens for
// are ignored.
func (r *Router) Handle(ctx context.Context, c Change) error {
	handled, err := r.route(ctx, c)
	result := "ignored"
	switch {
	case err != nil:
		result = "failed"
		r.logger.Error("failed to handle change", "table", c.Table, "type", c.Type, "error", err)
	case handled:
		result = "handled"
	}
	observability.IncChangeFeedEvent(c.Table, result)
	return err
}

func (r *Router) route(ctx context.Context, c Change) (bool, error) {
	switch c.Table {
	case "profiles":
		if c.Type != TypeInsert {
			return false, nil
		}
		var p models.Profile
		if err := decodeRecord(c.Record, &p); err != nil {
			return false, err
		}
		_, err := r.invites.MaterializeInvites(ctx, p)
		return true, err

	case "events":
		if c.Type != TypeInsert && c.Type != TypeUpdate {
			return false, nil
		}
		var event models.Event
		if err := decodeRecord(c.Record, &event); err != nil {
			return false, err
		}
		var old *models.Event
		if c.Type == TypeUpdate && hasRecord(c.OldRecord) {
			old = new(models.Event)
			if err := decodeRecord(c.OldRecord, old); err != nil {
				return false, err
			}
		}
		return true, errors.Join(
			r.events.EventPosted(ctx, old, event),
			r.events.EventChanged(ctx, old, event),
		)

	case "event_messages":
		if c.Type != TypeInsert {
			return false, nil
		}
		var msg models.EventMessage
		if err := decodeRecord(c.Record, &msg); err != nil {
			return false, err
		}
		return true, r.events.EventMessagePosted(ctx, msg)
	}
	return false, nil
}

func hasRecord(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

func decodeRecord(raw json.RawMessage, dest any) error {
	if !hasRecord(raw) {
		return errors.New("change has no record")
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("invalid change record: %w", err)
	}
	return nil
}
