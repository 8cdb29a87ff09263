// Package notify computes notification recipients and delivers push and
// SMS messages to them.
package notify

import (
	"context"
	"log/slog"
)

// Message is one push notification addressed to a single device token.
type Message struct {
	Type        string
	Token       string
	Title       string
	Body        string
	URL         string
	CollapseKey string
	Payload     any
}

type PushGateway interface {
	Send(ctx context.Context, msg Message) error
}

type SMSGateway interface {
	Send(ctx context.Context, phone, body string) error
}

type noopPush struct{}

// NewNoopPush returns a gateway that drops messages, used when push
// credentials are not configured.
func NewNoopPush() PushGateway { return noopPush{} }

func (noopPush) Send(ctx context.Context, msg Message) error {
	slog.Debug("warning: push not configured; dropping notification", "type", msg.Type)
	return nil
}

type noopSMS struct{}

func NewNoopSMS() SMSGateway { return noopSMS{} }

func (noopSMS) Send(ctx context.Context, phone, body string) error {
	slog.Debug("warning: SMS not configured; dropping message")
	return nil
}
