package notify

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"squad-service/internal/models"
)

type recordingPush struct {
	mu       sync.Mutex
	sent     []Message
	failFor  map[string]bool
	panicFor map[string]bool
}

func newRecordingPush() *recordingPush {
	return &recordingPush{failFor: map[string]bool{}, panicFor: map[string]bool{}}
}

func (r *recordingPush) Send(ctx context.Context, msg Message) error {
	if r.panicFor[msg.Token] {
		panic("gateway exploded")
	}
	if r.failFor[msg.Token] {
		return errors.New("unregistered token")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, msg)
	return nil
}

func (r *recordingPush) countFor(token string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, m := range r.sent {
		if m.Token == token {
			n++
		}
	}
	return n
}

func (r *recordingPush) messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.sent...)
}

type recordingSMS struct {
	mu    sync.Mutex
	sent  map[string]string
	fail  bool
	calls int
}

func (r *recordingSMS) Send(ctx context.Context, phone, body string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.fail {
		return errors.New("twilio down")
	}
	if r.sent == nil {
		r.sent = map[string]string{}
	}
	r.sent[phone] = body
	return nil
}

func person(first, last, token string, categories ...models.NotificationCategory) models.Profile {
	enabled := make(pq.StringArray, 0, len(categories))
	for _, c := range categories {
		enabled = append(enabled, string(c))
	}
	p := models.Profile{
		ID:                   uuid.New(),
		Phone:                "1555" + first,
		FirstName:            first,
		LastName:             last,
		EnabledNotifications: enabled,
	}
	if token != "" {
		p.FCMToken = &token
	}
	return p
}
