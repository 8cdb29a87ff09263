package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"squad-service/internal/models"
)

func staticMessage(models.Profile) Message {
	return Message{Type: "test", Title: "t", Body: "b"}
}

func TestNotifyIsolatesFailingRecipient(t *testing.T) {
	push := newRecordingPush()
	push.failFor["tok-2"] = true
	d := NewDispatcher(push, &recordingSMS{}, 2, nil)

	recipients := []models.Profile{
		person("Ann", "A", "tok-1", models.NotifyEventMessage),
		person("Ben", "B", "tok-2", models.NotifyEventMessage),
		person("Cat", "C", "tok-3", models.NotifyEventMessage),
	}

	report := d.Notify(context.Background(), "test", models.NotifyEventMessage, recipients, staticMessage)
	assert.Equal(t, Report{Sent: 2, Failed: 1}, report)
	assert.Equal(t, 1, push.countFor("tok-1"))
	assert.Equal(t, 0, push.countFor("tok-2"))
	assert.Equal(t, 1, push.countFor("tok-3"))
}

func TestNotifyRecoversFromPanics(t *testing.T) {
	push := newRecordingPush()
	push.panicFor["tok-2"] = true
	d := NewDispatcher(push, &recordingSMS{}, 0, nil)

	recipients := []models.Profile{
		person("Ann", "A", "tok-1", models.NotifyEventMessage),
		person("Ben", "B", "tok-2", models.NotifyEventMessage),
		person("Cat", "C", "tok-3", models.NotifyEventMessage),
	}

	report := d.Notify(context.Background(), "test", models.NotifyEventMessage, recipients, staticMessage)
	assert.Equal(t, Report{Sent: 2, Failed: 1}, report)
	assert.Equal(t, 1, push.countFor("tok-1"))
	assert.Equal(t, 1, push.countFor("tok-3"))
}

func TestNotifySkipsAndDeduplicates(t *testing.T) {
	push := newRecordingPush()
	d := NewDispatcher(push, &recordingSMS{}, 4, nil)

	ann := person("Ann", "A", "tok-1", models.NotifyRSVPChange)
	noToken := person("Ben", "B", "", models.NotifyRSVPChange)
	optedOut := person("Cat", "C", "tok-3", models.NotifyEventMessage)

	report := d.Notify(context.Background(), "test", models.NotifyRSVPChange,
		[]models.Profile{ann, noToken, ann, optedOut}, staticMessage)

	assert.Equal(t, Report{Sent: 1, Skipped: 2}, report)
	assert.Equal(t, 1, push.countFor("tok-1"))
	assert.Equal(t, 0, push.countFor("tok-3"))
}

func TestNotifyIgnoresCanceledContext(t *testing.T) {
	push := newRecordingPush()
	d := NewDispatcher(push, &recordingSMS{}, 1, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report := d.Notify(ctx, "test", models.NotifyEventChange,
		[]models.Profile{person("Ann", "A", "tok-1", models.NotifyEventChange)}, staticMessage)

	assert.Equal(t, 1, report.Sent)
	assert.Equal(t, 1, push.countFor("tok-1"))
}

func TestNotifySetsTokenPerRecipient(t *testing.T) {
	push := newRecordingPush()
	d := NewDispatcher(push, &recordingSMS{}, 1, nil)
	ann := person("Ann", "A", "tok-1", models.NotifyEventChange)

	d.Notify(context.Background(), "test", models.NotifyEventChange, []models.Profile{ann}, func(p models.Profile) Message {
		return Message{Type: "test", Body: p.FirstName}
	})

	msgs := push.messages()
	if assert.Len(t, msgs, 1) {
		assert.Equal(t, "tok-1", msgs[0].Token)
		assert.Equal(t, "Ann", msgs[0].Body)
	}
}

func TestSendSMS(t *testing.T) {
	sms := &recordingSMS{}
	d := NewDispatcher(newRecordingPush(), sms, 1, nil)

	assert.True(t, d.SendSMS(context.Background(), "invite", "15551234567", "hello"))
	assert.Equal(t, "hello", sms.sent["15551234567"])

	sms.fail = true
	assert.False(t, d.SendSMS(context.Background(), "invite", "15551234567", "again"))
}
