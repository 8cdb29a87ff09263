package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	twilioclient "github.com/twilio/twilio-go/client"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

type fakeMessages struct {
	got    *openapi.CreateMessageParams
	status string
	err    error
	calls  int
}

func (f *fakeMessages) CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error) {
	f.calls++
	f.got = params
	if f.err != nil {
		return nil, f.err
	}
	sid := "SM1"
	status := f.status
	return &openapi.ApiV2010Message{Sid: &sid, Status: &status}, nil
}

func newTestTwilio(fake *fakeMessages) *TwilioClient {
	return &TwilioClient{messages: fake, from: "+15550001111"}
}

func TestTwilioSendBuildsMessage(t *testing.T) {
	fake := &fakeMessages{status: "queued"}

	require.NoError(t, newTestTwilio(fake).Send(context.Background(), "15551234567", "hi there"))
	require.NotNil(t, fake.got)
	assert.Equal(t, "+15551234567", *fake.got.To)
	assert.Equal(t, "+15550001111", *fake.got.From)
	assert.Equal(t, "hi there", *fake.got.Body)
}

func TestTwilioSendRequiresQueuedStatus(t *testing.T) {
	err := newTestTwilio(&fakeMessages{status: "failed"}).Send(context.Background(), "15551234567", "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not queued")

	require.NoError(t, newTestTwilio(&fakeMessages{status: "accepted"}).Send(context.Background(), "15551234567", "hi"))
}

func TestTwilioSendReportsRestErrors(t *testing.T) {
	fake := &fakeMessages{err: &twilioclient.TwilioRestError{Code: 21211, Message: "Invalid 'To' Phone Number", Status: 400}}

	err := newTestTwilio(fake).Send(context.Background(), "1", "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid 'To' Phone Number")
	assert.Contains(t, err.Error(), "21211")
}

func TestTwilioSendSkipsCanceledContext(t *testing.T) {
	fake := &fakeMessages{status: "queued"}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, newTestTwilio(fake).Send(ctx, "15551234567", "hi"), context.Canceled)
	assert.Zero(t, fake.calls)
}
