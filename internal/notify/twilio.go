package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/twilio/twilio-go"
	twilioclient "github.com/twilio/twilio-go/client"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// messageCreator is the slice of the Twilio REST API this package uses.
// *openapi.ApiService satisfies it.
type messageCreator interface {
	CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error)
}

// TwilioClient sends SMS through the Twilio Messages API.
type TwilioClient struct {
	messages messageCreator
	from     string
}

func NewTwilioClient(accountSID, authToken, from string) *TwilioClient {
	rest := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &TwilioClient{messages: rest.Api, from: from}
}

// Send accepts the message only once Twilio reports it queued or accepted.
func (c *TwilioClient) Send(ctx context.Context, phone, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	params := &openapi.CreateMessageParams{}
	params.SetTo("+" + strings.TrimPrefix(phone, "+"))
	params.SetFrom(c.from)
	params.SetBody(body)

	msg, err := c.messages.CreateMessage(params)
	if err != nil {
		var restErr *twilioclient.TwilioRestError
		if errors.As(err, &restErr) {
			return fmt.Errorf("twilio returned status %d: %s (code %d)", restErr.Status, restErr.Message, restErr.Code)
		}
		return fmt.Errorf("twilio: %w", err)
	}

	status := ""
	if msg != nil && msg.Status != nil {
		status = *msg.Status
	}
	if status != "queued" && status != "accepted" {
		return fmt.Errorf("twilio message not queued: %q", status)
	}
	return nil
}
