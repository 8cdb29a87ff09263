package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const fcmScope = "https://www.googleapis.com/auth/firebase.messaging"

// FCMClient sends messages through the Firebase Cloud Messaging HTTP v1 API.
type FCMClient struct {
	client   *http.Client
	endpoint string
}

// NewFCMClient authenticates with a Google service account JSON key.
func NewFCMClient(ctx context.Context, credentialsJSON []byte) (*FCMClient, error) {
	creds, err := google.CredentialsFromJSON(ctx, credentialsJSON, fcmScope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse FCM credentials: %w", err)
	}
	if creds.ProjectID == "" {
		return nil, fmt.Errorf("FCM credentials have no project_id")
	}

	client := oauth2.NewClient(ctx, creds.TokenSource)
	client.Timeout = 10 * time.Second
	endpoint := fmt.Sprintf("https://fcm.googleapis.com/v1/projects/%s/messages:send", creds.ProjectID)
	return newFCMClient(client, endpoint), nil
}

func newFCMClient(client *http.Client, endpoint string) *FCMClient {
	return &FCMClient{client: client, endpoint: endpoint}
}

type fcmNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type fcmAndroid struct {
	CollapseKey string `json:"collapse_key,omitempty"`
}

type fcmAPNS struct {
	Headers map[string]string `json:"headers,omitempty"`
}

type fcmMessage struct {
	Token        string            `json:"token"`
	Notification fcmNotification   `json:"notification"`
	Data         map[string]string `json:"data,omitempty"`
	Android      *fcmAndroid       `json:"android,omitempty"`
	APNS         *fcmAPNS          `json:"apns,omitempty"`
}

type fcmError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *FCMClient) Send(ctx context.Context, msg Message) error {
	data := map[string]string{"notificationType": msg.Type}
	if msg.URL != "" {
		data["url"] = msg.URL
	}
	if msg.Payload != nil {
		payload, err := json.Marshal(msg.Payload)
		if err != nil {
			return fmt.Errorf("failed to encode payload: %w", err)
		}
		data["json"] = string(payload)
	}

	out := fcmMessage{
		Token:        msg.Token,
		Notification: fcmNotification{Title: msg.Title, Body: msg.Body},
		Data:         data,
	}
	if msg.CollapseKey != "" {
		out.Android = &fcmAndroid{CollapseKey: msg.CollapseKey}
		out.APNS = &fcmAPNS{Headers: map[string]string{"apns-collapse-id": msg.CollapseKey}}
	}

	body, err := json.Marshal(map[string]any{"message": out})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var fe fcmError
		if json.Unmarshal(raw, &fe) == nil && fe.Error.Message != "" {
			return fmt.Errorf("failed to send push notification: %s", fe.Error.Message)
		}
		return fmt.Errorf("failed to send push notification: status=%d, response=%s", resp.StatusCode, raw)
	}
	return nil
}
