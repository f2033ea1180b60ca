package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultSendGridBaseURL = "https://api.sendgrid.com/v3"

// SendGridTransport sends through the SendGrid v3 Mail Send API.
type SendGridTransport struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewSendGridTransport(apiKey, baseURL string, timeout time.Duration) *SendGridTransport {
	if baseURL == "" {
		baseURL = defaultSendGridBaseURL
	}
	return &SendGridTransport{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

type sendGridAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type sendGridPersonalization struct {
	To         []sendGridAddress `json:"to"`
	CustomArgs map[string]string `json:"custom_args,omitempty"`
}

type sendGridContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sendGridToggle struct {
	Enable bool `json:"enable"`
}

type sendGridTracking struct {
	ClickTracking sendGridToggle `json:"click_tracking"`
	OpenTracking  sendGridToggle `json:"open_tracking"`
}

type sendGridRequest struct {
	Personalizations []sendGridPersonalization `json:"personalizations"`
	From             sendGridAddress           `json:"from"`
	ReplyTo          *sendGridAddress          `json:"reply_to,omitempty"`
	Subject          string                    `json:"subject"`
	Content          []sendGridContent         `json:"content"`
	TrackingSettings sendGridTracking          `json:"tracking_settings"`
}

func (t *SendGridTransport) Deliver(ctx context.Context, msg *Message) error {
	payload := sendGridRequest{
		Personalizations: []sendGridPersonalization{{
			To:         []sendGridAddress{{Email: msg.To, Name: msg.ToName}},
			CustomArgs: map[string]string{"recipient_id": msg.RecipientID, "message_id": msg.ID},
		}},
		From:    sendGridAddress{Email: msg.From.Address, Name: msg.From.Name},
		Subject: msg.Subject,
		// Opens and clicks are tracked by our own endpoints.
		TrackingSettings: sendGridTracking{},
	}
	if msg.Text != "" {
		payload.Content = append(payload.Content, sendGridContent{Type: "text/plain", Value: msg.Text})
	}
	payload.Content = append(payload.Content, sendGridContent{Type: "text/html", Value: msg.HTML})
	if msg.From.ReplyTo != "" {
		payload.ReplyTo = &sendGridAddress{Email: msg.From.ReplyTo}
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/mail/send", bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+t.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
