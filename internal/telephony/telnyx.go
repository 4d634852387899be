// Package telephony wraps the Telnyx call-control and messaging APIs: the
// voice side answers calls, speaks replies and starts transcription; the
// messaging side sends SMS.
package telephony

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fieldline/intake-ai/pkg/logging"
)

const defaultBaseURL = "https://api.telnyx.com"

// TelnyxClient drives live calls and sends SMS. It implements
// dialog.Responder and notify.SMSSender.
type TelnyxClient struct {
	apiKey     string
	fromNumber string
	profileID  string
	voice      string
	baseURL    string
	httpClient *http.Client
	logger     *logging.Logger
}

// TelnyxOptions tunes the client; zero values take defaults.
type TelnyxOptions struct {
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
	// ProfileID is the messaging profile used for SMS.
	ProfileID string
	// Voice is the text-to-speech voice; empty means "female".
	Voice string
}

// NewTelnyxClient creates a Telnyx client.
func NewTelnyxClient(apiKey, fromNumber string, logger *logging.Logger, opts TelnyxOptions) (*TelnyxClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("telephony: telnyx api key is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.HTTPClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		opts.HTTPClient = &http.Client{Timeout: timeout}
	}
	if opts.Voice == "" {
		opts.Voice = "female"
	}
	return &TelnyxClient{
		apiKey:     apiKey,
		fromNumber: fromNumber,
		profileID:  opts.ProfileID,
		voice:      opts.Voice,
		baseURL:    opts.BaseURL,
		httpClient: opts.HTTPClient,
		logger:     logger.Component("telnyx"),
	}, nil
}

// Answer picks up an inbound call.
func (c *TelnyxClient) Answer(ctx context.Context, callControlID string) error {
	return c.callAction(ctx, callControlID, "answer", map[string]any{})
}

// Speak reads text to the caller using text-to-speech.
func (c *TelnyxClient) Speak(ctx context.Context, callControlID, text string) error {
	return c.callAction(ctx, callControlID, "speak", map[string]any{
		"payload":  text,
		"voice":    c.voice,
		"language": "en-AU",
	})
}

// StartTranscription begins streaming the caller's speech to webhooks.
func (c *TelnyxClient) StartTranscription(ctx context.Context, callControlID string) error {
	return c.callAction(ctx, callControlID, "transcription_start", map[string]any{
		"language":             "en",
		"transcription_engine": "B",
	})
}

// Hangup ends the call.
func (c *TelnyxClient) Hangup(ctx context.Context, callControlID string) error {
	return c.callAction(ctx, callControlID, "hangup", map[string]any{})
}

// SendSMS sends a text message from the business number.
func (c *TelnyxClient) SendSMS(ctx context.Context, to, body string) error {
	payload := map[string]any{
		"from": c.fromNumber,
		"to":   to,
		"text": body,
	}
	if c.profileID != "" {
		payload["messaging_profile_id"] = c.profileID
	}
	if err := c.post(ctx, "/v2/messages", payload); err != nil {
		return fmt.Errorf("telephony: send sms: %w", err)
	}
	return nil
}

func (c *TelnyxClient) callAction(ctx context.Context, callControlID, action string, payload map[string]any) error {
	if callControlID == "" {
		return fmt.Errorf("telephony: call control id is required")
	}
	path := fmt.Sprintf("/v2/calls/%s/actions/%s", callControlID, action)
	if err := c.post(ctx, path, payload); err != nil {
		return fmt.Errorf("telephony: %s: %w", action, err)
	}
	return nil
}

func (c *TelnyxClient) post(ctx context.Context, path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("telnyx returned %d: %s", resp.StatusCode, detail)
	}
	return nil
}
