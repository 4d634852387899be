package telephony

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

type captured struct {
	path    string
	auth    string
	payload map[string]any
}

func newTestClient(t *testing.T, status int) (*TelnyxClient, *[]captured) {
	t.Helper()
	var calls []captured
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		_ = json.NewDecoder(r.Body).Decode(&payload)
		calls = append(calls, captured{
			path:    r.URL.Path,
			auth:    r.Header.Get("Authorization"),
			payload: payload,
		})
		w.WriteHeader(status)
	}))
	t.Cleanup(server.Close)

	client, err := NewTelnyxClient("key-123", "+61290000000", nil, TelnyxOptions{
		BaseURL:   server.URL,
		ProfileID: "profile-1",
	})
	if err != nil {
		t.Fatalf("NewTelnyxClient() error = %v", err)
	}
	return client, &calls
}

func TestSpeakPostsCallAction(t *testing.T) {
	client, calls := newTestClient(t, http.StatusOK)

	if err := client.Speak(context.Background(), "cc-1", "Thanks for calling"); err != nil {
		t.Fatalf("Speak() error = %v", err)
	}

	got := (*calls)[0]
	if got.path != "/v2/calls/cc-1/actions/speak" {
		t.Errorf("path = %q", got.path)
	}
	if got.auth != "Bearer key-123" {
		t.Errorf("auth = %q", got.auth)
	}
	if got.payload["payload"] != "Thanks for calling" {
		t.Errorf("payload = %v", got.payload)
	}
	if got.payload["language"] != "en-AU" {
		t.Errorf("language = %v, want en-AU", got.payload["language"])
	}
	if got.payload["voice"] != "female" {
		t.Errorf("voice = %v, want the female default", got.payload["voice"])
	}
}

func TestSpeakUsesConfiguredVoice(t *testing.T) {
	var payload map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&payload)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)

	client, err := NewTelnyxClient("key-123", "+61290000000", nil, TelnyxOptions{
		BaseURL: server.URL,
		Voice:   "male",
	})
	if err != nil {
		t.Fatalf("NewTelnyxClient() error = %v", err)
	}

	if err := client.Speak(context.Background(), "cc-1", "One moment please"); err != nil {
		t.Fatalf("Speak() error = %v", err)
	}
	if payload["voice"] != "male" {
		t.Errorf("voice = %v, want male", payload["voice"])
	}
}

func TestAnswerAndHangup(t *testing.T) {
	client, calls := newTestClient(t, http.StatusOK)

	if err := client.Answer(context.Background(), "cc-1"); err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if err := client.Hangup(context.Background(), "cc-1"); err != nil {
		t.Fatalf("Hangup() error = %v", err)
	}

	if (*calls)[0].path != "/v2/calls/cc-1/actions/answer" {
		t.Errorf("first path = %q", (*calls)[0].path)
	}
	if (*calls)[1].path != "/v2/calls/cc-1/actions/hangup" {
		t.Errorf("second path = %q", (*calls)[1].path)
	}
}

func TestSendSMS(t *testing.T) {
	client, calls := newTestClient(t, http.StatusOK)

	if err := client.SendSMS(context.Background(), "+61412345678", "Your plumber is booked."); err != nil {
		t.Fatalf("SendSMS() error = %v", err)
	}

	got := (*calls)[0]
	if got.path != "/v2/messages" {
		t.Errorf("path = %q", got.path)
	}
	if got.payload["to"] != "+61412345678" || got.payload["from"] != "+61290000000" {
		t.Errorf("payload = %v", got.payload)
	}
	if got.payload["messaging_profile_id"] != "profile-1" {
		t.Errorf("messaging_profile_id = %v", got.payload["messaging_profile_id"])
	}
}

func TestErrorStatusSurfaces(t *testing.T) {
	client, _ := newTestClient(t, http.StatusUnprocessableEntity)
	if err := client.Speak(context.Background(), "cc-1", "hi"); err == nil {
		t.Error("Speak() error = nil, want API error")
	}
}

func TestCallActionRequiresCallControlID(t *testing.T) {
	client, _ := newTestClient(t, http.StatusOK)
	if err := client.Speak(context.Background(), "", "hi"); err == nil {
		t.Error("Speak() with empty call control id error = nil, want error")
	}
}
