package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/fieldline/intake-ai/internal/dialog"
)

type fakeTelnyx struct {
	mu           sync.Mutex
	answered     []string
	spoken       []string
	transcribing []string
	answerErr    error
}

func (f *fakeTelnyx) Answer(_ context.Context, cc string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answered = append(f.answered, cc)
	return f.answerErr
}

func (f *fakeTelnyx) Speak(_ context.Context, cc, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.spoken = append(f.spoken, text)
	return nil
}

func (f *fakeTelnyx) StartTranscription(_ context.Context, cc string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transcribing = append(f.transcribing, cc)
	return nil
}

type fakeFinisher struct {
	mu    sync.Mutex
	ended []string
}

func (f *fakeFinisher) EndCall(_ context.Context, callID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ended = append(f.ended, callID)
}

func voiceEventJSON(eventType, callControlID string, extra map[string]any) string {
	payload := map[string]any{
		"call_control_id": callControlID,
		"from":            "+61400123456",
		"to":              "+61280001111",
		"direction":       "incoming",
	}
	for k, v := range extra {
		payload[k] = v
	}
	body, _ := json.Marshal(map[string]any{
		"data": map[string]any{
			"event_type": eventType,
			"id":         "evt-1",
			"payload":    payload,
		},
	})
	return string(body)
}

func newVoiceFixture(t *testing.T) (*VoiceHandler, *fakeTelnyx, *dialog.MemoryQueue, *fakeFinisher) {
	t.Helper()
	telnyx := &fakeTelnyx{}
	queue := dialog.NewMemoryQueue(8)
	finisher := &fakeFinisher{}
	h := NewVoiceHandler(VoiceHandlerConfig{
		Telnyx:   telnyx,
		Queue:    queue,
		Worker:   finisher,
		Greeting: "Thanks for calling Fieldline Plumbing.",
	})
	return h, telnyx, queue, finisher
}

func postEvent(t *testing.T, h *VoiceHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/telnyx/voice", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.HandleWebhook(rec, req)
	return rec
}

func TestInitiatedAnswersIncomingCall(t *testing.T) {
	h, telnyx, _, _ := newVoiceFixture(t)

	rec := postEvent(t, h, voiceEventJSON("call.initiated", "cc-1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if len(telnyx.answered) != 1 || telnyx.answered[0] != "cc-1" {
		t.Fatalf("answered = %v, want [cc-1]", telnyx.answered)
	}
}

func TestAnswerFailureStillAcksWebhook(t *testing.T) {
	h, telnyx, _, _ := newVoiceFixture(t)
	telnyx.answerErr = fmt.Errorf("telnyx down")

	rec := postEvent(t, h, voiceEventJSON("call.initiated", "cc-1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestInitiatedIgnoresOutgoingCall(t *testing.T) {
	h, telnyx, _, _ := newVoiceFixture(t)

	postEvent(t, h, voiceEventJSON("call.initiated", "cc-1", map[string]any{"direction": "outgoing"}))
	if len(telnyx.answered) != 0 {
		t.Fatalf("answered an outgoing call: %v", telnyx.answered)
	}
}

func TestAnsweredSpeaksGreetingAndStartsTranscription(t *testing.T) {
	h, telnyx, _, _ := newVoiceFixture(t)
	started := 0
	h.onCallStarted = func() { started++ }

	postEvent(t, h, voiceEventJSON("call.answered", "cc-2", nil))

	if len(telnyx.spoken) != 1 || !strings.Contains(telnyx.spoken[0], "Fieldline Plumbing") {
		t.Fatalf("spoken = %v, want greeting", telnyx.spoken)
	}
	if len(telnyx.transcribing) != 1 || telnyx.transcribing[0] != "cc-2" {
		t.Fatalf("transcribing = %v, want [cc-2]", telnyx.transcribing)
	}
	if started != 1 {
		t.Fatalf("call started hook fired %d times, want 1", started)
	}
}

func TestFinalTranscriptionEnqueued(t *testing.T) {
	h, _, queue, _ := newVoiceFixture(t)

	postEvent(t, h, voiceEventJSON("call.transcription", "cc-3", map[string]any{
		"transcription_data": map[string]any{"transcript": "my toilet is blocked", "is_final": true},
	}))

	msgs, err := queue.Receive(context.Background())
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("got %d messages, want 1", len(msgs))
	}
	u := msgs[0].Utterance
	if u.CallID != "cc-3" || u.CallerPhone != "+61400123456" || u.Text != "my toilet is blocked" {
		t.Fatalf("unexpected utterance: %+v", u)
	}
}

func TestInterimTranscriptionDropped(t *testing.T) {
	h, _, queue, _ := newVoiceFixture(t)

	postEvent(t, h, voiceEventJSON("call.transcription", "cc-3", map[string]any{
		"transcription_data": map[string]any{"transcript": "my toi", "is_final": false},
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if msgs, _ := queue.Receive(ctx); len(msgs) != 0 {
		t.Fatalf("interim transcript was enqueued: %+v", msgs)
	}
}

func TestHangupEndsCall(t *testing.T) {
	h, _, _, finisher := newVoiceFixture(t)

	postEvent(t, h, voiceEventJSON("call.hangup", "cc-4", nil))
	if len(finisher.ended) != 1 || finisher.ended[0] != "cc-4" {
		t.Fatalf("ended = %v, want [cc-4]", finisher.ended)
	}
}

func TestMissingCallControlIDRejected(t *testing.T) {
	h, _, _, _ := newVoiceFixture(t)

	rec := postEvent(t, h, voiceEventJSON("call.answered", "", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

type rejectingVerifier struct{}

func (rejectingVerifier) Verify(string, string, []byte) error {
	return fmt.Errorf("bad signature")
}

func TestSignatureFailureRejected(t *testing.T) {
	h, telnyx, _, _ := newVoiceFixture(t)
	h.verifier = rejectingVerifier{}

	rec := postEvent(t, h, voiceEventJSON("call.initiated", "cc-5", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if len(telnyx.answered) != 0 {
		t.Fatalf("answered despite bad signature: %v", telnyx.answered)
	}
}
