package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/fieldline/intake-ai/internal/dialog"
	"github.com/fieldline/intake-ai/pkg/logging"
)

// callController is the slice of the telephony client the voice webhook
// needs.
type callController interface {
	Answer(ctx context.Context, callControlID string) error
	Speak(ctx context.Context, callControlID, text string) error
	StartTranscription(ctx context.Context, callControlID string) error
}

// webhookVerifier checks Telnyx signature headers. Nil disables
// verification (dev only).
type webhookVerifier interface {
	Verify(timestamp, signature string, payload []byte) error
}

// callFinisher archives and tears down a finished call.
type callFinisher interface {
	EndCall(ctx context.Context, callID string)
}

// voiceEvent is the envelope Telnyx posts for call control webhooks.
type voiceEvent struct {
	Data struct {
		EventType string    `json:"event_type"`
		ID        string    `json:"id"`
		Payload   voiceData `json:"payload"`
	} `json:"data"`
}

type voiceData struct {
	CallControlID     string `json:"call_control_id"`
	From              string `json:"from"`
	To                string `json:"to"`
	Direction         string `json:"direction"`
	TranscriptionData struct {
		Transcript string `json:"transcript"`
		IsFinal    bool   `json:"is_final"`
	} `json:"transcription_data"`
}

// VoiceHandler turns Telnyx call control webhooks into dialogue work: it
// answers inbound calls, speaks the greeting, and feeds final transcription
// fragments onto the utterance queue.
type VoiceHandler struct {
	telnyx   callController
	queue    dialog.Queue
	worker   callFinisher
	verifier webhookVerifier
	greeting string
	logger   *logging.Logger

	onCallStarted func()
	now           func() time.Time
}

// VoiceHandlerConfig configures the VoiceHandler.
type VoiceHandlerConfig struct {
	Telnyx   callController
	Queue    dialog.Queue
	Worker   callFinisher
	Verifier webhookVerifier
	Greeting string
	Logger   *logging.Logger

	// OnCallStarted is invoked once per answered call, for metrics.
	OnCallStarted func()
}

func NewVoiceHandler(cfg VoiceHandlerConfig) *VoiceHandler {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &VoiceHandler{
		telnyx:        cfg.Telnyx,
		queue:         cfg.Queue,
		worker:        cfg.Worker,
		verifier:      cfg.Verifier,
		greeting:      cfg.Greeting,
		logger:        cfg.Logger.Component("voice_webhook"),
		onCallStarted: cfg.OnCallStarted,
		now:           time.Now,
	}
}

// HandleWebhook is the HTTP handler for POST /webhooks/telnyx/voice.
func (h *VoiceHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	if h.verifier != nil {
		timestamp := r.Header.Get("Telnyx-Timestamp")
		signature := r.Header.Get("Telnyx-Signature")
		if err := h.verifier.Verify(timestamp, signature, body); err != nil {
			h.logger.Warn("invalid webhook signature", "error", err)
			http.Error(w, "invalid signature", http.StatusUnauthorized)
			return
		}
	}

	var evt voiceEvent
	if err := json.Unmarshal(body, &evt); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	payload := evt.Data.Payload
	if payload.CallControlID == "" {
		http.Error(w, "missing call_control_id", http.StatusBadRequest)
		return
	}

	switch evt.Data.EventType {
	case "call.initiated":
		if payload.Direction != "incoming" {
			break
		}
		if err := h.telnyx.Answer(ctx, payload.CallControlID); err != nil {
			h.logger.Error("answer failed", "call_id", payload.CallControlID, "error", err)
		}
	case "call.answered":
		h.startCall(ctx, payload)
	case "call.transcription":
		h.enqueueTranscript(ctx, payload)
	case "call.hangup":
		h.worker.EndCall(ctx, payload.CallControlID)
	default:
		h.logger.Debug("ignoring event", "event_type", evt.Data.EventType)
	}

	w.WriteHeader(http.StatusOK)
}

func (h *VoiceHandler) startCall(ctx context.Context, payload voiceData) {
	if h.onCallStarted != nil {
		h.onCallStarted()
	}
	if err := h.telnyx.Speak(ctx, payload.CallControlID, h.greeting); err != nil {
		h.logger.Error("greeting failed", "call_id", payload.CallControlID, "error", err)
	}
	if err := h.telnyx.StartTranscription(ctx, payload.CallControlID); err != nil {
		h.logger.Error("transcription start failed", "call_id", payload.CallControlID, "error", err)
	}
	h.logger.Info("call answered", "call_id", payload.CallControlID, "from", payload.From)
}

func (h *VoiceHandler) enqueueTranscript(ctx context.Context, payload voiceData) {
	if !payload.TranscriptionData.IsFinal || payload.TranscriptionData.Transcript == "" {
		return
	}
	u := dialog.Utterance{
		CallID:      payload.CallControlID,
		CallerPhone: payload.From,
		Text:        payload.TranscriptionData.Transcript,
		ReceivedAt:  h.now(),
	}
	if err := h.queue.Publish(ctx, u); err != nil {
		h.logger.Error("utterance enqueue failed", "call_id", payload.CallControlID, "error", err)
	}
}
