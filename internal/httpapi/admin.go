package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fieldline/intake-ai/internal/dialog"
	"github.com/fieldline/intake-ai/internal/leads"
	"github.com/fieldline/intake-ai/pkg/logging"
	"github.com/go-chi/chi/v5"
)

// transcriptReader serves stored call transcripts.
type transcriptReader interface {
	Transcript(ctx context.Context, callID string) ([]dialog.Turn, error)
}

// leadStore is the slice of the leads repository the admin surface uses.
type leadStore interface {
	ListPendingCallbacks(ctx context.Context) ([]leads.Lead, error)
	MarkContacted(ctx context.Context, callID string) error
}

// AdminHandler serves the office-facing endpoints behind admin auth.
type AdminHandler struct {
	transcripts transcriptReader
	leads       leadStore
	logger      *logging.Logger
}

func NewAdminHandler(transcripts transcriptReader, store leadStore, logger *logging.Logger) *AdminHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &AdminHandler{
		transcripts: transcripts,
		leads:       store,
		logger:      logger.Component("admin_api"),
	}
}

// GetTranscript is the handler for GET /admin/calls/{callID}/transcript.
func (h *AdminHandler) GetTranscript(w http.ResponseWriter, r *http.Request) {
	callID := chi.URLParam(r, "callID")
	if callID == "" {
		http.Error(w, "missing call id", http.StatusBadRequest)
		return
	}
	turns, err := h.transcripts.Transcript(r.Context(), callID)
	if err != nil {
		h.logger.Error("transcript fetch failed", "call_id", callID, "error", err)
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	if len(turns) == 0 {
		http.Error(w, "transcript not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"call_id": callID,
		"turns":   turns,
	})
}

// ListCallbacks is the handler for GET /admin/leads/callbacks.
func (h *AdminHandler) ListCallbacks(w http.ResponseWriter, r *http.Request) {
	pending, err := h.leads.ListPendingCallbacks(r.Context())
	if err != nil {
		h.logger.Error("callback list failed", "error", err)
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	if pending == nil {
		pending = []leads.Lead{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"callbacks": pending,
		"count":     len(pending),
	})
}

// MarkContacted is the handler for POST /admin/leads/{callID}/contacted.
func (h *AdminHandler) MarkContacted(w http.ResponseWriter, r *http.Request) {
	callID := chi.URLParam(r, "callID")
	if callID == "" {
		http.Error(w, "missing call id", http.StatusBadRequest)
		return
	}
	if err := h.leads.MarkContacted(r.Context(), callID); err != nil {
		if errors.Is(err, leads.ErrNotFound) {
			http.Error(w, "lead not found", http.StatusNotFound)
			return
		}
		h.logger.Error("mark contacted failed", "call_id", callID, "error", err)
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"call_id": callID, "contacted": true})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
