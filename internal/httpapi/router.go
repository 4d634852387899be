// Package httpapi exposes the webhook and office-admin HTTP surface of the
// intake agent.
package httpapi

import (
	"net/http"

	"github.com/fieldline/intake-ai/pkg/logging"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// RouterConfig holds router configuration.
type RouterConfig struct {
	Logger          *logging.Logger
	Voice           *VoiceHandler
	Admin           *AdminHandler
	AdminAuthSecret string
	MetricsHandler  http.Handler
}

// NewRouter creates the chi router with all routes configured.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if cfg.Logger != nil {
		r.Use(RequestLogger(cfg.Logger))
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	if cfg.Voice != nil {
		r.Post("/webhooks/telnyx/voice", cfg.Voice.HandleWebhook)
	}

	if cfg.Admin != nil {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(AdminJWT(cfg.AdminAuthSecret))
			admin.Get("/calls/{callID}/transcript", cfg.Admin.GetTranscript)
			admin.Get("/leads/callbacks", cfg.Admin.ListCallbacks)
			admin.Post("/leads/{callID}/contacted", cfg.Admin.MarkContacted)
		})
	}

	return r
}
