// Package api provides HTTP handlers for the dialogue engine API.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/namurok/dialogue-engine/internal/capability"
	"github.com/namurok/dialogue-engine/internal/feedback"
	"github.com/namurok/dialogue-engine/internal/orchestrator"
	"github.com/namurok/dialogue-engine/internal/store"
)

// Handler provides common handler utilities.
type Handler struct {
	orch       *orchestrator.Orchestrator
	sessions   store.SessionStore
	archive    store.Archive
	feedback   *feedback.Service
	transcribe capability.Transcriber
	logger     *slog.Logger
}

// NewHandler creates a new Handler with common dependencies. The transcriber
// may be nil; audio input is then rejected.
func NewHandler(
	orch *orchestrator.Orchestrator,
	sessions store.SessionStore,
	archive store.Archive,
	fb *feedback.Service,
	transcribe capability.Transcriber,
	logger *slog.Logger,
) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		orch:       orch,
		sessions:   sessions,
		archive:    archive,
		feedback:   fb,
		transcribe: transcribe,
		logger:     logger,
	}
}

// RegisterRoutes mounts the API on the router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/dialogue", func(r chi.Router) {
			r.Post("/session/start", h.StartSession)
			r.Post("/turn", h.ProcessTurn)
			r.Get("/session/{sessionID}", h.GetSession)
			r.Delete("/session/{sessionID}", h.DeleteSession)
			r.Get("/stories", h.ListStories)
		})
		r.Get("/feedback/{sessionID}", h.GetFeedback)
	})
	r.Get("/health/ready", h.Ready)
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}
