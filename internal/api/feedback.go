package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/namurok/dialogue-engine/internal/store"
)

// GetFeedback returns (generating if needed) the parent report for a
// completed session.
func (h *Handler) GetFeedback(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	report, err := h.feedback.Report(r.Context(), sessionID)
	if errors.Is(err, store.ErrDialogueNotFound) {
		Error(w, http.StatusNotFound, "no completed dialogue for this session")
		return
	}
	if err != nil {
		h.logger.Error("feedback report failed", "session_id", sessionID, "error", err)
		Error(w, http.StatusInternalServerError, "feedback report failed")
		return
	}
	JSON(w, http.StatusOK, report)
}

// Ready reports readiness of the stores behind the API.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"sessions": "ok", "archive": "ok"}
	healthy := true

	if err := h.sessions.Ping(r.Context()); err != nil {
		status["sessions"] = err.Error()
		healthy = false
	}
	if err := h.archive.Ping(r.Context()); err != nil {
		status["archive"] = err.Error()
		healthy = false
	}

	code := http.StatusOK
	if !healthy {
		code = http.StatusServiceUnavailable
	}
	JSON(w, code, status)
}
