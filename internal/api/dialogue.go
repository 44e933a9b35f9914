package api

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/namurok/dialogue-engine/internal/domain"
)

type startSessionRequest struct {
	ChildName string `json:"child_name"`
	StoryID   string `json:"story_id"`
}

type startSessionResponse struct {
	Success   bool          `json:"success"`
	SessionID string        `json:"session_id"`
	Stage     domain.Stage  `json:"stage"`
	StoryID   string        `json:"story_id"`
	Response  domain.Speech `json:"response"`
}

// StartSession creates a session and returns the opening line.
func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.ChildName == "" || req.StoryID == "" {
		Error(w, http.StatusBadRequest, "child_name and story_id are required")
		return
	}

	sess, speech, err := h.orch.Start(r.Context(), req.ChildName, req.StoryID)
	if err != nil {
		h.logger.Warn("session start rejected", "story_id", req.StoryID, "error", err)
		Error(w, http.StatusBadRequest, err.Error())
		return
	}

	JSON(w, http.StatusCreated, startSessionResponse{
		Success:   true,
		SessionID: sess.ID,
		Stage:     sess.CurrentStage,
		StoryID:   sess.StoryID,
		Response:  speech,
	})
}

type turnRequest struct {
	SessionID string `json:"session_id"`
	// StageHint is advisory only; the authoritative stage is always the
	// stored session's.
	StageHint   string `json:"stage_hint,omitempty"`
	Transcript  string `json:"transcript,omitempty"`
	AudioBase64 string `json:"audio_base64,omitempty"`
	AudioFormat string `json:"audio_format,omitempty"`
}

type turnResponse struct {
	Success      bool               `json:"success"`
	SessionID    string             `json:"session_id"`
	Stage        domain.Stage       `json:"stage"`
	Result       *domain.TurnResult `json:"result"`
	NextStage    domain.Stage       `json:"next_stage,omitempty"`
	RetryCount   int                `json:"retry_count"`
	UsedFallback bool               `json:"used_fallback"`
}

// ProcessTurn runs one turn of the conversation.
func (h *Handler) ProcessTurn(w http.ResponseWriter, r *http.Request) {
	var req turnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.SessionID == "" {
		Error(w, http.StatusBadRequest, "session_id is required")
		return
	}

	transcript := req.Transcript
	if transcript == "" && req.AudioBase64 != "" {
		text, ok := h.transcribeAudio(r, req)
		if !ok {
			Error(w, http.StatusBadRequest, "audio input is not supported")
			return
		}
		transcript = text
	}

	result, err := h.orch.ProcessTurn(r.Context(), req.SessionID, transcript)
	if err != nil {
		h.turnError(w, req.SessionID, err)
		return
	}

	if req.StageHint != "" && req.StageHint != string(result.Stage) {
		h.logger.Debug("stage hint disagreed with stored session",
			"session_id", req.SessionID, "hint", req.StageHint, "actual", result.Stage)
	}

	JSON(w, http.StatusOK, turnResponse{
		Success:      true,
		SessionID:    req.SessionID,
		Stage:        result.Stage,
		Result:       result,
		NextStage:    result.NextStage,
		RetryCount:   result.RetryCount,
		UsedFallback: result.UsedFallback,
	})
}

// transcribeAudio decodes and transcribes an audio payload. Transcription
// failure degrades to an empty transcript rather than failing the turn; a
// missing transcriber or an undecodable payload is a caller error.
func (h *Handler) transcribeAudio(r *http.Request, req turnRequest) (string, bool) {
	if h.transcribe == nil {
		return "", false
	}
	audio, err := base64.StdEncoding.DecodeString(req.AudioBase64)
	if err != nil {
		return "", false
	}
	transcript, err := h.transcribe.Transcribe(r.Context(), audio, req.AudioFormat)
	if err != nil {
		h.logger.Warn("transcription failed, treating turn as silent",
			"session_id", req.SessionID, "error", err)
		return "", true
	}
	return transcript.Text, true
}

func (h *Handler) turnError(w http.ResponseWriter, sessionID string, err error) {
	if errors.Is(err, domain.ErrSessionNotFound) {
		Error(w, http.StatusNotFound, "session not found: start a session first")
		return
	}
	h.logger.Error("turn processing failed", "session_id", sessionID, "error", err)
	Error(w, http.StatusInternalServerError, "turn processing failed")
}

// GetSession returns the live session snapshot.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	sess, err := h.sessions.Get(r.Context(), sessionID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		Error(w, http.StatusNotFound, "session not found")
		return
	}
	if err != nil {
		h.logger.Error("session lookup failed", "session_id", sessionID, "error", err)
		Error(w, http.StatusInternalServerError, "session lookup failed")
		return
	}
	JSON(w, http.StatusOK, sess)
}

// DeleteSession removes a live session.
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if err := h.orch.EndSession(r.Context(), sessionID); err != nil {
		h.logger.Error("session delete failed", "session_id", sessionID, "error", err)
		Error(w, http.StatusInternalServerError, "session delete failed")
		return
	}
	JSON(w, http.StatusOK, map[string]bool{"success": true})
}

// ListStories returns the story catalog.
func (h *Handler) ListStories(w http.ResponseWriter, _ *http.Request) {
	JSON(w, http.StatusOK, map[string]interface{}{
		"stories": domain.AllStories(),
	})
}
