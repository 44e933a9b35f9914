package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrSessionNotFound is returned when a turn references a session that does
// not exist in the store. The caller must start a session first; the engine
// never silently recreates one mid-conversation.
var ErrSessionNotFound = errors.New("session not found")

// KeyMoment records one non-empty child utterance, tagged with the stage and
// turn it occurred in.
type KeyMoment struct {
	Stage   Stage  `json:"stage"`
	Turn    int    `json:"turn"`
	Content string `json:"content"`
}

// StageContext carries the cross-stage facts later stages need. It replaces
// an open key-value map with the named fields actually consumed downstream.
type StageContext struct {
	// S1Utterance is what the child said during emotion labeling.
	S1Utterance string `json:"s1_utterance,omitempty"`
	// ExperienceText is the real-world experience reported in S3; S4 and S5
	// evaluate against it instead of recomputing.
	ExperienceText string `json:"experience_text,omitempty"`
	// ScenarioText is the situation summary the engine presented in S4; the
	// S5 rule layer matches answers against its keywords.
	ScenarioText string `json:"scenario_text,omitempty"`
}

// Session is the durable state of one conversation instance.
type Session struct {
	ID             string         `json:"session_id"`
	ChildName      string         `json:"child_name"`
	StoryID        string         `json:"story_id"`
	CurrentStage   Stage          `json:"current_stage"`
	TurnIndex      int            `json:"turn_index"`
	RetryCount     int            `json:"retry_count"`
	EmotionHistory []EmotionLabel `json:"emotion_history"`
	KeyMoments     []KeyMoment    `json:"key_moments"`
	Context        StageContext   `json:"context"`
	Active         bool           `json:"active"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// NewSession creates a session positioned at the first stage.
func NewSession(id, childName, storyID string, now time.Time) *Session {
	return &Session{
		ID:           id,
		ChildName:    childName,
		StoryID:      storyID,
		CurrentStage: StageEmotionLabeling,
		TurnIndex:    0,
		RetryCount:   0,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// RecordMoment appends a key moment for a non-empty transcript. Blank input
// is ignored.
func (s *Session) RecordMoment(stage Stage, turn int, content string) {
	if strings.TrimSpace(content) == "" {
		return
	}
	s.KeyMoments = append(s.KeyMoments, KeyMoment{Stage: stage, Turn: turn, Content: content})
}

// RecentMoments returns up to the last n key moments.
func (s *Session) RecentMoments(n int) []KeyMoment {
	if n >= len(s.KeyMoments) {
		return s.KeyMoments
	}
	return s.KeyMoments[len(s.KeyMoments)-n:]
}

// LastEmotion returns the most recently recorded emotion, or neutral if none
// has been recorded yet.
func (s *Session) LastEmotion() EmotionLabel {
	if len(s.EmotionHistory) == 0 {
		return EmotionNeutral
	}
	return s.EmotionHistory[len(s.EmotionHistory)-1]
}

// Validate checks invariants that must hold for any stored session. A
// violation indicates corrupted state and is fatal for the turn.
func (s *Session) Validate() error {
	if s.ID == "" {
		return errors.New("session has empty id")
	}
	if !s.CurrentStage.Valid() {
		return fmt.Errorf("session %s has unknown stage %q", s.ID, string(s.CurrentStage))
	}
	if s.TurnIndex < 0 || s.RetryCount < 0 {
		return fmt.Errorf("session %s has negative counters (turn=%d retry=%d)", s.ID, s.TurnIndex, s.RetryCount)
	}
	return nil
}

// MarshalSession is the single canonical session codec. Stores must not
// invent their own serialization.
func MarshalSession(s *Session) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal session %s: %w", s.ID, err)
	}
	return data, nil
}

// UnmarshalSession decodes a stored snapshot and validates it.
func UnmarshalSession(data []byte) (*Session, error) {
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}
