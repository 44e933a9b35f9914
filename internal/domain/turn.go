package domain

// ActionItem hints the client UI at how to collect the next answer.
type ActionItem string

const (
	// ActionOpenQuestion expects a free-form spoken or typed answer.
	ActionOpenQuestion ActionItem = "open-question"
	// ActionChoiceSelection expects the child to pick from presented options.
	ActionChoiceSelection ActionItem = "choice-selection"
	// ActionTerminal signals the conversation has ended.
	ActionTerminal ActionItem = "terminal"
)

// SafetyVerdict is the outcome of the content-safety check on a child
// utterance.
type SafetyVerdict struct {
	Safe       bool     `json:"safe"`
	Categories []string `json:"categories,omitempty"`
	// Redirect is the child-friendly line substituted for the stage response
	// when the input is unsafe.
	Redirect string `json:"redirect,omitempty"`
}

// Evaluation is the answer evaluator's verdict for one turn.
type Evaluation struct {
	Success bool   `json:"success"`
	Reason  string `json:"reason"`
}

// Speech is a generated utterance, optionally with synthesized audio.
type Speech struct {
	Text string `json:"text"`
	// AudioBase64 is a base64-encoded WAV; empty when synthesis was skipped
	// or failed (the turn still succeeds text-only).
	AudioBase64 string `json:"audio_base64,omitempty"`
	DurationMS  int64  `json:"duration_ms,omitempty"`
}

// TurnResult is the ephemeral outcome of processing one turn.
type TurnResult struct {
	Transcript      string         `json:"transcript"`
	SafetyVerdict   SafetyVerdict  `json:"safety_verdict"`
	Response        Speech         `json:"response"`
	ActionItem      ActionItem     `json:"action_item"`
	Options         []string       `json:"options,omitempty"`
	DetectedEmotion *EmotionResult `json:"detected_emotion,omitempty"`
	Evaluation      Evaluation     `json:"evaluation"`

	// Stage is the stage the turn was processed under; NextStage is empty
	// when the terminal stage just completed.
	Stage        Stage `json:"stage"`
	NextStage    Stage `json:"next_stage,omitempty"`
	RetryCount   int   `json:"retry_count"`
	TurnIndex    int   `json:"turn_index"`
	UsedFallback bool  `json:"used_fallback"`
}
