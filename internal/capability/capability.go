// Package capability defines the narrow contracts for the external services
// the engine depends on: content safety, emotion classification, answer
// judgment, speech-to-text, text-to-speech. Implementations live in
// subpackages; the core only sees these interfaces.
package capability

import (
	"context"

	"github.com/namurok/dialogue-engine/internal/domain"
)

// SafetyGate classifies a child utterance as safe or unsafe with category
// tags. An unsafe verdict short-circuits the whole turn.
type SafetyGate interface {
	Check(ctx context.Context, text string) domain.SafetyVerdict
}

// EmotionClassifier detects the dominant emotion in a child utterance.
type EmotionClassifier interface {
	Classify(ctx context.Context, text string) (domain.EmotionResult, error)
}

// JudgeRequest is the context handed to the natural-language judgment
// capability when the cheap rule layer could not decide.
type JudgeRequest struct {
	Stage     domain.Stage
	Criterion string
	Answer    string
	// Moments are up to the last 3 key moments, oldest first.
	Moments []domain.KeyMoment
	// ScenarioText is the S4 scenario for real-world reason judgments.
	ScenarioText string
	StoryID      string
	ChildName    string
}

// Judge renders a binary verdict on whether an answer satisfies the stage's
// success criterion.
type Judge interface {
	Evaluate(ctx context.Context, req JudgeRequest) (domain.Evaluation, error)
}

// Transcript is the outcome of speech-to-text.
type Transcript struct {
	Text       string
	Confidence float64
	Language   string
}

// Transcriber converts recorded child audio into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, format string) (Transcript, error)
}

// FeedbackDraft is the two-part parent report produced from a finished
// conversation.
type FeedbackDraft struct {
	Analysis    string
	ParentGuide string
}

// FeedbackWriter drafts the parent-facing analysis of a completed dialogue.
type FeedbackWriter interface {
	Draft(ctx context.Context, conversation string) (FeedbackDraft, error)
}

// Audio is synthesized speech.
type Audio struct {
	WAV        []byte
	DurationMS int64
}

// Speech synthesizes an utterance into audio. Failures degrade the turn to
// text-only; they never fail it.
type Speech interface {
	Synthesize(ctx context.Context, text string) (Audio, error)
}
