// Package orchestrator drives one turn of the guided conversation: safety
// check, answer evaluation, stage transition, session mutation, response
// selection.
package orchestrator

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/namurok/dialogue-engine/internal/capability"
	"github.com/namurok/dialogue-engine/internal/domain"
	"github.com/namurok/dialogue-engine/internal/evaluator"
	"github.com/namurok/dialogue-engine/internal/respond"
	"github.com/namurok/dialogue-engine/internal/stage"
	"github.com/namurok/dialogue-engine/internal/store"
)

// Deps are the orchestrator's injected collaborators. Speech and Archive are
// optional; everything else is required.
type Deps struct {
	Sessions   store.SessionStore
	Archive    store.Archive
	Safety     capability.SafetyGate
	Classifier capability.EmotionClassifier
	Evaluator  *evaluator.Evaluator
	Responder  *respond.Generator
	Speech     capability.Speech
	Logger     *slog.Logger
}

// Orchestrator is the per-turn state machine over TTL-stored sessions.
type Orchestrator struct {
	deps   Deps
	logger *slog.Logger

	now   func() time.Time
	newID func() string
}

func New(deps Deps) (*Orchestrator, error) {
	if deps.Sessions == nil {
		return nil, fmt.Errorf("session store is required")
	}
	if deps.Safety == nil || deps.Classifier == nil {
		return nil, fmt.Errorf("safety gate and emotion classifier are required")
	}
	if deps.Evaluator == nil || deps.Responder == nil {
		return nil, fmt.Errorf("evaluator and responder are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		deps:   deps,
		logger: logger,
		now:    time.Now,
		newID:  uuid.NewString,
	}, nil
}

// Start creates a fresh session anchored to a story and returns the opening
// line.
func (o *Orchestrator) Start(ctx context.Context, childName, storyID string) (*domain.Session, domain.Speech, error) {
	if strings.TrimSpace(childName) == "" {
		return nil, domain.Speech{}, fmt.Errorf("child name is required")
	}
	story, err := domain.StoryByID(storyID)
	if err != nil {
		return nil, domain.Speech{}, err
	}

	sess := domain.NewSession(o.newID(), strings.TrimSpace(childName), story.ID, o.now())
	if err := o.deps.Sessions.Save(ctx, sess); err != nil {
		return nil, domain.Speech{}, fmt.Errorf("save new session: %w", err)
	}

	o.logger.Info("session started",
		"session_id", sess.ID, "story_id", story.ID, "stage", sess.CurrentStage)

	return sess, o.speak(ctx, o.deps.Responder.Intro(story, childName)), nil
}

// ProcessTurn runs the transition rule once for a single child input and
// persists the mutated session.
func (o *Orchestrator) ProcessTurn(ctx context.Context, sessionID, transcript string) (*domain.TurnResult, error) {
	sess, err := o.deps.Sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := sess.Validate(); err != nil {
		return nil, fmt.Errorf("corrupted session %s: %w", sessionID, err)
	}
	story, err := domain.StoryByID(sess.StoryID)
	if err != nil {
		return nil, fmt.Errorf("session %s references unknown story: %w", sessionID, err)
	}
	cfg, err := stage.Get(sess.CurrentStage)
	if err != nil {
		return nil, err
	}

	now := o.now()
	transcript = strings.TrimSpace(transcript)

	if !sess.Active {
		return o.finishInactiveTurn(ctx, sess, transcript, now)
	}

	// A silent turn has nothing to moderate; it goes straight to the
	// empty-answer evaluation failure.
	verdict := domain.SafetyVerdict{Safe: true}
	if transcript != "" {
		verdict = o.deps.Safety.Check(ctx, transcript)
		if !verdict.Safe {
			return o.finishSafetyTurn(ctx, sess, story, transcript, verdict, now)
		}
	}

	if sess.CurrentStage.IsTerminal() {
		return o.finishTerminalTurn(ctx, sess, story, transcript, verdict, now)
	}

	var detected *domain.EmotionResult
	if sess.CurrentStage.IsEmotionStage() && transcript != "" {
		if res, err := o.deps.Classifier.Classify(ctx, transcript); err != nil {
			o.logger.Warn("emotion classification unavailable",
				"session_id", sess.ID, "error", err)
		} else {
			detected = &res
		}
	}

	ev := o.deps.Evaluator.Evaluate(ctx, sess, cfg, transcript)

	processed := sess.CurrentStage
	var prompt respond.Prompt
	usedFallback := false

	switch {
	case ev.Success:
		next, err := processed.Next()
		if err != nil {
			return nil, err
		}
		switch processed {
		case domain.StageEmotionLabeling:
			sess.Context.S1Utterance = transcript
		case domain.StageAskExperience:
			sess.Context.ExperienceText = transcript
		}
		sess.CurrentStage = next
		sess.RetryCount = 0
		if next == domain.StageRealWorldEmotion {
			sess.Context.ScenarioText = o.deps.Responder.Scenario(sess.Context.ExperienceText)
		}
		prompt = o.deps.Responder.Ask(next, stage.TierInitial, sess, story)

	case sess.RetryCount+1 >= cfg.MaxRetry:
		next, err := processed.Next()
		if err != nil {
			return nil, err
		}
		sess.CurrentStage = next
		sess.RetryCount = 0
		usedFallback = true
		if next == domain.StageRealWorldEmotion {
			sess.Context.ScenarioText = o.deps.Responder.Scenario(sess.Context.ExperienceText)
		}
		prompt = o.deps.Responder.ForcedAdvance(processed, sess, story)
		o.logger.Info("forced advance",
			"session_id", sess.ID, "from", processed, "to", next)

	default:
		sess.RetryCount++
		usedFallback = true
		prompt = o.deps.Responder.Ask(processed, cfg.TierForAttempt(sess.RetryCount), sess, story)
	}

	sess.TurnIndex++
	if sess.CurrentStage.IsEmotionStage() && detected != nil && !detected.Primary.IsNeutral() {
		sess.EmotionHistory = append(sess.EmotionHistory, detected.Primary)
	}
	sess.RecordMoment(processed, sess.TurnIndex, transcript)
	sess.UpdatedAt = now

	if err := o.deps.Sessions.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session %s: %w", sess.ID, err)
	}

	return &domain.TurnResult{
		Transcript:      transcript,
		SafetyVerdict:   verdict,
		Response:        o.speak(ctx, prompt.Text),
		ActionItem:      prompt.Action,
		Options:         prompt.Options,
		DetectedEmotion: detected,
		Evaluation:      ev,
		Stage:           processed,
		NextStage:       sess.CurrentStage,
		RetryCount:      sess.RetryCount,
		TurnIndex:       sess.TurnIndex,
		UsedFallback:    usedFallback,
	}, nil
}

// finishTerminalTurn speaks the single closing line, deactivates the session
// and archives the completed dialogue.
func (o *Orchestrator) finishTerminalTurn(ctx context.Context, sess *domain.Session, story domain.Story, transcript string, verdict domain.SafetyVerdict, now time.Time) (*domain.TurnResult, error) {
	sess.TurnIndex++
	sess.RecordMoment(sess.CurrentStage, sess.TurnIndex, transcript)
	sess.Active = false
	sess.UpdatedAt = now

	if err := o.deps.Sessions.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session %s: %w", sess.ID, err)
	}
	if o.deps.Archive != nil {
		if err := o.deps.Archive.SaveDialogue(ctx, sess, story); err != nil {
			o.logger.Error("archive completed dialogue",
				"session_id", sess.ID, "error", err)
		}
	}

	o.logger.Info("session completed",
		"session_id", sess.ID, "turns", sess.TurnIndex)

	return &domain.TurnResult{
		Transcript:    transcript,
		SafetyVerdict: verdict,
		Response:      o.speak(ctx, o.deps.Responder.Closing(sess.ChildName)),
		ActionItem:    domain.ActionTerminal,
		Evaluation:    domain.Evaluation{Success: true, Reason: "마무리 단계"},
		Stage:         sess.CurrentStage,
		RetryCount:    sess.RetryCount,
		TurnIndex:     sess.TurnIndex,
	}, nil
}

// finishInactiveTurn handles input after the conversation already ended: the
// turn counter still moves, nothing else does.
func (o *Orchestrator) finishInactiveTurn(ctx context.Context, sess *domain.Session, transcript string, now time.Time) (*domain.TurnResult, error) {
	sess.TurnIndex++
	sess.UpdatedAt = now
	if err := o.deps.Sessions.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session %s: %w", sess.ID, err)
	}

	return &domain.TurnResult{
		Transcript:    transcript,
		SafetyVerdict: domain.SafetyVerdict{Safe: true},
		Response:      o.speak(ctx, o.deps.Responder.Closing(sess.ChildName)),
		ActionItem:    domain.ActionTerminal,
		Evaluation:    domain.Evaluation{Success: false, Reason: "종료된 세션"},
		Stage:         sess.CurrentStage,
		RetryCount:    sess.RetryCount,
		TurnIndex:     sess.TurnIndex,
	}, nil
}

// finishSafetyTurn substitutes the redirect line and bypasses evaluation
// entirely: no retry counting, no stage movement.
func (o *Orchestrator) finishSafetyTurn(ctx context.Context, sess *domain.Session, story domain.Story, transcript string, verdict domain.SafetyVerdict, now time.Time) (*domain.TurnResult, error) {
	sess.TurnIndex++
	sess.UpdatedAt = now
	if err := o.deps.Sessions.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session %s: %w", sess.ID, err)
	}

	category := ""
	if len(verdict.Categories) > 0 {
		category = verdict.Categories[0]
	}
	redirect := o.deps.Responder.SafetyRedirect(sess.ChildName, category, story)
	if verdict.Redirect != "" && category == "error" {
		// The gate itself asked for a re-phrase (e.g. its API was down).
		redirect = verdict.Redirect
	}

	o.logger.Warn("unsafe input redirected",
		"session_id", sess.ID, "stage", sess.CurrentStage, "categories", verdict.Categories)

	return &domain.TurnResult{
		Transcript:    transcript,
		SafetyVerdict: verdict,
		Response:      o.speak(ctx, redirect),
		ActionItem:    domain.ActionOpenQuestion,
		Evaluation:    domain.Evaluation{Success: false, Reason: "안전 필터"},
		Stage:         sess.CurrentStage,
		NextStage:     sess.CurrentStage,
		RetryCount:    sess.RetryCount,
		TurnIndex:     sess.TurnIndex,
	}, nil
}

// EndSession removes a live session. Used by the administrative delete.
func (o *Orchestrator) EndSession(ctx context.Context, sessionID string) error {
	return o.deps.Sessions.Delete(ctx, sessionID)
}

// speak synthesizes audio for a line when a speech capability is wired;
// synthesis failure degrades to text-only.
func (o *Orchestrator) speak(ctx context.Context, text string) domain.Speech {
	out := domain.Speech{Text: text}
	if o.deps.Speech == nil || text == "" {
		return out
	}
	audio, err := o.deps.Speech.Synthesize(ctx, text)
	if err != nil {
		o.logger.Warn("speech synthesis failed, returning text only", "error", err)
		return out
	}
	out.AudioBase64 = base64.StdEncoding.EncodeToString(audio.WAV)
	out.DurationMS = audio.DurationMS
	return out
}
