// Package stage defines the static per-stage configuration table: which
// capabilities a stage needs, its retry ladder, and its retry budget.
package stage

import (
	"fmt"

	"github.com/namurok/dialogue-engine/internal/domain"
)

// Capability names an external capability a stage depends on.
type Capability string

const (
	CapabilitySafety     Capability = "safety_gate"
	CapabilityClassifier Capability = "emotion_classifier"
	CapabilityJudge      Capability = "answer_judge"
	CapabilityGenerator  Capability = "response_generator"
)

// Tier indexes the fallback ladder. Tier 0 is the initial ask, before any
// failed attempt; higher tiers are increasingly constrained re-asks.
type Tier int

const (
	// TierInitial is the first ask on entering a stage.
	TierInitial Tier = 0
	// TierOpenRetry re-asks the question in a simpler open form.
	TierOpenRetry Tier = 1
	// TierChoiceRetry narrows the question to a binary choice.
	TierChoiceRetry Tier = 2
)

// Config is the static configuration of a single stage.
type Config struct {
	Stage                domain.Stage
	RequiredCapabilities []Capability
	// SuccessCriterion is informational text describing what counts as a
	// satisfying answer; the judge capability receives it verbatim.
	SuccessCriterion string
	FallbackLadder   []Tier
	// MaxRetry is the attempt budget: once attempts-so-far within the stage
	// reach it, the next decision is a forced advance. Zero means the stage
	// is never evaluated (terminal).
	MaxRetry int
}

var configs = map[domain.Stage]Config{
	domain.StageEmotionLabeling: {
		Stage: domain.StageEmotionLabeling,
		RequiredCapabilities: []Capability{
			CapabilitySafety, CapabilityClassifier, CapabilityGenerator,
		},
		SuccessCriterion: "아동이 감정 단어를 선택하거나 감정을 표현하려고 시도",
		FallbackLadder:   []Tier{TierInitial, TierOpenRetry, TierChoiceRetry},
		MaxRetry:         3,
	},
	domain.StageAskReason: {
		Stage: domain.StageAskReason,
		RequiredCapabilities: []Capability{
			CapabilitySafety, CapabilityJudge, CapabilityGenerator,
		},
		SuccessCriterion: "아동이 동화 장면과 관련된 이유나 원인을 설명",
		FallbackLadder:   []Tier{TierInitial, TierOpenRetry, TierChoiceRetry},
		MaxRetry:         3,
	},
	domain.StageAskExperience: {
		Stage: domain.StageAskExperience,
		RequiredCapabilities: []Capability{
			CapabilitySafety, CapabilityJudge, CapabilityGenerator,
		},
		SuccessCriterion: "아동이 경험 유무를 답하거나 구체적인 경험을 설명",
		FallbackLadder:   []Tier{TierInitial, TierOpenRetry, TierChoiceRetry},
		MaxRetry:         3,
	},
	domain.StageRealWorldEmotion: {
		Stage: domain.StageRealWorldEmotion,
		RequiredCapabilities: []Capability{
			CapabilitySafety, CapabilityClassifier, CapabilityGenerator,
		},
		SuccessCriterion: "아동이 실생활 상황 속 상대방의 감정을 표현",
		FallbackLadder:   []Tier{TierInitial, TierOpenRetry, TierChoiceRetry},
		MaxRetry:         3,
	},
	domain.StageRealWorldReason: {
		Stage: domain.StageRealWorldReason,
		RequiredCapabilities: []Capability{
			CapabilitySafety, CapabilityJudge, CapabilityGenerator,
		},
		SuccessCriterion: "아동이 상대방의 감정에 대한 이유를 추론",
		FallbackLadder:   []Tier{TierInitial, TierOpenRetry, TierChoiceRetry},
		MaxRetry:         3,
	},
	domain.StageClosing: {
		Stage: domain.StageClosing,
		RequiredCapabilities: []Capability{
			CapabilitySafety, CapabilityGenerator,
		},
		SuccessCriterion: "평가 없음: 마무리 발화 한 번으로 종료",
		FallbackLadder:   []Tier{TierInitial},
		MaxRetry:         0,
	},
}

// Get returns the configuration for a stage. An unknown stage is a
// configuration bug, not a runtime condition; callers must treat the error
// as fatal for the turn.
func Get(s domain.Stage) (Config, error) {
	cfg, ok := configs[s]
	if !ok {
		return Config{}, fmt.Errorf("no configuration for stage %q", string(s))
	}
	return cfg, nil
}

// TierForAttempt maps the number of failed attempts so far within a stage to
// the ladder tier the next response must use. Zero failures means the
// initial ask; the tier is clamped to the deepest rung of the ladder.
func (c Config) TierForAttempt(failedAttempts int) Tier {
	if failedAttempts < 0 {
		return TierInitial
	}
	if failedAttempts >= len(c.FallbackLadder) {
		return c.FallbackLadder[len(c.FallbackLadder)-1]
	}
	return c.FallbackLadder[failedAttempts]
}
