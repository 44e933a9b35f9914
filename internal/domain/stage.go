// Package domain contains core domain types for the dialogue engine.
package domain

import "fmt"

// Stage identifies one of the six fixed phases of the guided conversation.
// The order is total and never changes: S1 → S2 → S3 → S4 → S5 → S6.
type Stage string

const (
	// StageEmotionLabeling asks the child to name the character's emotion.
	StageEmotionLabeling Stage = "S1"
	// StageAskReason asks why the character felt that emotion.
	StageAskReason Stage = "S2"
	// StageAskExperience asks for a similar real-world experience.
	StageAskExperience Stage = "S3"
	// StageRealWorldEmotion asks the child to label a third party's emotion
	// in the reported experience.
	StageRealWorldEmotion Stage = "S4"
	// StageRealWorldReason asks why that third party felt the emotion.
	StageRealWorldReason Stage = "S5"
	// StageClosing is the terminal stage: a single closing turn, never
	// evaluated for transition.
	StageClosing Stage = "S6"
)

// stageOrder is the fixed progression of the conversation.
var stageOrder = []Stage{
	StageEmotionLabeling,
	StageAskReason,
	StageAskExperience,
	StageRealWorldEmotion,
	StageRealWorldReason,
	StageClosing,
}

// Stages returns the stages in conversation order.
func Stages() []Stage {
	out := make([]Stage, len(stageOrder))
	copy(out, stageOrder)
	return out
}

// ParseStage validates a stage identifier received from the outside.
func ParseStage(s string) (Stage, error) {
	for _, st := range stageOrder {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown stage %q", s)
}

// Valid reports whether the stage is one of the six known stages.
func (s Stage) Valid() bool {
	for _, st := range stageOrder {
		if s == st {
			return true
		}
	}
	return false
}

// Next returns the stage that follows s. The terminal stage has no
// successor; callers must check IsTerminal first.
func (s Stage) Next() (Stage, error) {
	for i, st := range stageOrder {
		if s != st {
			continue
		}
		if i == len(stageOrder)-1 {
			return "", fmt.Errorf("stage %s has no successor", s)
		}
		return stageOrder[i+1], nil
	}
	return "", fmt.Errorf("unknown stage %q", string(s))
}

// IsEmotionStage reports whether the stage asks the child to label an
// emotion. Emotion history only accumulates on these stages.
func (s Stage) IsEmotionStage() bool {
	return s == StageEmotionLabeling || s == StageRealWorldEmotion
}

// IsTerminal reports whether s is the closing stage.
func (s Stage) IsTerminal() bool {
	return s == StageClosing
}

func (s Stage) String() string {
	return string(s)
}
