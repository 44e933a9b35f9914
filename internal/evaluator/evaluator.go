// Package evaluator decides whether a child's answer satisfies the current
// stage. A deterministic rule layer runs first; only answers the rules cannot
// accept are escalated to the judge capability.
package evaluator

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/namurok/dialogue-engine/internal/capability"
	"github.com/namurok/dialogue-engine/internal/domain"
	"github.com/namurok/dialogue-engine/internal/stage"
)

// evasive answers fail outright at every stage.
var evasiveAnswers = []string{
	"음", "어", "응", "글쎄", "몰라", "몰라요", "모르겠어", "모르겠어요", "모름",
}

// reasonConnectives are the Korean suffixes that mark a cause clause.
var reasonConnectives = []string{
	"서", "니까", "라서", "때문", "잖아", "거든",
}

// experienceAnswers signal a clear yes/no/recall answer to "have you ever".
// A "no" is still a valid answer to the question.
var experienceAnswers = []string{
	"있어", "있었", "없어", "없었", "봤어", "봤었", "했어", "했었",
	"해봤", "기억나", "기억이 나", "그랬어", "당했",
}

// Evaluator is the two-tier answer evaluator.
type Evaluator struct {
	judge  capability.Judge
	logger *slog.Logger
}

func New(judge capability.Judge, logger *slog.Logger) *Evaluator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Evaluator{judge: judge, logger: logger}
}

// Evaluate renders the stage verdict for one answer. Judge failures never
// propagate: they degrade to a conservative length check.
func (e *Evaluator) Evaluate(ctx context.Context, sess *domain.Session, cfg stage.Config, answer string) domain.Evaluation {
	trimmed := strings.TrimSpace(answer)
	if trimmed == "" {
		return domain.Evaluation{Success: false, Reason: "빈 답변"}
	}
	if isEvasive(trimmed) {
		return domain.Evaluation{Success: false, Reason: "회피성 단답"}
	}

	if ev, ok := e.ruleVerdict(sess, cfg.Stage, trimmed); ok {
		return ev
	}

	req := capability.JudgeRequest{
		Stage:        cfg.Stage,
		Criterion:    cfg.SuccessCriterion,
		Answer:       trimmed,
		Moments:      sess.RecentMoments(3),
		ScenarioText: sess.Context.ScenarioText,
		StoryID:      sess.StoryID,
		ChildName:    sess.ChildName,
	}
	ev, err := e.judge.Evaluate(ctx, req)
	if err != nil {
		e.logger.Warn("judge unavailable, applying conservative default",
			"session_id", sess.ID, "stage", cfg.Stage, "error", err)
		return conservativeDefault(trimmed)
	}
	return ev
}

// ruleVerdict is the cheap deterministic layer. It only ever accepts: a rule
// miss is inconclusive, not a failure, so the judge gets the final word.
func (e *Evaluator) ruleVerdict(sess *domain.Session, s domain.Stage, answer string) (domain.Evaluation, bool) {
	switch s {
	case domain.StageEmotionLabeling, domain.StageRealWorldEmotion:
		if _, ok := domain.DetectEmotionKeyword(answer); ok {
			return domain.Evaluation{Success: true, Reason: "감정 단어 감지"}, true
		}
	case domain.StageAskReason:
		if hasReasonConnective(answer) {
			return domain.Evaluation{Success: true, Reason: "이유 연결어 감지"}, true
		}
	case domain.StageAskExperience:
		for _, kw := range experienceAnswers {
			if strings.Contains(answer, kw) {
				return domain.Evaluation{Success: true, Reason: "경험 답변 감지"}, true
			}
		}
	case domain.StageRealWorldReason:
		if hasReasonConnective(answer) {
			return domain.Evaluation{Success: true, Reason: "이유 연결어 감지"}, true
		}
		if mentionsScenario(answer, sess.Context.ScenarioText) {
			return domain.Evaluation{Success: true, Reason: "상황 키워드 감지"}, true
		}
	}
	return domain.Evaluation{}, false
}

func isEvasive(trimmed string) bool {
	for _, a := range evasiveAnswers {
		if trimmed == a {
			return true
		}
	}
	return false
}

func hasReasonConnective(answer string) bool {
	for _, c := range reasonConnectives {
		if strings.Contains(answer, c) {
			return true
		}
	}
	return false
}

// mentionsScenario checks word overlap between the answer and the stored S4
// scenario. Single-syllable scenario words are too noisy to count.
func mentionsScenario(answer, scenario string) bool {
	if scenario == "" {
		return false
	}
	for _, w := range strings.Fields(scenario) {
		w = strings.Trim(w, ".,!?~\"'")
		if utf8.RuneCountInString(w) < 2 {
			continue
		}
		if strings.Contains(answer, w) {
			return true
		}
	}
	return false
}

// conservativeDefault stands in for the judge when it is unreachable: any
// substantive answer passes rather than trapping the child in retries.
func conservativeDefault(trimmed string) domain.Evaluation {
	if utf8.RuneCountInString(trimmed) >= 3 && !isEvasive(trimmed) {
		return domain.Evaluation{Success: true, Reason: "평가 불가, 기본 통과"}
	}
	return domain.Evaluation{Success: false, Reason: "평가 불가, 답변 부족"}
}
