package evaluator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/namurok/dialogue-engine/internal/capability"
	"github.com/namurok/dialogue-engine/internal/domain"
	"github.com/namurok/dialogue-engine/internal/stage"
)

type judgeSpy struct {
	calls  int
	result domain.Evaluation
	err    error
	last   capability.JudgeRequest
}

func (j *judgeSpy) Evaluate(_ context.Context, req capability.JudgeRequest) (domain.Evaluation, error) {
	j.calls++
	j.last = req
	return j.result, j.err
}

func testSession(t *testing.T, s domain.Stage) *domain.Session {
	t.Helper()
	sess := domain.NewSession("sess-1", "지민", "kongjwi", time.Now())
	sess.CurrentStage = s
	return sess
}

func mustConfig(t *testing.T, s domain.Stage) stage.Config {
	t.Helper()
	cfg, err := stage.Get(s)
	if err != nil {
		t.Fatalf("stage.Get(%s): %v", s, err)
	}
	return cfg
}

func TestEvaluateRuleLayerShortCircuits(t *testing.T) {
	tests := []struct {
		name   string
		stage  domain.Stage
		answer string
	}{
		{"emotion word in labeling stage", domain.StageEmotionLabeling, "콩쥐가 너무 슬퍼 보여"},
		{"emotion word in real-world stage", domain.StageRealWorldEmotion, "친구가 화났을 것 같아"},
		{"reason connective", domain.StageAskReason, "물이 다 새니까"},
		{"because suffix", domain.StageRealWorldReason, "혼자라서 그래"},
		{"experience yes", domain.StageAskExperience, "나도 그런 적 있어"},
		{"experience no", domain.StageAskExperience, "아니 없었어"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spy := &judgeSpy{}
			e := New(spy, nil)
			ev := e.Evaluate(context.Background(), testSession(t, tt.stage), mustConfig(t, tt.stage), tt.answer)
			if !ev.Success {
				t.Fatalf("expected rule-layer success, got %+v", ev)
			}
			if spy.calls != 0 {
				t.Fatalf("judge called %d times, want 0", spy.calls)
			}
		})
	}
}

func TestEvaluateRejectsWithoutJudge(t *testing.T) {
	tests := []struct {
		name   string
		answer string
	}{
		{"empty", ""},
		{"whitespace", "   "},
		{"evasive", "몰라"},
		{"evasive polite", "모르겠어요"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spy := &judgeSpy{}
			e := New(spy, nil)
			ev := e.Evaluate(context.Background(), testSession(t, domain.StageAskReason), mustConfig(t, domain.StageAskReason), tt.answer)
			if ev.Success {
				t.Fatalf("expected failure, got %+v", ev)
			}
			if spy.calls != 0 {
				t.Fatalf("judge called %d times, want 0", spy.calls)
			}
		})
	}
}

func TestEvaluateEscalatesToJudge(t *testing.T) {
	spy := &judgeSpy{result: domain.Evaluation{Success: true, Reason: "성공"}}
	e := New(spy, nil)
	sess := testSession(t, domain.StageAskReason)
	sess.RecordMoment(domain.StageEmotionLabeling, 1, "슬퍼")

	ev := e.Evaluate(context.Background(), sess, mustConfig(t, domain.StageAskReason), "콩쥐는 계속 일만 하고")
	if !ev.Success {
		t.Fatalf("expected judge verdict to pass through, got %+v", ev)
	}
	if spy.calls != 1 {
		t.Fatalf("judge called %d times, want 1", spy.calls)
	}
	if spy.last.Criterion == "" {
		t.Fatal("judge request missing success criterion")
	}
	if len(spy.last.Moments) != 1 {
		t.Fatalf("judge request carried %d moments, want 1", len(spy.last.Moments))
	}
}

func TestEvaluateJudgeFailureConservativeDefault(t *testing.T) {
	tests := []struct {
		name    string
		answer  string
		success bool
	}{
		{"substantive answer passes", "콩쥐는 일을 너무 많이 하고", true},
		{"too short fails", "응아", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spy := &judgeSpy{err: errors.New("upstream 503")}
			e := New(spy, nil)
			ev := e.Evaluate(context.Background(), testSession(t, domain.StageAskReason), mustConfig(t, domain.StageAskReason), tt.answer)
			if ev.Success != tt.success {
				t.Fatalf("conservative default: got %+v, want success=%v", ev, tt.success)
			}
		})
	}
}

func TestEvaluateScenarioOverlapRealWorldReason(t *testing.T) {
	spy := &judgeSpy{}
	e := New(spy, nil)
	sess := testSession(t, domain.StageRealWorldReason)
	sess.Context.ScenarioText = "친구가 쉬는 시간에 혼자 있었어"

	ev := e.Evaluate(context.Background(), sess, mustConfig(t, domain.StageRealWorldReason), "혼자 있는 게 외로웠나봐")
	if !ev.Success {
		t.Fatalf("expected scenario-keyword success, got %+v", ev)
	}
	if spy.calls != 0 {
		t.Fatalf("judge called %d times, want 0", spy.calls)
	}
}
