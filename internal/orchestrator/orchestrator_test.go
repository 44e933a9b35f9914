package orchestrator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/namurok/dialogue-engine/internal/capability"
	"github.com/namurok/dialogue-engine/internal/domain"
	"github.com/namurok/dialogue-engine/internal/evaluator"
	"github.com/namurok/dialogue-engine/internal/respond"
	"github.com/namurok/dialogue-engine/internal/store"
)

type safetyFake struct {
	verdict domain.SafetyVerdict
	calls   int
}

func (s *safetyFake) Check(context.Context, string) domain.SafetyVerdict {
	s.calls++
	return s.verdict
}

func safeGate() *safetyFake {
	return &safetyFake{verdict: domain.SafetyVerdict{Safe: true}}
}

type classifierFake struct {
	result domain.EmotionResult
	err    error
}

func (c *classifierFake) Classify(context.Context, string) (domain.EmotionResult, error) {
	return c.result, c.err
}

type judgeFake struct {
	success bool
	err     error
	calls   int
}

func (j *judgeFake) Evaluate(context.Context, capability.JudgeRequest) (domain.Evaluation, error) {
	j.calls++
	if j.err != nil {
		return domain.Evaluation{}, j.err
	}
	if j.success {
		return domain.Evaluation{Success: true, Reason: "성공"}, nil
	}
	return domain.Evaluation{Success: false, Reason: "실패"}, nil
}

type archiveFake struct {
	store.Archive
	saved []string
}

func (a *archiveFake) SaveDialogue(_ context.Context, sess *domain.Session, _ domain.Story) error {
	a.saved = append(a.saved, sess.ID)
	return nil
}

type fixture struct {
	orch    *Orchestrator
	store   *store.MemoryStore
	safety  *safetyFake
	judge   *judgeFake
	archive *archiveFake
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:   store.NewMemory(time.Hour),
		safety:  safeGate(),
		judge:   &judgeFake{},
		archive: &archiveFake{},
	}
	f.safety.verdict = domain.SafetyVerdict{Safe: true}

	classifier := &classifierFake{result: domain.EmotionResult{Primary: domain.EmotionSad, Confidence: 0.9}}
	orch, err := New(Deps{
		Sessions:   f.store,
		Archive:    f.archive,
		Safety:     f.safety,
		Classifier: classifier,
		Evaluator:  evaluator.New(f.judge, nil),
		Responder:  respond.NewGenerator(),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	f.orch = orch
	return f
}

func (f *fixture) start(t *testing.T) *domain.Session {
	t.Helper()
	sess, speech, err := f.orch.Start(context.Background(), "김지민", "콩쥐팥쥐")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if speech.Text == "" {
		t.Fatal("Start returned empty intro")
	}
	return sess
}

func (f *fixture) turn(t *testing.T, id, transcript string) *domain.TurnResult {
	t.Helper()
	res, err := f.orch.ProcessTurn(context.Background(), id, transcript)
	if err != nil {
		t.Fatalf("ProcessTurn(%q): %v", transcript, err)
	}
	return res
}

func TestStartCreatesSessionAtFirstStage(t *testing.T) {
	f := newFixture(t)
	sess := f.start(t)

	if sess.CurrentStage != domain.StageEmotionLabeling {
		t.Fatalf("new session stage = %s, want %s", sess.CurrentStage, domain.StageEmotionLabeling)
	}
	if !sess.Active || sess.TurnIndex != 0 || sess.RetryCount != 0 {
		t.Fatalf("unexpected fresh session state: %+v", sess)
	}

	stored, err := f.store.Get(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("session not persisted: %v", err)
	}
	if stored.StoryID != "콩쥐팥쥐" {
		t.Fatalf("stored story = %q", stored.StoryID)
	}
}

func TestTurnAdvancesOnSuccess(t *testing.T) {
	f := newFixture(t)
	sess := f.start(t)

	res := f.turn(t, sess.ID, "콩쥐가 너무 슬퍼 보여")

	if !res.Evaluation.Success {
		t.Fatalf("expected success, got %+v", res.Evaluation)
	}
	if res.Stage != domain.StageEmotionLabeling || res.NextStage != domain.StageAskReason {
		t.Fatalf("transition = %s -> %s, want S1 -> S2", res.Stage, res.NextStage)
	}
	if res.RetryCount != 0 || res.UsedFallback {
		t.Fatalf("advance must reset retries, got %+v", res)
	}
	if res.TurnIndex != 1 {
		t.Fatalf("turnIndex = %d, want 1", res.TurnIndex)
	}
	if res.DetectedEmotion == nil || res.DetectedEmotion.Primary != domain.EmotionSad {
		t.Fatalf("detected emotion = %+v", res.DetectedEmotion)
	}
	if f.judge.calls != 0 {
		t.Fatalf("rule-layer success must not call the judge, got %d calls", f.judge.calls)
	}

	stored, _ := f.store.Get(context.Background(), sess.ID)
	if stored.Context.S1Utterance != "콩쥐가 너무 슬퍼 보여" {
		t.Fatalf("S1 utterance not captured: %q", stored.Context.S1Utterance)
	}
	if len(stored.KeyMoments) != 1 || stored.KeyMoments[0].Stage != domain.StageEmotionLabeling {
		t.Fatalf("key moment not recorded: %+v", stored.KeyMoments)
	}
}

func TestRetryLadderThenForcedAdvance(t *testing.T) {
	f := newFixture(t)
	sess := f.start(t)

	// Pass S1, then fail S2 repeatedly: the judge always says no.
	f.turn(t, sess.ID, "슬퍼 보여")

	first := f.turn(t, sess.ID, "바나나")
	if first.NextStage != domain.StageAskReason || first.RetryCount != 1 {
		t.Fatalf("first failure: %+v", first)
	}
	if !first.UsedFallback || first.ActionItem != domain.ActionOpenQuestion {
		t.Fatalf("tier 1 must be an open re-ask: %+v", first)
	}

	second := f.turn(t, sess.ID, "바나나")
	if second.RetryCount != 2 {
		t.Fatalf("second failure retryCount = %d, want 2", second.RetryCount)
	}
	if second.ActionItem != domain.ActionChoiceSelection || len(second.Options) != 2 {
		t.Fatalf("tier 2 must be a binary choice: %+v", second)
	}

	third := f.turn(t, sess.ID, "바나나")
	if third.Stage != domain.StageAskReason || third.NextStage != domain.StageAskExperience {
		t.Fatalf("exhausted budget must force-advance: %s -> %s", third.Stage, third.NextStage)
	}
	if third.RetryCount != 0 || !third.UsedFallback {
		t.Fatalf("forced advance state: %+v", third)
	}
	if third.Evaluation.Success {
		t.Fatal("forced advance must not report an evaluation success")
	}
}

func TestTurnIndexMonotonic(t *testing.T) {
	f := newFixture(t)
	sess := f.start(t)

	inputs := []string{"슬퍼", "바나나", "", "물이 새서 그래"}
	for i, in := range inputs {
		res := f.turn(t, sess.ID, in)
		if res.TurnIndex != i+1 {
			t.Fatalf("turn %d: turnIndex = %d, want %d", i, res.TurnIndex, i+1)
		}
	}
}

func TestSafetyShortCircuit(t *testing.T) {
	f := newFixture(t)
	sess := f.start(t)
	f.turn(t, sess.ID, "슬퍼 보여") // S1 -> S2

	f.safety.verdict = domain.SafetyVerdict{
		Safe:       false,
		Categories: []string{"violence"},
	}
	res := f.turn(t, sess.ID, "때리고 싶어")

	if res.Stage != domain.StageAskReason || res.NextStage != domain.StageAskReason {
		t.Fatalf("unsafe turn moved the stage: %+v", res)
	}
	if res.RetryCount != 0 {
		t.Fatalf("unsafe turn touched retryCount: %d", res.RetryCount)
	}
	if res.TurnIndex != 2 {
		t.Fatalf("unsafe turn must still count: turnIndex = %d", res.TurnIndex)
	}
	if f.judge.calls != 0 {
		t.Fatal("unsafe turn must bypass evaluation entirely")
	}
	if res.Response.Text == "" || res.SafetyVerdict.Safe {
		t.Fatalf("missing redirect response: %+v", res)
	}

	// A safe follow-up resumes from the same stage.
	f.safety.verdict = domain.SafetyVerdict{Safe: true}
	next := f.turn(t, sess.ID, "물이 계속 새서 그래")
	if next.Stage != domain.StageAskReason {
		t.Fatalf("stage after redirect = %s, want S2", next.Stage)
	}
}

func TestSilentTurnSkipsSafetyGate(t *testing.T) {
	f := newFixture(t)
	sess := f.start(t)

	// A gate whose API is down folds every check into a conservative
	// unsafe verdict; a silent turn must never reach it.
	f.safety.verdict = domain.SafetyVerdict{
		Safe:       false,
		Categories: []string{"error"},
		Redirect:   "다시 한 번 말해줄래?",
	}
	res := f.turn(t, sess.ID, "   ")

	if f.safety.calls != 0 {
		t.Fatalf("empty transcript reached the safety gate %d times", f.safety.calls)
	}
	if !res.SafetyVerdict.Safe {
		t.Fatalf("silent turn treated as unsafe: %+v", res.SafetyVerdict)
	}
	if res.Evaluation.Success {
		t.Fatal("empty answer must fail evaluation")
	}
	if res.Stage != domain.StageEmotionLabeling || res.RetryCount != 1 {
		t.Fatalf("silent turn should retry the stage: stage=%s retry=%d", res.Stage, res.RetryCount)
	}

	// A spoken answer still passes through the gate.
	f.safety.verdict = domain.SafetyVerdict{Safe: true}
	f.turn(t, sess.ID, "슬퍼 보여")
	if f.safety.calls != 1 {
		t.Fatalf("spoken turn should hit the gate once, got %d", f.safety.calls)
	}
}

func TestTerminalIdempotence(t *testing.T) {
	f := newFixture(t)
	f.judge.success = true
	sess := f.start(t)

	// Walk S1..S5 with passing answers, landing on S6.
	answers := []string{"슬퍼", "물이 새서", "나도 그런 적 있어", "속상했을 거야", "혼자 남아서"}
	var last *domain.TurnResult
	for _, a := range answers {
		last = f.turn(t, sess.ID, a)
	}
	if last.NextStage != domain.StageClosing {
		t.Fatalf("expected to reach S6, got %s", last.NextStage)
	}

	closing := f.turn(t, sess.ID, "응")
	if closing.ActionItem != domain.ActionTerminal {
		t.Fatalf("closing action = %s", closing.ActionItem)
	}
	if closing.NextStage != "" {
		t.Fatalf("terminal turn must not name a next stage: %q", closing.NextStage)
	}
	if len(f.archive.saved) != 1 || f.archive.saved[0] != sess.ID {
		t.Fatalf("completed dialogue not archived: %v", f.archive.saved)
	}

	stored, _ := f.store.Get(context.Background(), sess.ID)
	if stored.Active {
		t.Fatal("session still active after closing turn")
	}

	after := f.turn(t, sess.ID, "또 하고 싶어")
	if after.Stage != domain.StageClosing || after.ActionItem != domain.ActionTerminal {
		t.Fatalf("post-terminal turn: %+v", after)
	}
	if after.TurnIndex != closing.TurnIndex+1 {
		t.Fatalf("post-terminal turnIndex = %d, want %d", after.TurnIndex, closing.TurnIndex+1)
	}
	if len(f.archive.saved) != 1 {
		t.Fatalf("post-terminal turn re-archived: %v", f.archive.saved)
	}
}

func TestStageOrderingNeverSkips(t *testing.T) {
	f := newFixture(t)
	f.judge.success = true
	sess := f.start(t)

	order := domain.Stages()
	seen := 0
	for i := 0; i < 10 && seen < len(order)-1; i++ {
		res := f.turn(t, sess.ID, "슬퍼서 그런 것 같아, 나도 그런 적 있어")
		if res.Stage != order[seen] {
			t.Fatalf("turn %d processed %s, want %s", i, res.Stage, order[seen])
		}
		if res.NextStage != order[seen+1] {
			t.Fatalf("turn %d advanced to %s, want %s", i, res.NextStage, order[seen+1])
		}
		seen++
	}
	if seen != len(order)-1 {
		t.Fatalf("conversation stalled after %d transitions", seen)
	}
}

func TestScenarioCapturedEnteringRealWorld(t *testing.T) {
	f := newFixture(t)
	f.judge.success = true
	sess := f.start(t)

	f.turn(t, sess.ID, "슬퍼 보여")
	f.turn(t, sess.ID, "물이 자꾸 새서 그래")
	res := f.turn(t, sess.ID, "엄마가 울고 있는 걸 본 적 있어")

	if res.NextStage != domain.StageRealWorldEmotion {
		t.Fatalf("expected to enter S4, got %s", res.NextStage)
	}
	stored, _ := f.store.Get(context.Background(), sess.ID)
	if stored.Context.ExperienceText != "엄마가 울고 있는 걸 본 적 있어" {
		t.Fatalf("experience not captured: %q", stored.Context.ExperienceText)
	}
	if stored.Context.ScenarioText != stored.Context.ExperienceText {
		t.Fatalf("scenario = %q, want child's own experience", stored.Context.ScenarioText)
	}
}

func TestEmotionHistoryOnRetry(t *testing.T) {
	f := newFixture(t)
	sess := f.start(t)

	// A non-lexicon answer in S1 fails (judge says no) and keeps the stage,
	// so the detected emotion lands in the history.
	f.turn(t, sess.ID, "으로로로롱")

	stored, _ := f.store.Get(context.Background(), sess.ID)
	if stored.CurrentStage != domain.StageEmotionLabeling {
		t.Fatalf("expected retry on S1, got %s", stored.CurrentStage)
	}
	if len(stored.EmotionHistory) != 1 || stored.EmotionHistory[0] != domain.EmotionSad {
		t.Fatalf("emotion history = %v", stored.EmotionHistory)
	}
}

func TestMissingSessionIsDistinct(t *testing.T) {
	f := newFixture(t)
	_, err := f.orch.ProcessTurn(context.Background(), "ghost", "안녕")
	if !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestStartRejectsUnknownStory(t *testing.T) {
	f := newFixture(t)
	if _, _, err := f.orch.Start(context.Background(), "김지민", "없는 이야기"); err == nil {
		t.Fatal("expected error for unknown story")
	}
	if _, _, err := f.orch.Start(context.Background(), "  ", "콩쥐팥쥐"); err == nil {
		t.Fatal("expected error for blank child name")
	}
}
