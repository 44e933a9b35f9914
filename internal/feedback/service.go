// Package feedback builds parent reports from archived dialogues.
package feedback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/namurok/dialogue-engine/internal/capability"
	"github.com/namurok/dialogue-engine/internal/domain"
	"github.com/namurok/dialogue-engine/internal/store"
)

// stock report used when the writer capability is unavailable; a parent
// request never fails outright on an upstream error.
const (
	stockAnalysis = "아이가 동화 속 인물과 함께 감정을 이야기하는 활동에 끝까지 참여했어요. 감정을 말로 표현해보는 경험 자체가 정서 발달에 큰 도움이 되거든요."
	stockGuide    = "오늘 나눈 이야기를 아이에게 다시 물어봐 주세요. \"그때 어떤 기분이었어?\"라고 물어보고, 아이의 대답을 그대로 받아주시면 감정 코칭의 첫 단계가 됩니다."
)

// Service generates, stores and serves feedback reports.
type Service struct {
	archive store.Archive
	writer  capability.FeedbackWriter
	logger  *slog.Logger
	now     func() time.Time
}

func NewService(archive store.Archive, writer capability.FeedbackWriter, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{archive: archive, writer: writer, logger: logger, now: time.Now}
}

// Report returns the feedback report for a completed session, generating and
// persisting it on first request.
func (s *Service) Report(ctx context.Context, sessionID string) (*domain.FeedbackReport, error) {
	existing, err := s.archive.GetFeedback(ctx, sessionID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, store.ErrReportNotFound) {
		return nil, err
	}

	sess, err := s.archive.GetDialogue(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	report := &domain.FeedbackReport{
		SessionID: sess.ID,
		ChildName: sess.ChildName,
		StoryID:   sess.StoryID,
		CreatedAt: s.now(),
	}

	draft, err := s.writer.Draft(ctx, renderConversation(sess))
	if err != nil {
		s.logger.Warn("feedback writer unavailable, storing stock report",
			"session_id", sessionID, "error", err)
		report.Analysis = stockAnalysis
		report.ParentGuide = stockGuide
	} else {
		report.Analysis = draft.Analysis
		report.ParentGuide = draft.ParentGuide
	}

	if err := s.archive.SaveFeedback(ctx, report); err != nil {
		return nil, fmt.Errorf("save feedback %s: %w", sessionID, err)
	}
	return report, nil
}

// renderConversation formats the archived dialogue the way the report writer
// expects: the utterance log followed by the observed emotions.
func renderConversation(sess *domain.Session) string {
	var b strings.Builder
	b.WriteString("[AI와 아동 대화 text]\n")
	fmt.Fprintf(&b, "동화: %s / 아이 이름: %s\n", sess.StoryID, sess.ChildName)
	for _, m := range sess.KeyMoments {
		fmt.Fprintf(&b, "%d. (%s) %s\n", m.Turn, m.Stage, m.Content)
	}

	b.WriteString("\n[아동 감정]\n")
	if len(sess.EmotionHistory) == 0 {
		b.WriteString("파악된 감정 없음\n")
	} else {
		labels := make([]string, 0, len(sess.EmotionHistory))
		for _, e := range sess.EmotionHistory {
			labels = append(labels, string(e))
		}
		b.WriteString(strings.Join(labels, ", "))
		b.WriteString("\n")
	}
	return b.String()
}
