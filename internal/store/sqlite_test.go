package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/namurok/dialogue-engine/internal/domain"
)

func newTestArchive(t *testing.T) *SQLiteArchive {
	t.Helper()
	archive, err := NewSQLite(filepath.Join(t.TempDir(), "archive.db"))
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	t.Cleanup(func() {
		if err := archive.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return archive
}

func TestArchiveDialogueRoundTrip(t *testing.T) {
	archive := newTestArchive(t)
	ctx := context.Background()

	story, err := domain.StoryByID("콩쥐팥쥐")
	if err != nil {
		t.Fatalf("StoryByID: %v", err)
	}

	sess := domain.NewSession("done-1", "김지민", "콩쥐팥쥐", time.Now())
	sess.Active = false
	sess.RecordMoment(domain.StageEmotionLabeling, 1, "슬퍼 보여")
	sess.EmotionHistory = append(sess.EmotionHistory, domain.EmotionSad)

	if err := archive.SaveDialogue(ctx, sess, story); err != nil {
		t.Fatalf("SaveDialogue: %v", err)
	}

	got, err := archive.GetDialogue(ctx, "done-1")
	if err != nil {
		t.Fatalf("GetDialogue: %v", err)
	}
	if got.ID != sess.ID || got.Active {
		t.Fatalf("archived session mismatch: %+v", got)
	}
	if len(got.EmotionHistory) != 1 || got.EmotionHistory[0] != domain.EmotionSad {
		t.Fatalf("emotion history lost: %+v", got.EmotionHistory)
	}
}

func TestArchiveDialogueNotFound(t *testing.T) {
	archive := newTestArchive(t)
	if _, err := archive.GetDialogue(context.Background(), "missing"); !errors.Is(err, ErrDialogueNotFound) {
		t.Fatalf("expected ErrDialogueNotFound, got %v", err)
	}
}

func TestArchiveFeedbackUpsert(t *testing.T) {
	archive := newTestArchive(t)
	ctx := context.Background()

	report := &domain.FeedbackReport{
		SessionID:   "done-2",
		ChildName:   "김지민",
		StoryID:     "콩쥐팥쥐",
		Analysis:    "감정 표현을 잘했어요.",
		ParentGuide: "아이와 감정 단어 놀이를 해보세요.",
		CreatedAt:   time.Now(),
	}
	if err := archive.SaveFeedback(ctx, report); err != nil {
		t.Fatalf("SaveFeedback: %v", err)
	}

	report.Analysis = "수정된 분석"
	if err := archive.SaveFeedback(ctx, report); err != nil {
		t.Fatalf("SaveFeedback upsert: %v", err)
	}

	got, err := archive.GetFeedback(ctx, "done-2")
	if err != nil {
		t.Fatalf("GetFeedback: %v", err)
	}
	if got.Analysis != "수정된 분석" {
		t.Fatalf("upsert did not overwrite: %q", got.Analysis)
	}
	if got.ParentGuide != report.ParentGuide {
		t.Fatalf("parent guide mismatch: %q", got.ParentGuide)
	}
}

func TestArchiveFeedbackNotFound(t *testing.T) {
	archive := newTestArchive(t)
	if _, err := archive.GetFeedback(context.Background(), "missing"); !errors.Is(err, ErrReportNotFound) {
		t.Fatalf("expected ErrReportNotFound, got %v", err)
	}
}
