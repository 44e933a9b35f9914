// Package store provides the live session store and the long-term dialogue
// archive.
package store

import (
	"context"
	"errors"

	"github.com/namurok/dialogue-engine/internal/domain"
)

// ErrReportNotFound is returned when no feedback report exists for a session.
var ErrReportNotFound = errors.New("feedback report not found")

// ErrDialogueNotFound is returned when no archived dialogue exists for a
// session.
var ErrDialogueNotFound = errors.New("archived dialogue not found")

// SessionStore holds live conversation state under a TTL. Get returns
// domain.ErrSessionNotFound for missing or expired sessions; Save refreshes
// the TTL on every write.
type SessionStore interface {
	Get(ctx context.Context, sessionID string) (*domain.Session, error)
	Save(ctx context.Context, session *domain.Session) error
	Delete(ctx context.Context, sessionID string) error

	// Ping verifies the store is reachable.
	Ping(ctx context.Context) error

	// Close releases the underlying connection.
	Close() error
}

// Archive persists completed dialogues and their feedback reports past the
// session TTL.
type Archive interface {
	SaveDialogue(ctx context.Context, session *domain.Session, story domain.Story) error
	GetDialogue(ctx context.Context, sessionID string) (*domain.Session, error)

	SaveFeedback(ctx context.Context, report *domain.FeedbackReport) error
	GetFeedback(ctx context.Context, sessionID string) (*domain.FeedbackReport, error)

	Ping(ctx context.Context) error
	Close() error
}
