package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/namurok/dialogue-engine/internal/domain"
	_ "modernc.org/sqlite"
)

// SQLiteArchive implements Archive using SQLite.
type SQLiteArchive struct {
	db *sql.DB
	// writeMu serializes writes to avoid SQLITE_BUSY under concurrent turns.
	writeMu sync.Mutex
}

// NewSQLite creates a new SQLite-backed archive.
func NewSQLite(dbPath string) (*SQLiteArchive, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	archive := &SQLiteArchive{db: db}
	if err := archive.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return archive, nil
}

func (a *SQLiteArchive) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS dialogues (
		session_id TEXT PRIMARY KEY,
		child_name TEXT NOT NULL,
		story_id TEXT NOT NULL,
		lesson TEXT NOT NULL,
		session_json TEXT NOT NULL,
		completed_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_dialogues_completed ON dialogues(completed_at);

	CREATE TABLE IF NOT EXISTS feedback_reports (
		session_id TEXT PRIMARY KEY,
		child_name TEXT NOT NULL,
		story_id TEXT NOT NULL,
		analysis TEXT NOT NULL,
		parent_guide TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	`
	if _, err := a.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (a *SQLiteArchive) Ping(ctx context.Context) error {
	return a.db.PingContext(ctx)
}

// SaveDialogue stores a completed-session snapshot. Re-archiving the same
// session overwrites the previous snapshot.
func (a *SQLiteArchive) SaveDialogue(ctx context.Context, session *domain.Session, story domain.Story) error {
	a.writeMu.Lock()
	defer a.writeMu.Unlock()

	data, err := domain.MarshalSession(session)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", session.ID, err)
	}

	query := `
	INSERT INTO dialogues (session_id, child_name, story_id, lesson, session_json, completed_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(session_id) DO UPDATE SET
		session_json = excluded.session_json,
		completed_at = excluded.completed_at`

	_, err = a.db.ExecContext(ctx, query,
		session.ID, session.ChildName, session.StoryID,
		story.Lesson, string(data), session.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("archive dialogue %s: %w", session.ID, err)
	}
	return nil
}

// GetDialogue retrieves an archived session snapshot.
func (a *SQLiteArchive) GetDialogue(ctx context.Context, sessionID string) (*domain.Session, error) {
	row := a.db.QueryRowContext(ctx,
		`SELECT session_json FROM dialogues WHERE session_id = ?`, sessionID)

	var data string
	err := row.Scan(&data)
	if err == sql.ErrNoRows {
		return nil, ErrDialogueNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan dialogue row: %w", err)
	}

	sess, err := domain.UnmarshalSession([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("decode archived session %s: %w", sessionID, err)
	}
	return sess, nil
}

// SaveFeedback stores a feedback report, overwriting any previous report for
// the session.
func (a *SQLiteArchive) SaveFeedback(ctx context.Context, report *domain.FeedbackReport) error {
	a.writeMu.Lock()
	defer a.writeMu.Unlock()

	query := `
	INSERT INTO feedback_reports (session_id, child_name, story_id, analysis, parent_guide, created_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(session_id) DO UPDATE SET
		analysis = excluded.analysis,
		parent_guide = excluded.parent_guide,
		created_at = excluded.created_at`

	_, err := a.db.ExecContext(ctx, query,
		report.SessionID, report.ChildName, report.StoryID,
		report.Analysis, report.ParentGuide, report.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("save feedback %s: %w", report.SessionID, err)
	}
	return nil
}

// GetFeedback retrieves the feedback report for a session.
func (a *SQLiteArchive) GetFeedback(ctx context.Context, sessionID string) (*domain.FeedbackReport, error) {
	row := a.db.QueryRowContext(ctx, `
		SELECT session_id, child_name, story_id, analysis, parent_guide, created_at
		FROM feedback_reports WHERE session_id = ?`, sessionID)

	var report domain.FeedbackReport
	var createdAt int64
	err := row.Scan(
		&report.SessionID, &report.ChildName, &report.StoryID,
		&report.Analysis, &report.ParentGuide, &createdAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrReportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan feedback row: %w", err)
	}

	report.CreatedAt = time.Unix(createdAt, 0)
	return &report, nil
}

// Close closes the database connection.
func (a *SQLiteArchive) Close() error {
	if err := a.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}
