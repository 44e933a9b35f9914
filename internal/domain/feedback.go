package domain

import "time"

// FeedbackReport is the parent-facing summary generated after a conversation
// completes.
type FeedbackReport struct {
	SessionID   string    `json:"session_id"`
	ChildName   string    `json:"child_name"`
	StoryID     string    `json:"story_id"`
	Analysis    string    `json:"analysis"`
	ParentGuide string    `json:"parent_guide"`
	CreatedAt   time.Time `json:"created_at"`
}
