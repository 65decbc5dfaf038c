package models

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// StoredQuiz is the persisted form of a quiz definition. The full document
// lives in Definition; the remaining columns are for listing and search.
type StoredQuiz struct {
	ID            string         `json:"id" gorm:"primaryKey;size:200"`
	Title         string         `json:"title" gorm:"not null;size:200;index"`
	Description   string         `json:"description" gorm:"type:text"`
	QuestionCount int            `json:"question_count" gorm:"not null;default:0"`
	MaxScore      float64        `json:"max_score" gorm:"not null;default:0"`
	Definition    datatypes.JSON `json:"definition" gorm:"type:jsonb;not null"`
	CreatedBy     string         `json:"created_by" gorm:"size:100;index"`
	Version       int            `json:"version" gorm:"default:1"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `json:"-" gorm:"index"`
}

func (StoredQuiz) TableName() string { return "quizzes" }

// NewStoredQuiz encodes a quiz definition for persistence.
func NewStoredQuiz(q *Quiz, createdBy string) (*StoredQuiz, error) {
	doc, err := json.Marshal(q)
	if err != nil {
		return nil, fmt.Errorf("failed to encode quiz %s: %w", q.ID, err)
	}
	return &StoredQuiz{
		ID:            q.ID,
		Title:         q.Title,
		Description:   q.Description,
		QuestionCount: len(q.Questions),
		MaxScore:      q.MaxScore(),
		Definition:    datatypes.JSON(doc),
		CreatedBy:     createdBy,
	}, nil
}

// Quiz decodes the stored definition.
func (s *StoredQuiz) Quiz() (*Quiz, error) {
	var q Quiz
	if err := json.Unmarshal(s.Definition, &q); err != nil {
		return nil, fmt.Errorf("failed to decode quiz %s: %w", s.ID, err)
	}
	return &q, nil
}

// StoredResult is a finished session's snapshot.
type StoredResult struct {
	ID            uint           `json:"id" gorm:"primaryKey"`
	SessionID     string         `json:"session_id" gorm:"size:36;not null;uniqueIndex"`
	QuizID        string         `json:"quiz_id" gorm:"size:200;not null;index"`
	StudentName   string         `json:"student_name" gorm:"size:200"`
	Score         float64        `json:"score"`
	MaxScore      float64        `json:"max_score"`
	Percentage    float64        `json:"percentage"`
	Passed        *bool          `json:"passed"`
	TimedOut      bool           `json:"timed_out" gorm:"default:false"`
	TimeSpent     float64        `json:"time_spent_seconds"`
	ScormStatus   ScormStatus    `json:"scorm_status" gorm:"size:20"`
	WebhookStatus WebhookStatus  `json:"webhook_status" gorm:"size:20"`
	Snapshot      datatypes.JSON `json:"snapshot" gorm:"type:jsonb"`
	CompletedAt   time.Time      `json:"completed_at" gorm:"index"`
	CreatedAt     time.Time      `json:"created_at"`
}

func (StoredResult) TableName() string { return "quiz_results" }

func NewStoredResult(sessionID string, r *QuizResult, completedAt time.Time) (*StoredResult, error) {
	doc, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to encode result for session %s: %w", sessionID, err)
	}
	return &StoredResult{
		SessionID:     sessionID,
		QuizID:        r.QuizID,
		StudentName:   r.StudentName,
		Score:         r.Score,
		MaxScore:      r.MaxScore,
		Percentage:    r.Percentage,
		Passed:        r.Passed,
		TimedOut:      r.TimedOut,
		TimeSpent:     r.TotalTimeSpentSeconds,
		ScormStatus:   r.ScormStatus,
		WebhookStatus: r.WebhookStatus,
		Snapshot:      datatypes.JSON(doc),
		CompletedAt:   completedAt,
	}, nil
}

// Result decodes the stored snapshot.
func (s *StoredResult) Result() (*QuizResult, error) {
	var r QuizResult
	if err := json.Unmarshal(s.Snapshot, &r); err != nil {
		return nil, fmt.Errorf("failed to decode result %d: %w", s.ID, err)
	}
	return &r, nil
}
