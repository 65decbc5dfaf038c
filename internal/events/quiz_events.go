package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/SAP-F-2025/quiz-engine/internal/models"
)

// EventType names a quiz lifecycle event.
type EventType string

const (
	EventQuizCreated EventType = "quiz.created"
	EventQuizUpdated EventType = "quiz.updated"
	EventQuizDeleted EventType = "quiz.deleted"

	EventSessionStarted  EventType = "quiz.session_started"
	EventSessionTimedOut EventType = "quiz.session_timed_out"
	EventSessionFinished EventType = "quiz.session_finished"
	EventSessionExpired  EventType = "quiz.session_expired"
)

const (
	eventSource  = "quiz-engine"
	eventVersion = "1.0"
)

// QuizEvent is the envelope for every published event.
type QuizEvent struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Source    string         `json:"source"`
	Version   string         `json:"version"`
	Data      any            `json:"data"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

type QuizChangedEvent struct {
	QuizID        string `json:"quiz_id"`
	Title         string `json:"title,omitempty"`
	QuestionCount int    `json:"question_count"`
	ChangedBy     string `json:"changed_by,omitempty"`
}

type SessionStartedEvent struct {
	SessionID        string    `json:"session_id"`
	QuizID           string    `json:"quiz_id"`
	QuizTitle        string    `json:"quiz_title"`
	StudentName      string    `json:"student_name,omitempty"`
	StartedAt        time.Time `json:"started_at"`
	TimeLimitSeconds int       `json:"time_limit_seconds,omitempty"`
}

type SessionFinishedEvent struct {
	SessionID     string               `json:"session_id"`
	QuizID        string               `json:"quiz_id"`
	StudentName   string               `json:"student_name,omitempty"`
	FinishedAt    time.Time            `json:"finished_at"`
	Score         float64              `json:"score"`
	MaxScore      float64              `json:"max_score"`
	Percentage    float64              `json:"percentage"`
	Passed        *bool                `json:"passed,omitempty"`
	TimedOut      bool                 `json:"timed_out"`
	ScormStatus   models.ScormStatus   `json:"scorm_status"`
	WebhookStatus models.WebhookStatus `json:"webhook_status"`
}

type SessionExpiredEvent struct {
	SessionID string    `json:"session_id"`
	QuizID    string    `json:"quiz_id"`
	IdleSince time.Time `json:"idle_since"`
}

func newEvent(t EventType, data any) *QuizEvent {
	return &QuizEvent{
		ID:        GenerateEventID(),
		Type:      t,
		Timestamp: time.Now().UTC(),
		Source:    eventSource,
		Version:   eventVersion,
		Data:      data,
	}
}

func NewQuizChangedEvent(t EventType, quiz *models.Quiz, changedBy string) *QuizEvent {
	data := QuizChangedEvent{ChangedBy: changedBy}
	if quiz != nil {
		data.QuizID = quiz.ID
		data.Title = quiz.Title
		data.QuestionCount = len(quiz.Questions)
	}
	return newEvent(t, data)
}

func NewSessionStartedEvent(sessionID string, quiz *models.Quiz, studentName string, startedAt time.Time) *QuizEvent {
	return newEvent(EventSessionStarted, SessionStartedEvent{
		SessionID:        sessionID,
		QuizID:           quiz.ID,
		QuizTitle:        quiz.Title,
		StudentName:      studentName,
		StartedAt:        startedAt,
		TimeLimitSeconds: quiz.SettingsOrDefault().TimeLimitSeconds(),
	})
}

// NewSessionFinishedEvent uses the timed-out type when the countdown ended
// the session.
func NewSessionFinishedEvent(sessionID string, result *models.QuizResult, finishedAt time.Time) *QuizEvent {
	t := EventSessionFinished
	if result.TimedOut {
		t = EventSessionTimedOut
	}
	return newEvent(t, SessionFinishedEvent{
		SessionID:     sessionID,
		QuizID:        result.QuizID,
		StudentName:   result.StudentName,
		FinishedAt:    finishedAt,
		Score:         result.Score,
		MaxScore:      result.MaxScore,
		Percentage:    result.Percentage,
		Passed:        result.Passed,
		TimedOut:      result.TimedOut,
		ScormStatus:   result.ScormStatus,
		WebhookStatus: result.WebhookStatus,
	})
}

func NewSessionExpiredEvent(sessionID, quizID string, idleSince time.Time) *QuizEvent {
	return newEvent(EventSessionExpired, SessionExpiredEvent{
		SessionID: sessionID,
		QuizID:    quizID,
		IdleSince: idleSince,
	})
}

func GenerateEventID() string {
	return uuid.NewString()
}
