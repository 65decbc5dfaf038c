package services

import (
	"context"
	"io"
	"time"

	"github.com/SAP-F-2025/quiz-engine/internal/models"
	"github.com/SAP-F-2025/quiz-engine/internal/repositories"
)

// ===== SERVICE INTERFACES =====

type QuizService interface {
	Create(ctx context.Context, quiz *models.Quiz, createdBy string) (*QuizResponse, error)
	Get(ctx context.Context, id string) (*QuizResponse, error)
	// Load returns the definition used to run a session, served from cache
	// when possible.
	Load(ctx context.Context, id string) (*models.Quiz, error)
	Update(ctx context.Context, id string, req *UpdateQuizRequest, updatedBy string) (*QuizResponse, error)
	Delete(ctx context.Context, id string, deletedBy string) error
	List(ctx context.Context, filters repositories.QuizFilters) (*QuizListResponse, error)
	Validate(quiz *models.Quiz) error

	Import(ctx context.Context, r io.Reader, filename string, req *ImportRequest, createdBy string) (*ImportResult, error)

	Results(ctx context.Context, quizID string, filters repositories.ResultFilters) (*ResultListResponse, error)
	ResultStats(ctx context.Context, quizID string) (*repositories.QuizResultStats, error)
}

type PlayerService interface {
	Start(ctx context.Context, req *StartSessionRequest) (*SessionState, error)
	Get(ctx context.Context, sessionID string) (*SessionState, error)
	CurrentQuestion(ctx context.Context, sessionID string) (*QuestionView, error)
	SubmitAnswer(ctx context.Context, sessionID, questionID string, answer *models.Answer) (*SubmitResponse, error)
	Next(ctx context.Context, sessionID string) (*QuestionView, error)
	Previous(ctx context.Context, sessionID string) (*QuestionView, error)
	GoTo(ctx context.Context, sessionID string, index int) (*QuestionView, error)
	ResolveHotspot(ctx context.Context, sessionID, questionID string, x, y float64) (string, bool, error)
	Finish(ctx context.Context, sessionID string) (*models.QuizResult, error)
	Result(ctx context.Context, sessionID string) (*models.QuizResult, error)
	ScormData(ctx context.Context, sessionID string) (map[string]string, error)
	// Quiz returns the unredacted definition a live session runs.
	Quiz(ctx context.Context, sessionID string) (*models.Quiz, error)
	Destroy(ctx context.Context, sessionID string) error
	// Subscribe streams session events until the session ends or cancel is
	// called.
	Subscribe(ctx context.Context, sessionID string) (<-chan SessionEvent, func(), error)
	Shutdown()
}

type ExportService interface {
	ResultWorkbook(ctx context.Context, result *models.QuizResult, quiz *models.Quiz) ([]byte, error)
	ScormPackage(ctx context.Context, quiz *models.Quiz) ([]byte, error)
}

// ===== QUIZ DTOs =====

type UpdateQuizRequest struct {
	Quiz    *models.Quiz `json:"quiz" validate:"required"`
	Version int          `json:"version" validate:"required,min=1"`
}

type QuizResponse struct {
	ID            string       `json:"id"`
	Title         string       `json:"title"`
	Description   string       `json:"description,omitempty"`
	QuestionCount int          `json:"question_count"`
	MaxScore      float64      `json:"max_score"`
	CreatedBy     string       `json:"created_by,omitempty"`
	Version       int          `json:"version"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
	Definition    *models.Quiz `json:"definition,omitempty"`
}

type QuizListResponse struct {
	Quizzes []*QuizResponse `json:"quizzes"`
	Total   int64           `json:"total"`
	Page    int             `json:"page"`
	Size    int             `json:"size"`
}

type ImportRequest struct {
	// ID and Title name the quiz to create. Without an ID the import is a
	// dry run that only parses and validates.
	ID          string `form:"id" json:"id"`
	Title       string `form:"title" json:"title"`
	Description string `form:"description" json:"description"`
}

type ImportResult struct {
	TotalRows    int                `json:"total_rows"`
	SuccessCount int                `json:"success_count"`
	ErrorCount   int                `json:"error_count"`
	Errors       []*ImportError     `json:"errors,omitempty"`
	Questions    []*models.Question `json:"questions,omitempty"`
	Quiz         *QuizResponse      `json:"quiz,omitempty"`

	rows []importRow
}

// importRow is where an imported question came from.
type importRow struct {
	source string
	row    int
}

type ResultListResponse struct {
	Results []*models.StoredResult `json:"results"`
	Total   int64                  `json:"total"`
	Page    int                    `json:"page"`
	Size    int                    `json:"size"`
}

// ===== SESSION DTOs =====

type StartSessionRequest struct {
	QuizID      string       `json:"quiz_id" validate:"required_without=Quiz"`
	Quiz        *models.Quiz `json:"quiz" validate:"required_without=QuizID"`
	StudentName string       `json:"student_name" validate:"max=200"`
	// Seed fixes the question and option shuffle order.
	Seed *uint64 `json:"seed,omitempty"`
}

// QuestionView is a question as shown to a player: answer keys removed.
type QuestionView struct {
	Question *models.Question `json:"question"`
	Number   int              `json:"number"`
	Total    int              `json:"total"`
	Answer   *models.Answer   `json:"answer,omitempty"`
	IsLast   bool             `json:"is_last"`
}

type SessionState struct {
	SessionID        string             `json:"session_id"`
	QuizID           string             `json:"quiz_id"`
	QuizTitle        string             `json:"quiz_title"`
	StudentName      string             `json:"student_name,omitempty"`
	Current          *QuestionView      `json:"current,omitempty"`
	TimeLeftSeconds  *int               `json:"time_left_seconds,omitempty"`
	ElapsedSeconds   float64            `json:"elapsed_seconds"`
	AnsweredCount    int                `json:"answered_count"`
	Finished         bool               `json:"finished"`
	ScormStatus      models.ScormStatus `json:"scorm_status"`
	StartedAt        time.Time          `json:"started_at"`
	LastActivityAt   time.Time          `json:"last_activity_at"`
	ShowAnswersMode  string             `json:"show_answers_mode"`
	TimeLimitSeconds int                `json:"time_limit_seconds,omitempty"`
}

// Feedback is returned on submit when answers are shown immediately.
type Feedback struct {
	IsCorrect     bool    `json:"is_correct"`
	PointsEarned  float64 `json:"points_earned"`
	CorrectAnswer any     `json:"correct_answer,omitempty"`
	Explanation   string  `json:"explanation,omitempty"`
}

type SubmitResponse struct {
	QuestionID string    `json:"question_id"`
	Accepted   bool      `json:"accepted"`
	Feedback   *Feedback `json:"feedback,omitempty"`
}

type SessionEventType string

const (
	SessionEventStart          SessionEventType = "quiz_start"
	SessionEventQuestionChange SessionEventType = "question_change"
	SessionEventAnswerSubmit   SessionEventType = "answer_submit"
	SessionEventTimeTick       SessionEventType = "time_tick"
	SessionEventTimeUp         SessionEventType = "time_up"
	SessionEventFinish         SessionEventType = "quiz_finish"
	SessionEventClosed         SessionEventType = "closed"
)

type SessionEvent struct {
	Type SessionEventType `json:"type"`
	Data any              `json:"data,omitempty"`
	At   time.Time        `json:"at"`
}
