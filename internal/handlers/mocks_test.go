package handlers

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"github.com/SAP-F-2025/quiz-engine/internal/models"
	"github.com/SAP-F-2025/quiz-engine/internal/repositories"
	"github.com/SAP-F-2025/quiz-engine/internal/services"
)

type MockQuizService struct {
	mock.Mock
}

func (m *MockQuizService) Create(ctx context.Context, quiz *models.Quiz, createdBy string) (*services.QuizResponse, error) {
	args := m.Called(ctx, quiz, createdBy)
	resp, _ := args.Get(0).(*services.QuizResponse)
	return resp, args.Error(1)
}

func (m *MockQuizService) Get(ctx context.Context, id string) (*services.QuizResponse, error) {
	args := m.Called(ctx, id)
	resp, _ := args.Get(0).(*services.QuizResponse)
	return resp, args.Error(1)
}

func (m *MockQuizService) Load(ctx context.Context, id string) (*models.Quiz, error) {
	args := m.Called(ctx, id)
	quiz, _ := args.Get(0).(*models.Quiz)
	return quiz, args.Error(1)
}

func (m *MockQuizService) Update(ctx context.Context, id string, req *services.UpdateQuizRequest, updatedBy string) (*services.QuizResponse, error) {
	args := m.Called(ctx, id, req, updatedBy)
	resp, _ := args.Get(0).(*services.QuizResponse)
	return resp, args.Error(1)
}

func (m *MockQuizService) Delete(ctx context.Context, id string, deletedBy string) error {
	return m.Called(ctx, id, deletedBy).Error(0)
}

func (m *MockQuizService) List(ctx context.Context, filters repositories.QuizFilters) (*services.QuizListResponse, error) {
	args := m.Called(ctx, filters)
	resp, _ := args.Get(0).(*services.QuizListResponse)
	return resp, args.Error(1)
}

func (m *MockQuizService) Validate(quiz *models.Quiz) error {
	return m.Called(quiz).Error(0)
}

func (m *MockQuizService) Import(ctx context.Context, r io.Reader, filename string, req *services.ImportRequest, createdBy string) (*services.ImportResult, error) {
	args := m.Called(ctx, r, filename, req, createdBy)
	resp, _ := args.Get(0).(*services.ImportResult)
	return resp, args.Error(1)
}

func (m *MockQuizService) Results(ctx context.Context, quizID string, filters repositories.ResultFilters) (*services.ResultListResponse, error) {
	args := m.Called(ctx, quizID, filters)
	resp, _ := args.Get(0).(*services.ResultListResponse)
	return resp, args.Error(1)
}

func (m *MockQuizService) ResultStats(ctx context.Context, quizID string) (*repositories.QuizResultStats, error) {
	args := m.Called(ctx, quizID)
	resp, _ := args.Get(0).(*repositories.QuizResultStats)
	return resp, args.Error(1)
}

type MockPlayerService struct {
	mock.Mock
}

func (m *MockPlayerService) Start(ctx context.Context, req *services.StartSessionRequest) (*services.SessionState, error) {
	args := m.Called(ctx, req)
	state, _ := args.Get(0).(*services.SessionState)
	return state, args.Error(1)
}

func (m *MockPlayerService) Get(ctx context.Context, sessionID string) (*services.SessionState, error) {
	args := m.Called(ctx, sessionID)
	state, _ := args.Get(0).(*services.SessionState)
	return state, args.Error(1)
}

func (m *MockPlayerService) CurrentQuestion(ctx context.Context, sessionID string) (*services.QuestionView, error) {
	args := m.Called(ctx, sessionID)
	view, _ := args.Get(0).(*services.QuestionView)
	return view, args.Error(1)
}

func (m *MockPlayerService) SubmitAnswer(ctx context.Context, sessionID, questionID string, answer *models.Answer) (*services.SubmitResponse, error) {
	args := m.Called(ctx, sessionID, questionID, answer)
	resp, _ := args.Get(0).(*services.SubmitResponse)
	return resp, args.Error(1)
}

func (m *MockPlayerService) Next(ctx context.Context, sessionID string) (*services.QuestionView, error) {
	args := m.Called(ctx, sessionID)
	view, _ := args.Get(0).(*services.QuestionView)
	return view, args.Error(1)
}

func (m *MockPlayerService) Previous(ctx context.Context, sessionID string) (*services.QuestionView, error) {
	args := m.Called(ctx, sessionID)
	view, _ := args.Get(0).(*services.QuestionView)
	return view, args.Error(1)
}

func (m *MockPlayerService) GoTo(ctx context.Context, sessionID string, index int) (*services.QuestionView, error) {
	args := m.Called(ctx, sessionID, index)
	view, _ := args.Get(0).(*services.QuestionView)
	return view, args.Error(1)
}

func (m *MockPlayerService) ResolveHotspot(ctx context.Context, sessionID, questionID string, x, y float64) (string, bool, error) {
	args := m.Called(ctx, sessionID, questionID, x, y)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockPlayerService) Finish(ctx context.Context, sessionID string) (*models.QuizResult, error) {
	args := m.Called(ctx, sessionID)
	result, _ := args.Get(0).(*models.QuizResult)
	return result, args.Error(1)
}

func (m *MockPlayerService) Result(ctx context.Context, sessionID string) (*models.QuizResult, error) {
	args := m.Called(ctx, sessionID)
	result, _ := args.Get(0).(*models.QuizResult)
	return result, args.Error(1)
}

func (m *MockPlayerService) ScormData(ctx context.Context, sessionID string) (map[string]string, error) {
	args := m.Called(ctx, sessionID)
	data, _ := args.Get(0).(map[string]string)
	return data, args.Error(1)
}

func (m *MockPlayerService) Quiz(ctx context.Context, sessionID string) (*models.Quiz, error) {
	args := m.Called(ctx, sessionID)
	quiz, _ := args.Get(0).(*models.Quiz)
	return quiz, args.Error(1)
}

func (m *MockPlayerService) Destroy(ctx context.Context, sessionID string) error {
	return m.Called(ctx, sessionID).Error(0)
}

func (m *MockPlayerService) Subscribe(ctx context.Context, sessionID string) (<-chan services.SessionEvent, func(), error) {
	args := m.Called(ctx, sessionID)
	ch, _ := args.Get(0).(chan services.SessionEvent)
	cancel, _ := args.Get(1).(func())
	return ch, cancel, args.Error(2)
}

func (m *MockPlayerService) Shutdown() {
	m.Called()
}

type MockExportService struct {
	mock.Mock
}

func (m *MockExportService) ResultWorkbook(ctx context.Context, result *models.QuizResult, quiz *models.Quiz) ([]byte, error) {
	args := m.Called(ctx, result, quiz)
	b, _ := args.Get(0).([]byte)
	return b, args.Error(1)
}

func (m *MockExportService) ScormPackage(ctx context.Context, quiz *models.Quiz) ([]byte, error) {
	args := m.Called(ctx, quiz)
	b, _ := args.Get(0).([]byte)
	return b, args.Error(1)
}
