package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/quiz-engine/internal/models"
	"github.com/SAP-F-2025/quiz-engine/internal/repositories"
)

// MockQuizRepository is a mock implementation of QuizRepository
type MockQuizRepository struct {
	mock.Mock
}

func (m *MockQuizRepository) Create(ctx context.Context, tx *gorm.DB, quiz *models.StoredQuiz) error {
	return m.Called(ctx, tx, quiz).Error(0)
}

func (m *MockQuizRepository) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.StoredQuiz, error) {
	args := m.Called(ctx, tx, id)
	if q, ok := args.Get(0).(*models.StoredQuiz); ok {
		return q, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockQuizRepository) Update(ctx context.Context, tx *gorm.DB, quiz *models.StoredQuiz) error {
	return m.Called(ctx, tx, quiz).Error(0)
}

func (m *MockQuizRepository) Delete(ctx context.Context, tx *gorm.DB, id string) error {
	return m.Called(ctx, tx, id).Error(0)
}

func (m *MockQuizRepository) List(ctx context.Context, tx *gorm.DB, filters repositories.QuizFilters) ([]*models.StoredQuiz, int64, error) {
	args := m.Called(ctx, tx, filters)
	return args.Get(0).([]*models.StoredQuiz), args.Get(1).(int64), args.Error(2)
}

func (m *MockQuizRepository) Exists(ctx context.Context, tx *gorm.DB, id string) (bool, error) {
	args := m.Called(ctx, tx, id)
	return args.Bool(0), args.Error(1)
}

// MockResultRepository is a mock implementation of ResultRepository
type MockResultRepository struct {
	mock.Mock
}

func (m *MockResultRepository) Create(ctx context.Context, tx *gorm.DB, result *models.StoredResult) error {
	return m.Called(ctx, tx, result).Error(0)
}

func (m *MockResultRepository) GetBySessionID(ctx context.Context, tx *gorm.DB, sessionID string) (*models.StoredResult, error) {
	args := m.Called(ctx, tx, sessionID)
	if r, ok := args.Get(0).(*models.StoredResult); ok {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockResultRepository) List(ctx context.Context, tx *gorm.DB, filters repositories.ResultFilters) ([]*models.StoredResult, int64, error) {
	args := m.Called(ctx, tx, filters)
	return args.Get(0).([]*models.StoredResult), args.Get(1).(int64), args.Error(2)
}

func (m *MockResultRepository) GetStats(ctx context.Context, tx *gorm.DB, quizID string) (*repositories.QuizResultStats, error) {
	args := m.Called(ctx, tx, quizID)
	if s, ok := args.Get(0).(*repositories.QuizResultStats); ok {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockResultRepository) DeleteByQuiz(ctx context.Context, tx *gorm.DB, quizID string) error {
	return m.Called(ctx, tx, quizID).Error(0)
}

// MockCache stores JSON-encoded values handed to it through Return.
type MockCache struct {
	mock.Mock
}

func (m *MockCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	return m.Called(ctx, key, value, ttl).Error(0)
}

func (m *MockCache) Get(ctx context.Context, key string, dest any) error {
	args := m.Called(ctx, key, dest)
	if raw, ok := args.Get(1).([]byte); ok {
		if err := json.Unmarshal(raw, dest); err != nil {
			return err
		}
	}
	return args.Error(0)
}

func (m *MockCache) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *MockCache) DeletePattern(ctx context.Context, pattern string) error {
	return m.Called(ctx, pattern).Error(0)
}
