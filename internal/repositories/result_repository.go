package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/quiz-engine/internal/models"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrStaleVersion = errors.New("stale version")
)

// ResultRepository stores finished session snapshots.
type ResultRepository interface {
	Create(ctx context.Context, tx *gorm.DB, result *models.StoredResult) error
	GetBySessionID(ctx context.Context, tx *gorm.DB, sessionID string) (*models.StoredResult, error)
	List(ctx context.Context, tx *gorm.DB, filters ResultFilters) ([]*models.StoredResult, int64, error)
	GetStats(ctx context.Context, tx *gorm.DB, quizID string) (*QuizResultStats, error)
	DeleteByQuiz(ctx context.Context, tx *gorm.DB, quizID string) error
}
