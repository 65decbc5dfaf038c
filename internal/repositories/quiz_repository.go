package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/quiz-engine/internal/models"
)

// QuizRepository stores quiz definitions. A nil tx uses the repository's
// own connection.
type QuizRepository interface {
	Create(ctx context.Context, tx *gorm.DB, quiz *models.StoredQuiz) error
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.StoredQuiz, error)
	// Update bumps the version; it fails with ErrStaleVersion when the stored
	// version no longer matches quiz.Version.
	Update(ctx context.Context, tx *gorm.DB, quiz *models.StoredQuiz) error
	Delete(ctx context.Context, tx *gorm.DB, id string) error // Soft delete

	List(ctx context.Context, tx *gorm.DB, filters QuizFilters) ([]*models.StoredQuiz, int64, error)
	Exists(ctx context.Context, tx *gorm.DB, id string) (bool, error)
}
