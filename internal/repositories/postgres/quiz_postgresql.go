package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/quiz-engine/internal/models"
	"github.com/SAP-F-2025/quiz-engine/internal/repositories"
)

type QuizPostgreSQL struct {
	helpers *SharedHelpers
}

func NewQuizPostgreSQL(db *gorm.DB) repositories.QuizRepository {
	return &QuizPostgreSQL{helpers: NewSharedHelpers(db)}
}

func (q *QuizPostgreSQL) Create(ctx context.Context, tx *gorm.DB, quiz *models.StoredQuiz) error {
	quiz.Version = 1
	if err := q.helpers.conn(tx).WithContext(ctx).Create(quiz).Error; err != nil {
		return fmt.Errorf("failed to create quiz: %w", err)
	}
	return nil
}

func (q *QuizPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.StoredQuiz, error) {
	var quiz models.StoredQuiz
	if err := q.helpers.conn(tx).WithContext(ctx).First(&quiz, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &quiz, nil
}

func (q *QuizPostgreSQL) Update(ctx context.Context, tx *gorm.DB, quiz *models.StoredQuiz) error {
	res := q.helpers.conn(tx).WithContext(ctx).
		Model(&models.StoredQuiz{}).
		Where("id = ? AND version = ?", quiz.ID, quiz.Version).
		Updates(map[string]any{
			"title":          quiz.Title,
			"description":    quiz.Description,
			"question_count": quiz.QuestionCount,
			"max_score":      quiz.MaxScore,
			"definition":     quiz.Definition,
			"version":        gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update quiz: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return repositories.ErrStaleVersion
	}
	quiz.Version++
	return nil
}

func (q *QuizPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id string) error {
	res := q.helpers.conn(tx).WithContext(ctx).Delete(&models.StoredQuiz{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete quiz: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func (q *QuizPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.QuizFilters) ([]*models.StoredQuiz, int64, error) {
	query := q.helpers.conn(tx).WithContext(ctx).Model(&models.StoredQuiz{})
	if filters.CreatedBy != "" {
		query = query.Where("created_by = ?", filters.CreatedBy)
	}
	if filters.Search != "" {
		like := "%" + filters.Search + "%"
		query = query.Where("title ILIKE ? OR description ILIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = q.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset,
		"updated_at", "created_at", "title")

	// Listing does not need the definitions themselves
	var quizzes []*models.StoredQuiz
	if err := query.Omit("definition").Find(&quizzes).Error; err != nil {
		return nil, 0, err
	}
	return quizzes, total, nil
}

func (q *QuizPostgreSQL) Exists(ctx context.Context, tx *gorm.DB, id string) (bool, error) {
	var count int64
	err := q.helpers.conn(tx).WithContext(ctx).
		Model(&models.StoredQuiz{}).
		Where("id = ?", id).
		Count(&count).Error
	return count > 0, err
}
