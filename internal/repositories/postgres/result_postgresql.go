package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/quiz-engine/internal/models"
	"github.com/SAP-F-2025/quiz-engine/internal/repositories"
)

type ResultPostgreSQL struct {
	helpers *SharedHelpers
}

func NewResultPostgreSQL(db *gorm.DB) repositories.ResultRepository {
	return &ResultPostgreSQL{helpers: NewSharedHelpers(db)}
}

func (r *ResultPostgreSQL) Create(ctx context.Context, tx *gorm.DB, result *models.StoredResult) error {
	if err := r.helpers.conn(tx).WithContext(ctx).Create(result).Error; err != nil {
		return fmt.Errorf("failed to store result: %w", err)
	}
	return nil
}

func (r *ResultPostgreSQL) GetBySessionID(ctx context.Context, tx *gorm.DB, sessionID string) (*models.StoredResult, error) {
	var result models.StoredResult
	if err := r.helpers.conn(tx).WithContext(ctx).First(&result, "session_id = ?", sessionID).Error; err != nil {
		return nil, translate(err)
	}
	return &result, nil
}

func (r *ResultPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.ResultFilters) ([]*models.StoredResult, int64, error) {
	query := r.applyFilters(r.helpers.conn(tx).WithContext(ctx).Model(&models.StoredResult{}), filters)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = r.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset,
		"completed_at", "score", "percentage")

	var results []*models.StoredResult
	if err := query.Find(&results).Error; err != nil {
		return nil, 0, err
	}
	return results, total, nil
}

func (r *ResultPostgreSQL) GetStats(ctx context.Context, tx *gorm.DB, quizID string) (*repositories.QuizResultStats, error) {
	var stats repositories.QuizResultStats
	err := r.helpers.conn(tx).WithContext(ctx).
		Model(&models.StoredResult{}).
		Select(`COUNT(*) AS total_results,
			COALESCE(AVG(score), 0) AS average_score,
			COALESCE(AVG(percentage), 0) AS average_percentage,
			COALESCE(AVG(CASE WHEN passed THEN 100.0 WHEN passed = false THEN 0 END), 0) AS pass_rate,
			COUNT(*) FILTER (WHERE timed_out) AS timed_out_count,
			COALESCE(AVG(time_spent), 0) AS average_time_spent`).
		Where("quiz_id = ?", quizID).
		Scan(&stats).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute result stats: %w", err)
	}
	return &stats, nil
}

func (r *ResultPostgreSQL) DeleteByQuiz(ctx context.Context, tx *gorm.DB, quizID string) error {
	return r.helpers.conn(tx).WithContext(ctx).Where("quiz_id = ?", quizID).Delete(&models.StoredResult{}).Error
}

func (r *ResultPostgreSQL) applyFilters(query *gorm.DB, filters repositories.ResultFilters) *gorm.DB {
	if filters.QuizID != "" {
		query = query.Where("quiz_id = ?", filters.QuizID)
	}
	if filters.StudentName != "" {
		query = query.Where("student_name ILIKE ?", "%"+filters.StudentName+"%")
	}
	if filters.Passed != nil {
		query = query.Where("passed = ?", *filters.Passed)
	}
	if filters.TimedOut != nil {
		query = query.Where("timed_out = ?", *filters.TimedOut)
	}
	if filters.DateFrom != nil {
		query = query.Where("completed_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("completed_at <= ?", *filters.DateTo)
	}
	return query
}
