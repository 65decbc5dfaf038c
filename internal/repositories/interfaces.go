package repositories

import (
	"time"
)

// ===== SHARED FILTER STRUCTS =====

type QuizFilters struct {
	CreatedBy string `json:"created_by"`
	Search    string `json:"search"`
	Limit     int    `json:"limit"`
	Offset    int    `json:"offset"`
	SortBy    string `json:"sort_by"`    // "created_at", "updated_at", "title"
	SortOrder string `json:"sort_order"` // "asc", "desc"
}

type ResultFilters struct {
	QuizID      string     `json:"quiz_id"`
	StudentName string     `json:"student_name"`
	Passed      *bool      `json:"passed"`
	TimedOut    *bool      `json:"timed_out"`
	DateFrom    *time.Time `json:"date_from"`
	DateTo      *time.Time `json:"date_to"`
	Limit       int        `json:"limit"`
	Offset      int        `json:"offset"`
	SortBy      string     `json:"sort_by"` // "completed_at", "score", "percentage"
	SortOrder   string     `json:"sort_order"`
}

// ===== SHARED STATISTICS STRUCTS =====

type QuizResultStats struct {
	TotalResults      int64   `json:"total_results"`
	AverageScore      float64 `json:"average_score"`
	AveragePercentage float64 `json:"average_percentage"`
	PassRate          float64 `json:"pass_rate"`
	TimedOutCount     int64   `json:"timed_out_count"`
	AverageTimeSpent  float64 `json:"average_time_spent_seconds"`
}
