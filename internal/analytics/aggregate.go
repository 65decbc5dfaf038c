// Package analytics groups question results by question metadata.
package analytics

import (
	"math"

	"github.com/SAP-F-2025/quiz-engine/internal/models"
)

// Aggregate builds per-dimension performance groups. Questions with an empty
// value for a dimension are left out of that dimension; results without a
// matching question are ignored. Groups appear in first-encounter order of
// the question list.
func Aggregate(questions []*models.Question, results []models.QuestionResult) models.Breakdown {
	byID := make(map[string]models.QuestionResult, len(results))
	for _, r := range results {
		byID[r.QuestionID] = r
	}

	var out models.Breakdown
	for _, d := range models.Dimensions {
		out.SetGroups(d, group(d, questions, byID))
	}
	return out
}

func group(d models.Dimension, questions []*models.Question, results map[string]models.QuestionResult) []models.PerformanceGroup {
	groups := []models.PerformanceGroup{}
	index := make(map[string]int)

	for _, q := range questions {
		if q == nil {
			continue
		}
		value := d.Of(q.Base)
		if value == "" {
			continue
		}
		r, ok := results[q.ID]
		if !ok {
			continue
		}

		i, seen := index[value]
		if !seen {
			i = len(groups)
			index[value] = i
			groups = append(groups, models.PerformanceGroup{Dimension: d, Value: value})
		}

		g := &groups[i]
		g.TotalQuestions++
		if r.IsCorrect {
			g.CorrectQuestions++
		}
		g.PointsEarned += r.PointsEarned
		g.MaxPoints += q.Points
	}

	for i := range groups {
		groups[i].Percentage = Percentage(groups[i].PointsEarned, groups[i].MaxPoints)
	}
	return groups
}

// Percentage returns earned/max*100 rounded to two decimals, or 0 when max is 0.
func Percentage(earned, max float64) float64 {
	if max <= 0 {
		return 0
	}
	return Round2(earned / max * 100)
}

func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
