package services

import (
	"io"
	"log/slog"

	"github.com/SAP-F-2025/quiz-engine/internal/models"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleQuiz(settings *models.QuizSettings) *models.Quiz {
	return &models.Quiz{
		ID:    "quiz-1",
		Title: "Basics",
		Questions: []*models.Question{
			{
				Base: models.Base{ID: "q1", Prompt: "Pick b", Points: 10, Topic: "letters", Explanation: "b is second"},
				Body: &models.MultipleChoiceBody{
					Options:         []models.Option{{ID: "a", Text: "A"}, {ID: "b", Text: "B"}},
					CorrectAnswerID: "b",
				},
			},
			{
				Base: models.Base{ID: "q2", Prompt: "Click the circle", Points: 5, Topic: "shapes"},
				Body: &models.HotspotBody{
					ImageURL: "shapes.png",
					Hotspots: []models.HotspotArea{
						{ID: "square", Shape: models.ShapeRect, Coords: []float64{0, 0, 20, 20}},
						{ID: "circle", Shape: models.ShapeCircle, Coords: []float64{70, 70, 10}},
					},
					CorrectHotspotIDs: []string{"circle"},
				},
			},
		},
		Settings: settings,
	}
}

func floatPtr(v float64) *float64 { return &v }
