package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"github.com/SAP-F-2025/quiz-engine/internal/models"
	"github.com/SAP-F-2025/quiz-engine/internal/scorm"
)

const (
	summarySheet   = "Summary"
	questionsSheet = "Questions"
)

var dimensionSheets = map[models.Dimension]string{
	models.ByLearningObjective: "By Learning Objective",
	models.ByCategory:          "By Category",
	models.ByTopic:             "By Topic",
	models.ByDifficulty:        "By Difficulty",
	models.ByBloomLevel:        "By Bloom Level",
}

type exportService struct {
	logger *slog.Logger
	// assets are added to every SCORM package next to the quiz data.
	assets   map[string][]byte
	launcher scorm.LauncherOptions
}

type ExportOption func(*exportService)

// WithLauncher sets the player bundle and stylesheet paths the generated
// launcher page references.
func WithLauncher(opts scorm.LauncherOptions) ExportOption {
	return func(s *exportService) { s.launcher = opts }
}

// NewExportService builds result workbooks and SCORM packages. Unless assets
// carry quiz_launcher.html, a launcher page is generated per quiz.
func NewExportService(logger *slog.Logger, assets map[string][]byte, opts ...ExportOption) ExportService {
	s := &exportService{
		logger: logger.With("service", "export"),
		assets: assets,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ===== RESULT WORKBOOK =====

func (s *exportService) ResultWorkbook(ctx context.Context, result *models.QuizResult, quiz *models.Quiz) ([]byte, error) {
	if result == nil {
		return nil, ErrResultNotFound
	}

	f := excelize.NewFile()
	defer f.Close()

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	w := &sheetWriter{f: f, header: header}

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	w.summary(result, quiz)
	w.questions(result, quiz)
	for _, d := range models.Dimensions {
		w.performance(dimensionSheets[d], d, result.Groups(d))
	}
	if w.err != nil {
		return nil, fmt.Errorf("failed to write Excel sheet: %w", w.err)
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}

	s.logger.InfoContext(ctx, "result workbook exported", "quiz_id", result.QuizID, "bytes", buf.Len())
	return buf.Bytes(), nil
}

// sheetWriter keeps the first error so the sheet builders read top to bottom.
type sheetWriter struct {
	f      *excelize.File
	header int
	err    error
}

func (w *sheetWriter) row(sheet string, row int, values ...any) {
	if w.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		w.err = err
		return
	}
	w.err = w.f.SetSheetRow(sheet, cell, &values)
}

func (w *sheetWriter) headerRow(sheet string, values ...any) {
	w.row(sheet, 1, values...)
	if w.err != nil {
		return
	}
	last, err := excelize.CoordinatesToCellName(len(values), 1)
	if err != nil {
		w.err = err
		return
	}
	w.err = w.f.SetCellStyle(sheet, "A1", last, w.header)
}

func (w *sheetWriter) newSheet(name string) {
	if w.err != nil {
		return
	}
	_, w.err = w.f.NewSheet(name)
}

func (w *sheetWriter) summary(r *models.QuizResult, quiz *models.Quiz) {
	title := ""
	if quiz != nil {
		title = quiz.Title
	}
	passed := "n/a"
	if r.Passed != nil {
		passed = "Fail"
		if *r.Passed {
			passed = "Pass"
		}
	}

	rows := [][]any{
		{"Quiz", title},
		{"Quiz ID", r.QuizID},
		{"Student", r.StudentName},
		{"Score", r.Score},
		{"Max Score", r.MaxScore},
		{"Percentage", r.Percentage},
		{"Result", passed},
		{"Timed Out", r.TimedOut},
		{"Total Time (seconds)", r.TotalTimeSpentSeconds},
		{"Average Time per Question (seconds)", r.AverageTimePerQuestionSeconds},
		{"SCORM Status", string(r.ScormStatus)},
		{"Webhook Status", string(r.WebhookStatus)},
	}
	w.headerRow(summarySheet, "Field", "Value")
	for i, values := range rows {
		w.row(summarySheet, i+2, values...)
	}
}

func (w *sheetWriter) questions(r *models.QuizResult, quiz *models.Quiz) {
	w.newSheet(questionsSheet)
	w.headerRow(questionsSheet,
		"Question ID", "Prompt", "Type", "Correct", "Points Earned", "Max Points",
		"Answer", "Correct Answer", "Time Spent (seconds)")

	for i, qr := range r.QuestionResults {
		var prompt, qtype string
		var points float64
		if q, ok := quiz.FindQuestion(qr.QuestionID); ok {
			prompt, qtype, points = q.Prompt, string(q.Type()), q.Points
		}
		answer := ""
		if qr.UserAnswer != nil {
			answer = qr.UserAnswer.String()
		}
		w.row(questionsSheet, i+2,
			qr.QuestionID, prompt, qtype, qr.IsCorrect, qr.PointsEarned, points,
			answer, displayValue(qr.CorrectAnswer), qr.TimeSpentSeconds)
	}
}

func (w *sheetWriter) performance(sheet string, d models.Dimension, groups []models.PerformanceGroup) {
	w.newSheet(sheet)
	w.headerRow(sheet, string(d), "Questions", "Correct", "Points Earned", "Max Points", "Percentage")
	for i, g := range groups {
		w.row(sheet, i+2, g.Value, g.TotalQuestions, g.CorrectQuestions, g.PointsEarned, g.MaxPoints, g.Percentage)
	}
}

func displayValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

// ===== SCORM PACKAGE =====

func (s *exportService) ScormPackage(ctx context.Context, quiz *models.Quiz) ([]byte, error) {
	if quiz == nil {
		return nil, ErrQuizNotFound
	}

	var buf bytes.Buffer
	err := scorm.WritePackage(&buf, quiz, scorm.PackageOptions{Assets: s.assets, Launcher: s.launcher})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "scorm package exported", "quiz_id", quiz.ID, "bytes", buf.Len())
	return buf.Bytes(), nil
}
