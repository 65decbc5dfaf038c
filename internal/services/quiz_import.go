package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/SAP-F-2025/quiz-engine/internal/models"
)

// Spreadsheet columns. "data" holds the variant fields as a JSON object,
// e.g. {"options":[...],"correctAnswerId":"b"}.
var importColumns = map[string]string{
	"id":                 "id",
	"type":               "questionType",
	"question_type":      "questionType",
	"prompt":             "prompt",
	"explanation":        "explanation",
	"learning_objective": "learningObjective",
	"bloom_level":        "bloomLevel",
	"difficulty":         "difficulty",
	"context_code":       "contextCode",
	"grade_band":         "gradeBand",
	"course":             "course",
	"category":           "category",
	"topic":              "topic",
}

// ===== IMPORT OPERATIONS =====

func (s *quizService) Import(ctx context.Context, r io.Reader, filename string, req *ImportRequest, createdBy string) (result *ImportResult, err error) {
	op := s.logger.WithOperation(ctx, "import_quiz")
	defer func() { op.LogResult("quiz_import", filename, err) }()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx":
		result, err = s.importExcel(data)
	case ".json":
		result, err = s.importJSON(data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrImportUnsupported, filepath.Ext(filename))
	}
	if err != nil {
		return nil, err
	}

	s.checkDuplicateIDs(result)

	s.logger.Logger().InfoContext(ctx, "quiz import parsed",
		"filename", filename,
		"total_rows", result.TotalRows,
		"success_count", result.SuccessCount,
		"error_count", result.ErrorCount)

	if req == nil || req.ID == "" || result.ErrorCount > 0 {
		return result, nil
	}

	quiz := &models.Quiz{
		ID:          req.ID,
		Title:       req.Title,
		Description: req.Description,
		Questions:   result.Questions,
	}
	created, err := s.Create(ctx, quiz, createdBy)
	if err != nil {
		return nil, err
	}
	result.Quiz = created
	return result, nil
}

func (s *quizService) importExcel(data []byte) (*ImportResult, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open Excel file: %v", ErrBadRequest, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, NewValidationError("file", "Excel file has no sheets", nil)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read Excel rows: %w", err)
	}
	if len(rows) < 2 {
		return nil, NewValidationError("file", "Excel must have header row and at least one data row", len(rows))
	}

	headerMap := make(map[string]int)
	for i, header := range rows[0] {
		headerMap[strings.ToLower(strings.TrimSpace(header))] = i
	}
	if _, ok := headerMap["type"]; !ok {
		if _, ok := headerMap["question_type"]; !ok {
			return nil, NewValidationError("file", "missing type column", rows[0])
		}
	}

	result := &ImportResult{TotalRows: len(rows) - 1}
	for i, row := range rows[1:] {
		rowNum := i + 2
		if blankRow(row) {
			result.TotalRows--
			continue
		}
		q, err := parseExcelRow(row, headerMap)
		if err == nil {
			err = s.validateImported(q)
		}
		s.record(result, "xlsx", rowNum, q, err)
	}
	return result, nil
}

// importJSON accepts a full quiz document or a bare array of questions.
func (s *quizService) importJSON(data []byte) (*ImportResult, error) {
	data = bytes.TrimSpace(data)
	var raw []json.RawMessage
	if len(data) > 0 && data[0] == '{' {
		var doc struct {
			Questions []json.RawMessage `json:"questions"`
		}
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("%w: invalid quiz document: %v", ErrBadRequest, err)
		}
		raw = doc.Questions
	} else if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: invalid question list: %v", ErrBadRequest, err)
	}

	result := &ImportResult{TotalRows: len(raw)}
	for i, msg := range raw {
		var q models.Question
		err := json.Unmarshal(msg, &q)
		if err == nil {
			err = s.validateImported(&q)
		}
		s.record(result, "json", i+1, &q, err)
	}
	return result, nil
}

func (s *quizService) validateImported(q *models.Question) error {
	if err := s.validator.Validate(q); err != nil {
		return err
	}
	if errs := s.validator.Question().ValidateQuestion(q); len(errs) > 0 {
		return errs
	}
	return nil
}

func (s *quizService) record(result *ImportResult, source string, row int, q *models.Question, err error) {
	if err != nil {
		result.ErrorCount++
		result.Errors = append(result.Errors, &ImportError{Source: source, Row: row, Err: err})
		return
	}
	result.SuccessCount++
	result.Questions = append(result.Questions, q)
	result.rows = append(result.rows, importRow{source: source, row: row})
}

// checkDuplicateIDs moves questions whose id repeats an earlier row into the
// error list.
func (s *quizService) checkDuplicateIDs(result *ImportResult) {
	seen := make(map[string]bool, len(result.Questions))
	kept := result.Questions[:0]
	for i, q := range result.Questions {
		if seen[q.ID] {
			at := result.rows[i]
			result.SuccessCount--
			result.ErrorCount++
			result.Errors = append(result.Errors, &ImportError{
				Source: at.source,
				Row:    at.row,
				Err:    fmt.Errorf("duplicate question id %q", q.ID),
			})
			continue
		}
		seen[q.ID] = true
		kept = append(kept, q)
	}
	result.Questions = kept
	result.rows = nil
}

func parseExcelRow(row []string, headerMap map[string]int) (*models.Question, error) {
	cell := func(name string) string {
		if i, ok := headerMap[name]; ok && i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	doc := make(map[string]any)
	if body := cell("data"); body != "" {
		if err := json.Unmarshal([]byte(body), &doc); err != nil {
			return nil, fmt.Errorf("data column is not a JSON object: %w", err)
		}
	}

	for column, field := range importColumns {
		if v := cell(column); v != "" {
			doc[field] = v
		}
	}
	if points := cell("points"); points != "" {
		v, err := strconv.ParseFloat(points, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid points %q", points)
		}
		doc["points"] = v
	}
	if glossary := cell("glossary"); glossary != "" {
		var terms []string
		for _, term := range strings.Split(glossary, ";") {
			if term = strings.TrimSpace(term); term != "" {
				terms = append(terms, term)
			}
		}
		doc["glossary"] = terms
	}
	if _, ok := doc["questionType"]; !ok {
		return nil, errors.New("question type is required")
	}

	encoded, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var q models.Question
	if err := json.Unmarshal(encoded, &q); err != nil {
		return nil, err
	}
	return &q, nil
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
