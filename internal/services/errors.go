package services

import (
	"encoding/json"
	"errors"
	"fmt"

	apperrors "github.com/SAP-F-2025/quiz-engine/internal/errors"
)

var (
	ErrNotFound         = errors.New("resource not found")
	ErrUnauthorized     = errors.New("unauthorized access")
	ErrForbidden        = errors.New("forbidden - insufficient permissions")
	ErrValidationFailed = errors.New("validation failed")
	ErrBadRequest       = errors.New("bad request")
	ErrConflict         = errors.New("resource conflict")

	ErrQuizNotFound      = errors.New("quiz not found")
	ErrQuizExists        = errors.New("quiz with this id already exists")
	ErrQuizVersionStale  = errors.New("quiz was modified concurrently")
	ErrImportUnsupported = errors.New("unsupported import format")

	ErrSessionNotFound  = errors.New("session not found")
	ErrSessionFinished  = errors.New("session already finished")
	ErrSessionNotDone   = errors.New("session has not finished yet")
	ErrQuestionNotFound = errors.New("question not found")
	ErrResultNotFound   = errors.New("result not found")
)

type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

// ImportError points at the spreadsheet row or document entry that failed.
type ImportError struct {
	Source string `json:"source"`
	Row    int    `json:"row"`
	Err    error  `json:"-"`
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("import %s row %d: %v", e.Source, e.Row, e.Err)
}

func (e *ImportError) Unwrap() error { return e.Err }

func (e *ImportError) MarshalJSON() ([]byte, error) {
	out := struct {
		Source  string           `json:"source"`
		Row     int              `json:"row"`
		Message string           `json:"message"`
		Fields  ValidationErrors `json:"fields,omitempty"`
	}{Source: e.Source, Row: e.Row}
	if e.Err != nil {
		out.Message = e.Err.Error()
		var ve ValidationErrors
		if errors.As(e.Err, &ve) {
			out.Fields = ve
		}
	}
	return json.Marshal(out)
}

func NewValidationError(field, message string, value any) *ValidationError {
	return apperrors.NewValidationError(field, message, value)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrQuizNotFound) ||
		errors.Is(err, ErrSessionNotFound) ||
		errors.Is(err, ErrQuestionNotFound) ||
		errors.Is(err, ErrResultNotFound)
}

func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrForbidden)
}

func IsValidation(err error) bool {
	if errors.Is(err, ErrValidationFailed) || errors.Is(err, ErrBadRequest) || errors.Is(err, ErrImportUnsupported) {
		return true
	}
	var ie *ImportError
	return apperrors.IsValidationError(err) || errors.As(err, &ie)
}

func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrQuizExists) ||
		errors.Is(err, ErrQuizVersionStale) ||
		errors.Is(err, ErrSessionFinished) ||
		errors.Is(err, ErrSessionNotDone)
}
