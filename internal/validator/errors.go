package validator

import (
	"github.com/SAP-F-2025/quiz-engine/internal/errors"
)

type ValidationError = errors.ValidationError
type ValidationErrors = errors.ValidationErrors

var (
	NewValidationError         = errors.NewValidationError
	NewValidationErrorWithRule = errors.NewValidationErrorWithRule
)

func ToValidationErrors(err error) ValidationErrors {
	return errors.ToValidationErrors(err)
}
