package errors

import (
	"fmt"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationErrorMessages(t *testing.T) {
	err := NewValidationErrorWithRule("questions[0].id", "is required", "required", "")
	assert.Equal(t, "validation error on field 'questions[0].id': is required", err.Error())

	var errs ValidationErrors
	assert.Equal(t, "validation failed", errs.Error())

	errs = append(errs, *err)
	assert.Equal(t, "validation failed: questions[0].id is required", errs.Error())

	errs = append(errs, *NewValidationError("title", "is required", nil))
	assert.Equal(t, "validation failed: 2 field errors", errs.Error())
}

type settingsDTO struct {
	Mode string `validate:"required,oneof=immediately end_of_quiz never"`
}

type quizDTO struct {
	Title    string `validate:"required"`
	Settings settingsDTO
}

func TestToValidationErrors(t *testing.T) {
	err := validator.New().Struct(quizDTO{Settings: settingsDTO{Mode: "sometimes"}})
	require.Error(t, err)

	errs := ToValidationErrors(fmt.Errorf("create quiz: %w", err))
	require.Len(t, errs, 2)
	assert.Equal(t, "Title", errs[0].Field)
	assert.Equal(t, "is required", errs[0].Message)
	assert.Equal(t, "Settings.Mode", errs[1].Field)
	assert.Equal(t, "oneof", errs[1].Rule)
	assert.Equal(t, "must be one of: immediately end_of_quiz never", errs[1].Message)
}

func TestToValidationErrorsIgnoresOtherErrors(t *testing.T) {
	assert.Empty(t, ToValidationErrors(fmt.Errorf("boom")))
}

func TestIsValidationError(t *testing.T) {
	assert.True(t, IsValidationError(ValidationErrors{*NewValidationError("f", "m", nil)}))
	assert.True(t, IsValidationError(fmt.Errorf("wrapped: %w", NewValidationError("f", "m", nil))))
	assert.False(t, IsValidationError(fmt.Errorf("plain")))
}
