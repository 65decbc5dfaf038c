package validator

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/SAP-F-2025/quiz-engine/internal/models"
)

// Validator combines struct-tag validation with the quiz domain rules.
type Validator struct {
	structValidator   *validator.Validate
	questionValidator *QuestionValidator
}

func New() *Validator {
	structValidator := validator.New()
	registerCustomValidators(structValidator)

	return &Validator{
		structValidator:   structValidator,
		questionValidator: NewQuestionValidator(),
	}
}

// ValidateStruct validates struct tags only
func (v *Validator) ValidateStruct(s any) error {
	return v.structValidator.Struct(s)
}

// Validate checks struct tags and, for quizzes, the domain rules. Failures
// come back as ValidationErrors.
func (v *Validator) Validate(s any) error {
	if err := v.ValidateStruct(s); err != nil {
		if errs := ToValidationErrors(err); len(errs) > 0 {
			return errs
		}
		return err
	}

	if quiz, ok := s.(*models.Quiz); ok {
		if errs := v.questionValidator.ValidateQuiz(quiz); len(errs) > 0 {
			return errs
		}
	}
	return nil
}

func (v *Validator) Question() *QuestionValidator {
	return v.questionValidator
}

func registerCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("question_type", validateQuestionType)
	validate.RegisterValidation("show_answers_mode", validateShowAnswersMode)
	validate.RegisterValidation("scorm_version", validateScormVersion)

	validate.RegisterStructValidation(validateQuestionStruct, models.Question{})

	// Report json names so errors match the request payload
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

func validateQuestionType(fl validator.FieldLevel) bool {
	return models.QuestionType(fl.Field().String()).IsValid()
}

func validateShowAnswersMode(fl validator.FieldLevel) bool {
	switch models.ShowAnswersMode(fl.Field().String()) {
	case models.ShowImmediately, models.ShowEndOfQuiz, models.ShowNever:
		return true
	default:
		return false
	}
}

func validateScormVersion(fl validator.FieldLevel) bool {
	switch models.ScormVersion(fl.Field().String()) {
	case models.Scorm12, models.Scorm2004:
		return true
	default:
		return false
	}
}

// validateQuestionStruct covers the fields of the union that cannot carry tags.
func validateQuestionStruct(sl validator.StructLevel) {
	q := sl.Current().Interface().(models.Question)
	if strings.TrimSpace(q.ID) == "" {
		sl.ReportError(q.ID, "id", "ID", "required", "")
	}
	if strings.TrimSpace(q.Prompt) == "" {
		sl.ReportError(q.Prompt, "prompt", "Prompt", "required", "")
	}
	if q.Points < 0 {
		sl.ReportError(q.Points, "points", "Points", "min", "0")
	}
	if q.Body == nil {
		sl.ReportError(q.Body, "questionType", "Body", "question_type", "")
	}
}
