package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

type ShowAnswersMode string

const (
	ShowImmediately ShowAnswersMode = "immediately"
	ShowEndOfQuiz   ShowAnswersMode = "end_of_quiz"
	ShowNever       ShowAnswersMode = "never"
)

// Quiz is the read-only quiz definition document.
type Quiz struct {
	ID          string        `json:"id" validate:"required,max=200"`
	Title       string        `json:"title" validate:"required,min=1,max=200"`
	Description string        `json:"description,omitempty" validate:"omitempty,max=2000"`
	Questions   []*Question   `json:"questions" validate:"dive,required"`
	Settings    *QuizSettings `json:"settings,omitempty" validate:"omitempty"`
}

type QuizSettings struct {
	ShuffleQuestions    bool            `json:"shuffleQuestions,omitempty"`
	ShuffleOptions      bool            `json:"shuffleOptions,omitempty"`
	TimeLimitMinutes    float64         `json:"timeLimitMinutes,omitempty" validate:"min=0,max=1440"`
	ShowCorrectAnswers  ShowAnswersMode `json:"showCorrectAnswers,omitempty" validate:"omitempty,show_answers_mode"`
	PassingScorePercent *float64        `json:"passingScorePercent,omitempty" validate:"omitempty,min=0,max=100"`
	WebhookURL          string          `json:"webhookUrl,omitempty" validate:"omitempty,url"`
	Scorm               *ScormSettings  `json:"scorm,omitempty" validate:"omitempty"`
}

// SettingsOrDefault returns a copy of the quiz settings, zero-valued when unset.
func (q *Quiz) SettingsOrDefault() QuizSettings {
	if q == nil || q.Settings == nil {
		return QuizSettings{}
	}
	return *q.Settings
}

// TimeLimitSeconds returns the countdown length, or 0 when the quiz is untimed.
func (s QuizSettings) TimeLimitSeconds() int {
	if s.TimeLimitMinutes <= 0 {
		return 0
	}
	return int(s.TimeLimitMinutes * 60)
}

// FindQuestion returns the question with the given id.
func (q *Quiz) FindQuestion(id string) (*Question, bool) {
	if q == nil {
		return nil, false
	}
	for _, question := range q.Questions {
		if question != nil && question.ID == id {
			return question, true
		}
	}
	return nil, false
}

// MaxScore sums the configured points of every question.
func (q *Quiz) MaxScore() float64 {
	var total float64
	if q == nil {
		return total
	}
	for _, question := range q.Questions {
		if question != nil {
			total += question.Points
		}
	}
	return total
}

type ScormVersion string

const (
	Scorm12   ScormVersion = "1.2"
	Scorm2004 ScormVersion = "2004"
)

// ScormSettings configures the LMS adapter. FieldOverrides maps a logical
// field name ("score_raw") or a version-qualified one ("2004.score_raw") to
// the CMI element to write instead of the default. The lesson_status field
// is cmi.core.lesson_status on 1.2 and cmi.completion_status on 2004.
type ScormSettings struct {
	Version               ScormVersion      `json:"version" validate:"required,scorm_version"`
	SetCompletionOnFinish *bool             `json:"setCompletionOnFinish,omitempty"`
	SetSuccessOnPass      *bool             `json:"setSuccessOnPass,omitempty"`
	AutoCommit            *bool             `json:"autoCommit,omitempty"`
	FieldOverrides        map[string]string `json:"fieldOverrides,omitempty"`
}

func (s ScormSettings) CompletionOnFinish() bool { return boolOr(s.SetCompletionOnFinish, true) }
func (s ScormSettings) SuccessOnPass() bool      { return boolOr(s.SetSuccessOnPass, true) }
func (s ScormSettings) AutoCommitEnabled() bool  { return boolOr(s.AutoCommit, true) }

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

// legacyScormKeys maps the per-field settings keys of older quiz documents
// onto FieldOverrides keys.
var legacyScormKeys = map[string]string{
	"studentNameVar":           "student_name",
	"lessonStatusVar":          "lesson_status",
	"scoreRawVar":              "score_raw",
	"scoreMaxVar":              "score_max",
	"scoreMinVar":              "score_min",
	"sessionTimeVar":           "session_time",
	"exitVar":                  "exit",
	"lessonStatusVar_1_2":      "1.2.lesson_status",
	"scoreRawVar_1_2":          "1.2.score_raw",
	"scoreMaxVar_1_2":          "1.2.score_max",
	"scoreMinVar_1_2":          "1.2.score_min",
	"completionStatusVar_2004": "2004.lesson_status",
	"successStatusVar_2004":    "2004.success_status",
	"scoreScaledVar_2004":      "2004.score_scaled",
	"scoreRawVar_2004":         "2004.score_raw",
	"scoreMaxVar_2004":         "2004.score_max",
	"scoreMinVar_2004":         "2004.score_min",
}

func (s *ScormSettings) UnmarshalJSON(data []byte) error {
	type plain ScormSettings
	var decoded plain
	if err := json.Unmarshal(data, &decoded); err != nil {
		return fmt.Errorf("invalid scorm settings: %w", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("invalid scorm settings: %w", err)
	}
	for key, target := range legacyScormKeys {
		msg, ok := raw[key]
		if !ok {
			continue
		}
		var value string
		if err := json.Unmarshal(msg, &value); err != nil {
			return fmt.Errorf("scorm setting %s: %w", key, err)
		}
		if strings.TrimSpace(value) == "" {
			continue
		}
		if decoded.FieldOverrides == nil {
			decoded.FieldOverrides = make(map[string]string)
		}
		// Explicit fieldOverrides entries win over legacy keys.
		if _, exists := decoded.FieldOverrides[target]; !exists {
			decoded.FieldOverrides[target] = value
		}
	}

	if decoded.Version == "" {
		decoded.Version = Scorm12
	}
	*s = ScormSettings(decoded)
	return nil
}
