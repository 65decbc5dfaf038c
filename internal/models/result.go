package models

import (
	"encoding/json"
	"fmt"
)

type WebhookStatus string

const (
	WebhookIdle    WebhookStatus = "idle"
	WebhookSending WebhookStatus = "sending"
	WebhookSuccess WebhookStatus = "success"
	WebhookError   WebhookStatus = "error"
)

type ScormStatus string

const (
	ScormIdle         ScormStatus = "idle"
	ScormNoAPI        ScormStatus = "no_api"
	ScormInitializing ScormStatus = "initializing"
	ScormInitialized  ScormStatus = "initialized"
	ScormSendingData  ScormStatus = "sending_data"
	ScormCommitted    ScormStatus = "committed"
	ScormTerminated   ScormStatus = "terminated"
	ScormError        ScormStatus = "error"
)

// Active reports whether the LMS session is open and must be terminated.
func (s ScormStatus) Active() bool {
	return s == ScormInitialized || s == ScormSendingData || s == ScormCommitted
}

type QuestionResult struct {
	QuestionID       string  `json:"questionId"`
	IsCorrect        bool    `json:"isCorrect"`
	PointsEarned     float64 `json:"pointsEarned"`
	UserAnswer       *Answer `json:"userAnswer"`
	CorrectAnswer    any     `json:"correctAnswer"`
	TimeSpentSeconds float64 `json:"timeSpentSeconds"`
}

// Dimension names a Base metadata field results are grouped by.
type Dimension string

const (
	ByLearningObjective Dimension = "learningObjective"
	ByCategory          Dimension = "category"
	ByTopic             Dimension = "topic"
	ByDifficulty        Dimension = "difficulty"
	ByBloomLevel        Dimension = "bloomLevel"
)

// Dimensions lists the grouping dimensions in report order.
var Dimensions = []Dimension{ByLearningObjective, ByCategory, ByTopic, ByDifficulty, ByBloomLevel}

// Of returns the question's value for the dimension.
func (d Dimension) Of(b Base) string {
	switch d {
	case ByLearningObjective:
		return b.LearningObjective
	case ByCategory:
		return b.Category
	case ByTopic:
		return b.Topic
	case ByDifficulty:
		return b.Difficulty
	case ByBloomLevel:
		return b.BloomLevel
	default:
		return ""
	}
}

type PerformanceMetric struct {
	TotalQuestions   int     `json:"totalQuestions"`
	CorrectQuestions int     `json:"correctQuestions"`
	PointsEarned     float64 `json:"pointsEarned"`
	MaxPoints        float64 `json:"maxPoints"`
	Percentage       float64 `json:"percentage"`
}

// PerformanceGroup is one value of a dimension with its metrics. On the wire
// the value is keyed by the dimension name, e.g. {"topic":"Algebra", ...}.
type PerformanceGroup struct {
	Dimension Dimension
	Value     string
	PerformanceMetric
}

func (g PerformanceGroup) MarshalJSON() ([]byte, error) {
	type metric PerformanceMetric
	b, err := json.Marshal(metric(g.PerformanceMetric))
	if err != nil {
		return nil, err
	}
	key, err := json.Marshal(string(g.Dimension))
	if err != nil {
		return nil, err
	}
	val, err := json.Marshal(g.Value)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(b)+len(key)+len(val)+2)
	out = append(out, '{')
	out = append(out, key...)
	out = append(out, ':')
	out = append(out, val...)
	out = append(out, ',')
	out = append(out, b[1:]...)
	return out, nil
}

func (g *PerformanceGroup) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("invalid performance group: %w", err)
	}
	type metric PerformanceMetric
	var m metric
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("invalid performance group: %w", err)
	}
	g.PerformanceMetric = PerformanceMetric(m)
	for _, d := range Dimensions {
		if v, ok := raw[string(d)]; ok {
			g.Dimension = d
			return json.Unmarshal(v, &g.Value)
		}
	}
	return fmt.Errorf("performance group has no dimension key")
}

// Breakdown holds per-dimension groups in first-encounter order.
type Breakdown struct {
	LearningObjective []PerformanceGroup `json:"performanceByLearningObjective"`
	Category          []PerformanceGroup `json:"performanceByCategory"`
	Topic             []PerformanceGroup `json:"performanceByTopic"`
	Difficulty        []PerformanceGroup `json:"performanceByDifficulty"`
	BloomLevel        []PerformanceGroup `json:"performanceByBloomLevel"`
}

// Groups returns the slice for one dimension.
func (b *Breakdown) Groups(d Dimension) []PerformanceGroup {
	switch d {
	case ByLearningObjective:
		return b.LearningObjective
	case ByCategory:
		return b.Category
	case ByTopic:
		return b.Topic
	case ByDifficulty:
		return b.Difficulty
	case ByBloomLevel:
		return b.BloomLevel
	default:
		return nil
	}
}

func (b *Breakdown) set(d Dimension, groups []PerformanceGroup) {
	switch d {
	case ByLearningObjective:
		b.LearningObjective = groups
	case ByCategory:
		b.Category = groups
	case ByTopic:
		b.Topic = groups
	case ByDifficulty:
		b.Difficulty = groups
	case ByBloomLevel:
		b.BloomLevel = groups
	}
}

// SetGroups replaces the slice for one dimension.
func (b *Breakdown) SetGroups(d Dimension, groups []PerformanceGroup) {
	b.set(d, groups)
}

// QuizResult is the snapshot produced at finish and sent to the webhook.
type QuizResult struct {
	QuizID                        string             `json:"quizId,omitempty"`
	Score                         float64            `json:"score"`
	MaxScore                      float64            `json:"maxScore"`
	Percentage                    float64            `json:"percentage"`
	Passed                        *bool              `json:"passed,omitempty"`
	Answers                       map[string]*Answer `json:"answers"`
	QuestionResults               []QuestionResult   `json:"questionResults"`
	TotalTimeSpentSeconds         float64            `json:"totalTimeSpentSeconds"`
	AverageTimePerQuestionSeconds float64            `json:"averageTimePerQuestionSeconds"`
	Breakdown
	WebhookStatus WebhookStatus `json:"webhookStatus,omitempty"`
	WebhookError  string        `json:"webhookError,omitempty"`
	ScormStatus   ScormStatus   `json:"scormStatus,omitempty"`
	ScormError    string        `json:"scormError,omitempty"`
	StudentName   string        `json:"studentName,omitempty"`
	TimedOut      bool          `json:"timedOut,omitempty"`
}

// Clone returns a deep copy so cached snapshots cannot be mutated by callers.
func (r *QuizResult) Clone() *QuizResult {
	if r == nil {
		return nil
	}
	cp := *r
	if r.Passed != nil {
		passed := *r.Passed
		cp.Passed = &passed
	}
	if r.Answers != nil {
		cp.Answers = make(map[string]*Answer, len(r.Answers))
		for id, a := range r.Answers {
			cp.Answers[id] = a.Clone()
		}
	}
	if r.QuestionResults != nil {
		cp.QuestionResults = make([]QuestionResult, len(r.QuestionResults))
		for i, qr := range r.QuestionResults {
			qr.UserAnswer = qr.UserAnswer.Clone()
			cp.QuestionResults[i] = qr
		}
	}
	for _, d := range Dimensions {
		if groups := r.Groups(d); groups != nil {
			cp.SetGroups(d, append([]PerformanceGroup(nil), groups...))
		}
	}
	return &cp
}

// WithoutCorrectAnswers returns a copy with every canonical correct answer removed.
func (r *QuizResult) WithoutCorrectAnswers() *QuizResult {
	cp := r.Clone()
	if cp == nil {
		return nil
	}
	for i := range cp.QuestionResults {
		cp.QuestionResults[i].CorrectAnswer = nil
	}
	return cp
}
