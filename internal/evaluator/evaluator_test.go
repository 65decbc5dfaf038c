package evaluator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/SAP-F-2025/quiz-engine/internal/models"
)

func question(points float64, body models.Body) *models.Question {
	return &models.Question{Base: models.Base{ID: "q", Prompt: "?", Points: points}, Body: body}
}

func TestEvaluate(t *testing.T) {
	tol := 0.5
	decimalTol := 0.1

	tests := []struct {
		name     string
		question *models.Question
		answer   *models.Answer
		correct  bool
	}{
		{
			name:     "single choice correct",
			question: question(1, &models.MultipleChoiceBody{CorrectAnswerID: "b"}),
			answer:   models.TextAnswer("b"),
			correct:  true,
		},
		{
			name:     "single choice wrong",
			question: question(1, &models.MultipleChoiceBody{CorrectAnswerID: "b"}),
			answer:   models.TextAnswer("a"),
		},
		{
			name:     "single choice list answer",
			question: question(1, &models.MultipleChoiceBody{CorrectAnswerID: "b"}),
			answer:   models.ListAnswer("b"),
		},
		{
			name:     "multiple response any order",
			question: question(2, &models.MultipleResponseBody{CorrectAnswerIDs: []string{"a", "c"}}),
			answer:   models.ListAnswer("c", "a"),
			correct:  true,
		},
		{
			name:     "multiple response subset",
			question: question(2, &models.MultipleResponseBody{CorrectAnswerIDs: []string{"a", "c"}}),
			answer:   models.ListAnswer("a"),
		},
		{
			name:     "multiple response superset",
			question: question(2, &models.MultipleResponseBody{CorrectAnswerIDs: []string{"a", "c"}}),
			answer:   models.ListAnswer("a", "b", "c"),
		},
		{
			name: "blanks case folded and trimmed",
			question: question(1, &models.FillInTheBlanksBody{Answers: []models.BlankAnswer{
				{BlankID: "b1", AcceptedValues: []string{" Paris "}},
				{BlankID: "b2", AcceptedValues: []string{"France", "FR"}},
			}}),
			answer:  models.MapAnswer(map[string]string{"b1": "paris", "b2": " fr"}),
			correct: true,
		},
		{
			name: "blanks case sensitive",
			question: question(1, &models.FillInTheBlanksBody{IsCaseSensitive: true, Answers: []models.BlankAnswer{
				{BlankID: "b1", AcceptedValues: []string{"Paris"}},
			}}),
			answer: models.MapAnswer(map[string]string{"b1": "paris"}),
		},
		{
			name: "blanks missing one",
			question: question(1, &models.FillInTheBlanksBody{Answers: []models.BlankAnswer{
				{BlankID: "b1", AcceptedValues: []string{"x"}},
				{BlankID: "b2", AcceptedValues: []string{""}},
			}}),
			answer: models.MapAnswer(map[string]string{"b1": "x"}),
		},
		{
			name: "drag and drop all placed",
			question: question(1, &models.DragAndDropBody{AnswerMap: []models.DropMapping{
				{DraggableID: "d1", DropZoneID: "z1"}, {DraggableID: "d2", DropZoneID: "z2"},
			}}),
			answer:  models.MapAnswer(map[string]string{"d1": "z1", "d2": "z2"}),
			correct: true,
		},
		{
			name: "drag and drop extra key",
			question: question(1, &models.DragAndDropBody{AnswerMap: []models.DropMapping{
				{DraggableID: "d1", DropZoneID: "z1"},
			}}),
			answer: models.MapAnswer(map[string]string{"d1": "z1", "d9": "z1"}),
		},
		{
			name:     "true false",
			question: question(1, &models.TrueFalseBody{CorrectAnswer: false}),
			answer:   models.TextAnswer("false"),
			correct:  true,
		},
		{
			name:     "true false wrong spelling",
			question: question(1, &models.TrueFalseBody{CorrectAnswer: true}),
			answer:   models.TextAnswer("True"),
		},
		{
			name:     "short answer case folded",
			question: question(1, &models.ShortAnswerBody{AcceptedAnswers: []string{"Go"}}),
			answer:   models.TextAnswer("  go "),
			correct:  true,
		},
		{
			name:     "short answer case sensitive",
			question: question(1, &models.ShortAnswerBody{AcceptedAnswers: []string{"Go"}, IsCaseSensitive: true}),
			answer:   models.TextAnswer("go"),
		},
		{
			name:     "numeric on tolerance boundary",
			question: question(1, &models.NumericBody{Answer: 10, Tolerance: &tol}),
			answer:   models.TextAnswer("10.5"),
			correct:  true,
		},
		{
			name:     "numeric past tolerance",
			question: question(1, &models.NumericBody{Answer: 10, Tolerance: &tol}),
			answer:   models.TextAnswer("10.51"),
		},
		{
			name:     "numeric exact without tolerance",
			question: question(1, &models.NumericBody{Answer: 42}),
			answer:   models.TextAnswer(" 42 "),
			correct:  true,
		},
		{
			name:     "numeric with unit",
			question: question(1, &models.NumericBody{Answer: 42}),
			answer:   models.TextAnswer("42 cm"),
			correct:  true,
		},
		{
			name:     "numeric decimal upper boundary",
			question: question(1, &models.NumericBody{Answer: 0.3, Tolerance: &decimalTol}),
			answer:   models.TextAnswer("0.4"),
			correct:  true,
		},
		{
			name:     "numeric decimal lower boundary",
			question: question(1, &models.NumericBody{Answer: 0.3, Tolerance: &decimalTol}),
			answer:   models.TextAnswer("0.2"),
			correct:  true,
		},
		{
			name:     "numeric just outside decimal boundary",
			question: question(1, &models.NumericBody{Answer: 0.3, Tolerance: &decimalTol}),
			answer:   models.TextAnswer("0.4001"),
		},
		{
			name:     "numeric unit glued to value",
			question: question(1, &models.NumericBody{Answer: 3.5}),
			answer:   models.TextAnswer("3.5cm"),
			correct:  true,
		},
		{
			name:     "numeric hex reads as zero",
			question: question(1, &models.NumericBody{Answer: 0}),
			answer:   models.TextAnswer("0x10"),
			correct:  true,
		},
		{
			name:     "numeric infinity outside any tolerance",
			question: question(1, &models.NumericBody{Answer: 10, Tolerance: &tol}),
			answer:   models.TextAnswer("Infinity"),
		},
		{
			name:     "numeric not a number",
			question: question(1, &models.NumericBody{Answer: 42}),
			answer:   models.TextAnswer("forty-two"),
		},
		{
			name:     "numeric NaN",
			question: question(1, &models.NumericBody{Answer: 42, Tolerance: &tol}),
			answer:   models.TextAnswer("NaN"),
		},
		{
			name:     "sequence in order",
			question: question(1, &models.SequenceBody{CorrectOrder: []string{"a", "b", "c"}}),
			answer:   models.ListAnswer("a", "b", "c"),
			correct:  true,
		},
		{
			name:     "sequence swapped",
			question: question(1, &models.SequenceBody{CorrectOrder: []string{"a", "b", "c"}}),
			answer:   models.ListAnswer("a", "c", "b"),
		},
		{
			name: "matching all pairs",
			question: question(1, &models.MatchingBody{CorrectAnswerMap: []models.MatchPair{
				{PromptID: "p1", OptionID: "o1"}, {PromptID: "p2", OptionID: "o2"},
			}}),
			answer:  models.MapAnswer(map[string]string{"p1": "o1", "p2": "o2"}),
			correct: true,
		},
		{
			name: "matching one wrong",
			question: question(1, &models.MatchingBody{CorrectAnswerMap: []models.MatchPair{
				{PromptID: "p1", OptionID: "o1"}, {PromptID: "p2", OptionID: "o2"},
			}}),
			answer: models.MapAnswer(map[string]string{"p1": "o2", "p2": "o2"}),
		},
		{
			name:     "hotspot any correct id",
			question: question(1, &models.HotspotBody{CorrectHotspotIDs: []string{"h1", "h2"}}),
			answer:   models.TextAnswer("h2"),
			correct:  true,
		},
		{
			name:     "blockly verbatim",
			question: question(1, &models.BlocklyProgrammingBody{ProgramBody: models.ProgramBody{SolutionWorkspaceXML: "<xml/>"}}),
			answer:   models.TextAnswer("<xml/>"),
			correct:  true,
		},
		{
			name:     "scratch without solution",
			question: question(1, &models.ScratchProgrammingBody{}),
			answer:   models.TextAnswer(""),
		},
		{
			name:     "unanswered",
			question: question(1, &models.MultipleChoiceBody{CorrectAnswerID: "b"}),
			answer:   nil,
		},
		{
			name:     "missing body",
			question: &models.Question{Base: models.Base{ID: "q", Points: 1}},
			answer:   models.TextAnswer("b"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := Evaluate(tt.question, tt.answer)
			assert.Equal(t, tt.correct, ev.IsCorrect)
			if tt.correct {
				assert.Equal(t, tt.question.Points, ev.PointsEarned)
			} else {
				assert.Zero(t, ev.PointsEarned)
			}
		})
	}
}

func TestEvaluateCorrectAnswerShapes(t *testing.T) {
	tol := 0.1

	ev := Evaluate(question(1, &models.MultipleChoiceBody{CorrectAnswerID: "b"}), nil)
	assert.Equal(t, "b", ev.CorrectAnswer)

	ev = Evaluate(question(1, &models.FillInTheBlanksBody{Answers: []models.BlankAnswer{
		{BlankID: "b1", AcceptedValues: []string{"x", "y"}},
	}}), nil)
	assert.Equal(t, map[string][]string{"b1": {"x", "y"}}, ev.CorrectAnswer)

	ev = Evaluate(question(1, &models.DragAndDropBody{AnswerMap: []models.DropMapping{{DraggableID: "d", DropZoneID: "z"}}}), nil)
	assert.Equal(t, map[string]string{"d": "z"}, ev.CorrectAnswer)

	ev = Evaluate(question(1, &models.TrueFalseBody{CorrectAnswer: true}), nil)
	assert.Equal(t, true, ev.CorrectAnswer)

	ev = Evaluate(question(1, &models.NumericBody{Answer: 3, Tolerance: &tol}), nil)
	key, ok := ev.CorrectAnswer.(NumericKey)
	assert.True(t, ok)
	assert.Equal(t, 3.0, key.Answer)
	assert.Equal(t, 0.1, *key.Tolerance)

	ev = Evaluate(question(1, &models.BlocklyProgrammingBody{}), models.TextAnswer("<xml/>"))
	assert.Nil(t, ev.CorrectAnswer)
	assert.False(t, ev.IsCorrect)
}

func TestEvaluateIsDeterministic(t *testing.T) {
	q := question(3, &models.MultipleResponseBody{CorrectAnswerIDs: []string{"a", "b"}})
	a := models.ListAnswer("b", "a")

	first := Evaluate(q, a)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Evaluate(q, a))
	}
}

func TestParseFloatLoose(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"42", 42, true},
		{"  -3.5e2kg", -350, true},
		{".5", 0.5, true},
		{"5.", 5, true},
		{"1e", 1, true},
		{"+7 apples", 7, true},
		{"0x10", 0, true},
		{"", 0, false},
		{"-", 0, false},
		{".", 0, false},
		{"abc", 0, false},
		{"NaN", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := parseFloatLoose(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
