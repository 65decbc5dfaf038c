// Package evaluator scores a single answer against a question's answer key.
package evaluator

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/SAP-F-2025/quiz-engine/internal/models"
)

// Evaluation is the outcome of scoring one question.
type Evaluation struct {
	IsCorrect     bool
	CorrectAnswer any
	PointsEarned  float64
}

// NumericKey is the canonical correct answer reported for numeric questions.
type NumericKey struct {
	Answer    float64  `json:"answer"`
	Tolerance *float64 `json:"tolerance,omitempty"`
}

// Evaluate scores answer against question. It never panics: a missing body,
// an answer of the wrong shape or a nil answer all score as incorrect.
func Evaluate(question *models.Question, answer *models.Answer) Evaluation {
	if question == nil || question.Body == nil {
		return Evaluation{}
	}

	s := &scorer{answer: answer}
	question.Body.Accept(s)

	ev := Evaluation{IsCorrect: s.correct, CorrectAnswer: s.key}
	if s.correct {
		ev.PointsEarned = question.Points
	}
	return ev
}

type scorer struct {
	answer  *models.Answer
	correct bool
	key     any
}

func (s *scorer) VisitMultipleChoice(b *models.MultipleChoiceBody) {
	s.key = b.CorrectAnswerID
	if text, ok := s.answer.Text(); ok {
		s.correct = text == b.CorrectAnswerID
	}
}

func (s *scorer) VisitMultipleResponse(b *models.MultipleResponseBody) {
	s.key = cloneStrings(b.CorrectAnswerIDs)
	if list, ok := s.answer.List(); ok {
		s.correct = sameSet(list, b.CorrectAnswerIDs)
	}
}

func (s *scorer) VisitFillInTheBlanks(b *models.FillInTheBlanksBody) {
	key := make(map[string][]string, len(b.Answers))
	for _, blank := range b.Answers {
		key[blank.BlankID] = cloneStrings(blank.AcceptedValues)
	}
	s.key = key

	given, ok := s.answer.Map()
	if !ok {
		return
	}
	for _, blank := range b.Answers {
		value, present := given[blank.BlankID]
		if !present || !matchesAny(value, blank.AcceptedValues, b.IsCaseSensitive) {
			return
		}
	}
	s.correct = true
}

func (s *scorer) VisitDragAndDrop(b *models.DragAndDropBody) {
	key := make(map[string]string, len(b.AnswerMap))
	for _, m := range b.AnswerMap {
		key[m.DraggableID] = m.DropZoneID
	}
	s.key = key

	if given, ok := s.answer.Map(); ok {
		expected := make([][2]string, len(b.AnswerMap))
		for i, m := range b.AnswerMap {
			expected[i] = [2]string{m.DraggableID, m.DropZoneID}
		}
		s.correct = allPairsPlaced(given, expected)
	}
}

func (s *scorer) VisitTrueFalse(b *models.TrueFalseBody) {
	s.key = b.CorrectAnswer
	if text, ok := s.answer.Text(); ok {
		s.correct = (text == "true" && b.CorrectAnswer) || (text == "false" && !b.CorrectAnswer)
	}
}

func (s *scorer) VisitShortAnswer(b *models.ShortAnswerBody) {
	s.key = cloneStrings(b.AcceptedAnswers)
	if text, ok := s.answer.Text(); ok {
		s.correct = matchesAny(text, b.AcceptedAnswers, b.IsCaseSensitive)
	}
}

func (s *scorer) VisitNumeric(b *models.NumericBody) {
	key := NumericKey{Answer: b.Answer}
	if b.Tolerance != nil {
		tol := *b.Tolerance
		key.Tolerance = &tol
	}
	s.key = key

	text, ok := s.answer.Text()
	if !ok {
		return
	}
	value, ok := parseFloatLoose(text)
	if !ok {
		return
	}
	if b.Tolerance != nil {
		s.correct = withinTolerance(value, b.Answer, *b.Tolerance)
		return
	}
	s.correct = value == b.Answer
}

func (s *scorer) VisitSequence(b *models.SequenceBody) {
	s.key = cloneStrings(b.CorrectOrder)
	list, ok := s.answer.List()
	if !ok || len(list) != len(b.CorrectOrder) {
		return
	}
	for i, id := range list {
		if id != b.CorrectOrder[i] {
			return
		}
	}
	s.correct = true
}

func (s *scorer) VisitMatching(b *models.MatchingBody) {
	key := make(map[string]string, len(b.CorrectAnswerMap))
	for _, p := range b.CorrectAnswerMap {
		key[p.PromptID] = p.OptionID
	}
	s.key = key

	if given, ok := s.answer.Map(); ok {
		expected := make([][2]string, len(b.CorrectAnswerMap))
		for i, p := range b.CorrectAnswerMap {
			expected[i] = [2]string{p.PromptID, p.OptionID}
		}
		s.correct = allPairsPlaced(given, expected)
	}
}

func (s *scorer) VisitHotspot(b *models.HotspotBody) {
	s.key = cloneStrings(b.CorrectHotspotIDs)
	if text, ok := s.answer.Text(); ok {
		for _, id := range b.CorrectHotspotIDs {
			if id == text {
				s.correct = true
				return
			}
		}
	}
}

func (s *scorer) VisitBlocklyProgramming(b *models.BlocklyProgrammingBody) {
	s.program(b.ProgramBody)
}

func (s *scorer) VisitScratchProgramming(b *models.ScratchProgrammingBody) {
	s.program(b.ProgramBody)
}

// program compares workspace XML verbatim. Without a reference solution the
// answer cannot be graded and is reported as incorrect.
func (s *scorer) program(b models.ProgramBody) {
	if b.SolutionWorkspaceXML == "" {
		s.key = nil
		return
	}
	s.key = b.SolutionWorkspaceXML
	if text, ok := s.answer.Text(); ok {
		s.correct = text == b.SolutionWorkspaceXML
	}
}

// allPairsPlaced requires every expected pair to be present and the answer to
// carry no extra keys.
func allPairsPlaced(given map[string]string, expected [][2]string) bool {
	matched := 0
	for _, pair := range expected {
		if got, ok := given[pair[0]]; ok && got == pair[1] {
			matched++
		}
	}
	return matched == len(expected) && len(given) == len(expected)
}

func matchesAny(value string, accepted []string, caseSensitive bool) bool {
	value = strings.TrimSpace(value)
	for _, candidate := range accepted {
		candidate = strings.TrimSpace(candidate)
		if caseSensitive {
			if candidate == value {
				return true
			}
			continue
		}
		if strings.EqualFold(candidate, value) {
			return true
		}
	}
	return false
}

func sameSet(given, expected []string) bool {
	want := make(map[string]struct{}, len(expected))
	for _, id := range expected {
		want[id] = struct{}{}
	}
	got := make(map[string]struct{}, len(given))
	for _, id := range given {
		if _, ok := want[id]; !ok {
			return false
		}
		got[id] = struct{}{}
	}
	return len(got) == len(want)
}

// withinTolerance treats |value-target| == tolerance as inside even when the
// decimal inputs are not exact in binary (0.3 ± 0.1 accepts 0.4).
func withinTolerance(value, target, tolerance float64) bool {
	if math.IsInf(value, 0) || math.IsInf(target, 0) {
		return value == target
	}
	eps := 1e-9 * math.Max(1, math.Max(math.Abs(value), math.Abs(target)))
	return math.Abs(value-target) <= tolerance+eps
}

// parseFloatLoose reads the longest leading decimal number and ignores the
// rest ("3.5cm", "42 cm"). Hex and NaN are not numbers; "0x10" reads as 0.
func parseFloatLoose(s string) (float64, bool) {
	s = strings.TrimLeft(s, " \t\n\r\f\v")
	n := numberPrefix(s)
	if n == 0 {
		return 0, false
	}
	v, err := strconv.ParseFloat(s[:n], 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, false
	}
	return v, true
}

// numberPrefix returns the length of the decimal literal at the start of s:
// optional sign, digits with an optional fraction, optional exponent, or
// Infinity.
func numberPrefix(s string) int {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	if strings.HasPrefix(s[i:], "Infinity") {
		return i + len("Infinity")
	}

	digits := 0
	for i < len(s) && isDigit(s[i]) {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		j := i + 1
		frac := 0
		for j < len(s) && isDigit(s[j]) {
			j++
			frac++
		}
		if digits > 0 || frac > 0 {
			i = j
			digits += frac
		}
	}
	if digits == 0 {
		return 0
	}

	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		exp := j
		for j < len(s) && isDigit(s[j]) {
			j++
		}
		if j > exp {
			i = j
		}
	}
	return i
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func cloneStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	return append([]string(nil), in...)
}
