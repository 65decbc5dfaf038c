package validator

import (
	"fmt"
	"math"
	"slices"

	"github.com/SAP-F-2025/quiz-engine/internal/models"
)

// QuestionValidator applies the rules a question must meet to be gradable.
// It never panics on malformed input; the evaluator copes with questions that
// fail these rules, they just cannot be answered correctly.
type QuestionValidator struct{}

func NewQuestionValidator() *QuestionValidator {
	return &QuestionValidator{}
}

// ValidateQuiz checks every question plus cross-question rules.
func (v *QuestionValidator) ValidateQuiz(quiz *models.Quiz) ValidationErrors {
	var errs ValidationErrors
	if quiz == nil {
		return append(errs, *NewValidationError("quiz", "is required", nil))
	}

	seen := make(map[string]int, len(quiz.Questions))
	for i, q := range quiz.Questions {
		prefix := fmt.Sprintf("questions[%d]", i)
		if q == nil {
			errs = append(errs, *NewValidationError(prefix, "is required", nil))
			continue
		}
		if first, dup := seen[q.ID]; dup && q.ID != "" {
			errs = append(errs, *NewValidationErrorWithRule(prefix+".id",
				fmt.Sprintf("duplicates questions[%d]", first), "unique", q.ID))
		} else {
			seen[q.ID] = i
		}
		errs = append(errs, v.validate(prefix, q)...)
	}
	return errs
}

// ValidateQuestion checks one question's body against its answer key.
func (v *QuestionValidator) ValidateQuestion(q *models.Question) ValidationErrors {
	if q == nil {
		return ValidationErrors{*NewValidationError("question", "is required", nil)}
	}
	return v.validate("question", q)
}

func (v *QuestionValidator) validate(prefix string, q *models.Question) ValidationErrors {
	if q.Body == nil {
		return ValidationErrors{*NewValidationErrorWithRule(prefix+".questionType", "is missing or unsupported", "question_type", nil)}
	}
	c := &bodyChecker{prefix: prefix}
	q.Body.Accept(c)
	return c.errs
}

type bodyChecker struct {
	prefix string
	errs   ValidationErrors
}

func (c *bodyChecker) add(field, rule, message string, value any) {
	c.errs = append(c.errs, *NewValidationErrorWithRule(c.prefix+"."+field, message, rule, value))
}

func (c *bodyChecker) VisitMultipleChoice(b *models.MultipleChoiceBody) {
	ids := optionIDs(b.Options)
	if len(ids) == 0 {
		c.add("options", "required", "must have at least one option", nil)
	}
	if !ids[b.CorrectAnswerID] {
		c.add("correctAnswerId", "option_ref", "must reference an option", b.CorrectAnswerID)
	}
}

func (c *bodyChecker) VisitMultipleResponse(b *models.MultipleResponseBody) {
	ids := optionIDs(b.Options)
	if len(b.CorrectAnswerIDs) == 0 {
		c.add("correctAnswerIds", "required", "must list at least one correct option", nil)
	}
	for _, id := range b.CorrectAnswerIDs {
		if !ids[id] {
			c.add("correctAnswerIds", "option_ref", "must reference existing options", id)
		}
	}
}

func (c *bodyChecker) VisitFillInTheBlanks(b *models.FillInTheBlanksBody) {
	blanks := make(map[string]bool)
	for _, s := range b.Segments {
		if s.Type == models.SegmentBlank {
			blanks[s.ID] = true
		}
	}
	if len(blanks) == 0 {
		c.add("segments", "required", "must contain at least one blank", nil)
	}
	for _, a := range b.Answers {
		if !blanks[a.BlankID] {
			c.add("answers", "blank_ref", "must reference blank segments", a.BlankID)
		}
		if len(a.AcceptedValues) == 0 {
			c.add("answers", "required", "every blank needs an accepted value", a.BlankID)
		}
	}
}

func (c *bodyChecker) VisitDragAndDrop(b *models.DragAndDropBody) {
	items := make(map[string]bool, len(b.DraggableItems))
	for _, it := range b.DraggableItems {
		items[it.ID] = true
	}
	zones := make(map[string]bool, len(b.DropZones))
	for _, z := range b.DropZones {
		zones[z.ID] = true
	}
	for _, m := range b.AnswerMap {
		if !items[m.DraggableID] {
			c.add("answerMap", "draggable_ref", "must reference draggable items", m.DraggableID)
		}
		if !zones[m.DropZoneID] {
			c.add("answerMap", "dropzone_ref", "must reference drop zones", m.DropZoneID)
		}
	}
}

func (c *bodyChecker) VisitTrueFalse(*models.TrueFalseBody) {}

func (c *bodyChecker) VisitShortAnswer(b *models.ShortAnswerBody) {
	if len(b.AcceptedAnswers) == 0 {
		c.add("acceptedAnswers", "required", "must list at least one accepted answer", nil)
	}
}

func (c *bodyChecker) VisitNumeric(b *models.NumericBody) {
	if math.IsNaN(b.Answer) || math.IsInf(b.Answer, 0) {
		c.add("answer", "finite", "must be a finite number", b.Answer)
	}
	if b.Tolerance != nil && *b.Tolerance < 0 {
		c.add("tolerance", "min", "must not be negative", *b.Tolerance)
	}
}

func (c *bodyChecker) VisitSequence(b *models.SequenceBody) {
	items := make([]string, len(b.Items))
	for i, it := range b.Items {
		items[i] = it.ID
	}
	order := slices.Clone(b.CorrectOrder)
	slices.Sort(items)
	slices.Sort(order)
	if !slices.Equal(items, order) {
		c.add("correctOrder", "permutation", "must be a permutation of the item ids", b.CorrectOrder)
	}
}

func (c *bodyChecker) VisitMatching(b *models.MatchingBody) {
	prompts := make(map[string]bool, len(b.Prompts))
	for _, p := range b.Prompts {
		prompts[p.ID] = true
	}
	options := make(map[string]bool, len(b.Options))
	for _, o := range b.Options {
		options[o.ID] = true
	}
	mapped := make(map[string]bool, len(b.CorrectAnswerMap))
	for _, pair := range b.CorrectAnswerMap {
		if mapped[pair.PromptID] {
			c.add("correctAnswerMap", "unique", "maps a prompt more than once", pair.PromptID)
		}
		mapped[pair.PromptID] = true
		if !prompts[pair.PromptID] {
			c.add("correctAnswerMap", "prompt_ref", "must reference prompts", pair.PromptID)
		}
		if !options[pair.OptionID] {
			c.add("correctAnswerMap", "option_ref", "must reference options", pair.OptionID)
		}
	}
}

func (c *bodyChecker) VisitHotspot(b *models.HotspotBody) {
	areas := make(map[string]bool, len(b.Hotspots))
	for _, h := range b.Hotspots {
		areas[h.ID] = true
	}
	if len(b.CorrectHotspotIDs) == 0 {
		c.add("correctHotspotIds", "required", "must list at least one hotspot", nil)
	}
	for _, id := range b.CorrectHotspotIDs {
		if !areas[id] {
			c.add("correctHotspotIds", "hotspot_ref", "must reference hotspots", id)
		}
	}
}

func (c *bodyChecker) VisitBlocklyProgramming(b *models.BlocklyProgrammingBody) {
	c.program(b.ProgramBody)
}

func (c *bodyChecker) VisitScratchProgramming(b *models.ScratchProgrammingBody) {
	c.program(b.ProgramBody)
}

func (c *bodyChecker) program(b models.ProgramBody) {
	if b.ToolboxDefinition == "" {
		c.add("toolboxDefinition", "required", "is required", nil)
	}
}

func optionIDs(opts []models.Option) map[string]bool {
	ids := make(map[string]bool, len(opts))
	for _, o := range opts {
		ids[o.ID] = true
	}
	return ids
}
