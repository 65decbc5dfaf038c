package models

import "slices"

// Redact returns a copy of the question safe to hand to a player: answer
// keys are stripped, presentation data is kept.
func Redact(q *Question) *Question {
	if q == nil {
		return nil
	}
	out := &Question{Base: q.Base}
	out.Base.Glossary = slices.Clone(q.Glossary)
	out.Base.Explanation = ""
	if q.Body != nil {
		r := &redactor{}
		q.Body.Accept(r)
		out.Body = r.out
	}
	return out
}

type redactor struct {
	out Body
}

func (r *redactor) VisitMultipleChoice(b *MultipleChoiceBody) {
	r.out = &MultipleChoiceBody{Options: slices.Clone(b.Options)}
}

func (r *redactor) VisitMultipleResponse(b *MultipleResponseBody) {
	r.out = &MultipleResponseBody{Options: slices.Clone(b.Options)}
}

func (r *redactor) VisitFillInTheBlanks(b *FillInTheBlanksBody) {
	r.out = &FillInTheBlanksBody{Segments: slices.Clone(b.Segments), IsCaseSensitive: b.IsCaseSensitive}
}

func (r *redactor) VisitDragAndDrop(b *DragAndDropBody) {
	r.out = &DragAndDropBody{
		DraggableItems:     slices.Clone(b.DraggableItems),
		DropZones:          slices.Clone(b.DropZones),
		BackgroundImageURL: b.BackgroundImageURL,
	}
}

func (r *redactor) VisitTrueFalse(*TrueFalseBody) {
	r.out = &TrueFalseBody{}
}

func (r *redactor) VisitShortAnswer(b *ShortAnswerBody) {
	r.out = &ShortAnswerBody{IsCaseSensitive: b.IsCaseSensitive}
}

func (r *redactor) VisitNumeric(*NumericBody) {
	r.out = &NumericBody{}
}

func (r *redactor) VisitSequence(b *SequenceBody) {
	r.out = &SequenceBody{Items: slices.Clone(b.Items)}
}

func (r *redactor) VisitMatching(b *MatchingBody) {
	r.out = &MatchingBody{
		Prompts:        slices.Clone(b.Prompts),
		Options:        slices.Clone(b.Options),
		ShuffleOptions: b.ShuffleOptions,
	}
}

func (r *redactor) VisitHotspot(b *HotspotBody) {
	r.out = &HotspotBody{
		ImageURL:     b.ImageURL,
		ImageAltText: b.ImageAltText,
		Hotspots:     slices.Clone(b.Hotspots),
	}
}

func (r *redactor) VisitBlocklyProgramming(b *BlocklyProgrammingBody) {
	r.out = &BlocklyProgrammingBody{ProgramBody: b.ProgramBody.withoutSolution()}
}

func (r *redactor) VisitScratchProgramming(b *ScratchProgrammingBody) {
	r.out = &ScratchProgrammingBody{ProgramBody: b.ProgramBody.withoutSolution()}
}

func (p ProgramBody) withoutSolution() ProgramBody {
	p.SolutionWorkspaceXML = ""
	return p
}

// ShuffleOptions reorders the choices of a served question in place.
// Choice options move when choices is set; matching options move when the
// question asks for it.
func ShuffleOptions(q *Question, choices bool, shuffle func(n int, swap func(i, j int))) {
	if q == nil {
		return
	}
	switch b := q.Body.(type) {
	case *MultipleChoiceBody:
		if choices {
			shuffle(len(b.Options), func(i, j int) { b.Options[i], b.Options[j] = b.Options[j], b.Options[i] })
		}
	case *MultipleResponseBody:
		if choices {
			shuffle(len(b.Options), func(i, j int) { b.Options[i], b.Options[j] = b.Options[j], b.Options[i] })
		}
	case *MatchingBody:
		if b.ShuffleOptions {
			shuffle(len(b.Options), func(i, j int) { b.Options[i], b.Options[j] = b.Options[j], b.Options[i] })
		}
	}
}
