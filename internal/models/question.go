package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type QuestionType string

const (
	MultipleChoice     QuestionType = "multiple_choice"
	MultipleResponse   QuestionType = "multiple_response"
	FillInTheBlanks    QuestionType = "fill_in_the_blanks"
	DragAndDrop        QuestionType = "drag_and_drop"
	TrueFalse          QuestionType = "true_false"
	ShortAnswer        QuestionType = "short_answer"
	Numeric            QuestionType = "numeric"
	Sequence           QuestionType = "sequence"
	Matching           QuestionType = "matching"
	Hotspot            QuestionType = "hotspot"
	BlocklyProgramming QuestionType = "blockly_programming"
	ScratchProgramming QuestionType = "scratch_programming"
)

// QuestionTypes lists every supported variant in declaration order.
var QuestionTypes = []QuestionType{
	MultipleChoice, MultipleResponse, FillInTheBlanks, DragAndDrop,
	TrueFalse, ShortAnswer, Numeric, Sequence, Matching, Hotspot,
	BlocklyProgramming, ScratchProgramming,
}

// IsValid reports whether t names one of the supported variants.
func (t QuestionType) IsValid() bool {
	_, ok := bodyFactories[t]
	return ok
}

// Base holds the fields shared by every question variant.
type Base struct {
	ID                string   `json:"id"`
	Prompt            string   `json:"prompt"`
	Points            float64  `json:"points,omitempty"`
	Explanation       string   `json:"explanation,omitempty"`
	LearningObjective string   `json:"learningObjective,omitempty"`
	Glossary          []string `json:"glossary,omitempty"`
	BloomLevel        string   `json:"bloomLevel,omitempty"`
	Difficulty        string   `json:"difficulty,omitempty"`
	ContextCode       string   `json:"contextCode,omitempty"`
	GradeBand         string   `json:"gradeBand,omitempty"`
	Course            string   `json:"course,omitempty"`
	Category          string   `json:"category,omitempty"`
	Topic             string   `json:"topic,omitempty"`
}

// Question is a tagged union: shared Base fields plus exactly one variant body.
type Question struct {
	Base
	Body Body
}

// Type returns the variant tag, or "" when the body is missing.
func (q *Question) Type() QuestionType {
	if q == nil || q.Body == nil {
		return ""
	}
	return q.Body.Kind()
}

// Body is implemented by the twelve variant structs. The visitor method makes
// dispatch exhaustive at compile time: adding a variant means adding a method
// to BodyVisitor, which breaks every visitor that does not handle it.
type Body interface {
	Kind() QuestionType
	Accept(v BodyVisitor)
}

type BodyVisitor interface {
	VisitMultipleChoice(b *MultipleChoiceBody)
	VisitMultipleResponse(b *MultipleResponseBody)
	VisitFillInTheBlanks(b *FillInTheBlanksBody)
	VisitDragAndDrop(b *DragAndDropBody)
	VisitTrueFalse(b *TrueFalseBody)
	VisitShortAnswer(b *ShortAnswerBody)
	VisitNumeric(b *NumericBody)
	VisitSequence(b *SequenceBody)
	VisitMatching(b *MatchingBody)
	VisitHotspot(b *HotspotBody)
	VisitBlocklyProgramming(b *BlocklyProgrammingBody)
	VisitScratchProgramming(b *ScratchProgrammingBody)
}

type Option struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type MultipleChoiceBody struct {
	Options         []Option `json:"options"`
	CorrectAnswerID string   `json:"correctAnswerId"`
}

type MultipleResponseBody struct {
	Options          []Option `json:"options"`
	CorrectAnswerIDs []string `json:"correctAnswerIds"`
}

type SegmentType string

const (
	SegmentText  SegmentType = "text"
	SegmentBlank SegmentType = "blank"
)

type Segment struct {
	Type    SegmentType `json:"type"`
	Content string      `json:"content,omitempty"`
	ID      string      `json:"id,omitempty"`
}

type BlankAnswer struct {
	BlankID        string   `json:"blankId"`
	AcceptedValues []string `json:"acceptedValues"`
}

type FillInTheBlanksBody struct {
	Segments        []Segment     `json:"segments"`
	Answers         []BlankAnswer `json:"answers"`
	IsCaseSensitive bool          `json:"isCaseSensitive,omitempty"`
}

type DraggableItem struct {
	ID      string `json:"id"`
	Content string `json:"content"`
}

type DropZone struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

type DropMapping struct {
	DraggableID string `json:"draggableId"`
	DropZoneID  string `json:"dropZoneId"`
}

type DragAndDropBody struct {
	DraggableItems     []DraggableItem `json:"draggableItems"`
	DropZones          []DropZone      `json:"dropZones"`
	AnswerMap          []DropMapping   `json:"answerMap"`
	BackgroundImageURL string          `json:"backgroundImageUrl,omitempty"`
}

type TrueFalseBody struct {
	CorrectAnswer bool `json:"correctAnswer"`
}

type ShortAnswerBody struct {
	AcceptedAnswers []string `json:"acceptedAnswers"`
	IsCaseSensitive bool     `json:"isCaseSensitive,omitempty"`
}

type NumericBody struct {
	Answer    float64  `json:"answer"`
	Tolerance *float64 `json:"tolerance,omitempty"`
}

type SequenceItem struct {
	ID      string `json:"id"`
	Content string `json:"content"`
}

type SequenceBody struct {
	Items        []SequenceItem `json:"items"`
	CorrectOrder []string       `json:"correctOrder"`
}

type MatchItem struct {
	ID      string `json:"id"`
	Content string `json:"content"`
}

type MatchPair struct {
	PromptID string `json:"promptId"`
	OptionID string `json:"optionId"`
}

type MatchingBody struct {
	Prompts          []MatchItem `json:"prompts"`
	Options          []MatchItem `json:"options"`
	CorrectAnswerMap []MatchPair `json:"correctAnswerMap"`
	ShuffleOptions   bool        `json:"shuffleOptions,omitempty"`
}

type HotspotBody struct {
	ImageURL          string        `json:"imageUrl"`
	ImageAltText      string        `json:"imageAltText,omitempty"`
	Hotspots          []HotspotArea `json:"hotspots"`
	CorrectHotspotIDs []string      `json:"correctHotspotIds"`
}

// ProgramBody is shared by the two block-programming variants.
type ProgramBody struct {
	ToolboxDefinition    string `json:"toolboxDefinition"`
	InitialWorkspace     string `json:"initialWorkspace,omitempty"`
	SolutionWorkspaceXML string `json:"solutionWorkspaceXML,omitempty"`
}

type BlocklyProgrammingBody struct {
	ProgramBody
}

type ScratchProgrammingBody struct {
	ProgramBody
}

func (*MultipleChoiceBody) Kind() QuestionType     { return MultipleChoice }
func (*MultipleResponseBody) Kind() QuestionType   { return MultipleResponse }
func (*FillInTheBlanksBody) Kind() QuestionType    { return FillInTheBlanks }
func (*DragAndDropBody) Kind() QuestionType        { return DragAndDrop }
func (*TrueFalseBody) Kind() QuestionType          { return TrueFalse }
func (*ShortAnswerBody) Kind() QuestionType        { return ShortAnswer }
func (*NumericBody) Kind() QuestionType            { return Numeric }
func (*SequenceBody) Kind() QuestionType           { return Sequence }
func (*MatchingBody) Kind() QuestionType           { return Matching }
func (*HotspotBody) Kind() QuestionType            { return Hotspot }
func (*BlocklyProgrammingBody) Kind() QuestionType { return BlocklyProgramming }
func (*ScratchProgrammingBody) Kind() QuestionType { return ScratchProgramming }

func (b *MultipleChoiceBody) Accept(v BodyVisitor)     { v.VisitMultipleChoice(b) }
func (b *MultipleResponseBody) Accept(v BodyVisitor)   { v.VisitMultipleResponse(b) }
func (b *FillInTheBlanksBody) Accept(v BodyVisitor)    { v.VisitFillInTheBlanks(b) }
func (b *DragAndDropBody) Accept(v BodyVisitor)        { v.VisitDragAndDrop(b) }
func (b *TrueFalseBody) Accept(v BodyVisitor)          { v.VisitTrueFalse(b) }
func (b *ShortAnswerBody) Accept(v BodyVisitor)        { v.VisitShortAnswer(b) }
func (b *NumericBody) Accept(v BodyVisitor)            { v.VisitNumeric(b) }
func (b *SequenceBody) Accept(v BodyVisitor)           { v.VisitSequence(b) }
func (b *MatchingBody) Accept(v BodyVisitor)           { v.VisitMatching(b) }
func (b *HotspotBody) Accept(v BodyVisitor)            { v.VisitHotspot(b) }
func (b *BlocklyProgrammingBody) Accept(v BodyVisitor) { v.VisitBlocklyProgramming(b) }
func (b *ScratchProgrammingBody) Accept(v BodyVisitor) { v.VisitScratchProgramming(b) }

var bodyFactories = map[QuestionType]func() Body{
	MultipleChoice:     func() Body { return &MultipleChoiceBody{} },
	MultipleResponse:   func() Body { return &MultipleResponseBody{} },
	FillInTheBlanks:    func() Body { return &FillInTheBlanksBody{} },
	DragAndDrop:        func() Body { return &DragAndDropBody{} },
	TrueFalse:          func() Body { return &TrueFalseBody{} },
	ShortAnswer:        func() Body { return &ShortAnswerBody{} },
	Numeric:            func() Body { return &NumericBody{} },
	Sequence:           func() Body { return &SequenceBody{} },
	Matching:           func() Body { return &MatchingBody{} },
	Hotspot:            func() Body { return &HotspotBody{} },
	BlocklyProgramming: func() Body { return &BlocklyProgrammingBody{} },
	ScratchProgramming: func() Body { return &ScratchProgrammingBody{} },
}

// NewBody returns an empty body for the given variant.
func NewBody(t QuestionType) (Body, error) {
	factory, ok := bodyFactories[t]
	if !ok {
		return nil, fmt.Errorf("unsupported question type: %q", t)
	}
	return factory(), nil
}

type questionHeader struct {
	Type QuestionType `json:"questionType"`
	Base
}

func (q *Question) UnmarshalJSON(data []byte) error {
	var header questionHeader
	if err := json.Unmarshal(data, &header); err != nil {
		return fmt.Errorf("invalid question: %w", err)
	}

	body, err := NewBody(header.Type)
	if err != nil {
		return fmt.Errorf("question %q: %w", header.ID, err)
	}
	if err := json.Unmarshal(data, body); err != nil {
		return fmt.Errorf("question %q: invalid %s body: %w", header.ID, header.Type, err)
	}

	q.Base = header.Base
	q.Body = body
	return nil
}

func (q Question) MarshalJSON() ([]byte, error) {
	head, err := json.Marshal(questionHeader{Type: q.Type(), Base: q.Base})
	if err != nil {
		return nil, err
	}
	if q.Body == nil {
		return head, nil
	}

	body, err := json.Marshal(q.Body)
	if err != nil {
		return nil, err
	}
	body = bytes.TrimSpace(body)
	if len(body) <= 2 {
		return head, nil
	}

	// Both halves are JSON objects; splice the body fields into the header.
	out := make([]byte, 0, len(head)+len(body))
	out = append(out, head[:len(head)-1]...)
	out = append(out, ',')
	out = append(out, body[1:]...)
	return out, nil
}
