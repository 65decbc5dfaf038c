package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
)

type AnswerKind int

const (
	AnswerText AnswerKind = iota + 1
	AnswerList
	AnswerMap
)

func (k AnswerKind) String() string {
	switch k {
	case AnswerText:
		return "text"
	case AnswerList:
		return "list"
	case AnswerMap:
		return "map"
	default:
		return "unknown"
	}
}

// Answer is a submitted response. A nil *Answer means unanswered.
//
// On the wire it is a JSON string, array of strings, string-keyed object or
// null. Booleans and numbers are accepted and kept in their text form.
type Answer struct {
	kind   AnswerKind
	text   string
	list   []string
	fields map[string]string
}

// TextAnswer covers choice ids, "true"/"false", free text, numbers, program
// XML and clicked hotspot ids.
func TextAnswer(s string) *Answer {
	return &Answer{kind: AnswerText, text: s}
}

// ListAnswer covers multi-response selections and sequence orderings.
func ListAnswer(items ...string) *Answer {
	return &Answer{kind: AnswerList, list: slices.Clone(items)}
}

// MapAnswer covers blank, drag-and-drop and matching responses.
func MapAnswer(m map[string]string) *Answer {
	cp := make(map[string]string, len(m))
	maps.Copy(cp, m)
	return &Answer{kind: AnswerMap, fields: cp}
}

func (a *Answer) Kind() AnswerKind {
	if a == nil {
		return 0
	}
	return a.kind
}

// Text returns the text value when the answer is a text answer.
func (a *Answer) Text() (string, bool) {
	if a == nil || a.kind != AnswerText {
		return "", false
	}
	return a.text, true
}

// List returns a copy of the list value when the answer is a list answer.
func (a *Answer) List() ([]string, bool) {
	if a == nil || a.kind != AnswerList {
		return nil, false
	}
	return slices.Clone(a.list), true
}

// Map returns a copy of the map value when the answer is a map answer.
func (a *Answer) Map() (map[string]string, bool) {
	if a == nil || a.kind != AnswerMap {
		return nil, false
	}
	cp := make(map[string]string, len(a.fields))
	maps.Copy(cp, a.fields)
	return cp, true
}

// Clone returns a deep copy; nil stays nil.
func (a *Answer) Clone() *Answer {
	if a == nil {
		return nil
	}
	switch a.kind {
	case AnswerList:
		return ListAnswer(a.list...)
	case AnswerMap:
		return MapAnswer(a.fields)
	default:
		return &Answer{kind: a.kind, text: a.text}
	}
}

func (a *Answer) Equal(other *Answer) bool {
	if a == nil || other == nil {
		return a == other
	}
	if a.kind != other.kind {
		return false
	}
	switch a.kind {
	case AnswerList:
		return slices.Equal(a.list, other.list)
	case AnswerMap:
		return maps.Equal(a.fields, other.fields)
	default:
		return a.text == other.text
	}
}

func (a *Answer) String() string {
	if a == nil {
		return "<unanswered>"
	}
	b, err := a.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("<%s answer>", a.kind)
	}
	return string(b)
}

func (a *Answer) MarshalJSON() ([]byte, error) {
	if a == nil {
		return []byte("null"), nil
	}
	switch a.kind {
	case AnswerText:
		return json.Marshal(a.text)
	case AnswerList:
		if a.list == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(a.list)
	case AnswerMap:
		if a.fields == nil {
			return []byte("{}"), nil
		}
		return json.Marshal(a.fields)
	default:
		return []byte("null"), nil
	}
}

func (a *Answer) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("empty answer")
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("invalid text answer: %w", err)
		}
		*a = Answer{kind: AnswerText, text: s}
	case '[':
		var list []string
		if err := json.Unmarshal(data, &list); err != nil {
			return fmt.Errorf("invalid list answer: %w", err)
		}
		*a = Answer{kind: AnswerList, list: list}
	case '{':
		var m map[string]string
		if err := json.Unmarshal(data, &m); err != nil {
			return fmt.Errorf("invalid map answer: %w", err)
		}
		*a = Answer{kind: AnswerMap, fields: m}
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return fmt.Errorf("invalid boolean answer: %w", err)
		}
		*a = Answer{kind: AnswerText, text: string(data)}
	case 'n':
		// Only reached when decoding into a non-pointer Answer.
		*a = Answer{}
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("unsupported answer value: %s", data)
		}
		*a = Answer{kind: AnswerText, text: n.String()}
	}
	return nil
}
