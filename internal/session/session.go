// Package session tracks a player's position, answers and per-question time
// through a quiz.
package session

import (
	"errors"
	"math/rand/v2"
	"time"

	"github.com/SAP-F-2025/quiz-engine/internal/models"
)

var ErrFinished = errors.New("session is finished")

type State int

const (
	Active State = iota
	Finished
)

func (s State) String() string {
	if s == Finished {
		return "finished"
	}
	return "active"
}

type Options struct {
	Shuffle bool
	// Rand drives the shuffle. Nil uses the package-level source.
	Rand  *rand.Rand
	Clock Clock
}

// Session is not safe for concurrent use; the engine serializes access.
type Session struct {
	clock     Clock
	order     []*models.Question
	index     int
	state     State
	answers   map[string]*models.Answer
	timings   map[string]time.Duration
	enteredAt time.Time
	startedAt time.Time
}

// New fixes the question order and starts timing the first question.
func New(questions []*models.Question, opts Options) *Session {
	clock := opts.Clock
	if clock == nil {
		clock = SystemClock
	}

	order := make([]*models.Question, 0, len(questions))
	for _, q := range questions {
		if q != nil {
			order = append(order, q)
		}
	}
	if opts.Shuffle {
		shuffle(order, opts.Rand)
	}

	now := clock.Now()
	return &Session{
		clock:     clock,
		order:     order,
		answers:   make(map[string]*models.Answer),
		timings:   make(map[string]time.Duration),
		enteredAt: now,
		startedAt: now,
	}
}

// shuffle is a Fisher-Yates pass over the slice.
func shuffle(qs []*models.Question, r *rand.Rand) {
	intn := rand.IntN
	if r != nil {
		intn = r.IntN
	}
	for i := len(qs) - 1; i > 0; i-- {
		j := intn(i + 1)
		qs[i], qs[j] = qs[j], qs[i]
	}
}

func (s *Session) State() State { return s.state }
func (s *Session) Total() int   { return len(s.order) }
func (s *Session) Index() int   { return s.index }

// Order returns the questions in presentation order.
func (s *Session) Order() []*models.Question {
	return append([]*models.Question(nil), s.order...)
}

// Current returns the question at the current position, or nil for an empty quiz.
func (s *Session) Current() *models.Question {
	if s.index < 0 || s.index >= len(s.order) {
		return nil
	}
	return s.order[s.index]
}

// Number is the 1-based position, 0 for an empty quiz.
func (s *Session) Number() int {
	if len(s.order) == 0 {
		return 0
	}
	return s.index + 1
}

// OnLast reports whether the current question is the final one.
func (s *Session) OnLast() bool {
	return len(s.order) > 0 && s.index == len(s.order)-1
}

func (s *Session) Next() *models.Question {
	return s.moveTo(s.index + 1)
}

func (s *Session) Previous() *models.Question {
	return s.moveTo(s.index - 1)
}

// GoTo jumps to a 0-based index. Jumping to the current index returns the
// current question and leaves its timer running.
func (s *Session) GoTo(index int) *models.Question {
	if s.state != Active || index < 0 || index >= len(s.order) {
		return nil
	}
	if index == s.index {
		return s.Current()
	}
	return s.moveTo(index)
}

func (s *Session) moveTo(index int) *models.Question {
	if s.state != Active || index < 0 || index >= len(s.order) {
		return nil
	}
	s.commit()
	s.index = index
	return s.order[index]
}

// commit adds the time since the current question was entered to its total.
func (s *Session) commit() {
	now := s.clock.Now()
	if q := s.Current(); q != nil {
		if d := now.Sub(s.enteredAt); d > 0 {
			s.timings[q.ID] += d
		}
	}
	s.enteredAt = now
}

// Submit records an answer; the last write for a question wins.
func (s *Session) Submit(questionID string, answer *models.Answer) error {
	if s.state != Active {
		return ErrFinished
	}
	s.answers[questionID] = answer.Clone()
	return nil
}

func (s *Session) Answer(questionID string) *models.Answer {
	return s.answers[questionID].Clone()
}

// Answers returns a copy of every recorded answer keyed by question id.
func (s *Session) Answers() map[string]*models.Answer {
	out := make(map[string]*models.Answer, len(s.answers))
	for id, a := range s.answers {
		out[id] = a.Clone()
	}
	return out
}

// Finish commits the open question's time. It reports whether this call
// performed the transition.
func (s *Session) Finish() bool {
	if s.state == Finished {
		return false
	}
	s.commit()
	s.state = Finished
	return true
}

// TimeSpent is the committed time for a question. Time on the open question
// is only counted once the player leaves it or the session finishes.
func (s *Session) TimeSpent(questionID string) time.Duration {
	return s.timings[questionID]
}

// Elapsed is the wall time since the session started.
func (s *Session) Elapsed() time.Duration {
	return s.clock.Now().Sub(s.startedAt)
}
