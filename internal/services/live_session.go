package services

import (
	"math/rand/v2"
	"sync"
	"time"

	"github.com/SAP-F-2025/quiz-engine/internal/engine"
	"github.com/SAP-F-2025/quiz-engine/internal/models"
	"github.com/SAP-F-2025/quiz-engine/internal/monitoring"
	"github.com/SAP-F-2025/quiz-engine/internal/scorm"
)

// liveSession is one running engine plus its event subscribers. It is the
// engine's listener.
type liveSession struct {
	id        string
	quiz      *models.Quiz
	engine    *engine.Engine
	runtime   *scorm.MemoryRuntime
	startedAt time.Time
	service   *playerService
	// served holds the redacted questions, option order fixed at start.
	served map[string]*models.Question

	mu          sync.Mutex
	lastActive  time.Time
	subscribers map[int]chan SessionEvent
	nextSub     int
	closed      bool
}

func (ls *liveSession) touch(now time.Time) {
	ls.mu.Lock()
	if now.After(ls.lastActive) {
		ls.lastActive = now
	}
	ls.mu.Unlock()
}

func (ls *liveSession) lastActivity() time.Time {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	return ls.lastActive
}

func (ls *liveSession) subscribe() (<-chan SessionEvent, func()) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	if ls.closed {
		return nil, nil
	}

	id := ls.nextSub
	ls.nextSub++
	ch := make(chan SessionEvent, subscriberBuffer)
	ls.subscribers[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			ls.mu.Lock()
			defer ls.mu.Unlock()
			if sub, ok := ls.subscribers[id]; ok {
				delete(ls.subscribers, id)
				close(sub)
			}
		})
	}
}

// broadcast drops the event for subscribers that are not keeping up.
func (ls *liveSession) broadcast(t SessionEventType, data any) {
	ev := SessionEvent{Type: t, Data: data, At: ls.service.clock.Now()}

	ls.mu.Lock()
	defer ls.mu.Unlock()
	for _, ch := range ls.subscribers {
		select {
		case ch <- ev:
		default:
		}
	}
}

// close destroys the engine and ends every subscription.
func (ls *liveSession) close() {
	ls.mu.Lock()
	if ls.closed {
		ls.mu.Unlock()
		return
	}
	ls.closed = true
	subs := ls.subscribers
	ls.subscribers = map[int]chan SessionEvent{}
	ls.mu.Unlock()

	ls.engine.Destroy()
	monitoring.SessionsActive.Dec()

	ev := SessionEvent{Type: SessionEventClosed, At: ls.service.clock.Now()}
	for _, ch := range subs {
		select {
		case ch <- ev:
		default:
		}
		close(ch)
	}
}

func (ls *liveSession) view(q *models.Question, number, total int) *QuestionView {
	if q == nil {
		return nil
	}
	return &QuestionView{
		Question: ls.serve(q),
		Number:   number,
		Total:    total,
		Answer:   ls.engine.UserAnswer(q.ID),
		IsLast:   number == total,
	}
}

// prepareQuestions redacts every question once and shuffles its options
// when the quiz or the question asks for it.
func (ls *liveSession) prepareQuestions(r *rand.Rand) {
	shuffleChoices := ls.quiz.SettingsOrDefault().ShuffleOptions
	ls.served = make(map[string]*models.Question, len(ls.quiz.Questions))
	for _, q := range ls.quiz.Questions {
		if q == nil {
			continue
		}
		served := models.Redact(q)
		models.ShuffleOptions(served, shuffleChoices, r.Shuffle)
		ls.served[q.ID] = served
	}
}

func (ls *liveSession) serve(q *models.Question) *models.Question {
	if served, ok := ls.served[q.ID]; ok {
		return served
	}
	return models.Redact(q)
}

func (ls *liveSession) currentView() *QuestionView {
	return ls.view(ls.engine.CurrentQuestion(), ls.engine.CurrentQuestionNumber(), ls.engine.TotalQuestions())
}

func (ls *liveSession) state() *SessionState {
	settings := ls.quiz.SettingsOrDefault()
	st := &SessionState{
		SessionID:        ls.id,
		QuizID:           ls.quiz.ID,
		QuizTitle:        ls.quiz.Title,
		StudentName:      ls.engine.StudentName(),
		Current:          ls.currentView(),
		ElapsedSeconds:   ls.engine.Elapsed().Seconds(),
		Finished:         ls.engine.Finished(),
		ScormStatus:      ls.engine.ScormStatus(),
		StartedAt:        ls.startedAt,
		LastActivityAt:   ls.lastActivity(),
		ShowAnswersMode:  string(settings.ShowCorrectAnswers),
		TimeLimitSeconds: settings.TimeLimitSeconds(),
	}
	if st.ShowAnswersMode == "" {
		st.ShowAnswersMode = string(models.ShowEndOfQuiz)
	}
	if left, ok := ls.engine.TimeLeft(); ok {
		st.TimeLeftSeconds = &left
	}
	for _, q := range ls.quiz.Questions {
		if q != nil && ls.engine.UserAnswer(q.ID) != nil {
			st.AnsweredCount++
		}
	}
	return st
}

// ===== engine.Listener =====

func (ls *liveSession) OnQuizStart(info engine.StartInfo) {
	ls.broadcast(SessionEventStart, map[string]any{
		"total_questions":    info.TotalQuestions,
		"time_limit_seconds": info.TimeLimitSeconds,
		"scorm_status":       info.ScormStatus,
		"student_name":       info.StudentName,
	})
}

func (ls *liveSession) OnQuestionChange(q *models.Question, number, total int) {
	if ls.engine == nil {
		// The first question is announced while the engine is being built.
		ls.broadcast(SessionEventQuestionChange, &QuestionView{
			Question: ls.serve(q), Number: number, Total: total, IsLast: number == total,
		})
		return
	}
	ls.broadcast(SessionEventQuestionChange, ls.view(q, number, total))
}

func (ls *liveSession) OnAnswerSubmit(q *models.Question, answer *models.Answer) {
	ls.broadcast(SessionEventAnswerSubmit, map[string]any{
		"question_id": q.ID,
		"answer":      answer,
	})
}

func (ls *liveSession) OnQuizFinish(result *models.QuizResult) {
	ls.service.onFinish(ls, result)
	ls.broadcast(SessionEventFinish, visibleResult(ls.quiz, result))
}

func (ls *liveSession) OnTimeTick(remainingSeconds int) {
	ls.broadcast(SessionEventTimeTick, map[string]int{"remaining_seconds": remainingSeconds})
}

func (ls *liveSession) OnQuizTimeUp() {
	ls.broadcast(SessionEventTimeUp, nil)
}
