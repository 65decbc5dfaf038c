package engine

import "github.com/SAP-F-2025/quiz-engine/internal/models"

// StartInfo is delivered once, right after construction.
type StartInfo struct {
	InitialQuestion       *models.Question
	CurrentQuestionNumber int
	TotalQuestions        int
	// TimeLimitSeconds is nil for an untimed quiz.
	TimeLimitSeconds *int
	ScormStatus      models.ScormStatus
	StudentName      string
}

// Listener receives engine events. Callbacks run without the engine lock
// held, so they may call back into the engine. Tick and time-up events
// arrive on the countdown goroutine.
type Listener interface {
	OnQuizStart(info StartInfo)
	OnQuestionChange(q *models.Question, number, total int)
	OnAnswerSubmit(q *models.Question, answer *models.Answer)
	OnQuizFinish(result *models.QuizResult)
	OnTimeTick(remainingSeconds int)
	OnQuizTimeUp()
}

// ListenerFuncs adapts optional functions to Listener. Nil fields are skipped.
type ListenerFuncs struct {
	QuizStart      func(info StartInfo)
	QuestionChange func(q *models.Question, number, total int)
	AnswerSubmit   func(q *models.Question, answer *models.Answer)
	QuizFinish     func(result *models.QuizResult)
	TimeTick       func(remainingSeconds int)
	QuizTimeUp     func()
}

func (f ListenerFuncs) OnQuizStart(info StartInfo) {
	if f.QuizStart != nil {
		f.QuizStart(info)
	}
}

func (f ListenerFuncs) OnQuestionChange(q *models.Question, number, total int) {
	if f.QuestionChange != nil {
		f.QuestionChange(q, number, total)
	}
}

func (f ListenerFuncs) OnAnswerSubmit(q *models.Question, answer *models.Answer) {
	if f.AnswerSubmit != nil {
		f.AnswerSubmit(q, answer)
	}
}

func (f ListenerFuncs) OnQuizFinish(result *models.QuizResult) {
	if f.QuizFinish != nil {
		f.QuizFinish(result)
	}
}

func (f ListenerFuncs) OnTimeTick(remainingSeconds int) {
	if f.TimeTick != nil {
		f.TimeTick(remainingSeconds)
	}
}

func (f ListenerFuncs) OnQuizTimeUp() {
	if f.QuizTimeUp != nil {
		f.QuizTimeUp()
	}
}
