// Package engine is the quiz player facade: it owns one attempt at a quiz,
// from navigation and answer capture through grading, LMS reporting and
// webhook delivery.
package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/SAP-F-2025/quiz-engine/internal/analytics"
	"github.com/SAP-F-2025/quiz-engine/internal/evaluator"
	"github.com/SAP-F-2025/quiz-engine/internal/models"
	"github.com/SAP-F-2025/quiz-engine/internal/scorm"
	"github.com/SAP-F-2025/quiz-engine/internal/session"
	"github.com/SAP-F-2025/quiz-engine/internal/webhook"
)

var ErrDestroyed = errors.New("quiz engine destroyed")

type Engine struct {
	mu sync.Mutex

	quiz     *models.Quiz
	settings models.QuizSettings
	listener Listener
	logger   *slog.Logger
	ctx      context.Context

	sess      *session.Session
	countdown *session.Countdown
	scorm     *scorm.Adapter
	webhook   *webhook.Client

	studentName string
	timedOut    bool
	destroyed   bool
	finishing   bool
	done        chan struct{}
	result      *models.QuizResult
}

// New starts an attempt: it fixes the question order, connects to the LMS
// when the quiz carries SCORM settings, announces the first question and
// starts the countdown for a timed quiz.
func New(quiz *models.Quiz, listener Listener, opts ...Option) *Engine {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if quiz == nil {
		quiz = &models.Quiz{}
	}
	if listener == nil {
		listener = ListenerFuncs{}
	}
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if o.ctx == nil {
		o.ctx = context.Background()
	}
	if o.webhook == nil {
		o.webhook = webhook.NewClient(webhook.WithLogger(o.logger))
	}

	settings := quiz.SettingsOrDefault()
	e := &Engine{
		quiz:        quiz,
		settings:    settings,
		listener:    listener,
		logger:      o.logger.With("component", "engine", "quiz_id", quiz.ID),
		ctx:         o.ctx,
		webhook:     o.webhook,
		studentName: o.studentName,
		sess: session.New(quiz.Questions, session.Options{
			Shuffle: settings.ShuffleQuestions,
			Rand:    o.rand,
			Clock:   o.clock,
		}),
	}

	if settings.Scorm != nil {
		host := o.host
		if host == nil {
			host = scorm.StaticHost(nil)
		}
		e.scorm = scorm.NewAdapter(host, *settings.Scorm, o.logger)
		e.scorm.Start()
		if name := e.scorm.StudentName(); name != "" {
			e.studentName = name
		}
	}

	var limit *int
	if secs := settings.TimeLimitSeconds(); secs > 0 {
		limit = &secs
		e.countdown = session.NewCountdown(secs, o.ticker, e.tick, e.timeUp)
	}

	first := e.sess.Current()
	number, total := e.sess.Number(), e.sess.Total()
	e.logger.Info("quiz started", "questions", total, "time_limit_seconds", settings.TimeLimitSeconds())

	listener.OnQuizStart(StartInfo{
		InitialQuestion:       first,
		CurrentQuestionNumber: number,
		TotalQuestions:        total,
		TimeLimitSeconds:      limit,
		ScormStatus:           e.scormStatus(),
		StudentName:           e.studentName,
	})
	if first != nil {
		listener.OnQuestionChange(first, number, total)
	}

	if e.countdown != nil {
		e.countdown.Start()
	}
	return e
}

func (e *Engine) Quiz() *models.Quiz { return e.quiz }

func (e *Engine) CurrentQuestion() *models.Question {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sess.Current()
}

func (e *Engine) CurrentQuestionNumber() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sess.Number()
}

func (e *Engine) TotalQuestions() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sess.Total()
}

// IsQuizFinished reports whether the player is on the last question.
func (e *Engine) IsQuizFinished() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sess.OnLast()
}

// Finished reports whether results have been calculated.
func (e *Engine) Finished() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sess.State() == session.Finished
}

// TimeLeft returns the remaining seconds; ok is false for an untimed quiz.
func (e *Engine) TimeLeft() (seconds int, ok bool) {
	if e.countdown == nil {
		return 0, false
	}
	return e.countdown.Remaining(), true
}

func (e *Engine) Elapsed() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sess.Elapsed()
}

func (e *Engine) StudentName() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.studentName
}

func (e *Engine) ScormStatus() models.ScormStatus {
	return e.scormStatus()
}

func (e *Engine) scormStatus() models.ScormStatus {
	if e.scorm == nil {
		return models.ScormIdle
	}
	return e.scorm.Status()
}

// SubmitAnswer records the answer for questionID, replacing any earlier one.
// Answers for ids that are not in the quiz are kept but announce nothing.
// After finish the call is ignored.
func (e *Engine) SubmitAnswer(questionID string, answer *models.Answer) error {
	e.mu.Lock()
	if e.destroyed {
		e.mu.Unlock()
		return ErrDestroyed
	}
	if err := e.sess.Submit(questionID, answer); err != nil {
		e.mu.Unlock()
		e.logger.Debug("answer ignored after finish", "question_id", questionID)
		return nil
	}
	q, known := e.quiz.FindQuestion(questionID)
	stored := e.sess.Answer(questionID)
	e.mu.Unlock()

	if !known {
		e.logger.Warn("answer submitted for unknown question", "question_id", questionID)
		return nil
	}
	e.listener.OnAnswerSubmit(q, stored)
	return nil
}

// UserAnswer returns a copy of the stored answer, or nil.
func (e *Engine) UserAnswer(questionID string) *models.Answer {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sess.Answer(questionID)
}

// NextQuestion advances one position. It returns nil at the last question.
func (e *Engine) NextQuestion() (*models.Question, error) {
	return e.navigate(func(s *session.Session) *models.Question { return s.Next() })
}

// PreviousQuestion moves back one position. It returns nil at the first question.
func (e *Engine) PreviousQuestion() (*models.Question, error) {
	return e.navigate(func(s *session.Session) *models.Question { return s.Previous() })
}

// GoToQuestion jumps to a 0-based position. An index outside the quiz
// returns nil and changes nothing; the current index returns the current
// question without announcing a change.
func (e *Engine) GoToQuestion(index int) (*models.Question, error) {
	return e.navigate(func(s *session.Session) *models.Question { return s.GoTo(index) })
}

// navigate applies move and announces the new question when the position
// actually changed.
func (e *Engine) navigate(move func(*session.Session) *models.Question) (*models.Question, error) {
	e.mu.Lock()
	if e.destroyed {
		e.mu.Unlock()
		return nil, ErrDestroyed
	}
	if e.sess.State() == session.Finished {
		e.mu.Unlock()
		return nil, nil
	}
	before := e.sess.Index()
	q := move(e.sess)
	moved := e.sess.Index() != before
	number, total := e.sess.Number(), e.sess.Total()
	e.mu.Unlock()

	if q != nil && moved {
		e.listener.OnQuestionChange(q, number, total)
	}
	return q, nil
}

func (e *Engine) tick(remaining int) {
	e.mu.Lock()
	skip := e.destroyed || e.sess.State() == session.Finished
	e.mu.Unlock()
	if !skip {
		e.listener.OnTimeTick(remaining)
	}
}

func (e *Engine) timeUp() {
	e.mu.Lock()
	if e.destroyed || e.finishing {
		e.mu.Unlock()
		return
	}
	e.timedOut = true
	e.mu.Unlock()

	e.logger.Info("quiz time is up")
	e.listener.OnQuizTimeUp()
	if _, err := e.CalculateResults(e.ctx); err != nil {
		e.logger.Warn("results after time-up failed", "error", err)
	}
}

// CalculateResults freezes the attempt, grades it, reports to the LMS and
// the webhook, then announces the result. Only the first call reports;
// concurrent callers wait for it and later callers get a copy of the same
// result.
func (e *Engine) CalculateResults(ctx context.Context) (*models.QuizResult, error) {
	e.mu.Lock()
	if e.destroyed {
		e.mu.Unlock()
		return nil, ErrDestroyed
	}
	if e.finishing {
		done := e.done
		e.mu.Unlock()
		select {
		case <-done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		e.mu.Lock()
		defer e.mu.Unlock()
		return e.result.Clone(), nil
	}

	e.finishing = true
	e.done = make(chan struct{})
	if e.countdown != nil {
		e.countdown.Stop()
	}
	e.sess.Finish()
	result := e.grade()
	e.mu.Unlock()

	e.report(ctx, result)

	e.mu.Lock()
	e.result = result
	close(e.done)
	e.mu.Unlock()

	e.logger.Info("quiz finished",
		"score", result.Score,
		"max_score", result.MaxScore,
		"timed_out", result.TimedOut,
		"scorm_status", result.ScormStatus,
		"webhook_status", result.WebhookStatus)
	e.listener.OnQuizFinish(result.Clone())
	return result.Clone(), nil
}

// grade builds the result from the frozen session. Callers hold e.mu.
func (e *Engine) grade() *models.QuizResult {
	order := e.sess.Order()
	results := make([]models.QuestionResult, 0, len(order))

	var score, maxScore, totalTime float64
	for _, q := range order {
		answer := e.sess.Answer(q.ID)
		ev := evaluator.Evaluate(q, answer)
		spent := analytics.Round2(e.sess.TimeSpent(q.ID).Seconds())

		score += ev.PointsEarned
		maxScore += q.Points
		totalTime += spent
		results = append(results, models.QuestionResult{
			QuestionID:       q.ID,
			IsCorrect:        ev.IsCorrect,
			PointsEarned:     ev.PointsEarned,
			UserAnswer:       answer,
			CorrectAnswer:    ev.CorrectAnswer,
			TimeSpentSeconds: spent,
		})
	}

	result := &models.QuizResult{
		QuizID:                e.quiz.ID,
		Score:                 score,
		MaxScore:              maxScore,
		Answers:               e.sess.Answers(),
		QuestionResults:       results,
		TotalTimeSpentSeconds: analytics.Round2(totalTime),
		Breakdown:             analytics.Aggregate(order, results),
		ScormStatus:           e.scormStatus(),
		WebhookStatus:         models.WebhookIdle,
		StudentName:           e.studentName,
		TimedOut:              e.timedOut,
	}
	if maxScore > 0 {
		result.Percentage = score / maxScore * 100
	}
	if len(order) > 0 {
		result.AverageTimePerQuestionSeconds = analytics.Round2(result.TotalTimeSpentSeconds / float64(len(order)))
	}
	if p := e.settings.PassingScorePercent; p != nil {
		passed := result.Percentage >= *p
		result.Passed = &passed
	}
	return result
}

// report pushes the result to the LMS, then the webhook. Neither failure
// is returned; both are recorded on the result.
func (e *Engine) report(ctx context.Context, result *models.QuizResult) {
	if e.scorm != nil {
		e.scorm.Report(scorm.Report{
			Score:          result.Score,
			MaxScore:       result.MaxScore,
			Passed:         result.Passed,
			SessionSeconds: result.TotalTimeSpentSeconds,
			TimedOut:       result.TimedOut,
		})
		result.ScormStatus = e.scorm.Status()
		result.ScormError = e.scorm.Err()
	}

	if e.settings.WebhookURL == "" {
		return
	}
	result.WebhookStatus = models.WebhookSending
	out := e.webhook.Send(ctx, e.settings.WebhookURL, result.Clone())
	result.WebhookStatus = out.Status
	result.WebhookError = out.Error
}

// Destroy stops the countdown, closes the LMS session and rejects further
// mutation. It is safe to call more than once.
func (e *Engine) Destroy() {
	e.mu.Lock()
	if e.destroyed {
		e.mu.Unlock()
		return
	}
	e.destroyed = true
	if e.countdown != nil {
		e.countdown.Stop()
	}
	e.sess.Finish()
	e.mu.Unlock()

	if e.scorm != nil {
		e.scorm.Terminate()
	}
	e.logger.Debug("quiz engine destroyed")
}
