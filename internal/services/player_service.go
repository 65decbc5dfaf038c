package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/SAP-F-2025/quiz-engine/internal/engine"
	"github.com/SAP-F-2025/quiz-engine/internal/evaluator"
	"github.com/SAP-F-2025/quiz-engine/internal/events"
	"github.com/SAP-F-2025/quiz-engine/internal/models"
	"github.com/SAP-F-2025/quiz-engine/internal/monitoring"
	"github.com/SAP-F-2025/quiz-engine/internal/repositories"
	"github.com/SAP-F-2025/quiz-engine/internal/scorm"
	"github.com/SAP-F-2025/quiz-engine/internal/session"
	"github.com/SAP-F-2025/quiz-engine/internal/webhook"
)

const (
	subscriberBuffer = 32
	persistTimeout   = 10 * time.Second
)

type PlayerConfig struct {
	// SessionTTL is how long a session may stay idle before it is reaped.
	SessionTTL time.Duration
	// ReapInterval defaults to a quarter of SessionTTL, at most one minute.
	ReapInterval time.Duration
	// ScormPreview gives SCORM quizzes an in-memory LMS runtime.
	ScormPreview bool
	Webhook      *webhook.Client
	Clock        session.Clock
	Ticker       session.TickerFunc
}

type playerService struct {
	quizzes   QuizService
	results   repositories.ResultRepository
	publisher events.EventPublisher
	config    PlayerConfig
	clock     session.Clock
	logger    *ServiceLogger

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.RWMutex
	sessions map[string]*liveSession

	reaperDone chan struct{}
	stopOnce   sync.Once
}

func NewPlayerService(
	quizzes QuizService,
	results repositories.ResultRepository,
	publisher events.EventPublisher,
	config PlayerConfig,
	logger *slog.Logger,
) PlayerService {
	if config.Clock == nil {
		config.Clock = session.SystemClock
	}
	if config.SessionTTL > 0 && config.ReapInterval <= 0 {
		config.ReapInterval = min(config.SessionTTL/4, time.Minute)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &playerService{
		quizzes:    quizzes,
		results:    results,
		publisher:  publisher,
		config:     config,
		clock:      config.Clock,
		logger:     NewServiceLogger(logger, "player"),
		ctx:        ctx,
		cancel:     cancel,
		sessions:   make(map[string]*liveSession),
		reaperDone: make(chan struct{}),
	}

	if config.SessionTTL > 0 {
		go s.reapLoop()
	} else {
		close(s.reaperDone)
	}
	return s
}

// ===== SESSION LIFECYCLE =====

func (s *playerService) Start(ctx context.Context, req *StartSessionRequest) (state *SessionState, err error) {
	op := s.logger.WithOperation(ctx, "start_session")
	defer func() {
		id := ""
		if state != nil {
			id = state.SessionID
		}
		op.LogResult("session", id, err)
	}()

	if req == nil {
		return nil, NewValidationError("quiz_id", "quiz_id or quiz is required", nil)
	}

	quiz := req.Quiz
	switch {
	case quiz != nil:
		if err = s.quizzes.Validate(quiz); err != nil {
			return nil, err
		}
	case req.QuizID != "":
		if quiz, err = s.quizzes.Load(ctx, req.QuizID); err != nil {
			return nil, err
		}
	default:
		return nil, NewValidationError("quiz_id", "quiz_id or quiz is required", nil)
	}

	now := s.clock.Now()
	ls := &liveSession{
		id:          uuid.NewString(),
		quiz:        quiz,
		startedAt:   now,
		lastActive:  now,
		subscribers: make(map[int]chan SessionEvent),
		service:     s,
	}

	opts := []engine.Option{
		engine.WithLogger(s.logger.Logger().With("session_id", ls.id)),
		engine.WithContext(s.ctx),
		engine.WithStudentName(req.StudentName),
		engine.WithClock(s.clock),
	}
	if s.config.Webhook != nil {
		opts = append(opts, engine.WithWebhookClient(s.config.Webhook))
	}
	if s.config.Ticker != nil {
		opts = append(opts, engine.WithTicker(s.config.Ticker))
	}
	optionRand := rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	if req.Seed != nil {
		opts = append(opts, engine.WithRand(rand.New(rand.NewPCG(*req.Seed, *req.Seed))))
		optionRand = rand.New(rand.NewPCG(*req.Seed, ^*req.Seed))
	}
	ls.prepareQuestions(optionRand)
	if settings := quiz.SettingsOrDefault(); s.config.ScormPreview && settings.Scorm != nil {
		ls.runtime = scorm.NewMemoryRuntime(map[string]string{
			"cmi.core.student_name": req.StudentName,
			"cmi.learner_name":      req.StudentName,
		})
		opts = append(opts, engine.WithHost(scorm.StaticHost(ls.runtime)))
	}

	ls.engine = engine.New(quiz, ls, opts...)

	s.mu.Lock()
	s.sessions[ls.id] = ls
	s.mu.Unlock()

	monitoring.SessionsStarted.Inc()
	monitoring.SessionsActive.Inc()
	s.publish(ctx, events.NewSessionStartedEvent(ls.id, quiz, ls.engine.StudentName(), now))

	return ls.state(), nil
}

func (s *playerService) Get(ctx context.Context, sessionID string) (*SessionState, error) {
	ls, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	return ls.state(), nil
}

func (s *playerService) Finish(ctx context.Context, sessionID string) (result *models.QuizResult, err error) {
	op := s.logger.WithOperation(ctx, "finish_session")
	defer func() { op.LogResult("session", sessionID, err) }()

	ls, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	result, err = ls.engine.CalculateResults(ctx)
	if err != nil {
		return nil, s.engineError(err)
	}
	return visibleResult(ls.quiz, result), nil
}

// Result serves live sessions from the engine and reaped ones from storage.
func (s *playerService) Result(ctx context.Context, sessionID string) (*models.QuizResult, error) {
	if ls, err := s.lookup(sessionID); err == nil {
		if !ls.engine.Finished() {
			return nil, ErrSessionNotDone
		}
		result, err := ls.engine.CalculateResults(ctx)
		if err != nil {
			return nil, s.engineError(err)
		}
		return visibleResult(ls.quiz, result), nil
	}

	stored, err := s.results.GetBySessionID(ctx, nil, sessionID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get result: %w", err)
	}
	return stored.Result()
}

func (s *playerService) Quiz(ctx context.Context, sessionID string) (*models.Quiz, error) {
	ls, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	return ls.quiz, nil
}

func (s *playerService) Destroy(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	ls, ok := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}

	ls.close()
	s.logger.Logger().InfoContext(ctx, "session destroyed", "session_id", sessionID)
	return nil
}

// Shutdown stops the reaper and destroys every live session.
func (s *playerService) Shutdown() {
	s.stopOnce.Do(func() {
		s.cancel()
		<-s.reaperDone

		s.mu.Lock()
		live := make([]*liveSession, 0, len(s.sessions))
		for id, ls := range s.sessions {
			live = append(live, ls)
			delete(s.sessions, id)
		}
		s.mu.Unlock()

		for _, ls := range live {
			ls.close()
		}
	})
}

// ===== NAVIGATION AND ANSWERS =====

func (s *playerService) CurrentQuestion(ctx context.Context, sessionID string) (*QuestionView, error) {
	ls, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	return ls.currentView(), nil
}

func (s *playerService) SubmitAnswer(ctx context.Context, sessionID, questionID string, answer *models.Answer) (*SubmitResponse, error) {
	ls, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	if ls.engine.Finished() {
		return nil, ErrSessionFinished
	}
	question, ok := ls.quiz.FindQuestion(questionID)
	if !ok {
		return nil, ErrQuestionNotFound
	}
	if answer == nil {
		return nil, NewValidationError("answer", "answer is required", nil)
	}

	if err := ls.engine.SubmitAnswer(questionID, answer); err != nil {
		return nil, s.engineError(err)
	}
	monitoring.AnswersSubmitted.WithLabelValues(string(question.Type())).Inc()

	resp := &SubmitResponse{QuestionID: questionID, Accepted: true}
	if ls.quiz.SettingsOrDefault().ShowCorrectAnswers == models.ShowImmediately {
		ev := evaluator.Evaluate(question, answer)
		resp.Feedback = &Feedback{
			IsCorrect:     ev.IsCorrect,
			PointsEarned:  ev.PointsEarned,
			CorrectAnswer: ev.CorrectAnswer,
			Explanation:   question.Explanation,
		}
	}
	return resp, nil
}

func (s *playerService) Next(ctx context.Context, sessionID string) (*QuestionView, error) {
	return s.navigate(sessionID, (*engine.Engine).NextQuestion)
}

func (s *playerService) Previous(ctx context.Context, sessionID string) (*QuestionView, error) {
	return s.navigate(sessionID, (*engine.Engine).PreviousQuestion)
}

// GoTo takes a zero-based index. Out of range indexes leave the position
// unchanged.
func (s *playerService) GoTo(ctx context.Context, sessionID string, index int) (*QuestionView, error) {
	return s.navigate(sessionID, func(e *engine.Engine) (*models.Question, error) {
		return e.GoToQuestion(index)
	})
}

func (s *playerService) navigate(sessionID string, move func(*engine.Engine) (*models.Question, error)) (*QuestionView, error) {
	ls, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	if ls.engine.Finished() {
		return nil, ErrSessionFinished
	}
	if _, err := move(ls.engine); err != nil {
		return nil, s.engineError(err)
	}
	return ls.currentView(), nil
}

// ResolveHotspot maps click coordinates, in percent of the image, to the
// hotspot under them.
func (s *playerService) ResolveHotspot(ctx context.Context, sessionID, questionID string, x, y float64) (string, bool, error) {
	ls, err := s.lookup(sessionID)
	if err != nil {
		return "", false, err
	}
	question, ok := ls.quiz.FindQuestion(questionID)
	if !ok {
		return "", false, ErrQuestionNotFound
	}
	body, ok := question.Body.(*models.HotspotBody)
	if !ok {
		return "", false, fmt.Errorf("%w: question %s is not a hotspot question", ErrBadRequest, questionID)
	}
	id, hit := body.HitTest(x, y)
	return id, hit, nil
}

func (s *playerService) ScormData(ctx context.Context, sessionID string) (map[string]string, error) {
	ls, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	if ls.runtime == nil {
		return nil, fmt.Errorf("%w: session has no SCORM preview runtime", ErrNotFound)
	}
	return ls.runtime.Data(), nil
}

// ===== EVENTS =====

func (s *playerService) Subscribe(ctx context.Context, sessionID string) (<-chan SessionEvent, func(), error) {
	ls, err := s.lookup(sessionID)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := ls.subscribe()
	if ch == nil {
		return nil, nil, ErrSessionNotFound
	}
	return ch, cancel, nil
}

// onFinish persists the result and announces it. It runs once per session,
// on whichever goroutine finished the engine.
func (s *playerService) onFinish(ls *liveSession, result *models.QuizResult) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(s.ctx), persistTimeout)
	defer cancel()

	finishedAt := s.clock.Now()
	stored, err := models.NewStoredResult(ls.id, result, finishedAt)
	if err == nil {
		err = s.results.Create(ctx, nil, stored)
	}
	if err != nil {
		s.logger.Logger().ErrorContext(ctx, "failed to persist quiz result", "session_id", ls.id, "error", err)
	}

	s.publish(ctx, events.NewSessionFinishedEvent(ls.id, result, finishedAt))

	outcome := "completed"
	switch {
	case result.TimedOut:
		outcome = "timed_out"
	case result.Passed != nil && *result.Passed:
		outcome = "passed"
	case result.Passed != nil:
		outcome = "failed"
	}
	monitoring.SessionsFinished.WithLabelValues(outcome).Inc()
	monitoring.ScorePercentage.Observe(result.Percentage)
	if result.WebhookStatus != "" && result.WebhookStatus != models.WebhookIdle {
		monitoring.ReportOutcomes.WithLabelValues("webhook", string(result.WebhookStatus)).Inc()
	}
	if ls.quiz.SettingsOrDefault().Scorm != nil {
		monitoring.ReportOutcomes.WithLabelValues("scorm", string(result.ScormStatus)).Inc()
	}
}

// ===== REAPER =====

func (s *playerService) reapLoop() {
	defer close(s.reaperDone)
	ticker := time.NewTicker(s.config.ReapInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.reap()
		}
	}
}

// reap destroys sessions idle for longer than the TTL. Unfinished ones are
// reported as expired.
func (s *playerService) reap() int {
	now := s.clock.Now()

	s.mu.Lock()
	var idle []*liveSession
	for id, ls := range s.sessions {
		if now.Sub(ls.lastActivity()) > s.config.SessionTTL {
			idle = append(idle, ls)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, ls := range idle {
		finished := ls.engine.Finished()
		ls.close()
		if finished {
			continue
		}
		monitoring.SessionsExpired.Inc()
		s.publish(s.ctx, events.NewSessionExpiredEvent(ls.id, ls.quiz.ID, ls.lastActivity()))
		s.logger.Logger().Info("session expired", "session_id", ls.id, "quiz_id", ls.quiz.ID)
	}
	return len(idle)
}

// ===== HELPERS =====

func (s *playerService) lookup(sessionID string) (*liveSession, error) {
	s.mu.RLock()
	ls, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	ls.touch(s.clock.Now())
	return ls, nil
}

func (s *playerService) engineError(err error) error {
	if errors.Is(err, engine.ErrDestroyed) {
		return ErrSessionNotFound
	}
	return err
}

func (s *playerService) publish(ctx context.Context, event *events.QuizEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Logger().ErrorContext(ctx, "failed to publish session event", "event_type", event.Type, "error", err)
	}
}

// visibleResult hides correct answers when the quiz never shows them.
func visibleResult(quiz *models.Quiz, result *models.QuizResult) *models.QuizResult {
	if quiz.SettingsOrDefault().ShowCorrectAnswers == models.ShowNever {
		return result.WithoutCorrectAnswers()
	}
	return result
}
