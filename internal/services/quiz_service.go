package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/quiz-engine/internal/cache"
	"github.com/SAP-F-2025/quiz-engine/internal/events"
	"github.com/SAP-F-2025/quiz-engine/internal/models"
	"github.com/SAP-F-2025/quiz-engine/internal/repositories"
	"github.com/SAP-F-2025/quiz-engine/internal/validator"
)

type quizService struct {
	quizzes   repositories.QuizRepository
	results   repositories.ResultRepository
	cache     *cache.QuizCache
	publisher events.EventPublisher
	validator *validator.Validator
	logger    *ServiceLogger
}

// NewQuizService wires the quiz catalogue. cache and publisher may be nil.
func NewQuizService(
	quizzes repositories.QuizRepository,
	results repositories.ResultRepository,
	quizCache *cache.QuizCache,
	publisher events.EventPublisher,
	validator *validator.Validator,
	logger *slog.Logger,
) QuizService {
	return &quizService{
		quizzes:   quizzes,
		results:   results,
		cache:     quizCache,
		publisher: publisher,
		validator: validator,
		logger:    NewServiceLogger(logger, "quiz"),
	}
}

// ===== CORE CRUD OPERATIONS =====

func (s *quizService) Create(ctx context.Context, quiz *models.Quiz, createdBy string) (resp *QuizResponse, err error) {
	op := s.logger.WithOperation(ctx, "create_quiz")
	defer func() { op.LogResult("quiz", quizID(quiz), err) }()

	if err = s.Validate(quiz); err != nil {
		return nil, err
	}

	exists, err := s.quizzes.Exists(ctx, nil, quiz.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check quiz id: %w", err)
	}
	if exists {
		return nil, ErrQuizExists
	}

	stored, err := models.NewStoredQuiz(quiz, createdBy)
	if err != nil {
		return nil, err
	}
	if err = s.quizzes.Create(ctx, nil, stored); err != nil {
		return nil, err
	}

	s.cachePut(ctx, quiz)
	s.publish(ctx, events.NewQuizChangedEvent(events.EventQuizCreated, quiz, createdBy))

	return buildQuizResponse(stored, quiz), nil
}

func (s *quizService) Get(ctx context.Context, id string) (*QuizResponse, error) {
	stored, err := s.quizzes.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}

	quiz, err := stored.Quiz()
	if err != nil {
		return nil, err
	}
	return buildQuizResponse(stored, quiz), nil
}

func (s *quizService) Load(ctx context.Context, id string) (*models.Quiz, error) {
	if s.cache != nil {
		quiz, err := s.cache.Get(ctx, id)
		if err == nil {
			return quiz, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Logger().WarnContext(ctx, "quiz cache read failed", "quiz_id", id, "error", err)
		}
	}

	resp, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cachePut(ctx, resp.Definition)
	return resp.Definition, nil
}

func (s *quizService) Update(ctx context.Context, id string, req *UpdateQuizRequest, updatedBy string) (resp *QuizResponse, err error) {
	op := s.logger.WithOperation(ctx, "update_quiz")
	defer func() { op.LogResult("quiz", id, err) }()

	if req == nil || req.Quiz == nil {
		return nil, NewValidationError("quiz", "quiz definition is required", nil)
	}
	quiz := req.Quiz
	if quiz.ID == "" {
		quiz.ID = id
	}
	if quiz.ID != id {
		return nil, NewValidationError("id", "quiz id cannot be changed", quiz.ID)
	}
	if err = s.Validate(quiz); err != nil {
		return nil, err
	}

	current, err := s.quizzes.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}

	stored, err := models.NewStoredQuiz(quiz, current.CreatedBy)
	if err != nil {
		return nil, err
	}
	stored.Version = req.Version
	stored.CreatedAt = current.CreatedAt

	if err = s.quizzes.Update(ctx, nil, stored); err != nil {
		if errors.Is(err, repositories.ErrStaleVersion) {
			return nil, ErrQuizVersionStale
		}
		return nil, err
	}
	stored.UpdatedAt = time.Now()

	s.cacheInvalidate(ctx, id)
	s.publish(ctx, events.NewQuizChangedEvent(events.EventQuizUpdated, quiz, updatedBy))

	return buildQuizResponse(stored, quiz), nil
}

func (s *quizService) Delete(ctx context.Context, id string, deletedBy string) (err error) {
	op := s.logger.WithOperation(ctx, "delete_quiz")
	defer func() { op.LogResult("quiz", id, err) }()

	if err = s.quizzes.Delete(ctx, nil, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrQuizNotFound
		}
		return err
	}

	s.cacheInvalidate(ctx, id)
	s.publish(ctx, events.NewQuizChangedEvent(events.EventQuizDeleted, &models.Quiz{ID: id}, deletedBy))
	return nil
}

// ===== LIST AND SEARCH OPERATIONS =====

func (s *quizService) List(ctx context.Context, filters repositories.QuizFilters) (*QuizListResponse, error) {
	quizzes, total, err := s.quizzes.List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list quizzes: %w", err)
	}

	response := &QuizListResponse{
		Quizzes: make([]*QuizResponse, len(quizzes)),
		Total:   total,
		Page:    filters.Offset / max(filters.Limit, 1),
		Size:    filters.Limit,
	}
	for i, q := range quizzes {
		response.Quizzes[i] = buildQuizResponse(q, nil)
	}
	return response, nil
}

func (s *quizService) Validate(quiz *models.Quiz) error {
	if quiz == nil {
		return NewValidationError("quiz", "quiz definition is required", nil)
	}
	return s.validator.Validate(quiz)
}

// ===== RESULTS =====

func (s *quizService) Results(ctx context.Context, quizID string, filters repositories.ResultFilters) (*ResultListResponse, error) {
	filters.QuizID = quizID
	results, total, err := s.results.List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}
	return &ResultListResponse{
		Results: results,
		Total:   total,
		Page:    filters.Offset / max(filters.Limit, 1),
		Size:    filters.Limit,
	}, nil
}

func (s *quizService) ResultStats(ctx context.Context, quizID string) (*repositories.QuizResultStats, error) {
	exists, err := s.quizzes.Exists(ctx, nil, quizID)
	if err != nil {
		return nil, fmt.Errorf("failed to check quiz: %w", err)
	}
	if !exists {
		return nil, ErrQuizNotFound
	}
	return s.results.GetStats(ctx, nil, quizID)
}

// ===== HELPERS =====

func (s *quizService) cachePut(ctx context.Context, quiz *models.Quiz) {
	if s.cache == nil || quiz == nil {
		return
	}
	if err := s.cache.Put(ctx, quiz); err != nil {
		s.logger.Logger().WarnContext(ctx, "failed to cache quiz", "quiz_id", quiz.ID, "error", err)
	}
}

func (s *quizService) cacheInvalidate(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, id); err != nil {
		s.logger.Logger().WarnContext(ctx, "failed to invalidate cached quiz", "quiz_id", id, "error", err)
	}
}

// publish never fails the calling operation.
func (s *quizService) publish(ctx context.Context, event *events.QuizEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Logger().ErrorContext(ctx, "failed to publish quiz event", "event_type", event.Type, "error", err)
	}
}

func buildQuizResponse(stored *models.StoredQuiz, quiz *models.Quiz) *QuizResponse {
	return &QuizResponse{
		ID:            stored.ID,
		Title:         stored.Title,
		Description:   stored.Description,
		QuestionCount: stored.QuestionCount,
		MaxScore:      stored.MaxScore,
		CreatedBy:     stored.CreatedBy,
		Version:       stored.Version,
		CreatedAt:     stored.CreatedAt,
		UpdatedAt:     stored.UpdatedAt,
		Definition:    quiz,
	}
}

func quizID(q *models.Quiz) string {
	if q == nil {
		return ""
	}
	return q.ID
}
