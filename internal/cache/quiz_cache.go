package cache

import (
	"context"
	"time"

	"github.com/SAP-F-2025/quiz-engine/internal/models"
)

const quizKeyPrefix = "quiz:def:"

func QuizKey(id string) string { return quizKeyPrefix + id }

// QuizCache stores quiz definitions by id.
type QuizCache struct {
	cache CacheService
	ttl   time.Duration
}

func NewQuizCache(cache CacheService, ttl time.Duration) *QuizCache {
	return &QuizCache{cache: cache, ttl: ttl}
}

// Get returns ErrCacheMiss when the quiz is not cached.
func (c *QuizCache) Get(ctx context.Context, id string) (*models.Quiz, error) {
	var quiz models.Quiz
	if err := c.cache.Get(ctx, QuizKey(id), &quiz); err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (c *QuizCache) Put(ctx context.Context, quiz *models.Quiz) error {
	return c.cache.Set(ctx, QuizKey(quiz.ID), quiz, c.ttl)
}

func (c *QuizCache) Invalidate(ctx context.Context, id string) error {
	return c.cache.Delete(ctx, QuizKey(id))
}

func (c *QuizCache) InvalidateAll(ctx context.Context) error {
	return c.cache.DeletePattern(ctx, quizKeyPrefix+"*")
}
