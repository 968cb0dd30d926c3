package cache

import (
	"context"
	"time"

	"mockai/internal/models"
)

// ResultStore caches display-ready results by question ID.
type ResultStore interface {
	Get(ctx context.Context, questionID string) (*models.ResultDisplay, error)
	Set(ctx context.Context, questionID string, result *models.ResultDisplay) error
	Invalidate(ctx context.Context, questionID string) error
}

type resultStore struct {
	cache Cache
	ttl   time.Duration
}

// NewResultStore creates a ResultStore whose entries expire after ttl.
func NewResultStore(cache Cache, ttl time.Duration) ResultStore {
	return &resultStore{cache: cache, ttl: ttl}
}

// Get returns nil, nil on a cache miss.
func (s *resultStore) Get(ctx context.Context, questionID string) (*models.ResultDisplay, error) {
	var result models.ResultDisplay
	found, err := s.cache.Get(ctx, ResultCacheKey(questionID), &result)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &result, nil
}

func (s *resultStore) Set(ctx context.Context, questionID string, result *models.ResultDisplay) error {
	return s.cache.Set(ctx, ResultCacheKey(questionID), result, s.ttl)
}

func (s *resultStore) Invalidate(ctx context.Context, questionID string) error {
	return s.cache.Delete(ctx, ResultCacheKey(questionID))
}
