package cache

import (
	"context"
	"time"

	"mockai/internal/models"
)

// RetryPayload is what a failed analysis needs to run again without re-recording.
type RetryPayload struct {
	Mode      models.RecordingMode    `json:"mode"`
	MIMEType  string                  `json:"mimeType"`
	Media     []byte                  `json:"media"`
	Interview models.InterviewContext `json:"interview"`
}

// Blob returns the stashed recording.
func (p *RetryPayload) Blob() *models.Blob {
	return &models.Blob{Data: p.Media, MIMEType: p.MIMEType}
}

// RetryStore keeps the recording of a failed analysis until it is retried or expires.
type RetryStore interface {
	Save(ctx context.Context, questionID string, payload *RetryPayload) error
	// Load returns nil, nil when nothing is stashed.
	Load(ctx context.Context, questionID string) (*RetryPayload, error)
	Delete(ctx context.Context, questionID string) error
}

type retryStore struct {
	cache Cache
	ttl   time.Duration
}

// NewRetryStore creates a RetryStore whose entries expire after ttl.
func NewRetryStore(cache Cache, ttl time.Duration) RetryStore {
	return &retryStore{cache: cache, ttl: ttl}
}

func (s *retryStore) Save(ctx context.Context, questionID string, payload *RetryPayload) error {
	return s.cache.Set(ctx, RetryCacheKey(questionID), payload, s.ttl)
}

func (s *retryStore) Load(ctx context.Context, questionID string) (*RetryPayload, error) {
	var payload RetryPayload
	found, err := s.cache.Get(ctx, RetryCacheKey(questionID), &payload)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &payload, nil
}

func (s *retryStore) Delete(ctx context.Context, questionID string) error {
	return s.cache.Delete(ctx, RetryCacheKey(questionID))
}
