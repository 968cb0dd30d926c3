// Package transcription analyses recorded answers: transcript, word timings,
// filler words, pauses, feedback and score.
package transcription

import (
	"context"
	"time"

	"mockai/internal/models"
)

// Request is one answer to analyse.
type Request struct {
	// MediaURI is the stored audio, e.g. gs://bucket/key.
	MediaURI string
	// Audio is the extracted or recorded audio, sent inline when MediaURI
	// cannot be read by the analysis service.
	Audio     *models.Blob
	Interview models.InterviewContext
}

// Service defines the interface for answer analysis.
type Service interface {
	Analyze(ctx context.Context, req Request) (*models.RawTranscription, error)
}

// MockService is a mock implementation of Service for development/testing.
type MockService struct {
	// SimulatedDelay is the time to simulate analysis.
	SimulatedDelay time.Duration
}

// NewMockService creates a new MockService with default settings.
func NewMockService() *MockService {
	return &MockService{SimulatedDelay: 2 * time.Second}
}

// Analyze returns a fixed analysis after SimulatedDelay.
func (s *MockService) Analyze(ctx context.Context, req Request) (*models.RawTranscription, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(s.SimulatedDelay):
	}

	transcript := "This is a mock transcription of the answer. " +
		"In production, this would contain the words actually spoken."
	feedback := "Clear and well structured. Add a concrete result to close the answer."
	score := 80.0

	return &models.RawTranscription{
		Transcript:          &transcript,
		InterviewerQuestion: req.Interview.QuestionText,
		Words: []models.Word{
			{Word: "this", Start: 0.4, End: 0.6, Confidence: 0.98, PunctuatedWord: "This"},
			{Word: "is", Start: 0.6, End: 0.7, Confidence: 0.99, PunctuatedWord: "is"},
		},
		FillerWords:            []models.FillerWord{{Word: "um", Count: 1}},
		PauseDurations:         []float64{},
		AIFeedback:             &feedback,
		Score:                  &score,
		PositiveSentimentScore: 60,
		NegativeSentimentScore: 10,
		NeutralSentimentScore:  30,
	}, nil
}
