package orchestrator

import (
	"context"
	"io"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"mockai/internal/models"
	"mockai/internal/speech"
	"mockai/internal/transcription"
)

const waitFor = 2 * time.Second

type runnerFunc func(ctx context.Context, job Job, progress func(models.SessionStatus)) (*models.ResultDisplay, error)

func (f runnerFunc) Run(ctx context.Context, job Job, progress func(models.SessionStatus)) (*models.ResultDisplay, error) {
	return f(ctx, job, progress)
}

type extractorFunc func(ctx context.Context, video *models.Blob) (*models.Blob, error)

func (f extractorFunc) ExtractAudio(ctx context.Context, video *models.Blob) (*models.Blob, error) {
	return f(ctx, video)
}

type fakeTranscriber struct {
	mu       sync.Mutex
	raw      *models.RawTranscription
	err      error
	requests []transcription.Request
}

func (f *fakeTranscriber) Analyze(_ context.Context, req transcription.Request) (*models.RawTranscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	return f.raw, f.err
}

type upsertCall struct {
	userID string
	update *models.ResultUpdate
}

type fakeResults struct {
	mu    sync.Mutex
	err   error
	calls []upsertCall
}

func (f *fakeResults) Upsert(_ context.Context, questionID primitive.ObjectID, userID string, update *models.ResultUpdate) (*models.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, upsertCall{userID: userID, update: update})
	if f.err != nil {
		return nil, f.err
	}
	return &models.Result{QuestionID: questionID, UserID: userID, Status: models.ResultComplete, Score: update.Score}, nil
}

func (f *fakeResults) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// echoRecognizer commits every chunk it receives as a final segment.
type echoRecognizer struct{}

func (echoRecognizer) Open(context.Context, string) (speech.Stream, error) {
	return &echoStream{ch: make(chan string, 16)}, nil
}

type echoStream struct {
	ch   chan string
	once sync.Once
}

func (s *echoStream) Send(chunk []byte) error {
	s.ch <- string(chunk)
	return nil
}

func (s *echoStream) Recv() ([]speech.Segment, error) {
	text, ok := <-s.ch
	if !ok {
		return nil, io.EOF
	}
	return []speech.Segment{{Text: text, Final: true}}, nil
}

func (s *echoStream) CloseSend() error {
	s.once.Do(func() { close(s.ch) })
	return nil
}

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }
