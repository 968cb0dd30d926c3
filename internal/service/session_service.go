package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"mockai/internal/cache"
	"mockai/internal/capture"
	"mockai/internal/models"
	"mockai/internal/orchestrator"
	"mockai/internal/repository"
	"mockai/internal/speech"
	"mockai/internal/timer"
)

// SessionConfig holds the recording limits and collaborators shared by all sessions.
type SessionConfig struct {
	Recognizer   speech.Recognizer
	Pipeline     orchestrator.Runner
	WarningAfter time.Duration
	MaxDuration  time.Duration
	Clock        timer.Clock
	TempDir      string
}

// SessionService builds live recording sessions for a user's questions.
type SessionService struct {
	questions   repository.QuestionRepository
	resultCache cache.ResultStore
	cfg         SessionConfig
	log         logrus.FieldLogger
}

// NewSessionService creates a new SessionService.
func NewSessionService(questions repository.QuestionRepository, resultCache cache.ResultStore, cfg SessionConfig, log logrus.FieldLogger) *SessionService {
	return &SessionService{
		questions:   questions,
		resultCache: resultCache,
		cfg:         cfg,
		log:         log,
	}
}

// OpenSession returns an idle session recording from device. Callbacks and
// the logger are taken from hooks; everything else comes from the service.
func (s *SessionService) OpenSession(ctx context.Context, userID string, questionID primitive.ObjectID, device capture.Device, hooks orchestrator.SessionOptions) (*orchestrator.Session, error) {
	q, err := ownedQuestion(ctx, s.questions, userID, questionID)
	if err != nil {
		return nil, err
	}

	opts := hooks
	opts.Interview = q.Context()
	opts.Device = device
	opts.Recognizer = s.cfg.Recognizer
	opts.Pipeline = s.cfg.Pipeline
	opts.WarningAfter = s.cfg.WarningAfter
	opts.MaxDuration = s.cfg.MaxDuration
	opts.Clock = s.cfg.Clock
	opts.TempDir = s.cfg.TempDir
	if opts.Logger == nil {
		opts.Logger = s.log
	}

	onComplete := hooks.OnComplete
	qid := questionID.Hex()
	opts.OnComplete = func(result *models.ResultDisplay) {
		// The cache may hold the previous answer.
		if err := s.resultCache.Invalidate(context.Background(), qid); err != nil {
			s.log.WithError(err).WithField("questionId", qid).Warn("result cache invalidation failed")
		}
		if onComplete != nil {
			onComplete(result)
		}
	}

	return orchestrator.NewSession(opts), nil
}
