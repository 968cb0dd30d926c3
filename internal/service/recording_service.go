package service

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"mockai/internal/cache"
	apperrors "mockai/internal/errors"
	"mockai/internal/models"
	"mockai/internal/queue"
	"mockai/internal/repository"
)

// RecordingService queues uploaded recordings for background analysis.
type RecordingService struct {
	questions   repository.QuestionRepository
	results     repository.ResultRepository
	queue       queue.Queue
	retries     cache.RetryStore
	resultCache cache.ResultStore
	log         logrus.FieldLogger
}

// NewRecordingService creates a new RecordingService.
func NewRecordingService(
	questions repository.QuestionRepository,
	results repository.ResultRepository,
	q queue.Queue,
	retries cache.RetryStore,
	resultCache cache.ResultStore,
	log logrus.FieldLogger,
) *RecordingService {
	return &RecordingService{
		questions:   questions,
		results:     results,
		queue:       q,
		retries:     retries,
		resultCache: resultCache,
		log:         log,
	}
}

// SubmitRecording claims the question's result and queues the recording.
func (s *RecordingService) SubmitRecording(ctx context.Context, userID string, questionID primitive.ObjectID, mode models.RecordingMode, media *models.Blob) error {
	if _, ok := models.ParseRecordingMode(string(mode)); !ok {
		return apperrors.ErrInvalidMode
	}
	if media.Size() == 0 {
		return apperrors.ErrMediaAccess
	}

	q, err := ownedQuestion(ctx, s.questions, userID, questionID)
	if err != nil {
		return err
	}

	if s.queue.Len() >= s.queue.Capacity() {
		return apperrors.ErrAnalysisQueueFull
	}

	if err := s.results.ClaimForAnalysis(ctx, questionID, mode,
		models.ResultPending, models.ResultFailed, models.ResultComplete); err != nil {
		return err
	}
	s.invalidate(ctx, questionID)

	return s.enqueue(ctx, queue.AnalysisJob{
		QuestionID: questionID,
		Mode:       mode,
		Media:      media,
		Interview:  q.Context(),
	})
}

// RetryAnalysis re-queues the recording kept from a failed analysis.
func (s *RecordingService) RetryAnalysis(ctx context.Context, userID string, questionID primitive.ObjectID) error {
	q, err := ownedQuestion(ctx, s.questions, userID, questionID)
	if err != nil {
		return err
	}

	payload, err := s.retries.Load(ctx, questionID.Hex())
	if err != nil {
		return err
	}
	if payload == nil {
		return apperrors.ErrNothingToRetry
	}

	if s.queue.Len() >= s.queue.Capacity() {
		return apperrors.ErrAnalysisQueueFull
	}

	if err := s.results.ClaimForAnalysis(ctx, questionID, payload.Mode, models.ResultFailed); err != nil {
		return err
	}
	s.invalidate(ctx, questionID)

	s.log.WithField("questionId", questionID.Hex()).Info("retrying analysis")
	return s.enqueue(ctx, queue.AnalysisJob{
		QuestionID: questionID,
		Mode:       payload.Mode,
		Media:      payload.Blob(),
		Interview:  q.Context(),
	})
}

// enqueue releases the claim when the job cannot be queued.
func (s *RecordingService) enqueue(ctx context.Context, job queue.AnalysisJob) error {
	err := s.queue.Enqueue(job)
	if err == nil {
		s.log.WithFields(logrus.Fields{"questionId": job.QuestionID.Hex(), "mode": job.Mode}).Info("analysis queued")
		return nil
	}

	s.log.WithError(err).WithField("questionId", job.QuestionID.Hex()).Error("failed to queue analysis")
	if markErr := s.results.MarkFailed(ctx, job.QuestionID, apperrors.StageUpload, err.Error()); markErr != nil {
		s.log.WithError(markErr).Error("failed to release analysis claim")
	}
	if errors.Is(err, queue.ErrQueueFull) || errors.Is(err, queue.ErrQueueClosed) {
		return apperrors.ErrAnalysisQueueFull
	}
	return err
}

func (s *RecordingService) invalidate(ctx context.Context, questionID primitive.ObjectID) {
	if err := s.resultCache.Invalidate(ctx, questionID.Hex()); err != nil {
		s.log.WithError(err).WithField("questionId", questionID.Hex()).Warn("result cache invalidation failed")
	}
}
