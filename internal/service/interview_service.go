package service

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"mockai/internal/cache"
	apperrors "mockai/internal/errors"
	"mockai/internal/models"
	"mockai/internal/question"
	"mockai/internal/reconcile"
	"mockai/internal/repository"
	"mockai/internal/storage"
)

const defaultPageLimit = 10

// InterviewService handles business logic for questions and their results.
type InterviewService struct {
	generator   question.Generator
	questions   repository.QuestionRepository
	results     repository.ResultRepository
	resultCache cache.ResultStore
	storage     storage.Storage
	urlExpiry   time.Duration
	log         logrus.FieldLogger
}

// NewInterviewService creates a new InterviewService.
func NewInterviewService(
	generator question.Generator,
	questions repository.QuestionRepository,
	results repository.ResultRepository,
	resultCache cache.ResultStore,
	store storage.Storage,
	urlExpiry time.Duration,
	log logrus.FieldLogger,
) *InterviewService {
	return &InterviewService{
		generator:   generator,
		questions:   questions,
		results:     results,
		resultCache: resultCache,
		storage:     store,
		urlExpiry:   urlExpiry,
		log:         log,
	}
}

// GenerateQuestion asks the generator for a question, stores it and opens an
// empty result row for it.
func (s *InterviewService) GenerateQuestion(ctx context.Context, userID string, req *models.GenerateQuestionRequest) (*models.Question, error) {
	text, err := s.generator.Generate(ctx, req)
	if err != nil {
		s.log.WithError(err).WithField("questionType", req.QuestionType).Error("question generation failed")
		return nil, err
	}

	q := &models.Question{
		UserID:        userID,
		QuestionText:  text,
		CandidateName: strings.TrimSpace(req.CandidateName),
		Company:       strings.TrimSpace(req.Company),
		Position:      strings.TrimSpace(req.Position),
		InterviewType: req.QuestionType,
	}
	if err := s.questions.Create(ctx, q); err != nil {
		return nil, err
	}

	if err := s.results.Create(ctx, &models.Result{QuestionID: q.ID, UserID: userID}); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"questionId": q.ID.Hex(), "questionType": q.InterviewType}).Info("question generated")
	return q, nil
}

// GetQuestion returns a question owned by userID.
func (s *InterviewService) GetQuestion(ctx context.Context, userID string, questionID primitive.ObjectID) (*models.Question, error) {
	return ownedQuestion(ctx, s.questions, userID, questionID)
}

// GetResult returns the display model of a question's result. Completed
// results are served from the cache when possible.
func (s *InterviewService) GetResult(ctx context.Context, userID string, questionID primitive.ObjectID) (*models.ResultDisplay, error) {
	q, err := ownedQuestion(ctx, s.questions, userID, questionID)
	if err != nil {
		return nil, err
	}
	qid := questionID.Hex()

	if cached, err := s.resultCache.Get(ctx, qid); err != nil {
		s.log.WithError(err).WithField("questionId", qid).Warn("result cache read failed")
	} else if cached != nil {
		return cached, nil
	}

	result, err := s.results.FindByQuestionID(ctx, questionID)
	if err != nil {
		return nil, err
	}
	s.refreshURLs(ctx, result)

	display := reconcile.FromResult(result)
	display.InterviewerQuestion = q.QuestionText

	if result.Status == models.ResultComplete {
		if err := s.resultCache.Set(ctx, qid, display); err != nil {
			s.log.WithError(err).WithField("questionId", qid).Warn("result cache write failed")
		}
	}
	return display, nil
}

// ListResults returns a page of the user's completed results, newest first.
func (s *InterviewService) ListResults(ctx context.Context, userID string, page, limit int) (*models.ResultListResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > defaultPageLimit {
		limit = defaultPageLimit
	}

	results, total, err := s.results.FindByUserID(ctx, userID, page, limit)
	if err != nil {
		return nil, err
	}
	for i := range results {
		s.refreshURLs(ctx, &results[i])
	}

	totalPages := total / limit
	if total%limit > 0 {
		totalPages++
	}

	return &models.ResultListResponse{
		Items: results,
		Pagination: models.Pagination{
			Page:       page,
			Limit:      limit,
			TotalItems: total,
			TotalPages: totalPages,
		},
	}, nil
}

// refreshURLs re-signs stored assets; on error the stored URL is kept.
func (s *InterviewService) refreshURLs(ctx context.Context, r *models.Result) {
	if r.AudioKey != "" {
		if url, err := s.storage.GetPresignedURL(ctx, r.AudioKey, s.urlExpiry); err == nil {
			r.AudioURL = url
		} else {
			s.log.WithError(err).WithField("key", r.AudioKey).Warn("signing audio url failed")
		}
	}
	if r.VideoKey != "" {
		if url, err := s.storage.GetPresignedURL(ctx, r.VideoKey, s.urlExpiry); err == nil {
			r.VideoURL = url
		} else {
			s.log.WithError(err).WithField("key", r.VideoKey).Warn("signing video url failed")
		}
	}
}

func ownedQuestion(ctx context.Context, questions repository.QuestionRepository, userID string, questionID primitive.ObjectID) (*models.Question, error) {
	q, err := questions.FindByID(ctx, questionID)
	if err != nil {
		return nil, err
	}
	if q.UserID != userID {
		return nil, apperrors.ErrQuestionUnauthorized
	}
	return q, nil
}
