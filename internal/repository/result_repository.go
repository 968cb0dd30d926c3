package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	apperrors "mockai/internal/errors"
	"mockai/internal/models"
)

// ResultRepository defines the interface for result data operations.
// There is at most one result per question.
type ResultRepository interface {
	// Create inserts the pending result of a new question.
	Create(ctx context.Context, result *models.Result) error
	FindByQuestionID(ctx context.Context, questionID primitive.ObjectID) (*models.Result, error)
	// FindByUserID returns paginated completed results, newest first.
	FindByUserID(ctx context.Context, userID string, page, limit int) ([]models.Result, int, error)
	// Upsert stores a completed analysis, replacing any earlier one.
	Upsert(ctx context.Context, questionID primitive.ObjectID, userID string, update *models.ResultUpdate) (*models.Result, error)
	// ClaimForAnalysis moves a result in one of the allowed states to processing.
	ClaimForAnalysis(ctx context.Context, questionID primitive.ObjectID, mode models.RecordingMode, allowed ...models.ResultStatus) error
	// MarkFailed records the failing stage of an analysis.
	MarkFailed(ctx context.Context, questionID primitive.ObjectID, stage apperrors.Stage, message string) error
}

type resultRepository struct {
	collection *mongo.Collection
}

// NewResultRepository creates a new ResultRepository.
func NewResultRepository(db *mongo.Database) ResultRepository {
	return &resultRepository{
		collection: db.Collection(ResultsCollection),
	}
}

func (r *resultRepository) Create(ctx context.Context, result *models.Result) error {
	if result.ID.IsZero() {
		result.ID = primitive.NewObjectID()
	}
	if result.Status == "" {
		result.Status = models.ResultPending
	}
	now := time.Now()
	result.CreatedAt = now
	result.UpdatedAt = now
	if result.Words == nil {
		result.Words = []models.Word{}
	}
	if result.FillerWords == nil {
		result.FillerWords = []models.FillerWord{}
	}
	if result.LongPauses == nil {
		result.LongPauses = []models.LongPause{}
	}

	_, err := r.collection.InsertOne(ctx, result)
	return err
}

func (r *resultRepository) FindByQuestionID(ctx context.Context, questionID primitive.ObjectID) (*models.Result, error) {
	var result models.Result

	err := r.collection.FindOne(ctx, bson.M{"questionId": questionID}).Decode(&result)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.ErrResultNotFound
		}
		return nil, err
	}

	return &result, nil
}

func (r *resultRepository) FindByUserID(ctx context.Context, userID string, page, limit int) ([]models.Result, int, error) {
	filter := bson.M{"userId": userID, "status": models.ResultComplete}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	skip := (page - 1) * limit

	opts := options.Find().
		SetSort(bson.D{{Key: "interviewDate", Value: -1}}).
		SetSkip(int64(skip)).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var results []models.Result
	if err := cursor.All(ctx, &results); err != nil {
		return nil, 0, err
	}

	if results == nil {
		results = []models.Result{}
	}

	return results, int(total), nil
}

func (r *resultRepository) Upsert(ctx context.Context, questionID primitive.ObjectID, userID string, update *models.ResultUpdate) (*models.Result, error) {
	now := time.Now()

	set := bson.M{
		"status":                models.ResultComplete,
		"transcript":            update.Transcript,
		"words":                 nonNil(update.Words),
		"fillerWords":           nonNil(update.FillerWords),
		"longPauses":            nonNil(update.LongPauses),
		"pauseDurationsSummary": update.PauseDurationsSummary,
		"aiFeedback":            update.AIFeedback,
		"score":                 update.Score,
		"audioKey":              update.AudioKey,
		"audioUrl":              update.AudioURL,
		"videoKey":              update.VideoKey,
		"videoUrl":              update.VideoURL,
		"interviewDate":         now,
		"updatedAt":             now,
	}
	if userID != "" {
		set["userId"] = userID
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var result models.Result
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"questionId": questionID},
		bson.M{
			"$set":         set,
			"$unset":       bson.M{"error": "", "failedStage": ""},
			"$setOnInsert": bson.M{"createdAt": now},
		},
		opts,
	).Decode(&result)
	if err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *resultRepository) ClaimForAnalysis(ctx context.Context, questionID primitive.ObjectID, mode models.RecordingMode, allowed ...models.ResultStatus) error {
	filter := bson.M{"questionId": questionID}
	if len(allowed) > 0 {
		filter["status"] = bson.M{"$in": allowed}
	}

	res, err := r.collection.UpdateOne(ctx, filter, bson.M{
		"$set": bson.M{
			"status":    models.ResultProcessing,
			"mode":      mode,
			"updatedAt": time.Now(),
		},
		"$unset": bson.M{"error": "", "failedStage": ""},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount > 0 {
		return nil
	}

	current, err := r.FindByQuestionID(ctx, questionID)
	if err != nil {
		return err
	}
	if current.Status == models.ResultProcessing {
		return apperrors.ErrAnalysisInProgress
	}
	return apperrors.ErrAnalysisNotFailed
}

func (r *resultRepository) MarkFailed(ctx context.Context, questionID primitive.ObjectID, stage apperrors.Stage, message string) error {
	res, err := r.collection.UpdateOne(ctx, bson.M{"questionId": questionID}, bson.M{
		"$set": bson.M{
			"status":      models.ResultFailed,
			"failedStage": string(stage),
			"error":       message,
			"updatedAt":   time.Now(),
		},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperrors.ErrResultNotFound
	}
	return nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
