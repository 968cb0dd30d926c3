// Package repository provides data access operations for the application.
package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	apperrors "mockai/internal/errors"
	"mockai/internal/models"
)

//go:generate mockgen -destination=mocks/mock_repository.go -package=mocks mockai/internal/repository QuestionRepository,ResultRepository

// Collection names.
const (
	QuestionsCollection = "questions"
	ResultsCollection   = "results"
)

// QuestionRepository defines the interface for question data operations
type QuestionRepository interface {
	Create(ctx context.Context, question *models.Question) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Question, error)
}

type questionRepository struct {
	collection *mongo.Collection
}

// NewQuestionRepository creates a new QuestionRepository
func NewQuestionRepository(db *mongo.Database) QuestionRepository {
	return &questionRepository{
		collection: db.Collection(QuestionsCollection),
	}
}

// Create inserts a new question
func (r *questionRepository) Create(ctx context.Context, question *models.Question) error {
	if question.ID.IsZero() {
		question.ID = primitive.NewObjectID()
	}
	question.CreatedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, question)
	return err
}

// FindByID finds a question by its ID
func (r *questionRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Question, error) {
	var question models.Question

	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&question)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.ErrQuestionNotFound
		}
		return nil, err
	}

	return &question, nil
}
