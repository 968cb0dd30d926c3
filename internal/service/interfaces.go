// Package service contains business logic for the application.
package service

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"mockai/internal/capture"
	"mockai/internal/models"
	"mockai/internal/orchestrator"
)

// InterviewServicer defines the interface for question and result operations.
type InterviewServicer interface {
	GenerateQuestion(ctx context.Context, userID string, req *models.GenerateQuestionRequest) (*models.Question, error)
	GetQuestion(ctx context.Context, userID string, questionID primitive.ObjectID) (*models.Question, error)
	GetResult(ctx context.Context, userID string, questionID primitive.ObjectID) (*models.ResultDisplay, error)
	ListResults(ctx context.Context, userID string, page, limit int) (*models.ResultListResponse, error)
}

// RecordingServicer defines the interface for analysing uploaded recordings.
type RecordingServicer interface {
	SubmitRecording(ctx context.Context, userID string, questionID primitive.ObjectID, mode models.RecordingMode, media *models.Blob) error
	RetryAnalysis(ctx context.Context, userID string, questionID primitive.ObjectID) error
}

// SessionServicer opens live recording sessions.
type SessionServicer interface {
	OpenSession(ctx context.Context, userID string, questionID primitive.ObjectID, device capture.Device, hooks orchestrator.SessionOptions) (*orchestrator.Session, error)
}

var (
	_ InterviewServicer = (*InterviewService)(nil)
	_ RecordingServicer = (*RecordingService)(nil)
	_ SessionServicer   = (*SessionService)(nil)
)
