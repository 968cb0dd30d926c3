// Package mocks provides mock implementations of service interfaces for testing.
package mocks

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"mockai/internal/capture"
	"mockai/internal/models"
	"mockai/internal/orchestrator"
)

// MockInterviewService is a mock implementation of InterviewServicer.
type MockInterviewService struct {
	GenerateQuestionFunc func(ctx context.Context, userID string, req *models.GenerateQuestionRequest) (*models.Question, error)
	GetQuestionFunc      func(ctx context.Context, userID string, questionID primitive.ObjectID) (*models.Question, error)
	GetResultFunc        func(ctx context.Context, userID string, questionID primitive.ObjectID) (*models.ResultDisplay, error)
	ListResultsFunc      func(ctx context.Context, userID string, page, limit int) (*models.ResultListResponse, error)
}

func (m *MockInterviewService) GenerateQuestion(ctx context.Context, userID string, req *models.GenerateQuestionRequest) (*models.Question, error) {
	if m.GenerateQuestionFunc != nil {
		return m.GenerateQuestionFunc(ctx, userID, req)
	}
	return nil, nil
}

func (m *MockInterviewService) GetQuestion(ctx context.Context, userID string, questionID primitive.ObjectID) (*models.Question, error) {
	if m.GetQuestionFunc != nil {
		return m.GetQuestionFunc(ctx, userID, questionID)
	}
	return nil, nil
}

func (m *MockInterviewService) GetResult(ctx context.Context, userID string, questionID primitive.ObjectID) (*models.ResultDisplay, error) {
	if m.GetResultFunc != nil {
		return m.GetResultFunc(ctx, userID, questionID)
	}
	return nil, nil
}

func (m *MockInterviewService) ListResults(ctx context.Context, userID string, page, limit int) (*models.ResultListResponse, error) {
	if m.ListResultsFunc != nil {
		return m.ListResultsFunc(ctx, userID, page, limit)
	}
	return nil, nil
}

// MockRecordingService is a mock implementation of RecordingServicer.
type MockRecordingService struct {
	SubmitRecordingFunc func(ctx context.Context, userID string, questionID primitive.ObjectID, mode models.RecordingMode, media *models.Blob) error
	RetryAnalysisFunc   func(ctx context.Context, userID string, questionID primitive.ObjectID) error
}

func (m *MockRecordingService) SubmitRecording(ctx context.Context, userID string, questionID primitive.ObjectID, mode models.RecordingMode, media *models.Blob) error {
	if m.SubmitRecordingFunc != nil {
		return m.SubmitRecordingFunc(ctx, userID, questionID, mode, media)
	}
	return nil
}

func (m *MockRecordingService) RetryAnalysis(ctx context.Context, userID string, questionID primitive.ObjectID) error {
	if m.RetryAnalysisFunc != nil {
		return m.RetryAnalysisFunc(ctx, userID, questionID)
	}
	return nil
}

// MockSessionService is a mock implementation of SessionServicer.
type MockSessionService struct {
	OpenSessionFunc func(ctx context.Context, userID string, questionID primitive.ObjectID, device capture.Device, hooks orchestrator.SessionOptions) (*orchestrator.Session, error)
}

func (m *MockSessionService) OpenSession(ctx context.Context, userID string, questionID primitive.ObjectID, device capture.Device, hooks orchestrator.SessionOptions) (*orchestrator.Session, error) {
	if m.OpenSessionFunc != nil {
		return m.OpenSessionFunc(ctx, userID, questionID, device, hooks)
	}
	return nil, nil
}
