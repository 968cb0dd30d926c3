// Package models defines data structures for the application.
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// InterviewType selects the flavour of generated question.
type InterviewType string

const (
	// InterviewBehavioral questions assess experiences, soft skills and culture fit.
	InterviewBehavioral InterviewType = "behavioral"
	// InterviewTechnical questions assess knowledge and problem solving.
	InterviewTechnical InterviewType = "technical"
)

// Valid reports whether t is a known interview type.
func (t InterviewType) Valid() bool {
	return t == InterviewBehavioral || t == InterviewTechnical
}

// Question is a generated interview question owned by a user.
type Question struct {
	ID            primitive.ObjectID `json:"id" bson:"_id,omitempty" example:"507f1f77bcf86cd799439011"`
	UserID        string             `json:"userId" bson:"userId" example:"507f1f77bcf86cd799439012"`
	QuestionText  string             `json:"questionText" bson:"questionText" example:"Tell me about a time you disagreed with a teammate."`
	CandidateName string             `json:"candidateName" bson:"candidateName" example:"Ada"`
	Company       string             `json:"company" bson:"company" example:"Acme"`
	Position      string             `json:"position" bson:"position" example:"Backend Engineer"`
	InterviewType InterviewType      `json:"interviewType" bson:"interviewType" example:"behavioral"`
	CreatedAt     time.Time          `json:"createdAt" bson:"createdAt"`
}

// Context returns the read-only interview context a recording session runs with.
func (q *Question) Context() InterviewContext {
	return InterviewContext{
		UserID:        q.UserID,
		CandidateName: q.CandidateName,
		Company:       q.Company,
		Position:      q.Position,
		QuestionType:  q.InterviewType,
		QuestionID:    q.ID.Hex(),
		QuestionText:  q.QuestionText,
	}
}

// InterviewContext is supplied before recording starts and never changes during a session.
type InterviewContext struct {
	UserID        string
	CandidateName string
	Company       string
	Position      string
	QuestionType  InterviewType
	QuestionID    string
	QuestionText  string
}

// GenerateQuestionRequest is the request body for generating a question.
type GenerateQuestionRequest struct {
	CandidateName string        `json:"candidateName" binding:"required,min=1,max=100" example:"Ada"`
	Company       string        `json:"company" binding:"required,min=1,max=100" example:"Acme"`
	Position      string        `json:"position" binding:"required,min=1,max=100" example:"Backend Engineer"`
	QuestionType  InterviewType `json:"questionType" binding:"required,interviewtype" example:"technical"`
}

// GenerateQuestionResponse is the response for a generated question.
type GenerateQuestionResponse struct {
	Question Question `json:"question"`
}
