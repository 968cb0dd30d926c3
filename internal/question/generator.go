// Package question generates interview questions.
package question

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/vertexai/genai"

	apperrors "mockai/internal/errors"
	"mockai/internal/models"
)

// Generator produces the text of one interview question.
type Generator interface {
	Generate(ctx context.Context, req *models.GenerateQuestionRequest) (string, error)
}

// contentGenerator is satisfied by *genai.GenerativeModel.
type contentGenerator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// GeminiGenerator asks a Gemini model for a concise question.
type GeminiGenerator struct {
	model contentGenerator
}

// NewGeminiGenerator configures modelName on client.
func NewGeminiGenerator(client *genai.Client, modelName string) *GeminiGenerator {
	m := client.GenerativeModel(modelName)
	m.SystemInstruction = &genai.Content{Parts: []genai.Part{
		genai.Text("You are an experienced interviewer who asks concise job interview questions. Reply with the question only."),
	}}
	return &GeminiGenerator{model: m}
}

// Generate implements Generator.
func (g *GeminiGenerator) Generate(ctx context.Context, req *models.GenerateQuestionRequest) (string, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(Prompt(req)))
	if err != nil {
		return "", fmt.Errorf("%w: %w", apperrors.ErrQuestionGeneration, err)
	}

	var b strings.Builder
	if resp != nil && len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			if t, ok := part.(genai.Text); ok {
				b.WriteString(string(t))
			}
		}
	}

	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", fmt.Errorf("%w: %w", apperrors.ErrQuestionGeneration, errors.New("empty response"))
	}
	return text, nil
}

// Prompt returns the generation prompt for the requested interview type.
func Prompt(req *models.GenerateQuestionRequest) string {
	if req.QuestionType == models.InterviewBehavioral {
		return fmt.Sprintf("As a behavioral interviewer for the %s position at %s, generate a behavioral interview "+
			"question that assesses the candidate's experiences, soft skills and alignment with company culture.",
			req.Position, req.Company)
	}
	return fmt.Sprintf("As a technical interviewer for the %s position at %s, generate a technical interview "+
		"question that assesses the candidate's knowledge and problem-solving skills.",
		req.Position, req.Company)
}

// StaticGenerator returns canned questions, for development without Vertex AI.
type StaticGenerator struct{}

// Generate implements Generator.
func (StaticGenerator) Generate(_ context.Context, req *models.GenerateQuestionRequest) (string, error) {
	if req.QuestionType == models.InterviewBehavioral {
		return fmt.Sprintf("Tell me about a time at a previous job when you had to resolve a disagreement. "+
			"How would that experience help you as a %s at %s?", req.Position, req.Company), nil
	}
	return fmt.Sprintf("How would you design a rate limiter for the public API of %s, and what trade-offs "+
		"would you weigh as a %s?", req.Company, req.Position), nil
}
