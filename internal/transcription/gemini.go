package transcription

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/vertexai/genai"
	"github.com/sirupsen/logrus"

	apperrors "mockai/internal/errors"
	"mockai/internal/models"
)

const systemInstruction = `You review recorded interview answers for MockAI.
Transcribe only the words actually spoken, with start and end times in seconds for every word.
Count the filler words um, uh, like, you know and so. Report every silence longer than five seconds in pause_durations.
Judge clarity, relevance, problem solving and professionalism. Behavioral answers should follow the STAR method and last two to three minutes; technical answers should be accurate and last one to two minutes.
Give specific, encouraging feedback with actionable tips, a score from 0 to 100, and positive, negative and neutral sentiment scores that sum to 100.
Repeat the interviewer question exactly as given.`

// contentGenerator is satisfied by *genai.GenerativeModel.
type contentGenerator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// GeminiService analyses answers with a Gemini model on Vertex AI.
type GeminiService struct {
	model contentGenerator
	log   logrus.FieldLogger
}

// NewGeminiService configures modelName on client for structured analysis.
func NewGeminiService(client *genai.Client, modelName string, log logrus.FieldLogger) *GeminiService {
	m := client.GenerativeModel(modelName)
	m.SetTemperature(1)
	m.SetTopP(0.9)
	m.SetTopK(40)
	m.SetMaxOutputTokens(8192)
	m.ResponseMIMEType = "application/json"
	m.ResponseSchema = Schema()
	m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(systemInstruction)}}

	return &GeminiService{model: m, log: log}
}

// Analyze implements Service.
func (s *GeminiService) Analyze(ctx context.Context, req Request) (*models.RawTranscription, error) {
	media, err := mediaPart(req)
	if err != nil {
		return nil, transcriptionError(err)
	}

	resp, err := s.model.GenerateContent(ctx, genai.Text(Prompt(req.Interview)), media)
	if err != nil {
		s.log.WithError(err).WithField("questionId", req.Interview.QuestionID).Warn("gemini analysis failed")
		return nil, transcriptionError(err)
	}

	text := responseText(resp)
	if text == "" {
		return nil, transcriptionError(errors.New("empty response"))
	}

	var raw models.RawTranscription
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, transcriptionError(fmt.Errorf("invalid JSON response: %w", err))
	}

	return &raw, nil
}

// Prompt builds the per-answer instructions.
func Prompt(ic models.InterviewContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "As a senior %s interviewer at %s, evaluate this candidate's recorded answer.\n", ic.Position, ic.Company)
	fmt.Fprintf(&b, "Candidate: %s\n", ic.CandidateName)
	fmt.Fprintf(&b, "Question type: %s\n", ic.QuestionType)
	fmt.Fprintf(&b, "Question: %q\n\n", ic.QuestionText)
	b.WriteString("Transcribe the audio, then give feedback as in a real interview: the strengths shown, ")
	b.WriteString("specific areas to improve, what a strong answer to this question looks like for the role, ")
	b.WriteString("and the key action items for the next interview.")
	return b.String()
}

func mediaPart(req Request) (genai.Part, error) {
	mime := "audio/mpeg"
	if req.Audio != nil && req.Audio.MIMEType != "" {
		mime = req.Audio.MIMEType
	}
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}

	if strings.HasPrefix(req.MediaURI, "gs://") {
		return genai.FileData{MIMEType: mime, FileURI: req.MediaURI}, nil
	}
	if req.Audio.Size() > 0 {
		return genai.Blob{MIMEType: mime, Data: req.Audio.Data}, nil
	}
	return nil, errors.New("no audio to analyse")
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				b.WriteString(string(t))
			}
		}
		if b.Len() > 0 {
			break
		}
	}
	return b.String()
}

func transcriptionError(err error) error {
	return apperrors.NewStageError(apperrors.StageTranscribe, apperrors.ErrTranscription, err)
}
