// Command rehearse records one answer from the local microphone and prints the
// analysis. Questions and results are stored the same way the server stores them.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"cloud.google.com/go/vertexai/genai"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"google.golang.org/api/option"

	"mockai/internal/capture"
	"mockai/internal/config"
	"mockai/internal/database"
	apperrors "mockai/internal/errors"
	"mockai/internal/logger"
	"mockai/internal/models"
	"mockai/internal/orchestrator"
	"mockai/internal/question"
	"mockai/internal/repository"
	"mockai/internal/speech"
	"mockai/internal/storage"
	"mockai/internal/transcode"
	"mockai/internal/transcription"
)

func main() {
	var (
		userID     string
		questionID string
		name       string
		company    string
		position   string
		kind       string
		maxLen     time.Duration
	)

	flag.StringVar(&userID, "user", "local", "Owner of the question and result")
	flag.StringVar(&questionID, "question", "", "Answer an existing question (hex id) instead of generating one")
	flag.StringVar(&name, "name", "", "Candidate name")
	flag.StringVar(&company, "company", "", "Company interviewing")
	flag.StringVar(&position, "position", "", "Position applied for")
	flag.StringVar(&kind, "type", string(models.InterviewBehavioral), "Question type: behavioral|technical")
	flag.DurationVar(&maxLen, "max", 0, "Override RECORDING_MAX_DURATION")
	flag.Parse()

	cfg := config.Load()
	if maxLen > 0 {
		cfg.RecordingMaxDuration = maxLen
		if cfg.RecordingWarningAfter >= maxLen {
			cfg.RecordingWarningAfter = maxLen * 5 / 6
		}
	}
	log := logger.New(cfg.LogLevel)

	req := &models.GenerateQuestionRequest{
		CandidateName: strings.TrimSpace(name),
		Company:       strings.TrimSpace(company),
		Position:      strings.TrimSpace(position),
		QuestionType:  models.InterviewType(kind),
	}
	if questionID == "" {
		if req.CandidateName == "" || req.Company == "" || req.Position == "" || !req.QuestionType.Valid() {
			fmt.Fprintln(os.Stderr, "either -question or all of -name, -company, -position and a valid -type are required")
			flag.Usage()
			os.Exit(2)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rehearse(ctx, cfg, log, userID, questionID, req); err != nil {
		log.WithError(err).Fatal("Rehearsal failed")
	}
}

func rehearse(ctx context.Context, cfg *config.Config, log *logrus.Logger, userID, questionID string, req *models.GenerateQuestionRequest) error {
	mongoDB, err := database.NewMongoDB(ctx, cfg.MongoURI, cfg.MongoDatabase, log)
	if err != nil {
		return err
	}
	defer mongoDB.Close()

	store, closeStore, err := storage.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	var googleOpts []option.ClientOption
	if cfg.GoogleCredentialsFile != "" {
		googleOpts = append(googleOpts, option.WithCredentialsFile(cfg.GoogleCredentialsFile))
	}

	var (
		generator   question.Generator    = question.StaticGenerator{}
		transcriber transcription.Service = transcription.NewMockService()
		recognizer  speech.Recognizer     = speech.NopRecognizer{}
	)
	if cfg.GoogleProjectID != "" {
		client, err := genai.NewClient(ctx, cfg.GoogleProjectID, cfg.GoogleLocation, googleOpts...)
		if err != nil {
			return fmt.Errorf("failed to create Vertex AI client: %w", err)
		}
		defer client.Close()
		generator = question.NewGeminiGenerator(client, cfg.GeminiModel)
		transcriber = transcription.NewGeminiService(client, cfg.GeminiModel, log)
	}
	if cfg.SpeechEnabled {
		google, err := speech.NewGoogleRecognizer(ctx, cfg.SpeechLanguage, log, googleOpts...)
		if err != nil {
			return err
		}
		defer google.Close()
		recognizer = google
	}

	questions := repository.NewQuestionRepository(mongoDB.Database)
	results := repository.NewResultRepository(mongoDB.Database)

	q, err := loadQuestion(ctx, questions, results, generator, userID, questionID, req)
	if err != nil {
		return err
	}
	if err := results.ClaimForAnalysis(ctx, q.ID, models.ModeAudio,
		models.ResultPending, models.ResultFailed, models.ResultComplete); err != nil {
		return err
	}

	pipeline := orchestrator.NewPipeline(orchestrator.PipelineDeps{
		Extractor:       transcode.NewFFmpeg(cfg.FFmpegPath, log),
		Storage:         store,
		Transcriber:     transcriber,
		Results:         results,
		SignedURLExpiry: cfg.SignedURLExpiry,
		Logger:          log,
	})

	done := make(chan struct{})
	var (
		failure     error
		failedStage apperrors.Stage
	)
	session := orchestrator.NewSession(orchestrator.SessionOptions{
		Interview:    q.Context(),
		Device:       capture.NewMicrophoneDevice(log),
		Recognizer:   recognizer,
		Pipeline:     pipeline,
		WarningAfter: cfg.RecordingWarningAfter,
		MaxDuration:  cfg.RecordingMaxDuration,
		TempDir:      os.TempDir(),
		Logger:       log,
		OnStateChange: func(status models.SessionStatus) {
			fmt.Fprintf(os.Stderr, "[%s]\n", status)
		},
		OnWarning: func() {
			fmt.Fprintf(os.Stderr, "%s left\n", cfg.RecordingMaxDuration-cfg.RecordingWarningAfter)
		},
		OnTranscript: func(text string) {
			fmt.Fprintf(os.Stderr, "\r%s", text)
		},
		OnComplete: func(*models.ResultDisplay) { close(done) },
		OnFailure: func(stage apperrors.Stage, err error) {
			failure, failedStage = err, stage
			close(done)
		},
	})
	defer session.Close()

	fmt.Fprintf(os.Stderr, "\n%s\n\nRecording. Press Enter to stop.\n", q.QuestionText)
	if err := session.Start(ctx, models.ModeAudio); err != nil {
		_ = results.MarkFailed(ctx, q.ID, apperrors.StageCapture, err.Error())
		return err
	}

	go func() {
		_, _ = bufio.NewReader(os.Stdin).ReadString('\n')
		if err := session.Stop(); err != nil && !errors.Is(err, apperrors.ErrNotRecording) {
			log.WithError(err).Error("Failed to stop recording")
		}
	}()

	select {
	case <-ctx.Done():
		session.Cancel()
		_ = results.MarkFailed(context.Background(), q.ID, apperrors.StageCapture, "canceled")
		return ctx.Err()
	case <-done:
	}
	if failure != nil {
		if err := results.MarkFailed(ctx, q.ID, failedStage, failure.Error()); err != nil {
			log.WithError(err).Error("Failed to mark result as failed")
		}
		return fmt.Errorf("%s failed: %w", failedStage, failure)
	}

	result := session.Result()
	result.InterviewerQuestion = q.QuestionText
	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func loadQuestion(ctx context.Context, questions repository.QuestionRepository, results repository.ResultRepository,
	generator question.Generator, userID, questionID string, req *models.GenerateQuestionRequest) (*models.Question, error) {
	if questionID != "" {
		id, err := primitive.ObjectIDFromHex(questionID)
		if err != nil {
			return nil, fmt.Errorf("invalid question id %q: %w", questionID, err)
		}
		q, err := questions.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if q.UserID != userID {
			return nil, apperrors.ErrQuestionUnauthorized
		}
		return q, nil
	}

	text, err := generator.Generate(ctx, req)
	if err != nil {
		return nil, err
	}
	q := &models.Question{
		UserID:        userID,
		QuestionText:  text,
		CandidateName: req.CandidateName,
		Company:       req.Company,
		Position:      req.Position,
		InterviewType: req.QuestionType,
	}
	if err := questions.Create(ctx, q); err != nil {
		return nil, err
	}
	if err := results.Create(ctx, &models.Result{QuestionID: q.ID, UserID: userID}); err != nil {
		return nil, err
	}
	return q, nil
}
