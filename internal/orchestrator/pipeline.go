// Package orchestrator runs a recording session from capture to a stored,
// display-ready result.
package orchestrator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	apperrors "mockai/internal/errors"
	"mockai/internal/models"
	"mockai/internal/reconcile"
	"mockai/internal/storage"
	"mockai/internal/transcode"
	"mockai/internal/transcription"
)

// DefaultSignedURLExpiry is how long retrieval URLs of uploaded assets stay valid.
const DefaultSignedURLExpiry = 4 * time.Hour

// ResultStore persists completed analyses, one per question.
type ResultStore interface {
	Upsert(ctx context.Context, questionID primitive.ObjectID, userID string, update *models.ResultUpdate) (*models.Result, error)
}

// Job is one finalized recording to process.
type Job struct {
	Mode      models.RecordingMode
	Media     *models.Blob
	Interview models.InterviewContext
	// Audio is the audio track already extracted from a video Media by an
	// earlier run. When set, extraction is skipped.
	Audio *models.Blob
	// OnAudio, if set, receives the audio track once it is extracted.
	OnAudio func(audio *models.Blob)
}

// Runner processes a finalized recording.
type Runner interface {
	Run(ctx context.Context, job Job, progress func(models.SessionStatus)) (*models.ResultDisplay, error)
}

// PipelineDeps are the collaborators of a Pipeline.
type PipelineDeps struct {
	Extractor       transcode.Extractor
	Storage         storage.Storage
	Transcriber     transcription.Service
	Results         ResultStore
	SignedURLExpiry time.Duration
	Logger          logrus.FieldLogger
}

// Pipeline extracts, uploads, transcribes, reconciles and stores a recording.
type Pipeline struct {
	extractor   transcode.Extractor
	storage     storage.Storage
	transcriber transcription.Service
	results     ResultStore
	urlExpiry   time.Duration
	log         logrus.FieldLogger
}

var _ Runner = (*Pipeline)(nil)

// NewPipeline creates a Pipeline.
func NewPipeline(deps PipelineDeps) *Pipeline {
	if deps.SignedURLExpiry <= 0 {
		deps.SignedURLExpiry = DefaultSignedURLExpiry
	}
	log := deps.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Pipeline{
		extractor:   deps.Extractor,
		storage:     deps.Storage,
		transcriber: deps.Transcriber,
		results:     deps.Results,
		urlExpiry:   deps.SignedURLExpiry,
		log:         log,
	}
}

type asset struct {
	kind string
	blob *models.Blob
	key  string
	url  string
}

// Run processes job. progress, if set, is told about every state entered.
// Every failure is a *apperrors.StageError naming the stage that failed.
func (p *Pipeline) Run(ctx context.Context, job Job, progress func(models.SessionStatus)) (*models.ResultDisplay, error) {
	if progress == nil {
		progress = func(models.SessionStatus) {}
	}
	ic := job.Interview
	log := p.log.WithFields(logrus.Fields{"questionId": ic.QuestionID, "mode": job.Mode})

	questionID, err := primitive.ObjectIDFromHex(ic.QuestionID)
	if err != nil {
		log.WithError(err).Error("invalid question id")
		return nil, apperrors.NewStageError(apperrors.StagePersist, apperrors.ErrResultStore, fmt.Errorf("%w: %q", apperrors.ErrQuestionNotFound, ic.QuestionID))
	}

	if job.Media.Size() == 0 {
		log.Error("no media to process")
		return nil, apperrors.NewStageError(apperrors.StageCapture, apperrors.ErrMediaAccess, errors.New("empty recording"))
	}

	audio := job.Media
	switch job.Mode {
	case models.ModeVideo:
		if job.Audio.Size() > 0 {
			log.WithField("bytes", job.Audio.Size()).Info("reusing extracted audio")
			audio = job.Audio
			break
		}
		progress(models.StatusExtracting)
		log.WithField("bytes", job.Media.Size()).Info("extracting audio")
		audio, err = p.extractor.ExtractAudio(ctx, job.Media)
		if err != nil {
			log.WithError(err).Error("audio extraction failed")
			return nil, stageError(apperrors.StageExtract, apperrors.ErrTranscode, err)
		}
		if audio.Size() == 0 {
			log.Error("audio extraction produced no data")
			return nil, apperrors.NewStageError(apperrors.StageExtract, apperrors.ErrTranscode, errors.New("empty audio"))
		}
		if job.OnAudio != nil {
			job.OnAudio(audio)
		}
	case models.ModeAudio:
	default:
		return nil, apperrors.NewStageError(apperrors.StageCapture, apperrors.ErrInvalidMode, fmt.Errorf("mode %q", job.Mode))
	}

	assets := []*asset{{kind: storage.AssetAudio, blob: audio}}
	if job.Mode == models.ModeVideo {
		assets = append(assets, &asset{kind: storage.AssetVideo, blob: job.Media})
	}

	progress(models.StatusUploading)
	for _, a := range assets {
		if err := ctx.Err(); err != nil {
			return nil, apperrors.NewStageError(apperrors.StageUpload, apperrors.ErrUpload, err)
		}
		a.key = storage.ObjectKey(ic.UserID, ic.QuestionID, a.kind, a.blob.Extension())
		if err := p.storage.PutObject(ctx, a.key, bytes.NewReader(a.blob.Data), a.blob.MIMEType); err != nil {
			log.WithError(err).WithField("key", a.key).Error("upload failed")
			return nil, apperrors.NewStageError(apperrors.StageUpload, apperrors.ErrUpload, err)
		}
		log.WithFields(logrus.Fields{"key": a.key, "bytes": a.blob.Size()}).Info("asset uploaded")
	}
	for _, a := range assets {
		a.url, err = p.storage.GetPresignedURL(ctx, a.key, p.urlExpiry)
		if err != nil {
			log.WithError(err).WithField("key", a.key).Error("signing retrieval url failed")
			return nil, apperrors.NewStageError(apperrors.StageUpload, apperrors.ErrUpload, err)
		}
	}

	progress(models.StatusTranscribing)
	raw, err := p.transcriber.Analyze(ctx, transcription.Request{
		MediaURI:  p.storage.ObjectURI(assets[0].key),
		Audio:     audio,
		Interview: ic,
	})
	if err != nil {
		log.WithError(err).Error("transcription failed")
		return nil, stageError(apperrors.StageTranscribe, apperrors.ErrTranscription, err)
	}

	display, err := reconcile.Reconcile(ic.QuestionID, raw)
	if err != nil {
		log.WithError(err).Error("transcription result malformed")
		return nil, stageError(apperrors.StageReconcile, apperrors.ErrMalformedResult, err)
	}
	if display.InterviewerQuestion == "" {
		display.InterviewerQuestion = ic.QuestionText
	}

	update := &models.ResultUpdate{
		Transcript:            display.Transcript,
		Words:                 display.Words,
		FillerWords:           reconcile.FillerWords(display.FillerWordCounts),
		LongPauses:            display.LongPauses,
		PauseDurationsSummary: display.PauseSummary,
		AIFeedback:            display.Feedback,
		Score:                 display.Score,
	}
	for _, a := range assets {
		switch a.kind {
		case storage.AssetAudio:
			update.AudioKey, update.AudioURL = a.key, a.url
			display.AudioURL = a.url
		case storage.AssetVideo:
			update.VideoKey, update.VideoURL = a.key, a.url
			display.VideoURL = a.url
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewStageError(apperrors.StagePersist, apperrors.ErrResultStore, err)
	}
	if _, err := p.results.Upsert(ctx, questionID, ic.UserID, update); err != nil {
		log.WithError(err).Error("storing result failed")
		return nil, apperrors.NewStageError(apperrors.StagePersist, apperrors.ErrResultStore, err)
	}

	log.WithField("score", display.Score).Info("analysis complete")
	return display, nil
}

// stageError keeps an error that already names its stage and tags anything else.
func stageError(stage apperrors.Stage, kind, err error) error {
	if _, ok := apperrors.StageOf(err); ok {
		return err
	}
	return apperrors.NewStageError(stage, kind, err)
}
