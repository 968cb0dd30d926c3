// Package errors provides custom error types for the application.
package errors

import (
	"errors"
	"fmt"
)

// Recording pipeline errors
var (
	ErrMediaAccess     = errors.New("media device access failed")
	ErrTranscode       = errors.New("audio extraction failed")
	ErrUpload          = errors.New("recording upload failed")
	ErrTranscription   = errors.New("transcription analysis failed")
	ErrMalformedResult = errors.New("transcription result is missing required fields")
	ErrResultStore     = errors.New("failed to persist interview result")
)

// Session errors
var (
	ErrAlreadyRecording = errors.New("a recording is already in progress")
	ErrNotRecording     = errors.New("no recording in progress")
	ErrSessionBusy      = errors.New("session is processing a recording")
	ErrNothingToRetry   = errors.New("session has no failed recording to retry")
	ErrUnsupportedMode  = errors.New("recording mode is not supported by this device")
	ErrInvalidMode      = errors.New("invalid recording mode, must be audio or video")
)

// Interview errors
var (
	ErrQuestionNotFound     = errors.New("question not found")
	ErrResultNotFound       = errors.New("result not found")
	ErrQuestionUnauthorized = errors.New("you can only access your own interview questions")
	ErrQuestionGeneration   = errors.New("failed to generate interview question")
	ErrAnalysisQueueFull    = errors.New("analysis queue is full, please try again later")
	ErrAnalysisInProgress   = errors.New("analysis is already in progress for this question")
	ErrAnalysisNotFailed    = errors.New("only failed analyses can be retried")
)

// Auth errors
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidToken = errors.New("invalid token")
)

// Stage names a step of the post-recording pipeline.
type Stage string

const (
	StageCapture    Stage = "capture"
	StageExtract    Stage = "extract"
	StageUpload     Stage = "upload"
	StageTranscribe Stage = "transcribe"
	StageReconcile  Stage = "reconcile"
	StagePersist    Stage = "persist"
)

// StageError records which pipeline stage failed. The wrapped error carries
// one of the sentinel errors above so callers can match with errors.Is.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// NewStageError wraps cause with kind and tags it with stage.
func NewStageError(stage Stage, kind, cause error) *StageError {
	if cause == nil {
		return &StageError{Stage: stage, Err: kind}
	}
	if errors.Is(cause, kind) {
		return &StageError{Stage: stage, Err: cause}
	}
	return &StageError{Stage: stage, Err: fmt.Errorf("%w: %w", kind, cause)}
}

// StageOf returns the failing stage recorded in err, if any.
func StageOf(err error) (Stage, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage, true
	}
	return "", false
}
