package errors

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPipelineErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"ErrMediaAccess", ErrMediaAccess, "media device access failed"},
		{"ErrTranscode", ErrTranscode, "audio extraction failed"},
		{"ErrUpload", ErrUpload, "recording upload failed"},
		{"ErrTranscription", ErrTranscription, "transcription analysis failed"},
		{"ErrMalformedResult", ErrMalformedResult, "transcription result is missing required fields"},
		{"ErrResultStore", ErrResultStore, "failed to persist interview result"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestInterviewErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"ErrQuestionNotFound", ErrQuestionNotFound, "question not found"},
		{"ErrResultNotFound", ErrResultNotFound, "result not found"},
		{"ErrAnalysisQueueFull", ErrAnalysisQueueFull, "analysis queue is full, please try again later"},
		{"ErrAnalysisNotFailed", ErrAnalysisNotFailed, "only failed analyses can be retried"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestNewStageError(t *testing.T) {
	t.Run("wraps cause with kind", func(t *testing.T) {
		cause := errors.New("ffmpeg exited with status 1")

		err := NewStageError(StageExtract, ErrTranscode, cause)

		assert.ErrorIs(t, err, ErrTranscode)
		assert.ErrorIs(t, err, cause)
		assert.Equal(t, StageExtract, err.Stage)
		assert.Equal(t, "extract stage: audio extraction failed: ffmpeg exited with status 1", err.Error())
	})

	t.Run("does not double wrap a cause that already matches kind", func(t *testing.T) {
		err := NewStageError(StageTranscribe, ErrTranscription, ErrTranscription)

		assert.Equal(t, "transcribe stage: transcription analysis failed", err.Error())
	})

	t.Run("uses kind when cause is nil", func(t *testing.T) {
		err := NewStageError(StageUpload, ErrUpload, nil)

		assert.ErrorIs(t, err, ErrUpload)
	})

	t.Run("keeps context errors matchable", func(t *testing.T) {
		err := NewStageError(StageUpload, ErrUpload, context.Canceled)

		assert.ErrorIs(t, err, context.Canceled)
		assert.ErrorIs(t, err, ErrUpload)
	})
}

func TestStageOf(t *testing.T) {
	t.Run("finds stage through wrapping", func(t *testing.T) {
		err := NewStageError(StagePersist, ErrResultStore, errors.New("connection reset"))
		wrapped := errors.Join(errors.New("session failed"), err)

		stage, ok := StageOf(wrapped)

		assert.True(t, ok)
		assert.Equal(t, StagePersist, stage)
	})

	t.Run("returns false for plain errors", func(t *testing.T) {
		_, ok := StageOf(ErrUpload)

		assert.False(t, ok)
	})
}
