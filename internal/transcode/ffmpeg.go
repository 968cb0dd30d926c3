// Package transcode extracts the audio track from recorded video.
package transcode

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/sirupsen/logrus"

	apperrors "mockai/internal/errors"
	"mockai/internal/models"
)

// AudioMIMEType is the type of every extracted blob.
const AudioMIMEType = "audio/mpeg"

// Extractor turns a video blob into an audio-only blob.
type Extractor interface {
	ExtractAudio(ctx context.Context, video *models.Blob) (*models.Blob, error)
}

// commandRunner runs one process with stdin attached.
type commandRunner interface {
	Run(ctx context.Context, stdin io.Reader, name string, args ...string) (stdout []byte, stderr string, err error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, stdin io.Reader, name string, args ...string) ([]byte, string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdin = stdin
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.Bytes(), stderr.String(), err
}

// FFmpeg extracts mono 16 kHz MP3 audio by piping the blob through ffmpeg.
type FFmpeg struct {
	path   string
	runner commandRunner
	log    logrus.FieldLogger
}

// NewFFmpeg creates an extractor running the ffmpeg binary at path.
func NewFFmpeg(path string, log logrus.FieldLogger) *FFmpeg {
	if path == "" {
		path = "ffmpeg"
	}
	return &FFmpeg{path: path, runner: execRunner{}, log: log}
}

// Args returns the ffmpeg arguments used for extraction.
func Args() []string {
	return []string{
		"-hide_banner", "-loglevel", "error",
		"-i", "pipe:0",
		"-vn",
		"-acodec", "libmp3lame",
		"-ac", "1",
		"-ar", "16000",
		"-f", "mp3",
		"pipe:1",
	}
}

// ExtractAudio implements Extractor. The process is killed when ctx is canceled.
func (f *FFmpeg) ExtractAudio(ctx context.Context, video *models.Blob) (*models.Blob, error) {
	if video.Size() == 0 {
		return nil, apperrors.NewStageError(apperrors.StageExtract, apperrors.ErrTranscode, errors.New("empty video recording"))
	}

	out, stderr, err := f.runner.Run(ctx, bytes.NewReader(video.Data), f.path, Args()...)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		f.log.WithError(err).WithField("stderr", strings.TrimSpace(stderr)).Warn("audio extraction failed")

		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			err = fmt.Errorf("ffmpeg exited with status %d", exitErr.ExitCode())
		}
		return nil, apperrors.NewStageError(apperrors.StageExtract, apperrors.ErrTranscode, err)
	}
	if len(out) == 0 {
		return nil, apperrors.NewStageError(apperrors.StageExtract, apperrors.ErrTranscode, errors.New("recording has no audio track"))
	}

	f.log.WithFields(logrus.Fields{"videoBytes": video.Size(), "audioBytes": len(out)}).Debug("audio extracted")
	return &models.Blob{Data: out, MIMEType: AudioMIMEType}, nil
}
