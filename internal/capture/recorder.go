package capture

import (
	"bytes"
	"context"
	"errors"
	"net/url"
	"os"
	"sync"

	"github.com/sirupsen/logrus"

	apperrors "mockai/internal/errors"
	"mockai/internal/models"
)

var (
	// ErrNoRecording is returned when a preview is requested before a recording was finalized.
	ErrNoRecording = errors.New("no finalized recording")
	// ErrDiscarded is returned by StopRecording when the take was discarded while it was being finalized.
	ErrDiscarded = errors.New("recording discarded while stopping")
)

// RecorderOptions configures a Recorder.
type RecorderOptions struct {
	// OnChunk observes every chunk as it is buffered, e.g. to feed live captions.
	OnChunk func(chunk []byte)
	// TempDir holds preview files. Empty means os.TempDir().
	TempDir string
	Logger  logrus.FieldLogger
}

// take is one recording: its stream and the chunks buffered from it.
type take struct {
	gen    uint64
	stream Stream
	buf    bytes.Buffer
	done   chan struct{}
}

// Recorder buffers chunks from a device stream and finalizes them into a blob on stop.
type Recorder struct {
	device Device
	opts   RecorderOptions
	log    logrus.FieldLogger

	mu sync.Mutex
	// gen moves on every start and discard; a finalized take is kept only
	// if nothing happened to the recorder while it drained.
	gen     uint64
	current *take
	blob    *models.Blob
	preview string
}

// NewRecorder creates a Recorder reading from device.
func NewRecorder(device Device, opts RecorderOptions) *Recorder {
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Recorder{device: device, opts: opts, log: log}
}

// StartRecording acquires the device for mode and starts buffering.
// A device failure is returned as ErrMediaAccess and leaves the recorder as it was.
func (r *Recorder) StartRecording(ctx context.Context, mode models.RecordingMode) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current != nil {
		return apperrors.ErrAlreadyRecording
	}

	stream, err := r.device.Open(ctx, ConstraintsFor(mode))
	if err != nil {
		r.log.WithError(err).WithField("mode", mode).Warn("media device unavailable")
		return apperrors.NewStageError(apperrors.StageCapture, apperrors.ErrMediaAccess, err)
	}

	r.revokePreviewLocked()
	r.blob = nil

	r.gen++
	t := &take{gen: r.gen, stream: stream, done: make(chan struct{})}
	r.current = t
	go r.collect(t)

	r.log.WithFields(logrus.Fields{"mode": mode, "mimeType": stream.MIMEType()}).Debug("recording started")
	return nil
}

func (r *Recorder) collect(t *take) {
	defer close(t.done)
	for chunk := range t.stream.Chunks() {
		t.buf.Write(chunk)
		if r.opts.OnChunk != nil {
			r.opts.OnChunk(chunk)
		}
	}
}

// StopRecording releases the device and returns the finalized blob.
func (r *Recorder) StopRecording() (*models.Blob, error) {
	r.mu.Lock()
	t := r.current
	r.current = nil
	r.mu.Unlock()

	if t == nil {
		return nil, apperrors.ErrNotRecording
	}

	t.stream.Stop()
	<-t.done

	data := t.buf.Bytes()
	if f, ok := t.stream.(Finalizer); ok {
		data = f.Finalize(data)
	}
	blob := &models.Blob{Data: data, MIMEType: t.stream.MIMEType()}

	r.mu.Lock()
	if r.gen != t.gen {
		r.mu.Unlock()
		r.log.Debug("finalized recording dropped by discard")
		return nil, ErrDiscarded
	}
	r.blob = blob
	r.mu.Unlock()

	r.log.WithFields(logrus.Fields{"bytes": blob.Size(), "mimeType": blob.MIMEType}).Debug("recording finalized")
	return blob, nil
}

// Discard releases the device if held and drops any buffered or finalized media.
// It is safe to call at any time.
func (r *Recorder) Discard() {
	r.mu.Lock()
	t := r.current
	r.current = nil
	r.gen++
	r.blob = nil
	r.revokePreviewLocked()
	r.mu.Unlock()

	if t != nil {
		t.stream.Stop()
		<-t.done
		r.log.Debug("recording discarded")
	}
}

// MIMEType returns the MIME type of the held stream, or "" when idle.
func (r *Recorder) MIMEType() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == nil {
		return ""
	}
	return r.current.stream.MIMEType()
}

// Recording reports whether a device stream is held.
func (r *Recorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current != nil
}

// Blob returns the last finalized recording, if any.
func (r *Recorder) Blob() *models.Blob {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.blob
}

// PreviewURL returns a local URL for playing back the finalized recording.
// The file stays on disk until RevokePreview, Discard or the next recording.
func (r *Recorder) PreviewURL() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.blob == nil {
		return "", ErrNoRecording
	}
	if r.preview != "" {
		return fileURL(r.preview), nil
	}

	f, err := os.CreateTemp(r.opts.TempDir, "mockai-preview-*."+r.blob.Extension())
	if err != nil {
		return "", err
	}
	if _, err := f.Write(r.blob.Data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}

	r.preview = f.Name()
	return fileURL(r.preview), nil
}

// RevokePreview deletes the preview file.
func (r *Recorder) RevokePreview() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.revokePreviewLocked()
}

func (r *Recorder) revokePreviewLocked() {
	if r.preview == "" {
		return
	}
	if err := os.Remove(r.preview); err != nil && !os.IsNotExist(err) {
		r.log.WithError(err).WithField("path", r.preview).Warn("failed to remove preview")
	}
	r.preview = ""
}

func fileURL(path string) string {
	return (&url.URL{Scheme: "file", Path: path}).String()
}
