package capture

import (
	"context"
	"sync"

	apperrors "mockai/internal/errors"
)

const pushBuffer = 64

// PushDevice is a device whose media is produced elsewhere, such as a browser
// MediaRecorder streaming chunks over a websocket, and pushed in with Push.
type PushDevice struct {
	mu        sync.Mutex
	audioMIME string
	videoMIME string
	reject    error
	stream    *pushStream
}

// NewPushDevice creates a device tagging audio and video recordings with the given MIME types.
func NewPushDevice(audioMIME, videoMIME string) *PushDevice {
	if audioMIME == "" {
		audioMIME = "audio/webm"
	}
	if videoMIME == "" {
		videoMIME = "video/webm"
	}
	return &PushDevice{audioMIME: audioMIME, videoMIME: videoMIME}
}

// SetMIMEType overrides the MIME type reported by the client for the next Open.
func (d *PushDevice) SetMIMEType(mime string) {
	if mime == "" {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.audioMIME = mime
	d.videoMIME = mime
}

// Reject makes the next Open fail with err, as when the client was denied
// access to its microphone or camera.
func (d *PushDevice) Reject(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.reject = err
}

// Open implements Device.
func (d *PushDevice) Open(ctx context.Context, c Constraints) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.reject; err != nil {
		d.reject = nil
		return nil, err
	}

	mime := d.audioMIME
	if c.Video {
		mime = d.videoMIME
	}
	d.stream = &pushStream{
		ch:     make(chan []byte, pushBuffer),
		mime:   mime,
		tracks: c.Tracks(),
	}
	return d.stream, nil
}

// Push delivers a chunk to the open stream.
func (d *PushDevice) Push(chunk []byte) error {
	d.mu.Lock()
	s := d.stream
	d.mu.Unlock()

	if s == nil {
		return apperrors.ErrNotRecording
	}
	return s.push(chunk)
}

// ActiveTracks reports the tracks held by the most recently opened stream.
func (d *PushDevice) ActiveTracks() int {
	d.mu.Lock()
	s := d.stream
	d.mu.Unlock()

	if s == nil {
		return 0
	}
	return s.ActiveTracks()
}

type pushStream struct {
	ch   chan []byte
	mime string

	mu     sync.RWMutex
	closed bool
	tracks int
}

func (s *pushStream) push(chunk []byte) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return apperrors.ErrNotRecording
	}
	s.ch <- append([]byte(nil), chunk...)
	return nil
}

func (s *pushStream) Chunks() <-chan []byte { return s.ch }

func (s *pushStream) MIMEType() string { return s.mime }

func (s *pushStream) ActiveTracks() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tracks
}

func (s *pushStream) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	s.tracks = 0
	close(s.ch)
}
