package speech

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	apperrors "mockai/internal/errors"
)

const (
	feedBuffer       = 64
	defaultStopGrace = 2 * time.Second
)

// Options configures a Capture.
type Options struct {
	// OnUpdate receives the full caption text whenever it changes.
	OnUpdate func(text string)
	// StopGrace bounds how long Stop waits for the final segments.
	StopGrace time.Duration
	Logger    logrus.FieldLogger
}

// Capture keeps an incrementally updated caption of a recording.
type Capture struct {
	recognizer Recognizer
	opts       Options
	log        logrus.FieldLogger

	mu        sync.Mutex
	running   bool
	feed      chan []byte
	cancel    context.CancelFunc
	done      chan struct{}
	committed []string
	interim   string
}

// NewCapture creates a stopped capture.
func NewCapture(recognizer Recognizer, opts Options) *Capture {
	if opts.StopGrace <= 0 {
		opts.StopGrace = defaultStopGrace
	}
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Capture{recognizer: recognizer, opts: opts, log: log}
}

// Start opens a recognition stream for audio of the given MIME type and clears
// the previous caption.
func (c *Capture) Start(ctx context.Context, mimeType string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return apperrors.ErrAlreadyRecording
	}

	streamCtx, cancel := context.WithCancel(ctx)
	stream, err := c.recognizer.Open(streamCtx, mimeType)
	if err != nil {
		cancel()
		return err
	}

	c.running = true
	c.committed = nil
	c.interim = ""
	c.feed = make(chan []byte, feedBuffer)
	c.cancel = cancel
	c.done = make(chan struct{})

	go c.send(stream, c.feed)
	go c.receive(stream, c.done)
	return nil
}

// Feed queues an audio chunk for recognition. Chunks are dropped when the
// recognizer falls behind; captions are best effort.
func (c *Capture) Feed(chunk []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return
	}
	select {
	case c.feed <- chunk:
	default:
		c.log.Debug("speech buffer full, dropping chunk")
	}
}

// Stop ends the stream, waiting briefly for the recognizer to flush its final segments.
func (c *Capture) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.running = false
	close(c.feed)
	cancel, done := c.cancel, c.done
	c.mu.Unlock()

	select {
	case <-done:
	case <-time.After(c.opts.StopGrace):
		c.log.Debug("speech recognizer did not flush in time")
	}
	cancel()
	<-done
}

// Running reports whether a stream is open.
func (c *Capture) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Text returns the committed caption followed by the latest interim segment.
func (c *Capture) Text() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.textLocked()
}

// Reset clears the caption.
func (c *Capture) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.committed = nil
	c.interim = ""
}

func (c *Capture) textLocked() string {
	parts := c.committed
	if c.interim != "" {
		parts = append(parts[:len(parts):len(parts)], c.interim)
	}
	return strings.Join(parts, " ")
}

func (c *Capture) send(stream Stream, feed <-chan []byte) {
	for chunk := range feed {
		if err := stream.Send(chunk); err != nil {
			c.log.WithError(err).Warn("speech send failed")
			// Keep draining so Feed never blocks.
			for range feed {
			}
			break
		}
	}
	if err := stream.CloseSend(); err != nil {
		c.log.WithError(err).Debug("speech close send failed")
	}
}

func (c *Capture) receive(stream Stream, done chan struct{}) {
	defer close(done)
	for {
		segments, err := stream.Recv()
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, context.Canceled) {
				c.log.WithError(err).Warn("speech recognition ended")
			}
			return
		}
		if len(segments) == 0 {
			continue
		}

		var interim []string
		c.mu.Lock()
		for _, seg := range segments {
			text := strings.TrimSpace(seg.Text)
			if text == "" {
				continue
			}
			if seg.Final {
				c.committed = append(c.committed, text)
			} else {
				interim = append(interim, text)
			}
		}
		c.interim = strings.Join(interim, " ")
		text := c.textLocked()
		c.mu.Unlock()

		if c.opts.OnUpdate != nil {
			c.opts.OnUpdate(text)
		}
	}
}
