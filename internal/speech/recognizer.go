// Package speech produces live captions while an answer is being recorded.
package speech

import (
	"context"
	"io"
	"sync"
)

// Segment is a piece of recognized speech. Interim segments are replaced by
// the next segment; final segments are committed to the caption text.
type Segment struct {
	Text  string
	Final bool
}

// Recognizer opens streaming recognition sessions.
type Recognizer interface {
	Open(ctx context.Context, mimeType string) (Stream, error)
}

// Stream is one streaming recognition session.
type Stream interface {
	Send(chunk []byte) error
	// Recv blocks for the next batch of segments and returns io.EOF once the
	// recognizer has flushed everything after CloseSend.
	Recv() ([]Segment, error)
	CloseSend() error
}

// NopRecognizer accepts audio and never recognizes anything.
type NopRecognizer struct{}

// Open implements Recognizer.
func (NopRecognizer) Open(context.Context, string) (Stream, error) {
	return newSilentStream(), nil
}

type silentStream struct {
	once   sync.Once
	closed chan struct{}
}

func newSilentStream() *silentStream {
	return &silentStream{closed: make(chan struct{})}
}

func (s *silentStream) Send([]byte) error { return nil }

func (s *silentStream) Recv() ([]Segment, error) {
	<-s.closed
	return nil, io.EOF
}

func (s *silentStream) CloseSend() error {
	s.once.Do(func() { close(s.closed) })
	return nil
}
