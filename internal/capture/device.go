// Package capture records answers from a media device into a finalized blob.
package capture

import (
	"context"

	"mockai/internal/models"
)

// Constraints selects the tracks requested from a device.
type Constraints struct {
	Audio bool
	Video bool
}

// ConstraintsFor maps a recording mode to the tracks it needs.
func ConstraintsFor(mode models.RecordingMode) Constraints {
	return Constraints{Audio: true, Video: mode == models.ModeVideo}
}

// Tracks returns the number of hardware tracks c asks for.
func (c Constraints) Tracks() int {
	n := 0
	if c.Audio {
		n++
	}
	if c.Video {
		n++
	}
	return n
}

// Device grants access to media input.
type Device interface {
	// Open acquires the device. Permission or hardware failures are returned as errors.
	Open(ctx context.Context, c Constraints) (Stream, error)
}

// Stream is an acquired device stream. It is owned by exactly one Recorder.
type Stream interface {
	// Chunks delivers encoded media and is closed once the stream stops.
	Chunks() <-chan []byte
	// ActiveTracks is zero once Stop has released the hardware.
	ActiveTracks() int
	MIMEType() string
	Stop()
}

// Finalizer is implemented by streams whose container is written once the
// whole recording is known.
type Finalizer interface {
	Finalize(data []byte) []byte
}
