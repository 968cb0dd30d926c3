package capture

import (
	"context"
	"encoding/binary"
	"sync"
	"sync/atomic"

	"github.com/gordonklaus/portaudio"
	"github.com/sirupsen/logrus"

	apperrors "mockai/internal/errors"
)

const (
	// MicSampleRate matches what the transcription service expects.
	MicSampleRate   = 16000
	micFramesPerBuf = 1024 // 64ms at 16kHz
	micChunkBuffer  = 32
)

// MicrophoneDevice captures mono 16-bit PCM from the default input device.
// Only audio recordings are supported.
type MicrophoneDevice struct {
	log logrus.FieldLogger
}

// NewMicrophoneDevice creates a device backed by PortAudio.
func NewMicrophoneDevice(log logrus.FieldLogger) *MicrophoneDevice {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &MicrophoneDevice{log: log}
}

// Open implements Device.
func (d *MicrophoneDevice) Open(ctx context.Context, c Constraints) (Stream, error) {
	if c.Video {
		return nil, apperrors.ErrUnsupportedMode
	}

	if err := portaudio.Initialize(); err != nil {
		return nil, err
	}

	buf := make([]int16, micFramesPerBuf)
	stream, err := portaudio.OpenDefaultStream(1, 0, MicSampleRate, len(buf), buf)
	if err != nil {
		_ = portaudio.Terminate()
		return nil, err
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		_ = portaudio.Terminate()
		return nil, err
	}

	readCtx, cancel := context.WithCancel(ctx)
	m := &micStream{
		ch:     make(chan []byte, micChunkBuffer),
		cancel: cancel,
		exited: make(chan struct{}),
	}
	m.tracks.Store(1)

	go m.read(readCtx, stream, buf, d.log)
	return m, nil
}

type micStream struct {
	ch       chan []byte
	tracks   atomic.Int32
	cancel   context.CancelFunc
	exited   chan struct{}
	stopOnce sync.Once
}

// read owns the PortAudio stream and releases it on exit.
func (m *micStream) read(ctx context.Context, stream *portaudio.Stream, buf []int16, log logrus.FieldLogger) {
	defer func() {
		_ = stream.Stop()
		_ = stream.Close()
		_ = portaudio.Terminate()
		m.tracks.Store(0)
		close(m.ch)
		close(m.exited)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := stream.Read(); err != nil {
			log.WithError(err).Debug("microphone read error")
			return
		}

		chunk := make([]byte, len(buf)*2)
		for i, sample := range buf {
			binary.LittleEndian.PutUint16(chunk[i*2:], uint16(sample))
		}

		select {
		case m.ch <- chunk:
		case <-ctx.Done():
			return
		}
	}
}

func (m *micStream) Chunks() <-chan []byte { return m.ch }

func (m *micStream) ActiveTracks() int { return int(m.tracks.Load()) }

func (m *micStream) MIMEType() string { return "audio/wav" }

// Stop blocks until the device has been released.
func (m *micStream) Stop() {
	m.stopOnce.Do(m.cancel)
	<-m.exited
}

// Finalize wraps raw PCM in a WAV container.
func (m *micStream) Finalize(pcm []byte) []byte {
	return WAV(pcm, MicSampleRate, 1)
}

// WAV prepends a canonical 44-byte RIFF header to 16-bit little-endian PCM.
func WAV(pcm []byte, sampleRate, channels int) []byte {
	const bitsPerSample = 16
	blockAlign := channels * bitsPerSample / 8

	out := make([]byte, 44+len(pcm))
	copy(out[0:], "RIFF")
	binary.LittleEndian.PutUint32(out[4:], uint32(36+len(pcm)))
	copy(out[8:], "WAVE")
	copy(out[12:], "fmt ")
	binary.LittleEndian.PutUint32(out[16:], 16)
	binary.LittleEndian.PutUint16(out[20:], 1) // PCM
	binary.LittleEndian.PutUint16(out[22:], uint16(channels))
	binary.LittleEndian.PutUint32(out[24:], uint32(sampleRate))
	binary.LittleEndian.PutUint32(out[28:], uint32(sampleRate*blockAlign))
	binary.LittleEndian.PutUint16(out[32:], uint16(blockAlign))
	binary.LittleEndian.PutUint16(out[34:], bitsPerSample)
	copy(out[36:], "data")
	binary.LittleEndian.PutUint32(out[40:], uint32(len(pcm)))
	copy(out[44:], pcm)
	return out
}
