package capture

import (
	"context"
	"errors"
	"net/url"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "mockai/internal/errors"
	"mockai/internal/logger"
	"mockai/internal/models"
)

type failingDevice struct {
	err error
}

func (d failingDevice) Open(context.Context, Constraints) (Stream, error) {
	return nil, d.err
}

type headerStream struct {
	*pushStream
}

func (s headerStream) Finalize(data []byte) []byte {
	return append([]byte("HDR"), data...)
}

type headerDevice struct {
	stream headerStream
}

func (d *headerDevice) Open(context.Context, Constraints) (Stream, error) {
	d.stream = headerStream{&pushStream{ch: make(chan []byte, 4), mime: "audio/wav", tracks: 1}}
	return d.stream, nil
}

func newRecorder(device Device) *Recorder {
	return NewRecorder(device, RecorderOptions{Logger: logger.Discard()})
}

func TestRecorder_StartStop(t *testing.T) {
	t.Run("finalizes pushed chunks into one blob", func(t *testing.T) {
		device := NewPushDevice("audio/webm;codecs=opus", "")
		rec := newRecorder(device)

		require.NoError(t, rec.StartRecording(context.Background(), models.ModeAudio))
		assert.True(t, rec.Recording())
		assert.Equal(t, 1, device.ActiveTracks())

		require.NoError(t, device.Push([]byte("abc")))
		require.NoError(t, device.Push([]byte("def")))

		blob, err := rec.StopRecording()

		require.NoError(t, err)
		assert.Equal(t, []byte("abcdef"), blob.Data)
		assert.Equal(t, "audio/webm;codecs=opus", blob.MIMEType)
		assert.Equal(t, blob, rec.Blob())
		assert.False(t, rec.Recording())
	})

	t.Run("releases every track on stop", func(t *testing.T) {
		device := NewPushDevice("", "")
		rec := newRecorder(device)

		require.NoError(t, rec.StartRecording(context.Background(), models.ModeVideo))
		assert.Equal(t, 2, device.ActiveTracks())

		blob, err := rec.StopRecording()

		require.NoError(t, err)
		assert.Equal(t, "video/webm", blob.MIMEType)
		assert.Equal(t, 0, device.ActiveTracks())
	})

	t.Run("rejects starting twice", func(t *testing.T) {
		rec := newRecorder(NewPushDevice("", ""))

		require.NoError(t, rec.StartRecording(context.Background(), models.ModeAudio))
		err := rec.StartRecording(context.Background(), models.ModeAudio)

		assert.ErrorIs(t, err, apperrors.ErrAlreadyRecording)
		rec.Discard()
	})

	t.Run("stop without start fails", func(t *testing.T) {
		rec := newRecorder(NewPushDevice("", ""))

		_, err := rec.StopRecording()

		assert.ErrorIs(t, err, apperrors.ErrNotRecording)
	})

	t.Run("device failure is a media access error and changes nothing", func(t *testing.T) {
		device := NewPushDevice("", "")
		rec := newRecorder(device)
		require.NoError(t, rec.StartRecording(context.Background(), models.ModeAudio))
		require.NoError(t, device.Push([]byte("take one")))
		previous, err := rec.StopRecording()
		require.NoError(t, err)

		device.Reject(errors.New("permission denied"))
		err = rec.StartRecording(context.Background(), models.ModeAudio)

		assert.ErrorIs(t, err, apperrors.ErrMediaAccess)
		stage, ok := apperrors.StageOf(err)
		assert.True(t, ok)
		assert.Equal(t, apperrors.StageCapture, stage)
		assert.False(t, rec.Recording())
		assert.Equal(t, previous, rec.Blob())
	})

	t.Run("open error from device", func(t *testing.T) {
		rec := newRecorder(failingDevice{err: errors.New("no input device")})

		err := rec.StartRecording(context.Background(), models.ModeAudio)

		assert.ErrorIs(t, err, apperrors.ErrMediaAccess)
		assert.Contains(t, err.Error(), "no input device")
	})

	t.Run("applies stream finalizer", func(t *testing.T) {
		device := &headerDevice{}
		rec := newRecorder(device)

		require.NoError(t, rec.StartRecording(context.Background(), models.ModeAudio))
		require.NoError(t, device.stream.push([]byte("pcm")))

		blob, err := rec.StopRecording()

		require.NoError(t, err)
		assert.Equal(t, []byte("HDRpcm"), blob.Data)
	})

	t.Run("taps every chunk", func(t *testing.T) {
		var tapped [][]byte
		device := NewPushDevice("", "")
		rec := NewRecorder(device, RecorderOptions{
			Logger:  logger.Discard(),
			OnChunk: func(chunk []byte) { tapped = append(tapped, chunk) },
		})

		require.NoError(t, rec.StartRecording(context.Background(), models.ModeAudio))
		require.NoError(t, device.Push([]byte("a")))
		require.NoError(t, device.Push([]byte("b")))
		_, err := rec.StopRecording()
		require.NoError(t, err)

		assert.Equal(t, [][]byte{[]byte("a"), []byte("b")}, tapped)
	})

	t.Run("push after stop is rejected", func(t *testing.T) {
		device := NewPushDevice("", "")
		rec := newRecorder(device)
		require.NoError(t, rec.StartRecording(context.Background(), models.ModeAudio))
		_, err := rec.StopRecording()
		require.NoError(t, err)

		assert.ErrorIs(t, device.Push([]byte("late")), apperrors.ErrNotRecording)
	})
}

func TestRecorder_Discard(t *testing.T) {
	t.Run("releases the device and drops media", func(t *testing.T) {
		device := NewPushDevice("", "")
		rec := newRecorder(device)
		require.NoError(t, rec.StartRecording(context.Background(), models.ModeVideo))
		require.NoError(t, device.Push([]byte("partial")))

		rec.Discard()

		assert.Equal(t, 0, device.ActiveTracks())
		assert.False(t, rec.Recording())
		assert.Nil(t, rec.Blob())
	})

	t.Run("drops a take that is discarded while it drains", func(t *testing.T) {
		release := make(chan struct{})
		device := NewPushDevice("", "")
		rec := NewRecorder(device, RecorderOptions{
			Logger:  logger.Discard(),
			OnChunk: func([]byte) { <-release },
		})
		require.NoError(t, rec.StartRecording(context.Background(), models.ModeAudio))
		require.NoError(t, device.Push([]byte("partial")))

		type stopped struct {
			blob *models.Blob
			err  error
		}
		out := make(chan stopped, 1)
		go func() {
			blob, err := rec.StopRecording()
			out <- stopped{blob, err}
		}()
		require.Eventually(t, func() bool { return !rec.Recording() }, time.Second, time.Millisecond)

		rec.Discard()
		close(release)
		res := <-out

		assert.ErrorIs(t, res.err, ErrDiscarded)
		assert.Nil(t, res.blob)
		assert.Nil(t, rec.Blob())
		_, err := rec.PreviewURL()
		assert.ErrorIs(t, err, ErrNoRecording)
	})

	t.Run("is safe without a recording and when repeated", func(t *testing.T) {
		rec := newRecorder(NewPushDevice("", ""))

		assert.NotPanics(t, func() {
			rec.Discard()
			rec.Discard()
		})
	})
}

func TestRecorder_Preview(t *testing.T) {
	record := func(t *testing.T, rec *Recorder, device *PushDevice, data string) {
		t.Helper()
		require.NoError(t, rec.StartRecording(context.Background(), models.ModeAudio))
		require.NoError(t, device.Push([]byte(data)))
		_, err := rec.StopRecording()
		require.NoError(t, err)
	}
	pathOf := func(t *testing.T, raw string) string {
		t.Helper()
		u, err := url.Parse(raw)
		require.NoError(t, err)
		assert.Equal(t, "file", u.Scheme)
		return u.Path
	}

	t.Run("requires a finalized recording", func(t *testing.T) {
		rec := newRecorder(NewPushDevice("", ""))

		_, err := rec.PreviewURL()

		assert.ErrorIs(t, err, ErrNoRecording)
	})

	t.Run("writes and revokes a preview file", func(t *testing.T) {
		device := NewPushDevice("audio/webm", "")
		rec := NewRecorder(device, RecorderOptions{Logger: logger.Discard(), TempDir: t.TempDir()})
		record(t, rec, device, "answer")

		first, err := rec.PreviewURL()
		require.NoError(t, err)
		second, err := rec.PreviewURL()
		require.NoError(t, err)
		assert.Equal(t, first, second)

		path := pathOf(t, first)
		assert.Contains(t, path, ".webm")
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "answer", string(data))

		rec.RevokePreview()

		_, err = os.Stat(path)
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("a new recording revokes the previous preview", func(t *testing.T) {
		device := NewPushDevice("", "")
		rec := NewRecorder(device, RecorderOptions{Logger: logger.Discard(), TempDir: t.TempDir()})
		record(t, rec, device, "first")
		raw, err := rec.PreviewURL()
		require.NoError(t, err)

		require.NoError(t, rec.StartRecording(context.Background(), models.ModeAudio))

		_, err = os.Stat(pathOf(t, raw))
		assert.True(t, os.IsNotExist(err))
		rec.Discard()
	})
}

func TestWAV(t *testing.T) {
	pcm := []byte{1, 0, 2, 0}

	out := WAV(pcm, 16000, 1)

	require.Len(t, out, 48)
	assert.Equal(t, "RIFF", string(out[0:4]))
	assert.Equal(t, "WAVE", string(out[8:12]))
	assert.Equal(t, "data", string(out[36:40]))
	assert.Equal(t, []byte{40, 0, 0, 0}, out[4:8])
	assert.Equal(t, []byte{0x80, 0x3e, 0, 0}, out[24:28])
	assert.Equal(t, []byte{4, 0, 0, 0}, out[40:44])
	assert.Equal(t, pcm, out[44:])
}

func TestConstraintsFor(t *testing.T) {
	assert.Equal(t, Constraints{Audio: true}, ConstraintsFor(models.ModeAudio))
	assert.Equal(t, Constraints{Audio: true, Video: true}, ConstraintsFor(models.ModeVideo))
	assert.Equal(t, 2, ConstraintsFor(models.ModeVideo).Tracks())
}
