package models

import (
	"strings"
	"time"
)

// RecordingMode is chosen once when a session starts.
type RecordingMode string

const (
	// ModeAudio records the microphone only.
	ModeAudio RecordingMode = "audio"
	// ModeVideo records microphone and camera; audio is extracted before upload.
	ModeVideo RecordingMode = "video"
)

// ParseRecordingMode parses "audio" or "video". ok is false for anything else.
func ParseRecordingMode(s string) (RecordingMode, bool) {
	switch RecordingMode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeAudio:
		return ModeAudio, true
	case ModeVideo:
		return ModeVideo, true
	}
	return "", false
}

// SessionStatus is the state of a recording session.
type SessionStatus string

const (
	StatusIdle         SessionStatus = "idle"
	StatusRecording    SessionStatus = "recording"
	StatusStopped      SessionStatus = "stopped"
	StatusExtracting   SessionStatus = "extracting"
	StatusUploading    SessionStatus = "uploading"
	StatusTranscribing SessionStatus = "transcribing"
	StatusComplete     SessionStatus = "complete"
	StatusCanceled     SessionStatus = "canceled"
	StatusFailed       SessionStatus = "failed"
)

// Terminal reports whether no further automatic transition follows s.
func (s SessionStatus) Terminal() bool {
	return s == StatusComplete || s == StatusCanceled || s == StatusFailed
}

// Blob is a finalized media buffer.
type Blob struct {
	Data     []byte
	MIMEType string
}

// Size returns the blob length in bytes.
func (b *Blob) Size() int {
	if b == nil {
		return 0
	}
	return len(b.Data)
}

// Extension returns a file extension matching the blob MIME type.
func (b *Blob) Extension() string {
	mime := b.MIMEType
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	switch mime {
	case "audio/mpeg", "audio/mp3":
		return "mp3"
	case "audio/wav", "audio/x-wav", "audio/wave":
		return "wav"
	case "video/x-matroska":
		return "mkv"
	case "video/mp4":
		return "mp4"
	case "audio/mp4":
		return "m4a"
	case "audio/ogg":
		return "ogg"
	default:
		return "webm"
	}
}

// RecordingSession is a snapshot of a session's state.
type RecordingSession struct {
	ID             string        `json:"id"`
	QuestionID     string        `json:"questionId"`
	Mode           RecordingMode `json:"mode"`
	Status         SessionStatus `json:"status"`
	StartedAt      time.Time     `json:"startedAt,omitempty"`
	ElapsedSeconds int           `json:"elapsedSeconds"`
	MediaBlob      *Blob         `json:"-"`
	ExtractedAudio *Blob         `json:"-"`
	LiveTranscript string        `json:"liveTranscript,omitempty"`
	FailedStage    string        `json:"failedStage,omitempty"`
	Error          string        `json:"error,omitempty"`
}
