package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"mockai/internal/capture"
	apperrors "mockai/internal/errors"
	"mockai/internal/logger"
	"mockai/internal/models"
	"mockai/internal/orchestrator"
	"mockai/internal/service/mocks"
	"mockai/internal/timer/timertest"
)

type runnerFunc func(ctx context.Context, job orchestrator.Job, progress func(models.SessionStatus)) (*models.ResultDisplay, error)

func (f runnerFunc) Run(ctx context.Context, job orchestrator.Job, progress func(models.SessionStatus)) (*models.ResultDisplay, error) {
	return f(ctx, job, progress)
}

func sessionServer(t *testing.T, m *mocks.MockSessionService) string {
	t.Helper()
	h := NewSessionHandler(m, logger.Discard())
	r := gin.New()
	r.Use(setUserID(testUserID))
	r.GET("/questions/:id/session", h.Session)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func openWith(t *testing.T, runner orchestrator.Runner) *mocks.MockSessionService {
	return &mocks.MockSessionService{
		OpenSessionFunc: func(_ context.Context, _ string, id primitive.ObjectID, device capture.Device, hooks orchestrator.SessionOptions) (*orchestrator.Session, error) {
			opts := hooks
			opts.Interview = models.InterviewContext{QuestionID: id.Hex(), QuestionText: "Why Acme?"}
			opts.Device = device
			opts.Pipeline = runner
			opts.Clock = timertest.NewClock(time.Unix(1_700_000_000, 0))
			opts.TempDir = t.TempDir()
			opts.Logger = logger.Discard()
			return orchestrator.NewSession(opts), nil
		},
	}
}

func readUntil(t *testing.T, conn *websocket.Conn, eventType string) []SessionEvent {
	t.Helper()
	var seen []SessionEvent
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		var ev SessionEvent
		require.NoError(t, conn.ReadJSON(&ev))
		seen = append(seen, ev)
		if ev.Type == eventType {
			return seen
		}
	}
}

func states(events []SessionEvent) []models.SessionStatus {
	var out []models.SessionStatus
	for _, ev := range events {
		if ev.Type == EventState {
			out = append(out, ev.Status)
		}
	}
	return out
}

func TestSessionHandler_Session(t *testing.T) {
	t.Run("records and completes over websocket", func(t *testing.T) {
		media := make(chan []byte, 1)
		runner := runnerFunc(func(_ context.Context, job orchestrator.Job, progress func(models.SessionStatus)) (*models.ResultDisplay, error) {
			media <- job.Media.Data
			progress(models.StatusUploading)
			progress(models.StatusTranscribing)
			return &models.ResultDisplay{QuestionID: job.Interview.QuestionID, Score: 87}, nil
		})
		url := sessionServer(t, openWith(t, runner))
		questionID := primitive.NewObjectID()

		conn, _, err := websocket.DefaultDialer.Dial(url+"/questions/"+questionID.Hex()+"/session", nil)
		require.NoError(t, err)
		defer conn.Close()

		first := readUntil(t, conn, EventState)
		assert.Equal(t, models.StatusIdle, first[0].Status)

		require.NoError(t, conn.WriteJSON(ControlMessage{Type: ControlStart, Mode: "audio", MIMEType: "audio/ogg"}))
		readUntil(t, conn, EventState)
		require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, []byte("chunk-1")))
		require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, []byte("chunk-2")))
		require.NoError(t, conn.WriteJSON(ControlMessage{Type: ControlStop}))

		events := readUntil(t, conn, EventComplete)
		complete := events[len(events)-1]
		require.NotNil(t, complete.Result)
		assert.Equal(t, 87, complete.Result.Score)
		assert.Equal(t, questionID.Hex(), complete.Result.QuestionID)
		assert.Equal(t, []byte("chunk-1chunk-2"), <-media)
		assert.Contains(t, states(events), models.StatusStopped)
		assert.Contains(t, states(events), models.StatusTranscribing)
	})

	t.Run("reports failure with stage", func(t *testing.T) {
		runner := runnerFunc(func(context.Context, orchestrator.Job, func(models.SessionStatus)) (*models.ResultDisplay, error) {
			return nil, apperrors.NewStageError(apperrors.StageUpload, apperrors.ErrUpload, nil)
		})
		url := sessionServer(t, openWith(t, runner))

		conn, _, err := websocket.DefaultDialer.Dial(url+"/questions/"+primitive.NewObjectID().Hex()+"/session", nil)
		require.NoError(t, err)
		defer conn.Close()
		readUntil(t, conn, EventState)

		require.NoError(t, conn.WriteJSON(ControlMessage{Type: ControlStart, Mode: "video"}))
		readUntil(t, conn, EventState)
		require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, []byte("frame")))
		require.NoError(t, conn.WriteJSON(ControlMessage{Type: ControlStop}))

		events := readUntil(t, conn, EventFailed)
		failed := events[len(events)-1]
		assert.Equal(t, apperrors.StageUpload, failed.Stage)
		assert.Contains(t, failed.Error, apperrors.ErrUpload.Error())
	})

	t.Run("reports denied device access", func(t *testing.T) {
		url := sessionServer(t, openWith(t, nil))

		conn, _, err := websocket.DefaultDialer.Dial(url+"/questions/"+primitive.NewObjectID().Hex()+"/session", nil)
		require.NoError(t, err)
		defer conn.Close()
		readUntil(t, conn, EventState)

		require.NoError(t, conn.WriteJSON(ControlMessage{Type: ControlStart, Mode: "audio", Denied: true}))

		events := readUntil(t, conn, EventError)
		assert.Contains(t, events[len(events)-1].Error, apperrors.ErrMediaAccess.Error())
	})

	t.Run("rejects invalid control messages", func(t *testing.T) {
		url := sessionServer(t, openWith(t, nil))

		conn, _, err := websocket.DefaultDialer.Dial(url+"/questions/"+primitive.NewObjectID().Hex()+"/session", nil)
		require.NoError(t, err)
		defer conn.Close()
		readUntil(t, conn, EventState)

		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
		assert.Equal(t, "invalid control message", readUntil(t, conn, EventError)[0].Error)

		require.NoError(t, conn.WriteJSON(ControlMessage{Type: ControlStart, Mode: "hologram"}))
		assert.Equal(t, apperrors.ErrInvalidMode.Error(), readUntil(t, conn, EventError)[0].Error)

		require.NoError(t, conn.WriteJSON(ControlMessage{Type: ControlStop}))
		assert.Equal(t, apperrors.ErrNotRecording.Error(), readUntil(t, conn, EventError)[0].Error)
	})

	t.Run("returns http error before upgrade", func(t *testing.T) {
		m := &mocks.MockSessionService{
			OpenSessionFunc: func(context.Context, string, primitive.ObjectID, capture.Device, orchestrator.SessionOptions) (*orchestrator.Session, error) {
				return nil, apperrors.ErrQuestionUnauthorized
			},
		}
		url := sessionServer(t, m)

		_, resp, err := websocket.DefaultDialer.Dial(url+"/questions/"+primitive.NewObjectID().Hex()+"/session", nil)

		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})
}
