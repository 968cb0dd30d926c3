package handler

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	apperrors "mockai/internal/errors"
	"mockai/internal/models"
	"mockai/internal/service/mocks"
)

func recordingRouter(userID string, m *mocks.MockRecordingService) *gin.Engine {
	h := NewRecordingHandler(m)
	r := gin.New()
	r.Use(setUserID(userID))
	r.POST("/questions/:id/recordings", h.UploadRecording)
	r.POST("/questions/:id/retry-analysis", h.RetryAnalysis)
	return r
}

func uploadRequest(t *testing.T, path, mode, contentType string, data []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if mode != "" {
		require.NoError(t, mw.WriteField("mode", mode))
	}
	if data != nil {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", `form-data; name="file"; filename="answer.webm"`)
		header.Set("Content-Type", contentType)
		part, err := mw.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestRecordingHandler_UploadRecording(t *testing.T) {
	questionID := primitive.NewObjectID()
	path := "/questions/" + questionID.Hex() + "/recordings"

	t.Run("queues recording", func(t *testing.T) {
		var got *models.Blob
		var gotMode models.RecordingMode
		m := &mocks.MockRecordingService{
			SubmitRecordingFunc: func(_ context.Context, userID string, id primitive.ObjectID, mode models.RecordingMode, media *models.Blob) error {
				assert.Equal(t, testUserID, userID)
				assert.Equal(t, questionID, id)
				got, gotMode = media, mode
				return nil
			},
		}

		w := serve(recordingRouter(testUserID, m), uploadRequest(t, path, "Video", "video/webm", []byte("webm-bytes")))

		assert.Equal(t, http.StatusAccepted, w.Code)
		assert.Contains(t, w.Body.String(), `"status":"processing"`)
		require.NotNil(t, got)
		assert.Equal(t, []byte("webm-bytes"), got.Data)
		assert.Equal(t, "video/webm", got.MIMEType)
		assert.Equal(t, models.ModeVideo, gotMode)
	})

	t.Run("rejects unknown mode", func(t *testing.T) {
		w := serve(recordingRouter(testUserID, &mocks.MockRecordingService{}), uploadRequest(t, path, "screen", "video/webm", []byte("x")))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects missing file", func(t *testing.T) {
		w := serve(recordingRouter(testUserID, &mocks.MockRecordingService{}), uploadRequest(t, path, "audio", "", nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects invalid question id", func(t *testing.T) {
		w := serve(recordingRouter(testUserID, &mocks.MockRecordingService{}), uploadRequest(t, "/questions/nope/recordings", "audio", "audio/webm", []byte("x")))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("returns 401 without user", func(t *testing.T) {
		w := serve(recordingRouter("", &mocks.MockRecordingService{}), uploadRequest(t, path, "audio", "audio/webm", []byte("x")))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	errorCases := []struct {
		name           string
		err            error
		expectedStatus int
	}{
		{"analysis in progress", apperrors.ErrAnalysisInProgress, http.StatusConflict},
		{"queue full", apperrors.ErrAnalysisQueueFull, http.StatusServiceUnavailable},
		{"empty recording", apperrors.ErrMediaAccess, http.StatusBadRequest},
		{"not owner", apperrors.ErrQuestionUnauthorized, http.StatusForbidden},
	}
	for _, tt := range errorCases {
		t.Run(tt.name, func(t *testing.T) {
			m := &mocks.MockRecordingService{
				SubmitRecordingFunc: func(context.Context, string, primitive.ObjectID, models.RecordingMode, *models.Blob) error {
					return tt.err
				},
			}

			w := serve(recordingRouter(testUserID, m), uploadRequest(t, path, "audio", "audio/webm", []byte("x")))

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.err.Error())
		})
	}
}

func TestRecordingHandler_RetryAnalysis(t *testing.T) {
	questionID := primitive.NewObjectID()
	path := "/questions/" + questionID.Hex() + "/retry-analysis"

	t.Run("queues retry", func(t *testing.T) {
		called := false
		m := &mocks.MockRecordingService{
			RetryAnalysisFunc: func(_ context.Context, _ string, id primitive.ObjectID) error {
				called = true
				assert.Equal(t, questionID, id)
				return nil
			},
		}

		w := serve(recordingRouter(testUserID, m), httptest.NewRequest(http.MethodPost, path, nil))

		assert.Equal(t, http.StatusAccepted, w.Code)
		assert.True(t, called)
	})

	t.Run("returns 409 when nothing to retry", func(t *testing.T) {
		m := &mocks.MockRecordingService{
			RetryAnalysisFunc: func(context.Context, string, primitive.ObjectID) error {
				return apperrors.ErrNothingToRetry
			},
		}

		w := serve(recordingRouter(testUserID, m), httptest.NewRequest(http.MethodPost, path, nil))

		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("returns 409 when analysis did not fail", func(t *testing.T) {
		m := &mocks.MockRecordingService{
			RetryAnalysisFunc: func(context.Context, string, primitive.ObjectID) error {
				return apperrors.ErrAnalysisNotFailed
			},
		}

		w := serve(recordingRouter(testUserID, m), httptest.NewRequest(http.MethodPost, path, nil))

		assert.Equal(t, http.StatusConflict, w.Code)
	})
}
