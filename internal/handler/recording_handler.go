package handler

import (
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"mockai/internal/models"
	"mockai/internal/service"
	"mockai/pkg/response"
)

// MaxRecordingBytes bounds an uploaded recording. Three minutes of webm video fit comfortably.
const MaxRecordingBytes = 200 << 20

// UploadRecordingForm is the multipart form of a recording upload.
type UploadRecordingForm struct {
	Mode string                `form:"mode" binding:"required,recordingmode"`
	File *multipart.FileHeader `form:"file" binding:"required"`
}

// AnalysisAccepted is returned when a recording was queued.
type AnalysisAccepted struct {
	QuestionID string              `json:"questionId" example:"507f1f77bcf86cd799439011"`
	Status     models.ResultStatus `json:"status" example:"processing"`
}

// RecordingHandler handles uploads of finished recordings.
type RecordingHandler struct {
	service service.RecordingServicer
}

// NewRecordingHandler creates a new RecordingHandler.
func NewRecordingHandler(service service.RecordingServicer) *RecordingHandler {
	return &RecordingHandler{service: service}
}

// UploadRecording handles POST /api/v1/questions/:id/recordings.
// It queues an audio or video recording for extraction, upload, transcription and analysis.
func (h *RecordingHandler) UploadRecording(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	questionID, ok := questionIDParam(c)
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxRecordingBytes+1<<20)

	var form UploadRecordingForm
	if err := c.ShouldBind(&form); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if form.File.Size > MaxRecordingBytes {
		response.PayloadTooLarge(c, "recording is too large")
		return
	}

	blob, err := readBlob(form.File)
	if err != nil {
		response.BadRequest(c, "could not read recording")
		return
	}
	mode, _ := models.ParseRecordingMode(form.Mode)

	if err := h.service.SubmitRecording(c.Request.Context(), userID, questionID, mode, blob); err != nil {
		writeError(c, err)
		return
	}

	response.Accepted(c, AnalysisAccepted{QuestionID: questionID.Hex(), Status: models.ResultProcessing})
}

// RetryAnalysis handles POST /api/v1/questions/:id/retry-analysis.
// It queues the recording of a failed analysis again without re-recording.
func (h *RecordingHandler) RetryAnalysis(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	questionID, ok := questionIDParam(c)
	if !ok {
		return
	}

	if err := h.service.RetryAnalysis(c.Request.Context(), userID, questionID); err != nil {
		writeError(c, err)
		return
	}

	response.Accepted(c, AnalysisAccepted{QuestionID: questionID.Hex(), Status: models.ResultProcessing})
}

func readBlob(fh *multipart.FileHeader) (*models.Blob, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}

	mime := fh.Header.Get("Content-Type")
	if mime == "" || mime == "application/octet-stream" {
		mime = http.DetectContentType(data)
	}
	return &models.Blob{Data: data, MIMEType: mime}, nil
}
