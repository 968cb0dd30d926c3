// Package handler contains the HTTP handlers of the API.
package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"mockai/internal/models"
	"mockai/internal/service"
	"mockai/pkg/response"
)

// InterviewHandler handles HTTP requests for questions and results.
type InterviewHandler struct {
	service service.InterviewServicer
}

// NewInterviewHandler creates a new InterviewHandler.
func NewInterviewHandler(service service.InterviewServicer) *InterviewHandler {
	return &InterviewHandler{service: service}
}

// GenerateQuestion handles POST /api/v1/questions.
// It generates a behavioral or technical question for a position and opens an empty result for it.
func (h *InterviewHandler) GenerateQuestion(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req models.GenerateQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	q, err := h.service.GenerateQuestion(c.Request.Context(), userID, &req)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Created(c, models.GenerateQuestionResponse{Question: *q})
}

// GetQuestion handles GET /api/v1/questions/:id.
// It returns the question when the caller owns it.
func (h *InterviewHandler) GetQuestion(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	questionID, ok := questionIDParam(c)
	if !ok {
		return
	}

	q, err := h.service.GetQuestion(c.Request.Context(), userID, questionID)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, q)
}

// GetResult handles GET /api/v1/questions/:id/result.
// It returns the display-ready analysis of the latest answer, including its processing status.
func (h *InterviewHandler) GetResult(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	questionID, ok := questionIDParam(c)
	if !ok {
		return
	}

	result, err := h.service.GetResult(c.Request.Context(), userID, questionID)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, result)
}

// ListResults handles GET /api/v1/results.
// It pages through the caller's completed results, newest interview first.
func (h *InterviewHandler) ListResults(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	result, err := h.service.ListResults(c.Request.Context(), userID, page, limit)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, result)
}
