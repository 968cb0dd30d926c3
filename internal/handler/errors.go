package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	apperrors "mockai/internal/errors"
	"mockai/internal/middleware"
	"mockai/pkg/response"
)

// writeError maps service errors to HTTP responses. Unknown errors are 500s.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperrors.ErrQuestionNotFound), errors.Is(err, apperrors.ErrResultNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, apperrors.ErrQuestionUnauthorized):
		response.Forbidden(c, err.Error())
	case errors.Is(err, apperrors.ErrInvalidMode), errors.Is(err, apperrors.ErrMediaAccess):
		response.BadRequest(c, err.Error())
	case errors.Is(err, apperrors.ErrAnalysisInProgress),
		errors.Is(err, apperrors.ErrAnalysisNotFailed),
		errors.Is(err, apperrors.ErrNothingToRetry):
		response.Conflict(c, err.Error())
	case errors.Is(err, apperrors.ErrAnalysisQueueFull), errors.Is(err, apperrors.ErrQuestionGeneration):
		response.ServiceUnavailable(c, err.Error())
	default:
		_ = c.Error(err)
		response.InternalError(c)
	}
}

// requireUserID writes a 401 when the auth middleware did not run.
func requireUserID(c *gin.Context) (string, bool) {
	userID := middleware.GetUserID(c)
	if userID == "" {
		response.Unauthorized(c, "user not authenticated")
		return "", false
	}
	return userID, true
}

func questionIDParam(c *gin.Context) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid question id format")
		return primitive.NilObjectID, false
	}
	return id, true
}
