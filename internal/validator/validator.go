// Package validator registers the custom binding tags used by request models.
package validator

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"mockai/internal/models"
)

// validateInterviewType accepts behavioral or technical.
func validateInterviewType(fl validator.FieldLevel) bool {
	return models.InterviewType(fl.Field().String()).Valid()
}

// validateRecordingMode accepts audio or video, case-insensitively.
func validateRecordingMode(fl validator.FieldLevel) bool {
	_, ok := models.ParseRecordingMode(fl.Field().String())
	return ok
}

// Register adds the custom validators to v.
func Register(v *validator.Validate) error {
	if err := v.RegisterValidation("interviewtype", validateInterviewType); err != nil {
		return err
	}
	return v.RegisterValidation("recordingmode", validateRecordingMode)
}

// RegisterCustomValidators registers all custom validators with gin's validator
func RegisterCustomValidators() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = Register(v)
	}
}
