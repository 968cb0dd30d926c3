// Package router sets up HTTP routes for the API.
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"mockai/internal/handler"
	"mockai/internal/middleware"
	"mockai/pkg/auth"
)

// Config holds all dependencies needed to set up routes.
type Config struct {
	InterviewHandler *handler.InterviewHandler
	RecordingHandler *handler.RecordingHandler
	SessionHandler   *handler.SessionHandler
	HealthHandler    *handler.HealthHandler
	TokenManager     auth.TokenManager
	Logger           logrus.FieldLogger
}

// Setup creates and configures the Gin router.
func Setup(cfg *Config) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(cfg.Logger))
	r.Use(middleware.CORS())

	r.GET("/health", cfg.HealthHandler.Health)

	// API v1
	v1 := r.Group("/api/v1")
	v1.Use(middleware.Auth(cfg.TokenManager))
	{
		questions := v1.Group("/questions")
		{
			questions.POST("", cfg.InterviewHandler.GenerateQuestion)
			questions.GET("/:id", cfg.InterviewHandler.GetQuestion)
			questions.GET("/:id/result", cfg.InterviewHandler.GetResult)
			questions.POST("/:id/recordings", cfg.RecordingHandler.UploadRecording)
			questions.POST("/:id/retry-analysis", cfg.RecordingHandler.RetryAnalysis)
			questions.GET("/:id/session", cfg.SessionHandler.Session)
		}

		v1.GET("/results", cfg.InterviewHandler.ListResults)
	}

	return r
}
