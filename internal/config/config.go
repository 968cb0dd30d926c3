package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Storage backends selectable with STORAGE_BACKEND.
const (
	StorageS3  = "s3"
	StorageGCS = "gcs"
)

// Config holds all configuration for the application
type Config struct {
	ServerPort string
	GinMode    string
	LogLevel   string

	MongoURI      string
	MongoDatabase string
	RedisURI      string

	AccessTokenSecret string
	AccessTokenExpiry time.Duration

	StorageBackend  string
	S3Endpoint      string
	S3AccessKey     string
	S3SecretKey     string
	S3Bucket        string
	S3UseSSL        bool
	GCSBucket       string
	SignedURLExpiry time.Duration

	GoogleProjectID       string
	GoogleLocation        string
	GoogleCredentialsFile string
	GeminiModel           string
	SpeechEnabled         bool
	SpeechLanguage        string

	FFmpegPath string

	RecordingWarningAfter time.Duration
	RecordingMaxDuration  time.Duration

	AnalysisWorkers   int
	AnalysisQueueSize int
	ResultCacheTTL    time.Duration
	RetryTTL          time.Duration
}

// Load reads configuration from .env file and environment variables
func Load() *Config {
	// Load .env file (ignore error if file doesn't exist - env vars may be set directly)
	_ = godotenv.Load()

	cfg := &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),
		GinMode:    getEnv("GIN_MODE", "debug"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),

		MongoURI:      getEnvRequired("MONGO_URI"),
		MongoDatabase: getEnvRequired("MONGO_DATABASE"),
		RedisURI:      getEnv("REDIS_URI", "localhost:6379"),

		AccessTokenSecret: getEnvRequired("ACCESS_TOKEN_SECRET"),
		AccessTokenExpiry: parseDuration(getEnv("ACCESS_TOKEN_EXPIRY", "15m")),

		StorageBackend:  getEnv("STORAGE_BACKEND", StorageS3),
		S3Endpoint:      getEnv("S3_ENDPOINT", "localhost:9000"),
		S3AccessKey:     getEnv("S3_ACCESS_KEY", "minioadmin"),
		S3SecretKey:     getEnv("S3_SECRET_KEY", "minioadmin"),
		S3Bucket:        getEnv("S3_BUCKET", "interview-recordings"),
		S3UseSSL:        getEnv("S3_USE_SSL", "false") == "true",
		GCSBucket:       getEnv("GCS_BUCKET", ""),
		SignedURLExpiry: parseDuration(getEnv("SIGNED_URL_EXPIRY", "4h")),

		GoogleProjectID:       getEnv("GOOGLE_PROJECT_ID", ""),
		GoogleLocation:        getEnv("GOOGLE_LOCATION", "us-central1"),
		GoogleCredentialsFile: getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),
		GeminiModel:           getEnv("GEMINI_MODEL", "gemini-1.5-flash-002"),
		SpeechEnabled:         parseBool(getEnv("SPEECH_ENABLED", "false")),
		SpeechLanguage:        getEnv("SPEECH_LANGUAGE", "en-US"),

		FFmpegPath: getEnv("FFMPEG_PATH", "ffmpeg"),

		RecordingWarningAfter: parseDuration(getEnv("RECORDING_WARNING_AFTER", "150s")),
		RecordingMaxDuration:  parseDuration(getEnv("RECORDING_MAX_DURATION", "180s")),

		AnalysisWorkers:   parseInt(getEnv("ANALYSIS_WORKERS", "2")),
		AnalysisQueueSize: parseInt(getEnv("ANALYSIS_QUEUE_SIZE", "100")),
		ResultCacheTTL:    parseDuration(getEnv("RESULT_CACHE_TTL", "10m")),
		RetryTTL:          parseDuration(getEnv("RETRY_TTL", "24h")),
	}

	if cfg.StorageBackend != StorageS3 && cfg.StorageBackend != StorageGCS {
		log.Fatalf("Invalid STORAGE_BACKEND %q, must be %s or %s", cfg.StorageBackend, StorageS3, StorageGCS)
	}
	if cfg.StorageBackend == StorageGCS && cfg.GCSBucket == "" {
		log.Fatalf("Required environment variable GCS_BUCKET is not set")
	}
	if cfg.RecordingWarningAfter >= cfg.RecordingMaxDuration {
		log.Fatalf("RECORDING_WARNING_AFTER (%s) must be shorter than RECORDING_MAX_DURATION (%s)",
			cfg.RecordingWarningAfter, cfg.RecordingMaxDuration)
	}

	return cfg
}

// getEnv reads an environment variable with a fallback default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvRequired reads an environment variable and exits if not set
func getEnvRequired(key string) string {
	value := os.Getenv(key)
	if value == "" {
		log.Fatalf("Required environment variable %s is not set", key)
	}
	return value
}

// parseDuration parses a duration string, exits on error
func parseDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		log.Fatalf("Invalid duration format: %s", s)
	}
	return d
}

// parseInt parses a positive integer, exits on error
func parseInt(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		log.Fatalf("Invalid positive integer: %s", s)
	}
	return n
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false
	}
	return b
}
