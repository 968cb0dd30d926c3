package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
)

//go:generate mockgen -destination=mocks/mock_storage.go -package=mocks mockai/internal/storage Storage

// Storage defines the interface for object storage operations.
type Storage interface {
	// PutObject uploads an object to storage.
	PutObject(ctx context.Context, key string, body io.Reader, contentType string) error
	// GetPresignedURL generates a pre-signed URL for downloading an object.
	GetPresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
	// ObjectURI returns the provider URI of an object, e.g. gs://bucket/key.
	ObjectURI(key string) string
}

// Ensure both backends implement Storage
var (
	_ Storage = (*S3Client)(nil)
	_ Storage = (*GCSClient)(nil)
)

// Asset kinds stored per answer.
const (
	AssetAudio = "audio"
	AssetVideo = "video"
)

// ObjectKey builds a user-scoped object key that never collides with an
// earlier take of the same question.
func ObjectKey(userID, questionID, kind, ext string) string {
	return fmt.Sprintf("%s/%s/%s_%s.%s", userID, questionID, kind, uuid.NewString(), ext)
}
