package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	gcs "cloud.google.com/go/storage"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"
)

// GCSClient stores recordings in a Google Cloud Storage bucket. Objects stay
// private; clients read them through V4 signed URLs.
type GCSClient struct {
	client *gcs.Client
	bucket string
}

// NewGCSClient creates a client for bucket.
func NewGCSClient(ctx context.Context, bucket string, log logrus.FieldLogger, opts ...option.ClientOption) (*GCSClient, error) {
	c, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}

	log.WithField("bucket", bucket).Info("Connected to Google Cloud Storage")

	return &GCSClient{client: c, bucket: bucket}, nil
}

// Close closes the underlying client.
func (g *GCSClient) Close() error { return g.client.Close() }

// PutObject uploads an object to the bucket.
func (g *GCSClient) PutObject(ctx context.Context, key string, body io.Reader, contentType string) error {
	w := g.client.Bucket(g.bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := io.Copy(w, body); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

// GetPresignedURL generates a V4 signed URL for downloading an object.
func (g *GCSClient) GetPresignedURL(_ context.Context, key string, expiry time.Duration) (string, error) {
	return g.client.Bucket(g.bucket).SignedURL(key, &gcs.SignedURLOptions{
		Method:  http.MethodGet,
		Expires: time.Now().Add(expiry),
		Scheme:  gcs.SigningSchemeV4,
	})
}

// ObjectURI returns gs://bucket/key.
func (g *GCSClient) ObjectURI(key string) string {
	return fmt.Sprintf("gs://%s/%s", g.bucket, key)
}
