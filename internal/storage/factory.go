package storage

import (
	"context"

	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"

	"mockai/internal/config"
)

// New opens the backend selected by cfg.StorageBackend. The returned func
// releases the client.
func New(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (Storage, func(), error) {
	if cfg.StorageBackend == config.StorageGCS {
		var opts []option.ClientOption
		if cfg.GoogleCredentialsFile != "" {
			opts = append(opts, option.WithCredentialsFile(cfg.GoogleCredentialsFile))
		}
		client, err := NewGCSClient(ctx, cfg.GCSBucket, log, opts...)
		if err != nil {
			return nil, nil, err
		}
		return client, func() { _ = client.Close() }, nil
	}

	client, err := NewS3Client(ctx, cfg.S3Endpoint, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket, cfg.S3UseSSL, log)
	if err != nil {
		return nil, nil, err
	}
	return client, func() {}, nil
}
