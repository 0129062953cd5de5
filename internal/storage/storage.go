package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/andresuchdata/salesdash/internal/config"
)

// ObjectInfo represents metadata for a remote file/object.
type ObjectInfo struct {
	Key  string
	Size int64
}

// ObjectStorage captures the read-only S3-compatible operations the sources need.
type ObjectStorage interface {
	ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error)
	GetObject(ctx context.Context, key string) ([]byte, error)
	DownloadObject(ctx context.Context, key string, destPath string) error
}

// New builds the client named by cfg.Provider.
func New(cfg config.StorageConfig) (ObjectStorage, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "sevalla", "s3":
		return NewSevallaClient(SevallaConfig{
			Endpoint:  cfg.Endpoint,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			Bucket:    cfg.Bucket,
			Region:    cfg.Region,
			UseSSL:    cfg.UseSSL,
		})
	case "minio", "":
		return NewMinioClient(cfg)
	default:
		return nil, fmt.Errorf("unknown storage provider %q", cfg.Provider)
	}
}

func validate(endpoint, accessKey, secretKey, bucket, provider string) error {
	if endpoint == "" {
		return fmt.Errorf("%s endpoint must be provided", provider)
	}
	if accessKey == "" || secretKey == "" {
		return fmt.Errorf("%s credentials must be provided", provider)
	}
	if bucket == "" {
		return fmt.Errorf("%s bucket must be provided", provider)
	}
	return nil
}
