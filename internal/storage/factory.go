package storage

import (
	"context"
	"fmt"

	appconfig "github.com/GTDGit/gtd_catalog/internal/config"
)

// New builds the backend selected by cfg.Driver.
func New(ctx context.Context, cfg appconfig.StorageConfig) (Storage, error) {
	switch cfg.Driver {
	case "", "local":
		return NewLocal(cfg.LocalDir, cfg.LocalURLPrefix), nil

	case "s3":
		if cfg.S3Region == "" || cfg.S3Bucket == "" || cfg.S3PublicBaseURL == "" {
			return nil, fmt.Errorf("S3 config missing: S3_REGION, S3_BUCKET, S3_PUBLIC_BASE_URL required")
		}
		s, err := NewS3(ctx, S3Config{
			Region:        cfg.S3Region,
			Bucket:        cfg.S3Bucket,
			Prefix:        cfg.S3Prefix,
			PublicBaseURL: cfg.S3PublicBaseURL,
		})
		if err != nil {
			return nil, err
		}
		return s, nil

	default:
		return nil, fmt.Errorf("unknown STORAGE_DRIVER: %s", cfg.Driver)
	}
}
