package storage

import (
	"context"
	"fmt"
	"os"
	"strings"
)

type FactoryResult struct {
	Driver  string
	Storage Storage
}

// FromEnv picks the attachment store: local disk in dev, S3 in production.
func FromEnv(ctx context.Context) (FactoryResult, error) {
	driver := strings.ToLower(os.Getenv("STORAGE_DRIVER"))
	if driver == "" {
		driver = "local"
	}

	switch driver {
	case "local":
		baseDir := envOr("LOCAL_UPLOAD_DIR", "./storage/proposals")
		urlPrefix := envOr("LOCAL_UPLOAD_URL_PREFIX", "/uploads")
		return FactoryResult{Driver: "local", Storage: NewLocal(baseDir, urlPrefix)}, nil

	case "s3":
		cfg := S3Config{
			Region:        os.Getenv("S3_REGION"),
			Bucket:        os.Getenv("S3_BUCKET"),
			Prefix:        envOr("S3_PREFIX", "proposals"),
			PublicBaseURL: os.Getenv("S3_PUBLIC_BASE_URL"),
		}
		if cfg.Region == "" || cfg.Bucket == "" || cfg.PublicBaseURL == "" {
			return FactoryResult{}, fmt.Errorf("S3 config missing: S3_REGION, S3_BUCKET, S3_PUBLIC_BASE_URL required")
		}
		s, err := NewS3(ctx, cfg)
		if err != nil {
			return FactoryResult{}, err
		}
		return FactoryResult{Driver: "s3", Storage: s}, nil

	default:
		return FactoryResult{}, fmt.Errorf("unknown STORAGE_DRIVER: %s", driver)
	}
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
