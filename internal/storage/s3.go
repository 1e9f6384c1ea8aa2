package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

type S3 struct {
	Client        *s3.Client
	Bucket        string
	Prefix        string
	PublicBaseURL string
}

type S3Config struct {
	Region        string
	Bucket        string
	Prefix        string
	PublicBaseURL string
}

func NewS3(ctx context.Context, cfg S3Config) (*S3, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
	if err != nil {
		return nil, err
	}
	prefix := strings.Trim(cfg.Prefix, "/")
	if prefix == "" {
		prefix = "proposals"
	}
	return &S3{
		Client:        s3.NewFromConfig(awsCfg),
		Bucket:        cfg.Bucket,
		Prefix:        prefix,
		PublicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
	}, nil
}

// Put stores an attachment under <prefix>/<year>/<uuid><ext>. The original
// filename survives only in Content-Disposition so downloads keep a readable
// name without trusting applicant input for the object key.
func (s *S3) Put(ctx context.Context, r io.Reader, in PutInput) (PutResult, error) {
	key := fmt.Sprintf("%s/%d/%s%s", s.Prefix, time.Now().UTC().Year(), uuid.NewString(), safeExt(in.Filename))

	disposition := fmt.Sprintf("attachment; filename=%q", filepath.Base(in.Filename))
	_, err := s.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:             &s.Bucket,
		Key:                &key,
		Body:               r,
		ContentType:        &in.ContentType,
		ContentDisposition: &disposition,
	})
	if err != nil {
		return PutResult{}, err
	}

	return PutResult{Key: key, URL: s.PublicBaseURL + "/" + key}, nil
}

func (s *S3) Delete(ctx context.Context, key string) error {
	_, err := s.Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: &s.Bucket,
		Key:    &key,
	})
	return err
}

func (s *S3) String() string { return fmt.Sprintf("s3(%s/%s)", s.Bucket, s.Prefix) }
