package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/wolfman30/nutribot/pkg/logging"
)

// S3API is the subset of the S3 client used by S3Store.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3Config struct {
	Bucket string
	Prefix string
	Region string
	// PublicBaseURL replaces the virtual-hosted bucket URL, e.g. a CDN or a
	// LocalStack endpoint.
	PublicBaseURL string
	Timeout       time.Duration
}

// S3Store writes photos to a bucket under Prefix.
type S3Store struct {
	client S3API
	cfg    S3Config
	logger *logging.Logger
}

func NewS3Store(client S3API, cfg S3Config, logger *logging.Logger) (*S3Store, error) {
	if client == nil {
		return nil, fmt.Errorf("storage: s3 client is required")
	}
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("storage: s3 bucket is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultUploadTimeout
	}
	return &S3Store{client: client, cfg: cfg, logger: logger}, nil
}

func (s *S3Store) Upload(ctx context.Context, name string, data []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	key := path.Join(strings.Trim(s.cfg.Prefix, "/"), name)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("image/jpeg"),
	})
	if err != nil {
		return "", fmt.Errorf("storage: s3 put %s: %w", key, err)
	}

	s.logger.Info("image uploaded to s3", "bucket", s.cfg.Bucket, "key", key, "bytes", len(data))
	return s.objectURL(key), nil
}

func (s *S3Store) objectURL(key string) string {
	escaped := (&url.URL{Path: key}).EscapedPath()
	if base := strings.TrimRight(s.cfg.PublicBaseURL, "/"); base != "" {
		return base + "/" + escaped
	}
	region := s.cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.cfg.Bucket, region, escaped)
}
