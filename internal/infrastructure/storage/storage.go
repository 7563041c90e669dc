// Package storage publishes generated artifacts such as the sitemap to a
// local directory or an S3 bucket.
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/narwhalmedia/fantasycards/pkg/interfaces"
)

// Store publishes artifacts by key.
type Store interface {
	Put(ctx context.Context, key, contentType string, body io.Reader) error
	Location(key string) string
}

// LocalStore keeps artifacts under a base directory.
type LocalStore struct {
	basePath string
	logger   interfaces.Logger
}

// NewLocalStore creates the base directory if needed.
func NewLocalStore(basePath string, logger interfaces.Logger) (*LocalStore, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create base path: %w", err)
	}
	return &LocalStore{basePath: basePath, logger: logger}, nil
}

func (s *LocalStore) Put(ctx context.Context, key, _ string, body io.Reader) error {
	p := s.Location(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	// Write beside the target and rename so readers never see a partial file.
	tmp, err := os.CreateTemp(filepath.Dir(p), ".tmp-*")
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, body); err != nil {
		tmp.Close()
		return fmt.Errorf("write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close file: %w", err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return fmt.Errorf("move file into place: %w", err)
	}

	s.logger.Debug("Stored artifact", interfaces.String("path", p))
	return nil
}

func (s *LocalStore) Location(key string) string {
	return filepath.Join(s.basePath, filepath.FromSlash(key))
}

// s3API is the subset of the S3 client the store calls.
type s3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store keeps artifacts in a bucket under an optional prefix.
type S3Store struct {
	client s3API
	bucket string
	prefix string
	region string
	logger interfaces.Logger
}

// NewS3Store builds a store from the default AWS credential chain.
func NewS3Store(ctx context.Context, bucket, prefix, region string, logger interfaces.Logger) (*S3Store, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return newS3Store(s3.NewFromConfig(cfg), bucket, prefix, region, logger), nil
}

func newS3Store(client s3API, bucket, prefix, region string, logger interfaces.Logger) *S3Store {
	return &S3Store{client: client, bucket: bucket, prefix: prefix, region: region, logger: logger}
}

func (s *S3Store) Put(ctx context.Context, key, contentType string, body io.Reader) error {
	in := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.fullKey(key)),
		Body:   body,
	}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}
	if _, err := s.client.PutObject(ctx, in); err != nil {
		return fmt.Errorf("upload to S3: %w", err)
	}

	s.logger.Info("Uploaded artifact",
		interfaces.String("bucket", s.bucket),
		interfaces.String("key", s.fullKey(key)))
	return nil
}

func (s *S3Store) Location(key string) string {
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, s.fullKey(key))
}

func (s *S3Store) fullKey(key string) string {
	if s.prefix != "" {
		return path.Join(s.prefix, key)
	}
	return key
}
