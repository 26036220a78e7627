package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"

	"github.com/seoblog/backend/internal/infrastructure/config"
)

// S3ArchiveStorage archives to any S3-compatible store (AWS, MinIO, RustFS).
type S3ArchiveStorage struct {
	client        *s3.Client
	presign       *s3.PresignClient
	bucket        string
	presignExpiry time.Duration
	log           *zap.Logger
}

type S3Option func(*S3ArchiveStorage)

func WithLogger(log *zap.Logger) S3Option {
	return func(s *S3ArchiveStorage) {
		if log != nil {
			s.log = log
		}
	}
}

func NewS3ArchiveStorage(cfg *config.StorageConfig, opts ...S3Option) (*S3ArchiveStorage, error) {
	if cfg == nil {
		return nil, errors.New("storage configuration is required")
	}
	switch {
	case cfg.Bucket == "":
		return nil, errors.New("storage bucket is required")
	case cfg.AccessKey == "" || cfg.SecretKey == "":
		return nil, errors.New("storage credentials are required")
	}

	endpoint := cfg.Endpoint
	if endpoint != "" && !strings.Contains(endpoint, "://") {
		if cfg.UseSSL {
			endpoint = "https://" + endpoint
		} else {
			endpoint = "http://" + endpoint
		}
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	s := &S3ArchiveStorage{
		client:        client,
		presign:       s3.NewPresignClient(client),
		bucket:        cfg.Bucket,
		presignExpiry: cfg.PresignExpiration,
		log:           zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.presignExpiry <= 0 {
		s.presignExpiry = 15 * time.Minute
	}
	return s, nil
}

// EnsureBucket creates the bucket unless it already exists.
func (s *S3ArchiveStorage) EnsureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err == nil {
		return nil
	}
	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket) {
		return fmt.Errorf("failed to check bucket %s: %w", s.bucket, err)
	}

	s.log.Info("Creating archive bucket", zap.String("bucket", s.bucket))
	_, err = s.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(s.bucket)})
	var owned *types.BucketAlreadyOwnedByYou
	if err != nil && !errors.As(err, &owned) {
		return fmt.Errorf("failed to create bucket %s: %w", s.bucket, err)
	}
	return nil
}

func (s *S3ArchiveStorage) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if key == "" {
		return ErrEmptyKey
	}
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return nil
}

// URL presigns a GET valid for the configured expiry.
func (s *S3ArchiveStorage) URL(ctx context.Context, key string) (string, time.Time, error) {
	if key == "" {
		return "", time.Time{}, ErrEmptyKey
	}
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.presignExpiry))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to presign %s: %w", key, err)
	}
	return req.URL, time.Now().Add(s.presignExpiry), nil
}

func (s *S3ArchiveStorage) Exists(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, ErrEmptyKey
	}
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(key)})
	if err == nil {
		return true, nil
	}
	var notFound *types.NotFound
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &notFound) || errors.As(err, &noSuchKey) {
		return false, nil
	}
	return false, fmt.Errorf("failed to stat %s: %w", key, err)
}
