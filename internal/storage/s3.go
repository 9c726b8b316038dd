package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/vidfriends/appcore/internal/backend"
	"github.com/vidfriends/appcore/internal/config"
)

// S3API is the subset of the S3 client used by S3Storage.
type S3API interface {
	manager.UploadAPIClient
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Presigner signs temporary GET requests for private objects.
type Presigner interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// S3Storage implements ObjectStore backed by an S3-compatible service. Logical
// buckets become key prefixes inside one physical bucket.
type S3Storage struct {
	client     S3API
	uploader   *manager.Uploader
	presigner  Presigner
	bucket     string
	baseURL    string
	previewURL string
	presignTTL time.Duration
}

// NewS3Storage configures an uploader targeting the provided object store.
func NewS3Storage(ctx context.Context, cfg config.ObjectStoreConfig) (*S3Storage, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("s3 storage: bucket is required")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = true
		if strings.TrimSpace(cfg.Endpoint) != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	return NewS3StorageWithClient(client, s3.NewPresignClient(client), cfg), nil
}

// NewS3StorageWithClient wraps existing clients, mainly for tests and local emulators.
func NewS3StorageWithClient(client S3API, presigner Presigner, cfg config.ObjectStoreConfig) *S3Storage {
	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = 5 * 1024 * 1024
		u.LeavePartsOnError = false
	})

	ttl := cfg.PresignTTL
	if ttl <= 0 {
		ttl = time.Hour
	}

	return &S3Storage{
		client:     client,
		uploader:   uploader,
		presigner:  presigner,
		bucket:     cfg.Bucket,
		baseURL:    strings.TrimSuffix(cfg.PublicBaseURL, "/"),
		previewURL: strings.TrimSuffix(cfg.PreviewBaseURL, "/"),
		presignTTL: ttl,
	}
}

// Put uploads the provided content to the configured bucket.
func (s *S3Storage) Put(ctx context.Context, bucket, key, contentType string, r io.Reader) error {
	objKey, err := objectKey(bucket, key)
	if err != nil {
		return err
	}

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objKey),
		Body:   r,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if s.baseURL != "" {
		input.ACL = s3types.ObjectCannedACLPublicRead
	}

	if _, err := s.uploader.Upload(ctx, input); err != nil {
		return fmt.Errorf("s3 storage upload %s: %w", objKey, err)
	}
	return nil
}

// Delete removes the object stored under key.
func (s *S3Storage) Delete(ctx context.Context, bucket, key string) error {
	objKey, err := objectKey(bucket, key)
	if err != nil {
		return err
	}

	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objKey),
	})
	if err != nil {
		var missing *s3types.NoSuchKey
		if errors.As(err, &missing) {
			return ErrObjectNotFound
		}
		return fmt.Errorf("s3 storage delete %s: %w", objKey, err)
	}
	return nil
}

// ViewURL returns the public location of the object, or a presigned GET when no
// public base URL is configured.
func (s *S3Storage) ViewURL(ctx context.Context, bucket, key string) (string, error) {
	objKey, err := objectKey(bucket, key)
	if err != nil {
		return "", err
	}

	if s.baseURL != "" {
		return fmt.Sprintf("%s/%s", s.baseURL, objKey), nil
	}
	if s.presigner == nil {
		return "", nil
	}

	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objKey),
	}, s3.WithPresignExpires(s.presignTTL))
	if err != nil {
		return "", fmt.Errorf("s3 storage presign %s: %w", objKey, err)
	}
	return req.URL, nil
}

// PreviewURL points at the configured image transformation endpoint. Without one
// it falls back to the untransformed public URL, and is empty when neither is set.
func (s *S3Storage) PreviewURL(_ context.Context, bucket, key string, opts backend.PreviewOptions) (string, error) {
	objKey, err := objectKey(bucket, key)
	if err != nil {
		return "", err
	}
	if s.previewURL == "" {
		if s.baseURL == "" {
			return "", nil
		}
		return fmt.Sprintf("%s/%s", s.baseURL, objKey), nil
	}

	u := fmt.Sprintf("%s/%s", s.previewURL, objKey)
	if q := previewQuery(opts); q != "" {
		u += "?" + q
	}
	return u, nil
}
