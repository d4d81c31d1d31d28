// Package storage keeps blobs in an S3-compatible object store.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"

	"tush00nka/filestash/internal/apperr"
	"tush00nka/filestash/internal/model"
)

type Options struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

type S3Storage struct {
	uploader *manager.Uploader
	client   *s3.Client
	presign  *s3.PresignClient
}

func NewS3Storage(ctx context.Context, opts Options) (*S3Storage, error) {
	s3Opts := []func(*s3.Options){}

	if opts.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true // MinIO
		})
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(opts.Region)}
	if opts.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, s3Opts...)

	slog.Info("s3 storage initialized", "endpoint", opts.Endpoint, "region", opts.Region)
	return &S3Storage{
		uploader: manager.NewUploader(client),
		client:   client,
		presign:  s3.NewPresignClient(client),
	}, nil
}

func objectKey(blobID string) string {
	return path.Join("files", blobID)
}

// StoreBlob uploads body under a fresh blob id.
func (s *S3Storage) StoreBlob(ctx context.Context, bucket, name, contentType string, body io.Reader) (*model.Blob, error) {
	blobID := uuid.New().String()
	key := objectKey(blobID)

	if contentType == "" {
		contentType = "application/octet-stream"
	}

	counter := &countingReader{r: body}
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:             aws.String(bucket),
		Key:                aws.String(key),
		Body:               counter,
		ContentType:        aws.String(contentType),
		ContentDisposition: aws.String(mime.FormatMediaType("inline", map[string]string{"filename": name})),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload blob %s: %w", name, translate(err))
	}

	slog.Debug("blob uploaded", "bucket", bucket, "key", key, "size", counter.n)

	return &model.Blob{
		ID:          blobID,
		Bucket:      bucket,
		Key:         key,
		Name:        name,
		Size:        counter.n,
		ContentType: contentType,
		CreatedAt:   time.Now(),
	}, nil
}

// DeleteBlob removes a blob, reporting apperr.ErrNotFound when it does not exist.
func (s *S3Storage) DeleteBlob(ctx context.Context, bucket, blobID string) error {
	key := objectKey(blobID)

	if _, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}); err != nil {
		return fmt.Errorf("failed to stat blob %s: %w", blobID, translate(err))
	}

	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}); err != nil {
		return fmt.Errorf("failed to delete blob %s: %w", blobID, translate(err))
	}
	return nil
}

func (s *S3Storage) PresignView(ctx context.Context, bucket, blobID string, expires time.Duration) (string, error) {
	request, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(objectKey(blobID)),
	}, s3.WithPresignExpires(expires))
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}
	return request.URL, nil
}

func (s *S3Storage) HealthCheck(ctx context.Context) error {
	if _, err := s.client.ListBuckets(ctx, &s3.ListBucketsInput{}); err != nil {
		return fmt.Errorf("storage health check failed: %w", err)
	}
	return nil
}

func translate(err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound", "NoSuchBucket":
			return apperr.ErrNotFound
		case "QuotaExceeded", "EntityTooLarge", "XMinioStorageFull", "ServiceQuotaExceededException":
			return fmt.Errorf("%w: %s", apperr.ErrQuotaExceeded, apiErr.ErrorMessage())
		}
	}
	return fmt.Errorf("%w: %v", apperr.ErrUnavailable, err)
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
