package mediastore

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stemacademy/site-api/pkg/logger"
	"github.com/stemacademy/site-api/pkg/metrics"
	"go.uber.org/zap"
)

// MaxImageSize is the largest gallery image accepted
const MaxImageSize = 10 * 1024 * 1024

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/jpg":  ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// Options configures the S3-compatible bucket holding gallery images
type Options struct {
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	Endpoint        string
	Region          string
	// PublicBaseURL is prepended to object keys in returned URLs.
	// Empty means endpoint/bucket.
	PublicBaseURL string
}

// StorageClient uploads media to an S3-compatible object store
type StorageClient struct {
	s3Client   *s3.Client
	bucketName string
	publicBase string
}

// NewStorageClient creates a client for the configured bucket
func NewStorageClient(opts Options) (*StorageClient, error) {
	if opts.BucketName == "" {
		return nil, fmt.Errorf("media storage bucket is required")
	}
	if opts.Region == "" {
		opts.Region = "us-east-1"
	}

	s3Opts := s3.Options{
		Region: opts.Region,
		Credentials: credentials.NewStaticCredentialsProvider(
			opts.AccessKeyID,
			opts.SecretAccessKey,
			"",
		),
		RequestChecksumCalculation: aws.RequestChecksumCalculationWhenRequired,
	}
	if opts.Endpoint != "" {
		s3Opts.BaseEndpoint = aws.String(opts.Endpoint)
		// Self-hosted and most non-AWS providers only support path-style addressing
		s3Opts.UsePathStyle = true
	}

	publicBase := strings.TrimRight(opts.PublicBaseURL, "/")
	if publicBase == "" {
		endpoint := opts.Endpoint
		if endpoint == "" {
			endpoint = fmt.Sprintf("https://s3.%s.amazonaws.com", opts.Region)
		}
		publicBase = strings.TrimRight(endpoint, "/") + "/" + opts.BucketName
	}

	logger.Info("Media storage client initialized",
		zap.String("bucket", opts.BucketName),
		zap.String("endpoint", opts.Endpoint),
		zap.String("region", opts.Region),
	)

	return &StorageClient{
		s3Client:   s3.New(s3Opts),
		bucketName: opts.BucketName,
		publicBase: publicBase,
	}, nil
}

// UploadImage stores data under key and returns its public URL
func (s *StorageClient) UploadImage(ctx context.Context, data []byte, key, contentType string) (string, error) {
	start := time.Now()
	operation := "uploadImage"

	_, err := s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucketName),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
	})

	duration := metrics.MeasureDuration(start)

	if err != nil {
		metrics.MediaStorageRequestDuration.WithLabelValues(operation, "error").Observe(duration)
		metrics.MediaStorageRequestTotal.WithLabelValues(operation, "error").Inc()
		logger.LogAPICall(ctx, "media_storage", operation, "error", duration,
			zap.Error(err),
			zap.String("key", key),
		)
		return "", fmt.Errorf("failed to upload image: %w", err)
	}

	metrics.MediaStorageRequestDuration.WithLabelValues(operation, "success").Observe(duration)
	metrics.MediaStorageRequestTotal.WithLabelValues(operation, "success").Inc()
	logger.LogAPICall(ctx, "media_storage", operation, "success", duration,
		zap.String("key", key),
		zap.Int("size_bytes", len(data)),
	)

	return s.publicBase + "/" + key, nil
}

// ValidateImageType validates the image content type
func ValidateImageType(contentType string) error {
	if _, ok := imageExtensions[strings.ToLower(contentType)]; !ok {
		return fmt.Errorf("invalid file type: %s. Allowed types: jpeg, jpg, png, webp", contentType)
	}
	return nil
}

// ValidateImageSize rejects empty images and anything over MaxImageSize
func ValidateImageSize(size int64) error {
	if size <= 0 {
		return fmt.Errorf("file is empty")
	}
	if size > MaxImageSize {
		return fmt.Errorf("file too large: %d bytes (max %d bytes)", size, MaxImageSize)
	}
	return nil
}

// ObjectKey builds a gallery object key such as gallery/workshops/robotics-day-1700000000.jpg
func ObjectKey(folder, name, contentType string, now time.Time) string {
	ext := imageExtensions[strings.ToLower(contentType)]
	return path.Join("gallery", folder, fmt.Sprintf("%s-%d%s", name, now.Unix(), ext))
}
