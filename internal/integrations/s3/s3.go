package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/vlatan/anime-studio/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

type Service interface {
	// DeleteObject removes an object from bucket
	DeleteObject(ctx context.Context, bucket, key string) error
	// ObjectExists checks if the object exists in the bucket
	ObjectExists(ctx context.Context, timeout time.Duration, bucket, key string) error
	// HeadObject gets and returns the head of a given object
	HeadObject(ctx context.Context, bucket, key string) (*s3.HeadObjectOutput, error)
	// ListKeys returns all object keys under a prefix
	ListKeys(ctx context.Context, bucket, prefix string) ([]string, error)

	// PutObject puts object to bucket having the content
	PutObject(
		ctx context.Context,
		bucket string,
		key string,
		body io.Reader,
		contentType string,
		metadata map[string]string,
	) error

	// UploadFile uploads a file to bucket
	UploadFile(ctx context.Context, bucket, rootPath, key, filePath string) error
}

type service struct {
	client *s3.Client
}

// New creates a new S3 client. Uses static credentials when present
// in the config, otherwise falls back to the default provider chain.
func New(ctx context.Context, cfg *config.Config) Service {

	opts := []func(*awsConfig.LoadOptions) error{
		awsConfig.WithRegion(cfg.S3Region),
	}

	if cfg.S3AccessKey != "" {
		opts = append(opts, awsConfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				cfg.S3AccessKey, cfg.S3SecretKey, ""),
		))
	}

	sdkConfig, err := awsConfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		log.Fatalf("failed to load AWS SDK configuration, %v", err)
	}

	return &service{s3.NewFromConfig(sdkConfig)}
}

// DeleteObject removes an object from bucket
func (s *service) DeleteObject(ctx context.Context, bucket, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: &bucket,
		Key:    &key,
	})
	return err
}

// ObjectExists checks if the object exists in the bucket
func (s *service) ObjectExists(ctx context.Context, timeout time.Duration, bucket, key string) error {
	return s3.NewObjectExistsWaiter(s.client).Wait(
		ctx,
		&s3.HeadObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		},
		timeout,
	)
}

// HeadObject gets and returns the head of a given object
func (s *service) HeadObject(ctx context.Context, bucket, key string) (*s3.HeadObjectOutput, error) {
	return s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
}

// ListKeys returns all object keys under a prefix
func (s *service) ListKeys(ctx context.Context, bucket, prefix string) ([]string, error) {

	var keys []string
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("couldn't list objects under %s:%s: %w", bucket, prefix, err)
		}

		for _, object := range page.Contents {
			keys = append(keys, aws.ToString(object.Key))
		}
	}

	return keys, nil
}

// PutObject puts object to bucket having the content
func (s *service) PutObject(
	ctx context.Context,
	bucket string,
	key string,
	body io.Reader,
	contentType string,
	metadata map[string]string,
) error {

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
		Metadata:    metadata,
	})

	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "EntityTooLarge" {
			return fmt.Errorf(
				"error while uploading object to %s; The object is too large: %w",
				bucket, err,
			)

		}

		return fmt.Errorf(
			"couldn't upload object %s:%s: %w",
			bucket, key, err,
		)
	}

	if err = s.ObjectExists(ctx, time.Minute, bucket, key); err != nil {
		return fmt.Errorf(
			"failed attempt to wait for object %s:%s to exist: %w",
			bucket, key, err,
		)
	}

	return nil
}

// UploadFile uploads a file to bucket
func (s *service) UploadFile(ctx context.Context, bucket, rootPath, key, filePath string) error {

	file, err := SecureOpen(rootPath, filePath)
	if err != nil {
		return fmt.Errorf("couldn't open the file %s: %w", filePath, err)
	}
	defer file.Close()

	// Read the first 512 bytes for content type detection
	buffer := make([]byte, 512)
	_, err = file.Read(buffer)
	if err != nil && !errors.Is(err, io.EOF) { // EOF is expected if file is smaller than 512 bytes
		return fmt.Errorf("couldn't read the file %s: %w", filePath, err)
	}

	// Seek back to the beginning for the actual upload
	_, err = file.Seek(0, io.SeekStart)
	if err != nil {
		return fmt.Errorf("couldn't seek to beginning of file %s: %w", filePath, err)
	}

	contentType := http.DetectContentType(buffer)
	return s.PutObject(ctx, bucket, key, file, contentType, nil)
}
