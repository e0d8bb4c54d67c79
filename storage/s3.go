package storage

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// Config carries the settings needed to publish renders to S3. Empty
// fields fall back to the standard AWS config/credential chain.
type Config struct {
	Region       string
	Bucket       string
	PublicURL    string // base URL for served objects, e.g. a CDN origin
	UsePathStyle bool   // for S3-compatible providers
}

// S3 wraps the AWS SDK v2 client behind the narrow surface the render
// pipeline needs.
type S3 struct {
	client *s3.Client
	cfg    Config
}

func NewS3(ctx context.Context, cfg Config) (*S3, error) {
	var loadOpts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(cfg.Region))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	c := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
	})
	return &S3{client: c, cfg: cfg}, nil
}

// Upload publishes a local file under the given key and returns its
// public URL. Finished videos are immutable, so a long cache lifetime is
// safe. A retried finalize re-uploads the same key; when the object is
// already there the upload is skipped.
func (s *S3) Upload(ctx context.Context, localPath, key string) (string, error) {
	if exists, err := s.Exists(ctx, key); err == nil && exists {
		return s.ObjectURL(key), nil
	}

	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", localPath, err)
	}
	defer f.Close()

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.cfg.Bucket),
		Key:          aws.String(key),
		Body:         f,
		ContentType:  aws.String("video/mp4"),
		CacheControl: aws.String("public, max-age=31536000, immutable"),
		ACL:          s3types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return s.ObjectURL(key), nil
}

// ObjectURL returns the public URL for a key.
func (s *S3) ObjectURL(key string) string {
	if s.cfg.PublicURL != "" {
		return fmt.Sprintf("%s/%s", s.cfg.PublicURL, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.cfg.Bucket, s.cfg.Region, key)
}

// Exists reports whether an object is already published. A 404 from
// HeadObject is a clean false, anything else is an error.
func (s *S3) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		return true, nil
	}

	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) && respErr.HTTPStatusCode() == 404 {
		return false, nil
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorCode() == "NotFound" {
		return false, nil
	}
	return false, err
}
