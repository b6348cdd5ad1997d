package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/xid"
)

// S3Config holds the bucket credentials and endpoint. Loaded once at process
// start and immutable afterwards.
//
// Endpoint is optional: leave it empty for AWS itself, set it (with
// ForcePathStyle) for MinIO/SeaweedFS-compatible stores.
type S3Config struct {
	Region         string
	Bucket         string
	AccessKey      string
	SecretKey      string
	Endpoint       string
	PublicBaseURL  string // base for returned URLs; defaults to the virtual-hosted bucket URL
	ForcePathStyle bool
}

// S3Uploader implements Uploader on top of an S3-compatible bucket.
type S3Uploader struct {
	api    *s3.Client
	bucket string
	base   string
}

var _ Uploader = (*S3Uploader)(nil)

// NewS3Uploader builds the AWS client from static credentials.
func NewS3Uploader(ctx context.Context, cfg S3Config) (*S3Uploader, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("media: bucket is required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, errors.New("media: access key and secret key are required")
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("media: loading AWS config: %w", err)
	}

	api := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.ForcePathStyle
	})

	base := strings.TrimSuffix(cfg.PublicBaseURL, "/")
	if base == "" {
		base = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	}

	return &S3Uploader{api: api, bucket: cfg.Bucket, base: base}, nil
}

// Upload writes the object under images/<xid><ext> and returns its public
// URL. The xid key keeps uploads unique per call, so replacing an avatar
// never overwrites the previous object out from under a cached URL.
func (u *S3Uploader) Upload(ctx context.Context, filename, contentType string, body io.Reader, size int64) (string, error) {
	if body == nil {
		return "", errors.New("media: no file to upload")
	}

	key := "images/" + xid.New().String() + strings.ToLower(path.Ext(filename))

	_, err := u.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("media: uploading %s: %w", filename, err)
	}

	return u.base + "/" + key, nil
}
