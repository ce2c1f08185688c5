package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Config holds explicit construction parameters for the S3 driver.
type S3Config struct {
	Region          string
	Bucket          string
	Endpoint        string // optional, enables MinIO style endpoints
	AccessKeyID     string // optional, falls back to the default credential chain
	SecretAccessKey string
	PathStyle       bool
	// HTTPClient overrides the transport; tests use it to fake S3.
	HTTPClient aws.HTTPClient
}

// S3 implements Store against a single S3-compatible bucket.
type S3 struct {
	client *s3.Client
	bucket string
}

// NewS3 builds an S3 store from cfg.
func NewS3(ctx context.Context, cfg S3Config) (*S3, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, errors.New("s3 bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		if cfg.HTTPClient != nil {
			o.HTTPClient = cfg.HTTPClient
		}
	})
	return &S3{client: client, bucket: cfg.Bucket}, nil
}

// S3ConfigFromEnv reads BLOB_S3_BUCKET, BLOB_S3_REGION, BLOB_S3_ENDPOINT and BLOB_S3_PATH_STYLE.
func S3ConfigFromEnv() S3Config {
	return S3Config{
		Bucket:    strings.TrimSpace(os.Getenv("BLOB_S3_BUCKET")),
		Region:    strings.TrimSpace(os.Getenv("BLOB_S3_REGION")),
		Endpoint:  strings.TrimSpace(os.Getenv("BLOB_S3_ENDPOINT")),
		PathStyle: strings.EqualFold(os.Getenv("BLOB_S3_PATH_STYLE"), "true"),
	}
}

// Driver returns DriverS3.
func (s *S3) Driver() Driver { return DriverS3 }

// Put uploads a new object. Create-only relies on If-None-Match, with a HEAD first
// for stores that ignore conditional writes.
func (s *S3) Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (Info, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: &s.bucket, Key: &key})
	switch {
	case err == nil:
		return Info{}, fmt.Errorf("%w: %s", ErrExists, key)
	case !isStatus(err, http.StatusNotFound):
		return Info{}, fmt.Errorf("head object %s: %w", key, err)
	}
	input := &s3.PutObjectInput{Bucket: &s.bucket, Key: &key, Body: r, IfNoneMatch: aws.String("*")}
	if opts.ContentType != "" {
		input.ContentType = aws.String(opts.ContentType)
	}
	if len(opts.Metadata) > 0 {
		input.Metadata = opts.Metadata
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		if isStatus(err, http.StatusPreconditionFailed) {
			return Info{}, fmt.Errorf("%w: %s", ErrExists, key)
		}
		return Info{}, fmt.Errorf("put object %s: %w", key, err)
	}
	head, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: &s.bucket, Key: &key})
	if err != nil {
		return Info{}, fmt.Errorf("head object %s: %w", key, err)
	}
	return toInfo(key, head.ContentLength, head.ContentType, head.Metadata, head.LastModified), nil
}

// Get streams an object.
func (s *S3) Get(ctx context.Context, key string) (Info, io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: &s.bucket, Key: &key})
	if err != nil {
		var missing *s3types.NoSuchKey
		if errors.As(err, &missing) || isStatus(err, http.StatusNotFound) {
			return Info{}, nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return Info{}, nil, fmt.Errorf("get object %s: %w", key, err)
	}
	return toInfo(key, out.ContentLength, out.ContentType, out.Metadata, out.LastModified), out.Body, nil
}

// Delete removes an object. S3 does not report prior existence, so true is returned on success.
func (s *S3) Delete(ctx context.Context, key string) (bool, error) {
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: &s.bucket, Key: &key}); err != nil {
		return false, fmt.Errorf("delete object %s: %w", key, err)
	}
	return true, nil
}

func isStatus(err error, code int) bool {
	var re interface{ HTTPStatusCode() int }
	return errors.As(err, &re) && re.HTTPStatusCode() == code
}

func toInfo(key string, size *int64, contentType *string, md map[string]string, lastModified *time.Time) Info {
	info := Info{Key: key, Size: aws.ToInt64(size), ContentType: aws.ToString(contentType), Metadata: md}
	if lastModified != nil {
		info.LastModified = *lastModified
	} else {
		info.LastModified = time.Now().UTC()
	}
	return info
}
