// Package s3 provides a storage sink backed by Amazon S3 or an S3-compatible
// object store.
package s3

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/JakeFAU/frontier-crawler/internal/crawler"
)

// Config captures the parameters required to reach the bucket.
type Config struct {
	Bucket string
	Prefix string
	Region string
	// Endpoint points the client at an S3-compatible service and switches to
	// path-style addressing.
	Endpoint string
}

type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// BlobStore writes crawled objects to an S3 bucket.
type BlobStore struct {
	client putObjectAPI
	bucket string
	prefix string
}

// New creates a sink around an existing S3 client.
func New(client putObjectAPI, cfg Config) (*BlobStore, error) {
	if client == nil {
		return nil, fmt.Errorf("s3 client is required")
	}
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("bucket name is required")
	}
	return &BlobStore{
		client: client,
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
	}, nil
}

// Open loads the default AWS credential chain and returns a sink.
func Open(ctx context.Context, cfg Config) (*BlobStore, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return New(client, cfg)
}

// ObjectKey returns the key an object name maps to inside the bucket. The
// prefix is prepended verbatim, so a directory prefix needs its trailing slash.
func (s *BlobStore) ObjectKey(name string) string {
	return s.prefix + name
}

// Save uploads data to bucket/<prefix><name>.
func (s *BlobStore) Save(ctx context.Context, name string, data []byte, contentType string) error {
	if strings.TrimSpace(name) == "" {
		return crawler.ErrEmptyName
	}
	input := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.ObjectKey(name)),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("put s3://%s/%s: %w", s.bucket, s.ObjectKey(name), err)
	}
	return nil
}

// Close is a no-op; the SDK client holds no resources that need releasing.
func (s *BlobStore) Close() error {
	return nil
}
