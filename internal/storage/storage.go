// Package storage selects the storage sink a crawl session writes to.
// The abstraction keeps the crawler independent of a specific backend
// (local filesystem, Google Cloud Storage, S3, or memory).
package storage

import (
	"context"
	"fmt"

	"github.com/JakeFAU/frontier-crawler/internal/config"
	"github.com/JakeFAU/frontier-crawler/internal/crawler"
	"github.com/JakeFAU/frontier-crawler/internal/storage/gcs"
	"github.com/JakeFAU/frontier-crawler/internal/storage/local"
	"github.com/JakeFAU/frontier-crawler/internal/storage/memory"
	"github.com/JakeFAU/frontier-crawler/internal/storage/s3"
)

// Sink is a crawler.Sink that holds resources released by Close.
type Sink interface {
	crawler.Sink
	Close() error
}

// NewSink builds the backend named by cfg.Backend. Remote backends are checked
// for reachability where the SDK allows it, so misconfiguration fails before
// any worker starts.
func NewSink(ctx context.Context, cfg config.StorageConfig) (Sink, error) {
	switch cfg.Backend {
	case config.BackendLocal, "":
		store, err := local.New(local.Config{BaseDir: cfg.LocalDir})
		if err != nil {
			return nil, fmt.Errorf("local storage: %w", err)
		}
		return store, nil
	case config.BackendGCS:
		if cfg.Bucket == "" {
			return nil, fmt.Errorf("gcs storage: bucket is required")
		}
		store, err := gcs.Open(ctx, gcs.Config{Bucket: cfg.Bucket, Prefix: cfg.Prefix, Endpoint: cfg.Endpoint})
		if err != nil {
			return nil, fmt.Errorf("gcs storage: %w", err)
		}
		if err := store.CheckBucket(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("gcs storage: %w", err)
		}
		return store, nil
	case config.BackendS3:
		if cfg.Bucket == "" {
			return nil, fmt.Errorf("s3 storage: bucket is required")
		}
		store, err := s3.Open(ctx, s3.Config{
			Bucket:   cfg.Bucket,
			Prefix:   cfg.Prefix,
			Region:   cfg.Region,
			Endpoint: cfg.Endpoint,
		})
		if err != nil {
			return nil, fmt.Errorf("s3 storage: %w", err)
		}
		return store, nil
	case config.BackendMemory:
		return memory.NewBlobStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
