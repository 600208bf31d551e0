package crawler

import (
	"context"
	"time"
)

// Fetcher retrieves a single URL and returns the body plus metadata.
// Implementations return a *StatusError for non-2xx responses.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (FetchResponse, error)
}

// Sink persists a named payload. Save must create any intermediate
// directories or prefixes and be safe for concurrent calls with distinct names.
type Sink interface {
	Save(ctx context.Context, name string, data []byte, contentType string) error
}

// LinkExtractor returns the absolute hyperlink targets of an HTML document.
type LinkExtractor interface {
	Extract(baseURL string, body string) ([]string, error)
}

// PageRecorder indexes persisted pages.
type PageRecorder interface {
	RecordPage(ctx context.Context, rec PageRecord) error
}

// Publisher pushes persisted-page notifications to Pub/Sub (or similar).
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// Hasher computes content digests.
type Hasher interface {
	Hash(data []byte) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces session IDs.
type IDGenerator interface {
	NewID() (string, error)
}

// RetryPolicy decides whether a failed fetch is attempted again.
type RetryPolicy interface {
	ShouldRetry(err error, attempt int) bool
	Backoff(attempt int) time.Duration
}
