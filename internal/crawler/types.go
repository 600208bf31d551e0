package crawler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// DefaultContentType is assumed when a response carries no Content-Type header.
const DefaultContentType = "application/octet-stream"

// ErrEmptyName is returned by sinks asked to save under an empty name.
var ErrEmptyName = errors.New("object name is required")

// FetchResponse is the result returned by a Fetcher implementation.
type FetchResponse struct {
	URL        string
	StatusCode int
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
}

// ContentType returns the response Content-Type or DefaultContentType.
func (r FetchResponse) ContentType() string {
	ct := strings.TrimSpace(r.Headers.Get("Content-Type"))
	if ct == "" {
		return DefaultContentType
	}
	return ct
}

// StatusError reports a response outside the 2xx range.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d for %s", e.Code, e.URL)
}

// PageRecord describes one persisted object. It is written to the page index
// and published as the notification payload.
type PageRecord struct {
	SessionID   string    `json:"session_id"`
	URL         string    `json:"url"`
	Object      string    `json:"object"`
	ContentType string    `json:"content_type"`
	Bytes       int       `json:"bytes"`
	Hash        string    `json:"sha256"`
	StatusCode  int       `json:"status_code"`
	FetchedAt   time.Time `json:"fetched_at"`
	DurationMs  int64     `json:"duration_ms"`
}
