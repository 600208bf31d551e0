// Package memory stores crawled objects in-memory for dry runs and tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/JakeFAU/frontier-crawler/internal/crawler"
)

// Object is a stored payload and its content type.
type Object struct {
	Data        []byte
	ContentType string
}

// BlobStore keeps objects in a map keyed by name.
type BlobStore struct {
	mu      sync.RWMutex
	objects map[string]Object
}

// NewBlobStore creates a new in-memory sink.
func NewBlobStore() *BlobStore {
	return &BlobStore{
		objects: make(map[string]Object),
	}
}

// Save stores a copy of data under name.
func (s *BlobStore) Save(_ context.Context, name string, data []byte, contentType string) error {
	if strings.TrimSpace(name) == "" {
		return crawler.ErrEmptyName
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[name] = Object{
		Data:        append([]byte(nil), data...),
		ContentType: contentType,
	}
	return nil
}

// Get returns the object stored under name.
func (s *BlobStore) Get(name string) (Object, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[name]
	return obj, ok
}

// Names returns the stored object names in sorted order.
func (s *BlobStore) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.objects))
	for name := range s.objects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close is a no-op.
func (s *BlobStore) Close() error {
	return nil
}
