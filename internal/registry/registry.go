// Package registry tracks which URLs a crawl session has committed to fetch.
package registry

import (
	"sync"
	"sync/atomic"
)

// Registry is a concurrent set of claimed URLs. Entries are never removed.
type Registry struct {
	seen  sync.Map
	count atomic.Int64
}

// New constructs an empty registry.
func New() *Registry {
	return &Registry{}
}

// TryClaim records url and returns true if no caller claimed it before.
// Exact string equality decides duplicates; empty URLs are never claimable.
func (r *Registry) TryClaim(url string) bool {
	if url == "" {
		return false
	}
	if _, loaded := r.seen.LoadOrStore(url, struct{}{}); loaded {
		return false
	}
	r.count.Add(1)
	return true
}

// Len returns the number of claimed URLs.
func (r *Registry) Len() int {
	return int(r.count.Load())
}
