// Package frontier holds the shared URL queue and the in-flight counter that
// together decide when a crawl has run out of work.
package frontier

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrDrained is returned once every enqueued task has finished.
var ErrDrained = errors.New("frontier drained")

// Frontier is an unbounded multi-producer multi-consumer queue of URLs paired
// with a count of tasks that are queued or still being processed.
//
// The count is raised before an item becomes visible to Dequeue and lowered by
// Done after the task's side effects (including its own enqueues). The Done call
// that takes the count to zero drains the frontier and releases every waiter.
type Frontier struct {
	mu        sync.Mutex
	items     []string
	pending   int
	wake      chan struct{}
	drained   chan struct{}
	isDrained bool
}

// New constructs an empty frontier.
func New() *Frontier {
	return &Frontier{
		wake:    make(chan struct{}),
		drained: make(chan struct{}),
	}
}

// Seed enqueues the initial URLs and returns how many were added. Seeding with
// nothing on an idle frontier drains it immediately so workers can exit.
func (f *Frontier) Seed(urls []string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.isDrained {
		return 0
	}
	for _, u := range urls {
		f.pending++
		f.items = append(f.items, u)
	}
	if len(urls) > 0 {
		f.broadcastLocked()
	} else if f.pending == 0 {
		f.drainLocked()
	}
	return len(urls)
}

// Enqueue adds a URL to the tail of the queue.
func (f *Frontier) Enqueue(url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.isDrained {
		return ErrDrained
	}
	f.pending++
	f.items = append(f.items, url)
	f.broadcastLocked()
	return nil
}

// Dequeue blocks until a URL is available, the frontier drains, or ctx ends.
func (f *Frontier) Dequeue(ctx context.Context) (string, error) {
	for {
		f.mu.Lock()
		if len(f.items) > 0 {
			url := f.items[0]
			f.items[0] = ""
			f.items = f.items[1:]
			f.mu.Unlock()
			return url, nil
		}
		if f.isDrained {
			f.mu.Unlock()
			return "", ErrDrained
		}
		wake := f.wake
		f.mu.Unlock()

		select {
		case <-ctx.Done():
			return "", fmt.Errorf("dequeue canceled: %w", ctx.Err())
		case <-wake:
		}
	}
}

// Done marks one dequeued task as finished. It reports true for the call that
// drained the frontier. Calling Done more often than tasks were enqueued panics.
func (f *Frontier) Done() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pending <= 0 {
		panic("frontier: Done called with no tasks in flight")
	}
	f.pending--
	if f.pending > 0 {
		return false
	}
	f.drainLocked()
	return true
}

// Pending returns the number of tasks queued or in progress.
func (f *Frontier) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pending
}

// Len returns the number of URLs waiting to be dequeued.
func (f *Frontier) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items)
}

// Drained returns a channel closed when the frontier drains.
func (f *Frontier) Drained() <-chan struct{} {
	return f.drained
}

// IsDrained reports whether the frontier has drained.
func (f *Frontier) IsDrained() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.isDrained
}

func (f *Frontier) broadcastLocked() {
	close(f.wake)
	f.wake = make(chan struct{})
}

func (f *Frontier) drainLocked() {
	if f.isDrained {
		return
	}
	f.isDrained = true
	f.items = nil
	close(f.drained)
	f.broadcastLocked()
}
