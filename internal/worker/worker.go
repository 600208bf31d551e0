// Package worker implements the crawl task loop shared by every worker in a
// session.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/frontier-crawler/internal/clock/system"
	"github.com/JakeFAU/frontier-crawler/internal/crawler"
	"github.com/JakeFAU/frontier-crawler/internal/frontier"
	"github.com/JakeFAU/frontier-crawler/internal/metrics"
)

// Frontier is the queue and in-flight counter a worker drains.
type Frontier interface {
	Enqueue(url string) error
	Dequeue(ctx context.Context) (string, error)
	Done() bool
	Pending() int
}

// Claimer decides which worker fetches a URL.
type Claimer interface {
	TryClaim(url string) bool
}

// Config controls Worker behavior.
type Config struct {
	SessionID string
	// TaskDelay pauses after each claimed task, before it is marked done.
	TaskDelay time.Duration
	// Topic receives one notification per persisted page.
	Topic string
}

// Deps are the collaborators a Worker uses. Recorder, Publisher, Hasher,
// Clock and Retry are optional.
type Deps struct {
	Frontier  Frontier
	Claims    Claimer
	Fetcher   crawler.Fetcher
	Sink      crawler.Sink
	Extractor crawler.LinkExtractor
	Recorder  crawler.PageRecorder
	Publisher crawler.Publisher
	Hasher    crawler.Hasher
	Clock     crawler.Clock
	Retry     crawler.RetryPolicy
}

// Worker repeatedly takes a URL from the frontier and runs it through the
// claim, fetch, persist and extract pipeline.
type Worker struct {
	deps   Deps
	cfg    Config
	logger *zap.Logger
}

// New constructs a Worker.
func New(deps Deps, cfg Config, logger *zap.Logger) (*Worker, error) {
	switch {
	case deps.Frontier == nil:
		return nil, errors.New("worker: frontier is required")
	case deps.Claims == nil:
		return nil, errors.New("worker: claimer is required")
	case deps.Fetcher == nil:
		return nil, errors.New("worker: fetcher is required")
	case deps.Sink == nil:
		return nil, errors.New("worker: sink is required")
	case deps.Extractor == nil:
		return nil, errors.New("worker: link extractor is required")
	}
	if deps.Clock == nil {
		deps.Clock = system.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics.Init()
	return &Worker{deps: deps, cfg: cfg, logger: logger}, nil
}

// Run blocks until the frontier drains, returning nil, or until ctx ends,
// returning its error. Task-level failures are logged and never returned.
// A task cut short by cancellation is not marked done, so an interrupted
// crawl never reports itself drained.
func (w *Worker) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("worker stopped: %w", err)
		}
		url, err := w.deps.Frontier.Dequeue(ctx)
		if errors.Is(err, frontier.ErrDrained) {
			w.logger.Debug("frontier drained, worker exiting")
			return nil
		}
		if err != nil {
			return fmt.Errorf("worker dequeue: %w", err)
		}

		claimed := w.process(ctx, url)
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("worker interrupted on %s: %w", url, err)
		}
		if claimed {
			crawler.Pause(ctx, w.cfg.TaskDelay)
		}

		if w.deps.Frontier.Done() {
			w.logger.Info("last task finished, frontier drained")
		}
		metrics.SetInFlight(w.deps.Frontier.Pending())
	}
}

// process runs one task and reports whether this worker claimed the URL.
func (w *Worker) process(ctx context.Context, url string) bool {
	metrics.IncActiveWorkers()
	defer metrics.DecActiveWorkers()

	log := w.logger.With(zap.String("url", url))

	if !w.deps.Claims.TryClaim(url) {
		log.Debug("url already claimed, skipping")
		metrics.ObservePage(url, metrics.StatusDuplicate, 0)
		return false
	}

	resp, err := w.fetch(ctx, url)
	if err != nil {
		log.Warn("fetch failed", zap.Error(err))
		metrics.ObservePage(url, metrics.StatusFetchError, 0)
		return true
	}

	contentType := resp.ContentType()
	name := crawler.DeriveName(url)
	if err := w.deps.Sink.Save(ctx, name, resp.Body, contentType); err != nil {
		log.Error("save failed", zap.String("object", name), zap.Error(err))
		metrics.ObservePage(url, metrics.StatusStoreError, 0)
		return true
	}
	metrics.ObservePage(url, metrics.StatusStored, len(resp.Body))
	log.Debug("page stored",
		zap.String("object", name),
		zap.String("content_type", contentType),
		zap.Int("bytes", len(resp.Body)),
	)

	w.recordAndPublish(ctx, url, name, contentType, resp)

	if !crawler.IsHTML(contentType) {
		return true
	}
	w.enqueueLinks(url, string(resp.Body))
	return true
}

func (w *Worker) fetch(ctx context.Context, url string) (crawler.FetchResponse, error) {
	for attempt := 0; ; attempt++ {
		start := w.deps.Clock.Now()
		resp, err := w.deps.Fetcher.Fetch(ctx, url)
		metrics.ObserveFetch(w.deps.Clock.Now().Sub(start))
		if err == nil {
			return resp, nil
		}
		if ctx.Err() != nil {
			return resp, fmt.Errorf("fetch %s: %w", url, ctx.Err())
		}
		if w.deps.Retry == nil || !w.deps.Retry.ShouldRetry(err, attempt) {
			return resp, err
		}
		backoff := w.deps.Retry.Backoff(attempt)
		w.logger.Debug("retrying fetch",
			zap.String("url", url),
			zap.Int("attempt", attempt+1),
			zap.Duration("backoff", backoff),
			zap.Error(err),
		)
		crawler.Pause(ctx, backoff)
		if ctx.Err() != nil {
			return resp, fmt.Errorf("fetch %s: %w", url, ctx.Err())
		}
	}
}

func (w *Worker) recordAndPublish(
	ctx context.Context,
	url string,
	name string,
	contentType string,
	resp crawler.FetchResponse,
) {
	if w.deps.Recorder == nil && (w.deps.Publisher == nil || w.cfg.Topic == "") {
		return
	}
	rec := crawler.PageRecord{
		SessionID:   w.cfg.SessionID,
		URL:         url,
		Object:      name,
		ContentType: contentType,
		Bytes:       len(resp.Body),
		StatusCode:  resp.StatusCode,
		FetchedAt:   w.deps.Clock.Now(),
		DurationMs:  resp.Duration.Milliseconds(),
	}
	if w.deps.Hasher != nil {
		hash, err := w.deps.Hasher.Hash(resp.Body)
		if err != nil {
			w.logger.Error("hash body failed", zap.String("url", url), zap.Error(err))
		}
		rec.Hash = hash
	}

	if w.deps.Recorder != nil {
		if err := w.deps.Recorder.RecordPage(ctx, rec); err != nil {
			w.logger.Error("record page failed", zap.String("url", url), zap.Error(err))
		}
	}
	if w.deps.Publisher != nil && w.cfg.Topic != "" {
		id, err := w.deps.Publisher.Publish(ctx, w.cfg.Topic, rec)
		if err != nil {
			w.logger.Error("publish page failed", zap.String("url", url), zap.Error(err))
			return
		}
		w.logger.Debug("page published", zap.String("url", url), zap.String("message_id", id))
	}
}

func (w *Worker) enqueueLinks(pageURL string, body string) {
	links, err := w.deps.Extractor.Extract(pageURL, body)
	if err != nil {
		w.logger.Warn("link extraction failed", zap.String("url", pageURL), zap.Error(err))
		return
	}
	enqueued := 0
	for _, link := range links {
		if err := w.deps.Frontier.Enqueue(link); err != nil {
			w.logger.Error("enqueue failed", zap.String("url", pageURL), zap.String("link", link), zap.Error(err))
			continue
		}
		enqueued++
	}
	metrics.AddLinksEnqueued(enqueued)
	w.logger.Debug("links enqueued", zap.String("url", pageURL), zap.Int("count", enqueued))
}
