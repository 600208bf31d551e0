// Package session owns the state of one crawl run: the frontier, the claim
// registry and the worker pool that drains them.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/JakeFAU/frontier-crawler/internal/crawler"
	"github.com/JakeFAU/frontier-crawler/internal/frontier"
	"github.com/JakeFAU/frontier-crawler/internal/id/uuid"
	"github.com/JakeFAU/frontier-crawler/internal/metrics"
	"github.com/JakeFAU/frontier-crawler/internal/registry"
	"github.com/JakeFAU/frontier-crawler/internal/worker"
)

// DefaultWorkers is used when Config.Workers is not positive.
const DefaultWorkers = 5

// Config controls the worker pool.
type Config struct {
	Workers   int
	TaskDelay time.Duration
	Topic     string
}

// Deps are the collaborators shared by every worker. IDs defaults to UUIDv7;
// Recorder, Publisher, Hasher, Clock and Retry are optional.
type Deps struct {
	Fetcher   crawler.Fetcher
	Sink      crawler.Sink
	Extractor crawler.LinkExtractor
	Recorder  crawler.PageRecorder
	Publisher crawler.Publisher
	Hasher    crawler.Hasher
	Clock     crawler.Clock
	Retry     crawler.RetryPolicy
	IDs       crawler.IDGenerator
}

// Stats is a point-in-time view of a session.
type Stats struct {
	ID      string `json:"id"`
	Pending int    `json:"pending"`
	Queued  int    `json:"queued"`
	Claimed int    `json:"claimed"`
	Workers int    `json:"workers"`
	Drained bool   `json:"drained"`
}

// Session is a single crawl run. It is not reusable once Run returns.
type Session struct {
	id       string
	frontier *frontier.Frontier
	registry *registry.Registry
	deps     Deps
	cfg      Config
	logger   *zap.Logger
	started  atomic.Bool
}

// New creates a session with a fresh frontier and registry.
func New(deps Deps, cfg Config, logger *zap.Logger) (*Session, error) {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if deps.IDs == nil {
		deps.IDs = uuid.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	id, err := deps.IDs.NewID()
	if err != nil {
		return nil, fmt.Errorf("session id: %w", err)
	}
	metrics.Init()
	return &Session{
		id:       id,
		frontier: frontier.New(),
		registry: registry.New(),
		deps:     deps,
		cfg:      cfg,
		logger:   logger.With(zap.String("session_id", id)),
	}, nil
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Seed pushes the initial URLs onto the frontier and returns how many were added.
func (s *Session) Seed(urls []string) int {
	n := s.frontier.Seed(urls)
	metrics.TrackSites(urls)
	metrics.SetInFlight(s.frontier.Pending())
	s.logger.Info("frontier seeded", zap.Int("seeds", n))
	return n
}

// Drained returns a channel closed once every task has finished.
func (s *Session) Drained() <-chan struct{} {
	return s.frontier.Drained()
}

// Run starts the worker pool and blocks until the frontier drains (nil) or
// ctx ends first (its error). A session without seeds drains immediately.
func (s *Session) Run(ctx context.Context) error {
	if !s.started.CompareAndSwap(false, true) {
		return errors.New("session already started")
	}
	if s.frontier.Pending() == 0 {
		s.frontier.Seed(nil)
	}

	workers := make([]*worker.Worker, 0, s.cfg.Workers)
	for i := 0; i < s.cfg.Workers; i++ {
		w, err := worker.New(worker.Deps{
			Frontier:  s.frontier,
			Claims:    s.registry,
			Fetcher:   s.deps.Fetcher,
			Sink:      s.deps.Sink,
			Extractor: s.deps.Extractor,
			Recorder:  s.deps.Recorder,
			Publisher: s.deps.Publisher,
			Hasher:    s.deps.Hasher,
			Clock:     s.deps.Clock,
			Retry:     s.deps.Retry,
		}, worker.Config{
			SessionID: s.id,
			TaskDelay: s.cfg.TaskDelay,
			Topic:     s.cfg.Topic,
		}, s.logger.Named("worker").With(zap.Int("index", i)))
		if err != nil {
			return fmt.Errorf("build worker %d: %w", i, err)
		}
		workers = append(workers, w)
	}

	s.logger.Info("crawl started", zap.Int("workers", len(workers)))
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	for _, w := range workers {
		g.Go(func() error {
			return w.Run(gctx)
		})
	}
	err := g.Wait()
	if err != nil && s.frontier.IsDrained() {
		s.logger.Debug("stop requested after the frontier drained", zap.Error(err))
		err = nil
	}

	stats := s.Stats()
	fields := []zap.Field{
		zap.Int("claimed", stats.Claimed),
		zap.Int("pending", stats.Pending),
		zap.Duration("elapsed", time.Since(start)),
	}
	if err != nil {
		s.logger.Warn("crawl stopped before draining", append(fields, zap.Error(err))...)
		return fmt.Errorf("crawl session %s: %w", s.id, err)
	}
	s.logger.Info("crawl finished", fields...)
	return nil
}

// Stats reports the current frontier and registry counts.
func (s *Session) Stats() Stats {
	return Stats{
		ID:      s.id,
		Pending: s.frontier.Pending(),
		Queued:  s.frontier.Len(),
		Claimed: s.registry.Len(),
		Workers: s.cfg.Workers,
		Drained: s.frontier.IsDrained(),
	}
}
