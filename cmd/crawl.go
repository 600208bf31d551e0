package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/JakeFAU/frontier-crawler/internal/api"
	"github.com/JakeFAU/frontier-crawler/internal/config"
	"github.com/JakeFAU/frontier-crawler/internal/crawler"
	"github.com/JakeFAU/frontier-crawler/internal/extract"
	collyfetcher "github.com/JakeFAU/frontier-crawler/internal/fetcher/colly"
	"github.com/JakeFAU/frontier-crawler/internal/hash/sha256"
	"github.com/JakeFAU/frontier-crawler/internal/logging"
	gcppublisher "github.com/JakeFAU/frontier-crawler/internal/publisher/pubsub"
	"github.com/JakeFAU/frontier-crawler/internal/session"
	"github.com/JakeFAU/frontier-crawler/internal/storage"
	pgstore "github.com/JakeFAU/frontier-crawler/internal/storage/postgres"
)

// flagBindings maps crawl flags onto config keys.
var flagBindings = map[string]string{
	"seed":    "crawler.seeds",
	"workers": "crawler.workers",
	"storage": "storage.backend",
	"bucket":  "storage.bucket",
	"prefix":  "storage.prefix",
	"output":  "storage.local_dir",
}

func newCrawlCmd(v *viper.Viper, cfgFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Crawl outward from the seed URLs until the frontier drains",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*cfgFile, v)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger, err := logging.New(cfg.Logging)
			if err != nil {
				return fmt.Errorf("logger init failed: %w", err)
			}
			defer func() { _ = logger.Sync() }()
			zap.ReplaceGlobals(logger)

			return runCrawl(cmd.Context(), cfg, logger)
		},
	}

	flags := cmd.Flags()
	flags.StringSliceP("seed", "u", nil, "seed URL (repeatable)")
	flags.IntP("workers", "w", 0, "number of concurrent workers")
	flags.StringP("storage", "s", "", "storage backend: local, gcs, s3 or memory")
	flags.StringP("bucket", "b", "", "bucket for the gcs and s3 backends")
	flags.StringP("prefix", "p", "", "object key prefix for the gcs and s3 backends, prepended verbatim (include a trailing / for a directory)")
	flags.StringP("output", "o", "", "output directory for the local backend")
	bindFlags(v, flags)

	return cmd
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	for name, key := range flagBindings {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			panic(fmt.Sprintf("bind flag %s: %v", name, err))
		}
	}
}

func runCrawl(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if cfg.Crawler.MaxDuration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Crawler.MaxDuration)
		defer cancel()
	}

	sink, err := storage.NewSink(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("storage init failed: %w", err)
	}
	defer func() {
		if cerr := sink.Close(); cerr != nil {
			logger.Warn("storage close failed", zap.Error(cerr))
		}
	}()
	logger.Info("storage ready", zap.String("backend", cfg.Storage.Backend))

	deps := session.Deps{
		Fetcher: collyfetcher.New(collyfetcher.Config{
			UserAgent:    cfg.Crawler.UserAgent,
			Timeout:      cfg.Crawler.RequestTimeout,
			MaxBodyBytes: cfg.Crawler.MaxBodyBytes,
		}),
		Sink:      sink,
		Extractor: extract.New(extract.Options{ResolveRelative: cfg.Crawler.ResolveRelativeLinks}),
		Hasher:    sha256.New(),
	}
	if cfg.Crawler.FetchRetries > 0 {
		deps.Retry = crawler.NewExponentialRetryPolicy(cfg.Crawler.FetchRetries)
	}

	if cfg.DB.Enabled() {
		pages, err := setupPageStore(ctx, cfg.DB)
		if err != nil {
			return err
		}
		defer pages.Close()
		deps.Recorder = pages
		logger.Info("page index ready", zap.String("table", cfg.DB.Table))
	} else {
		logger.Debug("no DSN configured, page index disabled")
	}

	var topic string
	if cfg.PubSub.Enabled() {
		pub, err := gcppublisher.Open(ctx, cfg.PubSub.ProjectID, cfg.PubSub.TopicName)
		if err != nil {
			return fmt.Errorf("pubsub init failed: %w", err)
		}
		defer func() {
			if cerr := pub.Close(); cerr != nil {
				logger.Warn("pubsub close failed", zap.Error(cerr))
			}
		}()
		deps.Publisher = pub
		topic = cfg.PubSub.TopicName
		logger.Info("Pub/Sub publisher initialized",
			zap.String("project", cfg.PubSub.ProjectID),
			zap.String("topic", topic),
		)
	}

	sess, err := session.New(deps, session.Config{
		Workers:   cfg.Crawler.Workers,
		TaskDelay: cfg.Crawler.TaskDelay,
		Topic:     topic,
	}, logger)
	if err != nil {
		return fmt.Errorf("session init failed: %w", err)
	}
	sess.Seed(cfg.Crawler.Seeds)

	if cfg.Server.Addr != "" {
		shutdown := startStatusServer(cfg.Server.Addr, api.NewServer(sess, logger.Named("api")), logger)
		defer shutdown()
	}

	if err := sess.Run(ctx); err != nil {
		logger.Error("crawl did not complete", zap.Error(err))
		return fmt.Errorf("run crawl: %w", err)
	}
	return nil
}

func setupPageStore(ctx context.Context, cfg config.DBConfig) (*pgstore.PageStore, error) {
	pages, err := pgstore.NewPageStore(ctx, pgstore.PageStoreConfig{
		DSN:      cfg.DSN,
		Table:    cfg.Table,
		MaxConns: cfg.MaxConns,
	})
	if err != nil {
		return nil, fmt.Errorf("page store init failed: %w", err)
	}
	if err := pages.EnsureTable(ctx); err != nil {
		pages.Close()
		return nil, fmt.Errorf("page store init failed: %w", err)
	}
	return pages, nil
}

// startStatusServer serves handler on addr in the background and returns a
// function that shuts it down.
func startStatusServer(addr string, server *api.Server, logger *zap.Logger) func() {
	srv := &http.Server{
		Addr:              addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("status server started", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("status server error", zap.Error(err))
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Warn("status server shutdown error", zap.Error(err))
		}
	}
}
