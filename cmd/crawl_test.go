package cmd

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/frontier-crawler/internal/config"
)

func newTestSite(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "text/html")
		switch r.URL.Path {
		case "/":
			fmt.Fprintf(w, `<a href="%s/next">next</a>`, srv.URL)
		default:
			fmt.Fprint(w, "<p>leaf</p>")
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestCrawlCommandWritesLocalFiles(t *testing.T) {
	t.Parallel()

	srv, hits := newTestSite(t)
	out := t.TempDir()

	root := newRootCmd(viper.New())
	root.SetArgs([]string{"crawl", "-u", srv.URL + "/", "-w", "2", "-s", "local", "-o", out})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, root.ExecuteContext(ctx))

	assert.Equal(t, int32(2), hits.Load())
	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestCrawlCommandRejectsMissingSeeds(t *testing.T) {
	t.Parallel()

	root := newRootCmd(viper.New())
	root.SetArgs([]string{"crawl", "-s", "memory"})
	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "seeds")
}

func TestCrawlCommandReadsConfigFile(t *testing.T) {
	t.Parallel()

	srv, hits := newTestSite(t)
	path := filepath.Join(t.TempDir(), "crawler.yaml")
	body := fmt.Sprintf("crawler:\n  seeds:\n    - %s/next\n  workers: 1\nstorage:\n  backend: memory\n", srv.URL)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	root := newRootCmd(viper.New())
	root.SetArgs([]string{"crawl", "--config", path})
	require.NoError(t, root.Execute())
	assert.Equal(t, int32(1), hits.Load())
}

func TestFlagsOverrideConfigKeys(t *testing.T) {
	t.Parallel()

	v := viper.New()
	root := newRootCmd(v)
	crawl, _, err := root.Find([]string{"crawl"})
	require.NoError(t, err)
	require.NoError(t, crawl.ParseFlags([]string{
		"--seed", "https://a.test", "--seed", "https://b.test",
		"-w", "9", "-s", "gcs", "-b", "bucket-1", "-p", "raw/",
	}))

	assert.Equal(t, []string{"https://a.test", "https://b.test"}, v.GetStringSlice("crawler.seeds"))
	assert.Equal(t, 9, v.GetInt("crawler.workers"))
	assert.Equal(t, "gcs", v.GetString("storage.backend"))
	assert.Equal(t, "bucket-1", v.GetString("storage.bucket"))
	assert.Equal(t, "raw/", v.GetString("storage.prefix"))
}

func TestRunCrawlMaxDuration(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})

	cfg := config.Config{
		Crawler: config.CrawlerConfig{
			Seeds:          []string{srv.URL + "/slow"},
			Workers:        1,
			RequestTimeout: time.Minute,
			MaxBodyBytes:   1 << 20,
			MaxDuration:    100 * time.Millisecond,
		},
		Storage: config.StorageConfig{Backend: config.BackendMemory},
	}
	err := runCrawl(context.Background(), cfg, zap.NewNop())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
