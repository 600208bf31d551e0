package gcs

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"cloud.google.com/go/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"github.com/JakeFAU/frontier-crawler/internal/crawler"
)

// newTestClient creates a storage client that talks to an httptest server.
func newTestClient(t *testing.T, handler http.Handler) *storage.Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := storage.NewClient(context.Background(), option.WithEndpoint(server.URL), option.WithoutAuthentication())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestNewValidation(t *testing.T) {
	t.Parallel()

	_, err := New(nil, Config{Bucket: "b"})
	require.Error(t, err)

	client := newTestClient(t, http.NotFoundHandler())
	_, err = New(client, Config{})
	require.Error(t, err)
}

func TestObjectName(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.NotFoundHandler())
	store, err := New(client, Config{Bucket: "b", Prefix: "crawled/"})
	require.NoError(t, err)
	assert.Equal(t, "crawled/example.com.html", store.ObjectName("example.com.html"))

	dashed, err := New(client, Config{Bucket: "b", Prefix: "crawl-"})
	require.NoError(t, err)
	assert.Equal(t, "crawl-example.com.html", dashed.ObjectName("example.com.html"))

	bare, err := New(client, Config{Bucket: "b"})
	require.NoError(t, err)
	assert.Equal(t, "example.com.html", bare.ObjectName("example.com.html"))
}

func TestSaveUploadsObject(t *testing.T) {
	t.Parallel()

	const bucketName = "test-bucket"
	bodies := make(chan string, 1)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, fmt.Sprintf("/b/%s/o", bucketName))
		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		bodies <- string(body)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"bucket": %q, "name": "crawled/example.com_-a.json"}`, bucketName)
	})

	store, err := New(newTestClient(t, handler), Config{Bucket: bucketName, Prefix: "crawled/"})
	require.NoError(t, err)

	err = store.Save(context.Background(), "example.com_-a.json", []byte(`{"k":"v"}`), "application/json")
	require.NoError(t, err)
	require.NoError(t, store.Close(), "borrowed client is left open")

	body := <-bodies
	assert.Contains(t, body, `{"k":"v"}`)
	assert.Contains(t, body, "crawled/example.com_-a.json")
	assert.True(t, strings.Contains(body, "application/json"))
}

func TestSaveError(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	store, err := New(newTestClient(t, handler), Config{Bucket: "test-bucket"})
	require.NoError(t, err)

	err = store.Save(context.Background(), "example.com.html", []byte("data"), "text/html")
	require.Error(t, err)
}

func TestSaveEmptyName(t *testing.T) {
	t.Parallel()

	store, err := New(newTestClient(t, http.NotFoundHandler()), Config{Bucket: "b"})
	require.NoError(t, err)
	require.ErrorIs(t, store.Save(context.Background(), "", nil, ""), crawler.ErrEmptyName)
}

func TestOpenWithEndpoint(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(server.Close)

	store, err := Open(context.Background(), Config{Bucket: "b", Endpoint: server.URL})
	require.NoError(t, err)
	require.NoError(t, store.Close())
}

func TestCheckBucket(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/b/present") {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"name": "present"}`)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})
	client := newTestClient(t, handler)

	present, err := New(client, Config{Bucket: "present"})
	require.NoError(t, err)
	require.NoError(t, present.CheckBucket(context.Background()))

	missing, err := New(client, Config{Bucket: "missing"})
	require.NoError(t, err)
	require.Error(t, missing.CheckBucket(context.Background()))
}
