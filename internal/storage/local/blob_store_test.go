// Package local_test tests the local filesystem sink.
package local_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/frontier-crawler/internal/crawler"
	"github.com/JakeFAU/frontier-crawler/internal/storage/local"
)

func TestNew(t *testing.T) {
	t.Run("ValidConfig", func(t *testing.T) {
		store, err := local.New(local.Config{BaseDir: t.TempDir()})
		require.NoError(t, err)
		assert.NotNil(t, store)
	})

	t.Run("CreatesMissingDir", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "nested", "out")
		_, err := local.New(local.Config{BaseDir: dir})
		require.NoError(t, err)
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("MissingBaseDir", func(t *testing.T) {
		_, err := local.New(local.Config{})
		assert.Error(t, err)
	})

	t.Run("BaseDirIsNotADirectory", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "testfile")
		require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))
		_, err := local.New(local.Config{BaseDir: file})
		assert.Error(t, err)
	})

	t.Run("BaseDirNotWritable", func(t *testing.T) {
		if os.Geteuid() == 0 {
			t.Skip("root ignores directory permissions")
		}
		tempDir := t.TempDir()
		// #nosec G302 -- directory permissions adjusted intentionally for test coverage.
		require.NoError(t, os.Chmod(tempDir, 0o500))
		_, err := local.New(local.Config{BaseDir: tempDir})
		assert.Error(t, err)
		// #nosec G302 -- reverting permissions to allow cleanup in the test environment.
		require.NoError(t, os.Chmod(tempDir, 0o700))
	})
}

func TestSave(t *testing.T) {
	tempDir := t.TempDir()
	store, err := local.New(local.Config{BaseDir: tempDir})
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, store.Close()) })

	t.Run("FlatName", func(t *testing.T) {
		data := []byte("<html></html>")
		require.NoError(t, store.Save(context.Background(), "example.com.html", data, "text/html"))

		// #nosec G304 -- test reads from the controlled temp directory.
		readData, err := os.ReadFile(filepath.Join(tempDir, "example.com.html"))
		require.NoError(t, err)
		assert.Equal(t, data, readData)
	})

	t.Run("NestedName", func(t *testing.T) {
		data := []byte("nested hello")
		require.NoError(t, store.Save(context.Background(), "a/b/c/object.txt", data, ""))

		// #nosec G304 -- test reads from the controlled temp directory.
		readData, err := os.ReadFile(store.Path("a/b/c/object.txt"))
		require.NoError(t, err)
		assert.Equal(t, data, readData)
	})

	t.Run("Overwrite", func(t *testing.T) {
		require.NoError(t, store.Save(context.Background(), "same.json", []byte("one"), "application/json"))
		require.NoError(t, store.Save(context.Background(), "same.json", []byte("two"), "application/json"))
		// #nosec G304 -- test reads from the controlled temp directory.
		readData, err := os.ReadFile(store.Path("same.json"))
		require.NoError(t, err)
		assert.Equal(t, "two", string(readData))
	})

	t.Run("EmptyName", func(t *testing.T) {
		err := store.Save(context.Background(), " ", []byte("data"), "text/plain")
		assert.ErrorIs(t, err, crawler.ErrEmptyName)
	})

	t.Run("PathTraversal", func(t *testing.T) {
		err := store.Save(context.Background(), "../escape.html", []byte("data"), "text/html")
		assert.Error(t, err)
	})

	t.Run("ConcurrentDistinctNames", func(t *testing.T) {
		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				name := fmt.Sprintf("concurrent_-%d.html", i)
				assert.NoError(t, store.Save(context.Background(), name, []byte(name), "text/html"))
			}(i)
		}
		wg.Wait()
		entries, err := filepath.Glob(filepath.Join(tempDir, "concurrent_-*.html"))
		require.NoError(t, err)
		assert.Len(t, entries, 16)
	})
}
