package knowledge

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestWatcher_StartStop(t *testing.T) {
	watcher, err := NewWatcher(t.TempDir(), func(context.Context, []string) {}, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, watcher.Start(context.Background()))
	assert.True(t, watcher.IsWatching())

	// Starting twice is a no-op.
	require.NoError(t, watcher.Start(context.Background()))

	watcher.Stop()
	assert.False(t, watcher.IsWatching())

	// Stopping twice is a no-op.
	watcher.Stop()
}

func TestWatcher_BatchesChanges(t *testing.T) {
	dir := t.TempDir()

	var mu sync.Mutex
	var batches [][]string
	handler := func(_ context.Context, paths []string) {
		mu.Lock()
		batches = append(batches, paths)
		mu.Unlock()
	}

	watcher, err := NewWatcher(dir, handler, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, watcher.Start(context.Background()))
	defer watcher.Stop()

	docPath := filepath.Join(dir, "guide.md")
	require.NoError(t, os.WriteFile(docPath, []byte("# Guide"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.png"), []byte{1}, 0o644))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(batches) > 0
	}, 5*time.Second, 50*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, batches, 1, "rapid events settle into one batch")
	assert.Equal(t, []string{docPath}, batches[0])

	stats := watcher.Stats()
	assert.Equal(t, 1, stats.BatchesProcessed)
	assert.Equal(t, docPath, stats.LastEventPath)
}
