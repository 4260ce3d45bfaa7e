package watch

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestBurstOfWritesFiresOnce(t *testing.T) {
	dir := t.TempDir()
	store := filepath.Join(dir, "log.db")
	require.NoError(t, os.WriteFile(store, nil, 0o644))

	var fired atomic.Int32
	w, err := New(store, func() { fired.Add(1) }, discard())
	require.NoError(t, err)
	w.debounce = 50 * time.Millisecond
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(store, []byte{byte(i)}, 0o644))
	}
	require.Eventually(t, func() bool { return fired.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, int32(1), fired.Load())
}

func TestWALSidecarCounts(t *testing.T) {
	dir := t.TempDir()
	store := filepath.Join(dir, "log.db")

	var fired atomic.Int32
	w, err := New(store, func() { fired.Add(1) }, discard())
	require.NoError(t, err)
	w.debounce = 20 * time.Millisecond
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	require.NoError(t, os.WriteFile(store+"-wal", []byte("x"), 0o644))
	require.Eventually(t, func() bool { return fired.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestUnrelatedFilesAreIgnored(t *testing.T) {
	dir := t.TempDir()
	store := filepath.Join(dir, "log.db")

	var fired atomic.Int32
	w, err := New(store, func() { fired.Add(1) }, discard())
	require.NoError(t, err)
	w.debounce = 20 * time.Millisecond
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0o644))
	time.Sleep(200 * time.Millisecond)
	assert.Zero(t, fired.Load())
}
