package refresh

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sysdash/internal/session"
)

type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) add(s string) {
	r.mu.Lock()
	r.calls = append(r.calls, s)
	r.mu.Unlock()
}

func (r *recorder) InvalidateAll() { r.add("invalidate") }

func (r *recorder) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestTickInvalidatesBeforeRender(t *testing.T) {
	rec := &recorder{}
	s, err := NewScheduler(rec, 30*time.Second, func(context.Context) { rec.add("render") }, discard())
	require.NoError(t, err)

	s.tick(context.Background())
	s.tick(context.Background())
	assert.Equal(t, []string{"invalidate", "render", "invalidate", "render"}, rec.Calls())
}

func TestTickSkipsWhenContextDone(t *testing.T) {
	rec := &recorder{}
	s, err := NewScheduler(rec, 30*time.Second, func(context.Context) { rec.add("render") }, discard())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.tick(ctx)
	assert.Empty(t, rec.Calls())
}

func TestNewSchedulerValidatesInterval(t *testing.T) {
	_, err := NewScheduler(&recorder{}, 5*time.Second, func(context.Context) {}, discard())
	assert.ErrorIs(t, err, session.ErrInvalidInterval)
}

func TestStopReturnsWithoutTicks(t *testing.T) {
	rec := &recorder{}
	s, err := NewScheduler(rec, 10*time.Second, func(context.Context) { rec.add("render") }, discard())
	require.NoError(t, err)

	s.Start(context.Background())
	s.Stop()
	assert.Empty(t, rec.Calls())
}
