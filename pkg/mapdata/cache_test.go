package mapdata

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drive_router/pkg/graph"
	"drive_router/pkg/graph/graphtest"
)

type countingLoader struct {
	g     *graph.Graph
	err   atomic.Pointer[error]
	calls atomic.Int32
	gate  chan struct{} // when non-nil, Load blocks until it is closed
}

func (l *countingLoader) Load(ctx context.Context) (*graph.Graph, error) {
	l.calls.Add(1)
	if l.gate != nil {
		<-l.gate
	}
	if p := l.err.Load(); p != nil {
		return nil, *p
	}
	return l.g, nil
}

func (l *countingLoader) fail(err error) { l.err.Store(&err) }

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestCache(l Loader, ttl time.Duration) (*Cache, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewCache(l, ttl, nil)
	c.now = clock.Now
	return c, clock
}

func TestCacheLoadsOnce(t *testing.T) {
	l := &countingLoader{g: graphtest.Network(t)}
	c, _ := newTestCache(l, time.Hour)

	assert.Nil(t, c.Current())

	s1, err := c.Get(context.Background())
	require.NoError(t, err)
	s2, err := c.Get(context.Background())
	require.NoError(t, err)

	assert.Same(t, s1, s2)
	assert.Same(t, s1, c.Current())
	assert.Equal(t, int32(1), l.calls.Load())
	assert.Equal(t, int(s1.Graph.NumNodes), s1.Index.Len())
}

func TestCacheCollapsesConcurrentLoads(t *testing.T) {
	l := &countingLoader{g: graphtest.Network(t), gate: make(chan struct{})}
	c, _ := newTestCache(l, 0)

	const n = 16
	var wg sync.WaitGroup
	snaps := make([]*Snapshot, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := c.Get(context.Background())
			assert.NoError(t, err)
			snaps[i] = s
		}(i)
	}

	// Let every goroutine reach the shared load before releasing it.
	time.Sleep(50 * time.Millisecond)
	close(l.gate)
	wg.Wait()

	assert.Equal(t, int32(1), l.calls.Load())
	for _, s := range snaps {
		assert.Same(t, snaps[0], s)
	}
}

func TestCacheTTLRefresh(t *testing.T) {
	l := &countingLoader{g: graphtest.Network(t)}
	c, clock := newTestCache(l, time.Hour)

	s1, err := c.Get(context.Background())
	require.NoError(t, err)

	clock.Advance(30 * time.Minute)
	s2, err := c.Get(context.Background())
	require.NoError(t, err)
	assert.Same(t, s1, s2)

	clock.Advance(31 * time.Minute)
	s3, err := c.Get(context.Background())
	require.NoError(t, err)
	assert.NotSame(t, s1, s3)
	assert.Equal(t, int32(2), l.calls.Load())
}

func TestCacheInvalidate(t *testing.T) {
	l := &countingLoader{g: graphtest.Network(t)}
	c, _ := newTestCache(l, 0)

	s1, err := c.Get(context.Background())
	require.NoError(t, err)
	c.Invalidate()
	s2, err := c.Get(context.Background())
	require.NoError(t, err)

	assert.NotSame(t, s1, s2)
	assert.Equal(t, int32(2), l.calls.Load())
}

func TestCacheServesStaleOnReloadFailure(t *testing.T) {
	l := &countingLoader{g: graphtest.Network(t)}
	c, _ := newTestCache(l, 0)

	s1, err := c.Get(context.Background())
	require.NoError(t, err)

	l.fail(ErrFetch)
	c.Invalidate()
	s2, err := c.Get(context.Background())
	require.NoError(t, err)
	assert.Same(t, s1, s2)
}

func TestCacheFirstLoadFailure(t *testing.T) {
	l := &countingLoader{}
	l.fail(ErrFetch)
	c, _ := newTestCache(l, 0)

	_, err := c.Get(context.Background())
	assert.ErrorIs(t, err, ErrFetch)
	assert.Nil(t, c.Current())
}

func TestCacheCallerContextCanceled(t *testing.T) {
	l := &countingLoader{g: graphtest.Network(t), gate: make(chan struct{})}
	c, _ := newTestCache(l, 0)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := c.Get(ctx)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))

	// The load carries on and later callers get its result.
	close(l.gate)
	s, err := c.Get(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, s)
	assert.Equal(t, int32(1), l.calls.Load())
}
