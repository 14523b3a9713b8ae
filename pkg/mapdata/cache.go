package mapdata

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"drive_router/pkg/graph"
	"drive_router/pkg/routing"
)

// DefaultTTL is how long a loaded graph is served before it is reloaded.
const DefaultTTL = 24 * time.Hour

// Loader produces an annotated graph. *Provider implements it.
type Loader interface {
	Load(ctx context.Context) (*graph.Graph, error)
}

// Snapshot is an immutable loaded network shared by concurrent requests.
type Snapshot struct {
	Graph    *graph.Graph
	Index    *routing.NodeIndex
	LoadedAt time.Time
}

// Cache lazily loads the network once per process and hands out the same
// Snapshot to every reader until it expires or is invalidated.
type Cache struct {
	loader Loader
	ttl    time.Duration // 0 disables expiry
	log    *zap.Logger
	now    func() time.Time

	group singleflight.Group

	mu      sync.RWMutex
	snap    *Snapshot
	expired bool
}

// NewCache creates an empty cache. Nothing is loaded until the first Get.
func NewCache(loader Loader, ttl time.Duration, log *zap.Logger) *Cache {
	if log == nil {
		log = zap.NewNop()
	}
	return &Cache{loader: loader, ttl: ttl, log: log, now: time.Now}
}

// Get returns the current snapshot, loading it first if there is none or it
// has expired. Concurrent callers share a single load. If a reload fails
// while an older snapshot exists, the older one is returned.
func (c *Cache) Get(ctx context.Context) (*Snapshot, error) {
	c.mu.RLock()
	snap, fresh := c.snap, c.freshLocked()
	c.mu.RUnlock()
	if fresh {
		return snap, nil
	}

	// The load outlives any single caller; each caller waits only as long
	// as its own context allows.
	ch := c.group.DoChan("graph", func() (any, error) {
		return c.load(context.WithoutCancel(ctx))
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Snapshot), nil
	}
}

// Current returns the loaded snapshot without triggering a load, or nil.
func (c *Cache) Current() *Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap
}

// Invalidate forces the next Get to reload. The old snapshot stays available
// as a fallback if that reload fails.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.expired = true
	c.mu.Unlock()
}

func (c *Cache) freshLocked() bool {
	if c.snap == nil || c.expired {
		return false
	}
	return c.ttl <= 0 || c.now().Sub(c.snap.LoadedAt) < c.ttl
}

func (c *Cache) load(ctx context.Context) (*Snapshot, error) {
	// A caller that queued behind a finished load may find it already done.
	c.mu.RLock()
	if c.freshLocked() {
		snap := c.snap
		c.mu.RUnlock()
		return snap, nil
	}
	c.mu.RUnlock()

	start := c.now()
	g, err := c.loader.Load(ctx)
	if err != nil {
		c.mu.RLock()
		stale := c.snap
		c.mu.RUnlock()
		if stale != nil {
			c.log.Warn("graph reload failed, serving previous snapshot",
				zap.Error(err),
				zap.Time("loaded_at", stale.LoadedAt),
			)
			return stale, nil
		}
		return nil, err
	}

	snap := &Snapshot{Graph: g, Index: routing.NewNodeIndex(g), LoadedAt: c.now()}

	c.mu.Lock()
	c.snap = snap
	c.expired = false
	c.mu.Unlock()

	c.log.Info("graph ready",
		zap.Uint32("nodes", g.NumNodes),
		zap.Uint32("edges", g.NumEdges),
		zap.Duration("took", snap.LoadedAt.Sub(start)),
	)
	return snap, nil
}
