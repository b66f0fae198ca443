package xmlfactory

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// WorkerID identifies the execution unit that owns a cached builder.
type WorkerID uuid.UUID

// NewWorkerID returns a random worker identity.
func NewWorkerID() WorkerID {
	return WorkerID(uuid.New())
}

// String returns the canonical UUID form.
func (id WorkerID) String() string {
	return uuid.UUID(id).String()
}

// CacheStats reports builder cache activity.
type CacheStats struct {
	Builders    int
	Derivations int64
	Reuses      int64
}

// BuilderCache keeps one builder per worker. The map is locked only for
// membership changes; a cached builder is used by its worker alone.
type BuilderCache struct {
	provider    *FactoryProvider
	builders    map[WorkerID]*Builder
	mu          sync.Mutex
	derivations atomic.Int64
	reuses      atomic.Int64
}

// NewBuilderCache returns an empty cache drawing on provider. A nil
// provider means DefaultProvider().
func NewBuilderCache(provider *FactoryProvider) *BuilderCache {
	if provider == nil {
		provider = DefaultProvider()
	}
	return &BuilderCache{
		provider: provider,
		builders: make(map[WorkerID]*Builder),
	}
}

// Acquire returns the builder owned by id, deriving one on first use. The
// builder is reset before it is returned. A failed derivation is not
// cached, so the next call retries it.
func (c *BuilderCache) Acquire(id WorkerID) (*Builder, error) {
	c.mu.Lock()
	b, ok := c.builders[id]
	c.mu.Unlock()
	if ok {
		c.reuses.Add(1)
		c.provider.tel.BuilderReused(context.Background())
		b.Reset()
		return b, nil
	}

	f, err := c.provider.Factory()
	if err != nil {
		return nil, err
	}
	b, err = f.NewBuilder()
	if err != nil {
		c.provider.tel.Logger().WithField("worker", id.String()).WithError(err).Warn("builder derivation failed")
		return nil, err
	}
	c.derivations.Add(1)
	c.provider.tel.BuilderDerived(context.Background())

	c.mu.Lock()
	c.builders[id] = b
	c.mu.Unlock()

	b.Reset()
	return b, nil
}

// Evict drops the builder owned by id.
func (c *BuilderCache) Evict(id WorkerID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.builders, id)
}

// Len reports the number of cached builders.
func (c *BuilderCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.builders)
}

// Stats returns the cache size and its derivation and reuse counters.
func (c *BuilderCache) Stats() CacheStats {
	return CacheStats{
		Builders:    c.Len(),
		Derivations: c.derivations.Load(),
		Reuses:      c.reuses.Load(),
	}
}

// NewWorker registers a new worker identity with the cache.
func (c *BuilderCache) NewWorker() *Worker {
	return &Worker{id: NewWorkerID(), cache: c}
}
