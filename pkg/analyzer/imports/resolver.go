package imports

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
)

// ModuleResolver maps a symbol to the modules that declare it. An empty result
// means the declaring module is unknown.
type ModuleResolver interface {
	ResolveModules(ctx context.Context, usr string) ([]string, error)
}

// BatchResolver is implemented by resolvers that answer many lookups at once.
// Symbols missing from the returned map resolve to no modules.
type BatchResolver interface {
	ModuleResolver
	ResolveModulesBatch(ctx context.Context, usrs []string) (map[string][]string, error)
}

// ResolverFunc adapts a function to ModuleResolver.
type ResolverFunc func(ctx context.Context, usr string) ([]string, error)

// ResolveModules calls f(ctx, usr).
func (f ResolverFunc) ResolveModules(ctx context.Context, usr string) ([]string, error) {
	return f(ctx, usr)
}

const shardCount = 32

type shard struct {
	mu      sync.RWMutex
	modules map[string][]string
}

// CachedResolver memoizes successful lookups for the duration of one run.
// The symbol-to-module mapping is invariant within a run, so files share the cache.
// It is safe for concurrent use.
type CachedResolver struct {
	inner  ModuleResolver
	shards [shardCount]shard

	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewCachedResolver wraps inner with a per-run cache.
func NewCachedResolver(inner ModuleResolver) *CachedResolver {
	c := &CachedResolver{inner: inner}
	for i := range c.shards {
		c.shards[i].modules = make(map[string][]string)
	}
	return c
}

func (c *CachedResolver) shardFor(usr string) *shard {
	return &c.shards[xxhash.Sum64String(usr)%shardCount]
}

func (c *CachedResolver) lookup(usr string) ([]string, bool) {
	s := c.shardFor(usr)
	s.mu.RLock()
	defer s.mu.RUnlock()
	mods, ok := s.modules[usr]
	return mods, ok
}

func (c *CachedResolver) store(usr string, mods []string) {
	s := c.shardFor(usr)
	s.mu.Lock()
	s.modules[usr] = mods
	s.mu.Unlock()
}

// ResolveModules returns the cached modules for usr, asking the inner resolver
// on a miss. Failed lookups are not cached.
func (c *CachedResolver) ResolveModules(ctx context.Context, usr string) ([]string, error) {
	if mods, ok := c.lookup(usr); ok {
		c.hits.Add(1)
		return mods, nil
	}
	c.misses.Add(1)
	mods, err := c.inner.ResolveModules(ctx, usr)
	if err != nil {
		return nil, err
	}
	c.store(usr, mods)
	return mods, nil
}

// Prefetch resolves every uncached symbol in one batch when the inner resolver
// supports it. It is a no-op otherwise.
func (c *CachedResolver) Prefetch(ctx context.Context, usrs []string) error {
	batch, ok := c.inner.(BatchResolver)
	if !ok {
		return nil
	}
	var missing []string
	for _, usr := range usrs {
		if _, ok := c.lookup(usr); !ok {
			missing = append(missing, usr)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	c.misses.Add(uint64(len(missing)))
	resolved, err := batch.ResolveModulesBatch(ctx, missing)
	if err != nil {
		return err
	}
	for _, usr := range missing {
		c.store(usr, slices.Clone(resolved[usr]))
	}
	return nil
}

// Stats returns the cache hit and miss counts.
func (c *CachedResolver) Stats() (hits, misses uint64) {
	return c.hits.Load(), c.misses.Load()
}
