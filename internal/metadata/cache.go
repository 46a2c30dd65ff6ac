package metadata

import (
	"context"
	"sync"
	"time"
)

type cacheEntry struct {
	metadata Metadata
	expires  time.Time
}

// CachingProvider wraps another Provider with a TTL-based in-memory
// cache keyed by title and genre, so re-publishing the same title does
// not burn model quota.
type CachingProvider struct {
	base Provider
	ttl  time.Duration

	mu    sync.RWMutex
	items map[string]cacheEntry
}

// NewCachingProvider returns a Provider that caches generations for the
// provided TTL.
func NewCachingProvider(base Provider, ttl time.Duration) *CachingProvider {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &CachingProvider{
		base:  base,
		ttl:   ttl,
		items: make(map[string]cacheEntry),
	}
}

// Generate returns cached metadata when available, otherwise it
// delegates to the underlying provider and stores the result.
func (c *CachingProvider) Generate(ctx context.Context, title, genre string) (Metadata, error) {
	if c == nil || c.base == nil {
		return Metadata{}, ErrProviderUnavailable
	}

	key := title + "\x00" + genre
	now := time.Now()

	c.mu.RLock()
	entry, ok := c.items[key]
	c.mu.RUnlock()
	if ok && now.Before(entry.expires) {
		return entry.metadata, nil
	}

	md, err := c.base.Generate(ctx, title, genre)
	if err != nil {
		return Metadata{}, err
	}

	c.mu.Lock()
	c.items[key] = cacheEntry{metadata: md, expires: now.Add(c.ttl)}
	c.mu.Unlock()

	return md, nil
}
