package app

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"room_booking/internal/domain"
)

// ListCache fronts the listing cache shared by CommandService and
// QueryService. Writers bump a per-prefix generation before dropping keys; a
// load that started under an older generation never stores its result.
//
// A ListCache without a backing store still tracks generations, so
// concurrent loads are never joined across a write.
type ListCache struct {
	store domain.Cache

	mu  sync.Mutex
	gen map[string]uint64
}

// NewListCache wraps store. store may be nil to disable caching.
func NewListCache(store domain.Cache) *ListCache {
	return &ListCache{store: store, gen: map[string]uint64{}}
}

func (c *ListCache) generation(prefix string) uint64 {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen[prefix]
}

func (c *ListCache) get(ctx context.Context, key string, dst any) bool {
	if c == nil || c.store == nil {
		return false
	}
	ok, err := c.store.Get(ctx, key, dst)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache read failed")
		return false
	}
	return ok
}

// fill stores v under key unless prefix was invalidated after gen was read.
// The check and the write happen under the same lock invalidate takes.
func (c *ListCache) fill(ctx context.Context, prefix string, gen uint64, key string, v any, ttl time.Duration) bool {
	if c == nil || c.store == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen[prefix] != gen {
		return false
	}
	if err := c.store.Set(ctx, key, v, int(ttl.Seconds())); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache write failed")
		return false
	}
	return true
}

// invalidate drops cached listings. Failures only cost freshness until the TTL
// expires, so they are logged and not returned.
func (c *ListCache) invalidate(ctx context.Context, prefixes ...string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, p := range prefixes {
		c.gen[p]++
		if c.store == nil {
			continue
		}
		if err := c.store.DelPrefix(ctx, p); err != nil {
			log.Warn().Err(err).Str("prefix", p).Msg("cache invalidation failed")
		}
	}
}
