package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"trivia-quiz-service/internal/domain"
	"trivia-quiz-service/internal/selector"
)

// Selector computes a selection on cache miss.
type Selector interface {
	SelectDetailed(req domain.SelectionRequest) (selector.Selection, error)
}

// sweepThreshold is the entry count above which inserts purge expired entries.
const sweepThreshold = 4096

// SelectionCache memoizes per-user daily selections with a TTL. Anonymous
// requests always go to the selector.
type SelectionCache struct {
	selector Selector
	ttl      time.Duration
	clock    func() time.Time
	sf       singleflight.Group

	mu    sync.RWMutex
	rnd   *rand.Rand
	cache map[string]cachedSelection
}

type cachedSelection struct {
	selection selector.Selection
	expiresAt time.Time
}

func NewSelectionCache(sel Selector, ttl time.Duration) *SelectionCache {
	return &SelectionCache{
		selector: sel,
		ttl:      ttl,
		clock:    time.Now,
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:    make(map[string]cachedSelection),
	}
}

func (c *SelectionCache) Select(_ context.Context, req domain.SelectionRequest) (selector.Selection, error) {
	if req.Anonymous() {
		return c.selector.SelectDetailed(req)
	}
	key := req.CacheKey()

	if sel, ok := c.lookup(key); ok {
		return sel, nil
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if sel, ok := c.lookup(key); ok {
			return sel, nil
		}
		sel, err := c.selector.SelectDetailed(req)
		if err != nil {
			return selector.Selection{}, err
		}
		c.store(key, sel)
		return sel, nil
	})
	if err != nil {
		return selector.Selection{}, err
	}
	return result.(selector.Selection), nil
}

// Len reports the number of cached entries, expired ones included.
func (c *SelectionCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache)
}

func (c *SelectionCache) lookup(key string) (selector.Selection, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.cache[key]
	if !ok || !entry.expiresAt.After(c.clock()) {
		return selector.Selection{}, false
	}
	return entry.selection, true
}

func (c *SelectionCache) store(key string, sel selector.Selection) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.clock()
	if len(c.cache) >= sweepThreshold {
		for k, entry := range c.cache {
			if !entry.expiresAt.After(now) {
				delete(c.cache, k)
			}
		}
	}
	c.cache[key] = cachedSelection{
		selection: sel,
		expiresAt: now.Add(c.ttlWithJitterLocked()),
	}
}

func (c *SelectionCache) ttlWithJitterLocked() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
