package redis

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"trivia-quiz-service/internal/domain"
	"trivia-quiz-service/internal/logging"
	"trivia-quiz-service/internal/selector"
)

// Selector computes a selection on cache miss.
type Selector interface {
	SelectDetailed(req domain.SelectionRequest) (selector.Selection, error)
}

// Resolver turns cached question keys back into full questions.
type Resolver interface {
	Resolve(keys []domain.DedupKey) ([]domain.Question, error)
}

// SelectionCache keeps per-user daily selections in Redis so every instance
// hands the same user the same set for the day. Only question keys are
// stored: SET trivia:selection:{cacheKey} {json}.
// A cached set that no longer resolves against the loaded bank is treated as a miss.
type SelectionCache struct {
	client   *redis.Client
	selector Selector
	resolver Resolver
	ttl      time.Duration
	sf       singleflight.Group

	mu  sync.Mutex
	rnd *rand.Rand
}

type cachedSelection struct {
	Keys         []domain.DedupKey `json:"keys"`
	FromCategory int               `json:"fromCategory"`
	FromFallback int               `json:"fromFallback"`
	CategoryMiss bool              `json:"categoryMiss,omitempty"`
	Seed         int64             `json:"seed"`
}

func NewSelectionCache(client *redis.Client, sel Selector, resolver Resolver, ttl time.Duration) *SelectionCache {
	return &SelectionCache{
		client:   client,
		selector: sel,
		resolver: resolver,
		ttl:      ttl,
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *SelectionCache) Select(ctx context.Context, req domain.SelectionRequest) (selector.Selection, error) {
	if req.Anonymous() {
		return c.selector.SelectDetailed(req)
	}
	key := c.key(req)

	if sel, ok := c.lookup(ctx, key); ok {
		return sel, nil
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if sel, ok := c.lookup(ctx, key); ok {
			return sel, nil
		}
		sel, err := c.selector.SelectDetailed(req)
		if err != nil {
			return selector.Selection{}, err
		}
		c.store(ctx, key, sel)
		return sel, nil
	})
	if err != nil {
		return selector.Selection{}, err
	}
	return result.(selector.Selection), nil
}

func (c *SelectionCache) key(req domain.SelectionRequest) string {
	return "trivia:selection:" + req.CacheKey()
}

func (c *SelectionCache) lookup(ctx context.Context, key string) (selector.Selection, bool) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger := logging.FromContext(ctx)
			logger.Warn().Err(err).Str("key", key).Msg("selection cache read failed")
		}
		return selector.Selection{}, false
	}

	var cached cachedSelection
	if err := json.Unmarshal(raw, &cached); err != nil {
		return selector.Selection{}, false
	}
	questions, err := c.resolver.Resolve(cached.Keys)
	if err != nil {
		return selector.Selection{}, false
	}
	return selector.Selection{
		Questions:    questions,
		FromCategory: cached.FromCategory,
		FromFallback: cached.FromFallback,
		CategoryMiss: cached.CategoryMiss,
		Seed:         cached.Seed,
	}, true
}

func (c *SelectionCache) store(ctx context.Context, key string, sel selector.Selection) {
	cached := cachedSelection{
		Keys:         make([]domain.DedupKey, len(sel.Questions)),
		FromCategory: sel.FromCategory,
		FromFallback: sel.FromFallback,
		CategoryMiss: sel.CategoryMiss,
		Seed:         sel.Seed,
	}
	for i, q := range sel.Questions {
		cached.Keys[i] = q.Key()
	}
	raw, err := json.Marshal(cached)
	if err != nil {
		return
	}
	// best-effort: a failed write only costs a recomputation
	if err := c.client.Set(ctx, key, raw, c.ttlWithJitter()).Err(); err != nil {
		logger := logging.FromContext(ctx)
		logger.Warn().Err(err).Str("key", key).Msg("selection cache write failed")
	}
}

func (c *SelectionCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
