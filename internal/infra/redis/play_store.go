package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"trivia-quiz-service/internal/app"
	"trivia-quiz-service/internal/logging"
)

// PlayStore is a Redis-aware implementation of app.PlayRepository.
// Notes:
//   - Machines live in a local map; a play is owned by the instance whose
//     connection started it.
//   - Redis carries a liveness marker per play (trivia:play:{id}) so other
//     instances and operators can see which plays are running.
type PlayStore struct {
	client *redis.Client
	ttl    time.Duration
	mu     sync.RWMutex
	plays  map[string]*app.Play
}

func NewPlayStore(client *redis.Client, ttl time.Duration) *PlayStore {
	return &PlayStore{
		client: client,
		ttl:    ttl,
		plays:  make(map[string]*app.Play),
	}
}

func (s *PlayStore) Put(play *app.Play) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plays[play.ID()] = play
	// best-effort liveness marker
	_ = s.client.Set(context.Background(), s.key(play.ID()), "1", s.ttl).Err()
}

// Get returns a local play and extends its liveness marker.
func (s *PlayStore) Get(playID string) (*app.Play, bool) {
	s.mu.RLock()
	play, ok := s.plays[playID]
	s.mu.RUnlock()
	if ok {
		_ = s.client.Expire(context.Background(), s.key(playID), s.ttl).Err()
	}
	return play, ok
}

func (s *PlayStore) Delete(playID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.plays[playID]; !ok {
		return
	}
	delete(s.plays, playID)
	_ = s.client.Del(context.Background(), s.key(playID)).Err()
}

// Len reports the number of plays held by this instance.
func (s *PlayStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.plays)
}

// Sweep drops local plays whose liveness key has expired and returns how many it removed.
func (s *PlayStore) Sweep(ctx context.Context) (int, error) {
	s.mu.RLock()
	ids := make([]string, 0, len(s.plays))
	for id := range s.plays {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	if len(ids) == 0 {
		return 0, nil
	}

	pipe := s.client.Pipeline()
	checks := make([]*redis.IntCmd, len(ids))
	for i, id := range ids {
		checks[i] = pipe.Exists(ctx, s.key(id))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}

	removed := 0
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, id := range ids {
		if checks[i].Val() == 0 {
			delete(s.plays, id)
			removed++
		}
	}
	return removed, nil
}

// Run sweeps every interval until ctx is done.
func (s *PlayStore) Run(ctx context.Context, interval time.Duration) {
	logger := logging.FromContext(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.Sweep(ctx)
			if err != nil {
				logger.Warn().Err(err).Msg("play store sweep failed")
				continue
			}
			if n > 0 {
				logger.Debug().Int("removed", n).Msg("expired plays swept")
			}
		}
	}
}

func (s *PlayStore) key(playID string) string {
	return "trivia:play:" + playID
}
