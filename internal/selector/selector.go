// Package selector assembles the question set for one play.
//
// A selection is a pure function of the request and the repository contents:
// the same (user, day, category, count) always yields the same ordered list.
// Questions from the requested category come first; when the category cannot
// fill the request the rest of the repository tops it up.
package selector

import (
	"fmt"
	"time"

	"trivia-quiz-service/internal/domain"
	"trivia-quiz-service/internal/rng"
)

// Repository exposes the question pools the selector draws from.
type Repository interface {
	Questions(categoryID string) []domain.Question
	All() []domain.Question
}

// Options tunes a Selector.
type Options struct {
	// FallbackCategory replaces an empty or unknown category. When unset, or
	// itself empty, the whole repository is the fallback.
	FallbackCategory string
	// Now seeds anonymous selections. Defaults to time.Now.
	Now func() time.Time
}

// Selection is a selection result plus how it was assembled.
type Selection struct {
	Questions    []domain.Question
	FromCategory int
	FromFallback int
	// CategoryMiss is set when the requested category had no questions at all.
	CategoryMiss bool
	Seed         int64
}

// Short reports whether fewer questions than requested were available.
func (s Selection) Short(requested int) bool {
	return len(s.Questions) < requested
}

// Selector draws deterministic question sets. It holds no mutable state and
// can be shared across goroutines.
type Selector struct {
	repo     Repository
	fallback string
	now      func() time.Time
}

func New(repo Repository, opts Options) *Selector {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Selector{repo: repo, fallback: opts.FallbackCategory, now: now}
}

// Select returns up to req.Count distinct questions.
func (s *Selector) Select(req domain.SelectionRequest) ([]domain.Question, error) {
	sel, err := s.SelectDetailed(req)
	if err != nil {
		return nil, err
	}
	return sel.Questions, nil
}

// SelectDetailed is Select with provenance counts for logging and metrics.
func (s *Selector) SelectDetailed(req domain.SelectionRequest) (Selection, error) {
	if req.Count < 0 {
		return Selection{}, fmt.Errorf("select %q: %w (%d)", req.CategoryID, domain.ErrNegativeCount, req.Count)
	}
	all := s.repo.All()
	if len(all) == 0 {
		return Selection{}, fmt.Errorf("select %q: %w", req.CategoryID, domain.ErrEmptyRepository)
	}
	if req.Count == 0 {
		return Selection{Questions: []domain.Question{}}, nil
	}

	sel := Selection{Seed: rng.DeriveSeed(req.UserID, req.DayKey, req.CategoryID, s.now)}
	gen := rng.New(sel.Seed)

	pool := s.repo.Questions(req.CategoryID)
	if len(pool) == 0 {
		sel.CategoryMiss = true
		pool = s.fallbackPool(all)
	}

	picked := make(map[domain.DedupKey]struct{}, req.Count)
	primary := take(gen, distinct(pool, picked), req.Count, picked)

	questions := make([]domain.Question, 0, req.Count)
	questions = append(questions, primary...)
	if len(questions) < req.Count {
		rest := take(gen, distinct(all, picked), req.Count-len(questions), picked)
		questions = append(questions, rest...)
	}

	sel.Questions = questions
	if sel.CategoryMiss {
		sel.FromFallback = len(questions)
	} else {
		sel.FromCategory = len(primary)
		sel.FromFallback = len(questions) - len(primary)
	}
	return sel, nil
}

func (s *Selector) fallbackPool(all []domain.Question) []domain.Question {
	if s.fallback != "" {
		if qs := s.repo.Questions(s.fallback); len(qs) > 0 {
			return qs
		}
	}
	return all
}

// distinct drops questions already in exclude and repeated keys within pool.
func distinct(pool []domain.Question, exclude map[domain.DedupKey]struct{}) []domain.Question {
	seen := make(map[domain.DedupKey]struct{}, len(pool))
	out := make([]domain.Question, 0, len(pool))
	for _, q := range pool {
		key := q.Key()
		if _, ok := exclude[key]; ok {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, q)
	}
	return out
}

// take shuffles pool and keeps the first n, recording them in picked.
func take(gen rng.Source, pool []domain.Question, n int, picked map[domain.DedupKey]struct{}) []domain.Question {
	rng.Shuffle(gen, pool)
	if n > len(pool) {
		n = len(pool)
	}
	for _, q := range pool[:n] {
		picked[q.Key()] = struct{}{}
	}
	return pool[:n]
}
