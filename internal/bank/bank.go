// Package bank holds the immutable question repository consumed by the selector.
package bank

import (
	"context"
	"fmt"
	"sort"

	"trivia-quiz-service/internal/domain"
)

// Loader fetches raw question data grouped by category from a backing store.
type Loader interface {
	LoadBank(ctx context.Context) (map[string][]domain.Question, error)
}

// Bank is a read-only mapping from category id to its ordered questions.
// It is safe for concurrent use because nothing mutates it after New.
type Bank struct {
	categories []string
	byCategory map[string][]domain.Question
	byKey      map[domain.DedupKey]domain.Question
	all        []domain.Question
}

// New normalizes and validates raw questions. Within a category the first
// occurrence of an id wins; later duplicates are dropped.
func New(raw map[string][]domain.Question) (*Bank, error) {
	b := &Bank{
		byCategory: make(map[string][]domain.Question, len(raw)),
		byKey:      make(map[domain.DedupKey]domain.Question),
	}

	ids := make([]string, 0, len(raw))
	for id := range raw {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, categoryID := range ids {
		if categoryID == "" {
			return nil, fmt.Errorf("%w: empty category id", domain.ErrInvalidQuestion)
		}
		for _, q := range raw[categoryID] {
			if q.CategoryID != "" && q.CategoryID != categoryID {
				return nil, fmt.Errorf("%w: %s listed under category %q", domain.ErrInvalidQuestion, q.Key(), categoryID)
			}
			q = q.Normalize(categoryID)
			if err := q.Validate(); err != nil {
				return nil, err
			}
			if _, dup := b.byKey[q.Key()]; dup {
				continue
			}
			b.byKey[q.Key()] = q
			b.byCategory[categoryID] = append(b.byCategory[categoryID], q)
			b.all = append(b.all, q)
		}
		if len(b.byCategory[categoryID]) > 0 {
			b.categories = append(b.categories, categoryID)
		}
	}
	return b, nil
}

// Load builds a bank from a loader.
func Load(ctx context.Context, loader Loader) (*Bank, error) {
	raw, err := loader.LoadBank(ctx)
	if err != nil {
		return nil, fmt.Errorf("load question bank: %w", err)
	}
	return New(raw)
}

// Categories lists non-empty categories in sorted order.
func (b *Bank) Categories() []string {
	return append([]string(nil), b.categories...)
}

// Questions returns the category's questions in source order, or nil for an unknown category.
func (b *Bank) Questions(categoryID string) []domain.Question {
	qs, ok := b.byCategory[categoryID]
	if !ok {
		return nil
	}
	return append([]domain.Question(nil), qs...)
}

// All returns every question, categories in sorted order.
func (b *Bank) All() []domain.Question {
	return append([]domain.Question(nil), b.all...)
}

// Lookup finds a question by its dedup key.
func (b *Bank) Lookup(key domain.DedupKey) (domain.Question, bool) {
	q, ok := b.byKey[key]
	return q, ok
}

// Resolve maps keys back to questions, preserving order.
func (b *Bank) Resolve(keys []domain.DedupKey) ([]domain.Question, error) {
	out := make([]domain.Question, 0, len(keys))
	for _, key := range keys {
		q, ok := b.byKey[key]
		if !ok {
			return nil, fmt.Errorf("resolve %s: %w", key, domain.ErrQuestionNotFound)
		}
		out = append(out, q)
	}
	return out, nil
}

// Len is the number of distinct questions.
func (b *Bank) Len() int {
	return len(b.all)
}

// Empty reports whether the bank holds no questions.
func (b *Bank) Empty() bool {
	return len(b.all) == 0
}
