package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"trivia-quiz-service/internal/bank"
	"trivia-quiz-service/internal/domain"
	"trivia-quiz-service/internal/selector"
)

func TestSelectionCacheCaches(t *testing.T) {
	sel := newCountingSelector(t)
	cache := NewSelectionCache(sel, time.Minute)
	req := domain.SelectionRequest{CategoryID: "science", Count: 5, UserID: "u1", DayKey: "2024-01-01"}

	first, err := cache.Select(context.Background(), req)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if sel.callCount() != 1 {
		t.Fatalf("expected selector once, got %d", sel.callCount())
	}

	second, err := cache.Select(context.Background(), req)
	if err != nil {
		t.Fatalf("select 2: %v", err)
	}
	if sel.callCount() != 1 {
		t.Fatalf("expected cache hit, selector calls %d", sel.callCount())
	}
	if len(first.Questions) != 5 || first.Questions[0].Key() != second.Questions[0].Key() {
		t.Fatalf("expected identical cached selection")
	}
}

func TestSelectionCacheExpires(t *testing.T) {
	sel := newCountingSelector(t)
	cache := NewSelectionCache(sel, time.Minute)
	now := time.Now()
	cache.clock = func() time.Time { return now }
	req := domain.SelectionRequest{CategoryID: "gk", Count: 3, UserID: "u1", DayKey: "2024-01-01"}

	if _, err := cache.Select(context.Background(), req); err != nil {
		t.Fatalf("select: %v", err)
	}
	now = now.Add(2 * time.Minute)
	if _, err := cache.Select(context.Background(), req); err != nil {
		t.Fatalf("select: %v", err)
	}
	if sel.callCount() != 2 {
		t.Fatalf("expected expired entry to be recomputed, selector calls %d", sel.callCount())
	}
}

func TestSelectionCacheSkipsAnonymous(t *testing.T) {
	sel := newCountingSelector(t)
	cache := NewSelectionCache(sel, time.Minute)
	req := domain.SelectionRequest{CategoryID: "gk", Count: 3, DayKey: "2024-01-01"}

	for i := 0; i < 3; i++ {
		if _, err := cache.Select(context.Background(), req); err != nil {
			t.Fatalf("select: %v", err)
		}
	}
	if sel.callCount() != 3 || cache.Len() != 0 {
		t.Fatalf("expected anonymous requests to bypass cache, calls=%d len=%d", sel.callCount(), cache.Len())
	}
}

func TestSelectionCacheDoesNotCacheErrors(t *testing.T) {
	sel := newCountingSelector(t)
	cache := NewSelectionCache(sel, time.Minute)
	req := domain.SelectionRequest{CategoryID: "gk", Count: -1, UserID: "u1", DayKey: "2024-01-01"}

	if _, err := cache.Select(context.Background(), req); err == nil {
		t.Fatalf("expected negative count error")
	}
	if cache.Len() != 0 {
		t.Fatalf("expected nothing cached, got %d", cache.Len())
	}
}

func TestSelectionCacheConcurrentMisses(t *testing.T) {
	sel := newCountingSelector(t)
	cache := NewSelectionCache(sel, time.Minute)
	req := domain.SelectionRequest{CategoryID: "history", Count: 4, UserID: "u2", DayKey: "2024-01-01"}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.Select(context.Background(), req); err != nil {
				t.Errorf("select: %v", err)
			}
		}()
	}
	wg.Wait()
	if cache.Len() != 1 {
		t.Fatalf("expected one cache entry, got %d", cache.Len())
	}
}

type countingSelector struct {
	inner *selector.Selector
	mu    sync.Mutex
	calls int
}

func newCountingSelector(t *testing.T) *countingSelector {
	t.Helper()
	b, err := bank.New(bank.SampleQuestions())
	if err != nil {
		t.Fatalf("bank: %v", err)
	}
	return &countingSelector{inner: selector.New(b, selector.Options{})}
}

func (s *countingSelector) SelectDetailed(req domain.SelectionRequest) (selector.Selection, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return s.inner.SelectDetailed(req)
}

func (s *countingSelector) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}
