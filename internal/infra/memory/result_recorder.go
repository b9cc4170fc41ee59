package memory

import (
	"context"
	"sync"

	"trivia-quiz-service/internal/domain"
	"trivia-quiz-service/internal/logging"
)

// ResultRecorder keeps finished play results in memory. Used when no database is configured.
type ResultRecorder struct {
	mu      sync.Mutex
	results []domain.PlayResult
}

func NewResultRecorder() *ResultRecorder {
	return &ResultRecorder{}
}

func (r *ResultRecorder) Record(_ context.Context, result domain.PlayResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, result)
	return nil
}

// Results returns a copy of everything recorded so far.
func (r *ResultRecorder) Results() []domain.PlayResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.PlayResult(nil), r.results...)
}

// LogRecorder writes finished plays to the log instead of storing them.
type LogRecorder struct{}

func (LogRecorder) Record(ctx context.Context, result domain.PlayResult) error {
	logger := logging.FromContext(ctx)
	logger.Info().
		Str("play_id", result.PlayID).
		Str("user_id", result.UserID).
		Str("category", result.CategoryID).
		Str("day", result.DayKey).
		Str("outcome", string(result.Summary.Outcome)).
		Int("score", result.Summary.Score).
		Dur("duration", result.FinishedAt.Sub(result.StartedAt)).
		Msg("play result")
	return nil
}
