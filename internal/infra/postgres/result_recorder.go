package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"trivia-quiz-service/internal/domain"
)

type playResultRow struct {
	bun.BaseModel `bun:"table:play_results"`

	PlayID         string    `bun:"play_id,pk"`
	UserID         string    `bun:"user_id"`
	CategoryID     string    `bun:"category_id"`
	DayKey         string    `bun:"day_key"`
	Score          int       `bun:"score"`
	CorrectCount   int       `bun:"correct_count"`
	TotalQuestions int       `bun:"total_questions"`
	Outcome        string    `bun:"outcome"`
	StartedAt      time.Time `bun:"started_at"`
	FinishedAt     time.Time `bun:"finished_at"`
}

// ResultRecorder stores finished plays in play_results. Recording the same
// play twice keeps the first row.
type ResultRecorder struct {
	db *bun.DB
}

func NewResultRecorder(db *bun.DB) *ResultRecorder {
	return &ResultRecorder{db: db}
}

func (r *ResultRecorder) Record(ctx context.Context, result domain.PlayResult) error {
	row := playResultRow{
		PlayID:         result.PlayID,
		UserID:         result.UserID,
		CategoryID:     result.CategoryID,
		DayKey:         result.DayKey,
		Score:          result.Summary.Score,
		CorrectCount:   result.Summary.CorrectCount,
		TotalQuestions: result.Summary.TotalQuestions,
		Outcome:        string(result.Summary.Outcome),
		StartedAt:      result.StartedAt,
		FinishedAt:     result.FinishedAt,
	}
	if _, err := r.db.NewInsert().Model(&row).On("CONFLICT (play_id) DO NOTHING").Exec(ctx); err != nil {
		return fmt.Errorf("insert play result: %w", err)
	}
	return nil
}

// Results returns the recorded plays of a user, most recent first.
func (r *ResultRecorder) Results(ctx context.Context, userID string, limit int) ([]domain.PlayResult, error) {
	var rows []playResultRow
	err := r.db.NewSelect().
		Model(&rows).
		Where("user_id = ?", userID).
		OrderExpr("finished_at DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select play results: %w", err)
	}
	out := make([]domain.PlayResult, len(rows))
	for i, row := range rows {
		out[i] = domain.PlayResult{
			PlayID:     row.PlayID,
			UserID:     row.UserID,
			CategoryID: row.CategoryID,
			DayKey:     row.DayKey,
			Summary: domain.Summary{
				Score:          row.Score,
				CorrectCount:   row.CorrectCount,
				TotalQuestions: row.TotalQuestions,
				Outcome:        domain.Outcome(row.Outcome),
			},
			StartedAt:  row.StartedAt,
			FinishedAt: row.FinishedAt,
		}
	}
	return out, nil
}
