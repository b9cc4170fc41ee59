package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"trivia-quiz-service/internal/domain"
)

const upsertQuestionSQL = `INSERT INTO questions
    (category_id, id, position, difficulty, prompt, options, correct_index, points, explanation, tags, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now())
ON CONFLICT (category_id, id) DO UPDATE SET
    position = EXCLUDED.position,
    difficulty = EXCLUDED.difficulty,
    prompt = EXCLUDED.prompt,
    options = EXCLUDED.options,
    correct_index = EXCLUDED.correct_index,
    points = EXCLUDED.points,
    explanation = EXCLUDED.explanation,
    tags = EXCLUDED.tags,
    updated_at = now()`

// Seeder upserts question banks into the questions table.
type Seeder struct {
	pool *pgxpool.Pool
}

func NewSeeder(pool *pgxpool.Pool) *Seeder {
	return &Seeder{pool: pool}
}

// Seed writes every question in one transaction, keyed by category then
// position within the category. It returns the number of rows written.
func (s *Seeder) Seed(ctx context.Context, questions map[string][]domain.Question) (int, error) {
	categories := make([]string, 0, len(questions))
	for category := range questions {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	batch := &pgx.Batch{}
	for _, category := range categories {
		for pos, q := range questions[category] {
			q = q.Normalize(category)
			if err := q.Validate(); err != nil {
				return 0, err
			}
			options, err := json.Marshal(q.Options)
			if err != nil {
				return 0, err
			}
			tags, err := json.Marshal(q.Tags)
			if err != nil {
				return 0, err
			}
			batch.Queue(upsertQuestionSQL,
				q.CategoryID, q.ID, pos, string(q.Difficulty), q.Prompt,
				string(options), q.CorrectIndex, q.Points, q.Explanation, string(tags))
		}
	}
	if batch.Len() == 0 {
		return 0, nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin seed: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	results := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return 0, fmt.Errorf("seed question %d: %w", i, err)
		}
	}
	if err := results.Close(); err != nil {
		return 0, fmt.Errorf("seed questions: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit seed: %w", err)
	}
	return batch.Len(), nil
}
