package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"trivia-quiz-service/internal/domain"
)

const selectQuestionsSQL = `SELECT category_id, id, difficulty, prompt, options, correct_index, points, explanation, tags
FROM questions
ORDER BY category_id, position, id`

// BankLoader loads the whole question bank from the questions table.
type BankLoader struct {
	pool *pgxpool.Pool
}

func NewBankLoader(pool *pgxpool.Pool) *BankLoader {
	return &BankLoader{pool: pool}
}

func (l *BankLoader) LoadBank(ctx context.Context) (map[string][]domain.Question, error) {
	rows, err := l.pool.Query(ctx, selectQuestionsSQL)
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]domain.Question)
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		out[q.CategoryID] = append(out[q.CategoryID], q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read questions: %w", err)
	}
	return out, nil
}

func scanQuestion(rows pgx.Rows) (domain.Question, error) {
	var (
		q          domain.Question
		difficulty string
		options    []byte
		tags       []byte
	)
	if err := rows.Scan(&q.CategoryID, &q.ID, &difficulty, &q.Prompt, &options, &q.CorrectIndex, &q.Points, &q.Explanation, &tags); err != nil {
		return domain.Question{}, fmt.Errorf("scan question: %w", err)
	}
	q.Difficulty = domain.Difficulty(difficulty)
	if err := json.Unmarshal(options, &q.Options); err != nil {
		return domain.Question{}, fmt.Errorf("unmarshal options of %s: %w", q.Key(), err)
	}
	if len(tags) > 0 {
		if err := json.Unmarshal(tags, &q.Tags); err != nil {
			return domain.Question{}, fmt.Errorf("unmarshal tags of %s: %w", q.Key(), err)
		}
	}
	return q, nil
}
