package cli

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"trivia-quiz-service/internal/bank"
	"trivia-quiz-service/internal/config"
	"trivia-quiz-service/internal/infra/memory"
	pginfra "trivia-quiz-service/internal/infra/postgres"
	"trivia-quiz-service/internal/logging"
)

// loadBank picks the question source: Postgres, then a bank file, then the
// built-in sample. pool may be nil.
func loadBank(ctx context.Context, cfg config.Config, pool *pgxpool.Pool) (*bank.Bank, error) {
	logger := logging.FromContext(ctx)

	var (
		loader bank.Loader
		source string
	)
	switch {
	case pool != nil:
		loader, source = pginfra.NewBankLoader(pool), "postgres"
	case cfg.Bank.File != "":
		loader, source = memory.NewFileBankLoader(cfg.Bank.File), cfg.Bank.File
	default:
		loader, source = memory.NewStaticBankLoader(bank.SampleQuestions()), "sample"
	}

	b, err := bank.Load(ctx, loader)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}
	if b.Empty() {
		logger.Warn().Str("source", source).Msg("question bank is empty; every selection will fail")
	}
	logger.Info().
		Str("source", source).
		Int("questions", b.Len()).
		Strs("categories", b.Categories()).
		Msg("question bank loaded")
	return b, nil
}
