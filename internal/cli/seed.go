package cli

import (
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/spf13/cobra"

	"trivia-quiz-service/internal/bank"
	"trivia-quiz-service/internal/config"
	"trivia-quiz-service/internal/infra/memory"
	pginfra "trivia-quiz-service/internal/infra/postgres"
	"trivia-quiz-service/internal/logging"
)

// NewSeedCmd loads a JSON question bank into Postgres.
func NewSeedCmd(configPath *string) *cobra.Command {
	var (
		file   string
		sample bool
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load a JSON question bank into Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			logger := newLogger(cfg)
			ctx := logging.IntoContext(cmd.Context(), logger)

			if file == "" {
				file = cfg.Bank.File
			}
			var loader bank.Loader
			switch {
			case sample:
				loader = memory.NewStaticBankLoader(bank.SampleQuestions())
			case file != "":
				loader = memory.NewFileBankLoader(file)
			default:
				return fmt.Errorf("no bank file: pass --file, set bank.file or use --sample")
			}

			raw, err := loader.LoadBank(ctx)
			if err != nil {
				return err
			}
			// reject the whole file before touching the database
			if _, err := bank.New(raw); err != nil {
				return err
			}

			if err := runMigrationsWithConfig(ctx, cfg); err != nil {
				return err
			}
			pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
			if err != nil {
				return err
			}
			defer pool.Close()

			n, err := pginfra.NewSeeder(pool).Seed(ctx, raw)
			if err != nil {
				return err
			}
			logger.Info().Int("questions", n).Msg("question bank seeded")
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "bank JSON file (default bank.file)")
	cmd.Flags().BoolVar(&sample, "sample", false, "seed the built-in sample bank")
	return cmd
}
