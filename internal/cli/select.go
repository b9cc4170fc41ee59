package cli

import (
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/spf13/cobra"

	"trivia-quiz-service/internal/app"
	"trivia-quiz-service/internal/config"
	"trivia-quiz-service/internal/domain"
	"trivia-quiz-service/internal/logging"
	"trivia-quiz-service/internal/selector"
)

type selectOutput struct {
	Request      domain.SelectionRequest `json:"request"`
	Seed         int64                   `json:"seed"`
	FromCategory int                     `json:"fromCategory"`
	FromFallback int                     `json:"fromFallback"`
	CategoryMiss bool                    `json:"categoryMiss"`
	Questions    []domain.Question       `json:"questions"`
}

// NewSelectCmd prints the selection a user would get, without starting a play.
func NewSelectCmd(configPath *string) *cobra.Command {
	var req domain.SelectionRequest

	cmd := &cobra.Command{
		Use:   "select",
		Short: "Print the question selection for a category, user and day as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			ctx := logging.IntoContext(cmd.Context(), newLogger(cfg))

			if req.DayKey == "" {
				req.DayKey = app.DayKey(time.Now())
			}
			if req.Count == 0 {
				req.Count = cfg.Selection.DefaultCount
			}
			if req.Count == 0 {
				req.Count = app.DefaultQuestionCount
			}

			var pool *pgxpool.Pool
			if cfg.Postgres.URL != "" {
				pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
				if err != nil {
					return err
				}
				defer pool.Close()
			}
			questions, err := loadBank(ctx, cfg, pool)
			if err != nil {
				return err
			}
			sel, err := selector.New(questions, selector.Options{FallbackCategory: cfg.Bank.FallbackCategory}).SelectDetailed(req)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(selectOutput{
				Request:      req,
				Seed:         sel.Seed,
				FromCategory: sel.FromCategory,
				FromFallback: sel.FromFallback,
				CategoryMiss: sel.CategoryMiss,
				Questions:    sel.Questions,
			})
		},
	}

	cmd.Flags().StringVar(&req.CategoryID, "category", "", "category id")
	cmd.Flags().IntVar(&req.Count, "count", 0, "number of questions (0 uses selection.defaultCount)")
	cmd.Flags().StringVar(&req.UserID, "user", "", "user id; empty selects anonymously")
	cmd.Flags().StringVar(&req.DayKey, "day", "", "day key, e.g. 2024-01-01 (default today, UTC)")
	return cmd
}
