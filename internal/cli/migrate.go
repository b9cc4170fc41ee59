package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"trivia-quiz-service/internal/config"
	pginfra "trivia-quiz-service/internal/infra/postgres"
	"trivia-quiz-service/internal/logging"
)

// NewMigrateCmd applies database migrations.
func NewMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			ctx := logging.IntoContext(cmd.Context(), newLogger(cfg))
			return runMigrationsWithConfig(ctx, cfg)
		},
	}
}

func runMigrationsWithConfig(ctx context.Context, cfg config.Config) error {
	if cfg.Postgres.URL == "" {
		return fmt.Errorf("postgres url not configured")
	}

	db := pginfra.OpenDB(cfg.Postgres.URL)
	defer db.Close()

	applied, err := pginfra.Migrate(ctx, db)
	if err != nil {
		return err
	}
	logger := logging.FromContext(ctx)
	logger.Info().Strs("applied", applied).Msg("migrations applied")
	return nil
}
