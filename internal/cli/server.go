package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"trivia-quiz-service/internal/app"
	"trivia-quiz-service/internal/config"
	"trivia-quiz-service/internal/infra/memory"
	pginfra "trivia-quiz-service/internal/infra/postgres"
	redisinfra "trivia-quiz-service/internal/infra/redis"
	"trivia-quiz-service/internal/logging"
	"trivia-quiz-service/internal/metrics"
	"trivia-quiz-service/internal/selector"
	transport "trivia-quiz-service/internal/transport/http"
)

const appName = "trivia-service"

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the trivia server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func newLogger(cfg config.Config) zerolog.Logger {
	return logging.New(appName, cfg.Log.Env, cfg.Log.Level)
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	ctx = logging.IntoContext(ctx, logger)

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 30*time.Minute)

	var pool *pgxpool.Pool
	var recorder app.ResultRecorder = memory.LogRecorder{}
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()

		db := pginfra.OpenDB(cfg.Postgres.URL)
		defer db.Close()
		recorder = pginfra.NewResultRecorder(db)
	}

	questions, err := loadBank(ctx, cfg, pool)
	if err != nil {
		return err
	}
	sel := selector.New(questions, selector.Options{FallbackCategory: cfg.Bank.FallbackCategory})

	cacheTTL := config.TTLDuration(cfg.Selection.CacheTTL, 24*time.Hour)
	var selections app.QuestionSelector
	if redisClient != nil {
		selections = redisinfra.NewSelectionCache(redisClient, sel, questions, cacheTTL)
	} else {
		selections = memory.NewSelectionCache(sel, cacheTTL)
	}

	var store app.PlayRepository
	if redisClient != nil {
		redisStore := redisinfra.NewPlayStore(redisClient, redisTTL)
		sweepCtx, stopSweep := context.WithCancel(ctx)
		defer stopSweep()
		go redisStore.Run(sweepCtx, time.Minute)
		store = redisStore
	} else {
		store = memory.NewPlayStore()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	service := app.NewPlayService(store, selections, recorder, app.Options{
		Session:      cfg.Session,
		DefaultCount: cfg.Selection.DefaultCount,
		Metrics:      metrics.New(reg),
		FinishedTTL:  config.TTLDuration(cfg.Server.FinishedPlayTTL, app.DefaultFinishedTTL),
	})

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      transport.NewMux(service, reg, logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", server.Addr).Msg("starting trivia service")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("failed to start server")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Info().Msg("shutting down server...")
	case <-ctx.Done():
		logger.Info().Msg("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
