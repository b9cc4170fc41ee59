package cli

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"trivia-quiz-service/internal/logging"
)

var (
	port       string
	configPath string
)

// Execute runs the CLI.
func Execute() error {
	if os.Getenv("LOG_ENV") != "production" {
		loadDotEnv(logging.New(appName, os.Getenv("LOG_ENV"), os.Getenv("LOG_LEVEL")), ".env")
	}
	return newRootCmd().Execute()
}

// loadDotEnv loads optional env files. A missing file is not worth a warning.
func loadDotEnv(logger zerolog.Logger, files ...string) {
	if err := godotenv.Load(files...); err != nil && !os.IsNotExist(err) {
		logger.Warn().Err(err).Msg("could not load .env file")
	}
}

func newRootCmd() *cobra.Command {
	envPort := os.Getenv("PORT")
	envConfig := os.Getenv("CONFIG_PATH")
	if envConfig == "" {
		envConfig = "config/config.yaml"
	}

	cmd := &cobra.Command{
		Use:          appName,
		Short:        "Trivia quiz service: deterministic question selection and timed plays",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&port, "port", envPort, "port to listen on (overrides server.port)")
	cmd.PersistentFlags().StringVar(&configPath, "config", envConfig, "path to YAML config")
	cmd.AddCommand(NewStartCmd(&configPath, &port))
	cmd.AddCommand(NewMigrateCmd(&configPath))
	cmd.AddCommand(NewSelectCmd(&configPath))
	cmd.AddCommand(NewSeedCmd(&configPath))
	return cmd
}
