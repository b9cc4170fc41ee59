package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v10"
	"gopkg.in/yaml.v3"

	"trivia-quiz-service/internal/session"
)

type Config struct {
	Server    Server         `yaml:"server" envPrefix:"SERVER_"`
	Redis     Redis          `yaml:"redis" envPrefix:"REDIS_"`
	Postgres  Postgres       `yaml:"postgres" envPrefix:"POSTGRES_"`
	Bank      Bank           `yaml:"bank" envPrefix:"BANK_"`
	Selection Selection      `yaml:"selection" envPrefix:"SELECTION_"`
	Session   session.Config `yaml:"session" envPrefix:"SESSION_"`
	Log       Log            `yaml:"log" envPrefix:"LOG_"`
}

type Server struct {
	Port            string `yaml:"port" env:"PORT"`
	// how long a finished play stays readable before it is dropped
	FinishedPlayTTL string `yaml:"finishedPlayTTL" env:"FINISHED_PLAY_TTL"`
}

type Redis struct {
	Addr     string `yaml:"addr" env:"ADDR"`
	Password string `yaml:"password" env:"PASSWORD"`
	DB       int    `yaml:"db" env:"DB"`
	TTL      string `yaml:"ttl" env:"TTL"`
}

type Postgres struct {
	URL string `yaml:"url" env:"URL"`
}

// Bank says where questions come from. Postgres wins when configured, then
// File; with neither the built-in sample bank is used.
type Bank struct {
	File             string `yaml:"file" env:"FILE"`
	FallbackCategory string `yaml:"fallbackCategory" env:"FALLBACK_CATEGORY"`
}

type Selection struct {
	DefaultCount int    `yaml:"defaultCount" env:"DEFAULT_COUNT"`
	CacheTTL     string `yaml:"cacheTTL" env:"CACHE_TTL"`
}

type Log struct {
	Level string `yaml:"level" env:"LEVEL"`
	Env   string `yaml:"env" env:"ENV"`
}

// Load reads YAML config from path, then applies environment overrides
// (e.g. REDIS_ADDR, SESSION_STARTING_LIVES). A missing file leaves only the
// environment.
func Load(path string) (Config, error) {
	cfg := Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return cfg, err
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse %s: %w", path, err)
			}
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	cfg.Session = cfg.Session.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects settings the service cannot start with.
func (c Config) Validate() error {
	if c.Selection.DefaultCount < 0 {
		return fmt.Errorf("config: selection.defaultCount must not be negative, got %d", c.Selection.DefaultCount)
	}
	for name, raw := range map[string]string{
		"server.finishedPlayTTL": c.Server.FinishedPlayTTL,
		"redis.ttl":              c.Redis.TTL,
		"selection.cacheTTL":     c.Selection.CacheTTL,
	} {
		if raw == "" {
			continue
		}
		if _, err := time.ParseDuration(raw); err != nil {
			return fmt.Errorf("config: %s: %w", name, err)
		}
	}
	return c.Session.Validate()
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
