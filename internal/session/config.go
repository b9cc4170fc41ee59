package session

import (
	"fmt"
	"time"
)

// Config holds the run parameters of a play.
type Config struct {
	QuestionDurationSeconds int `yaml:"questionDurationSeconds" env:"QUESTION_DURATION_SECONDS"`
	StartingLives           int `yaml:"startingLives" env:"STARTING_LIVES"`
	// FeedbackDelayMs is how long the owner waits in Locked before calling Advance.
	// The machine itself never times out of Locked.
	FeedbackDelayMs int `yaml:"feedbackDelayMs" env:"FEEDBACK_DELAY_MS"`
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		QuestionDurationSeconds: 30,
		StartingLives:           3,
		FeedbackDelayMs:         1500,
	}
}

// WithDefaults fills zero fields from DefaultConfig.
func (c Config) WithDefaults() Config {
	d := DefaultConfig()
	if c.QuestionDurationSeconds == 0 {
		c.QuestionDurationSeconds = d.QuestionDurationSeconds
	}
	if c.StartingLives == 0 {
		c.StartingLives = d.StartingLives
	}
	if c.FeedbackDelayMs == 0 {
		c.FeedbackDelayMs = d.FeedbackDelayMs
	}
	return c
}

// Validate rejects configurations the machine cannot run with.
func (c Config) Validate() error {
	if c.QuestionDurationSeconds <= 0 {
		return fmt.Errorf("session: question duration must be positive, got %d", c.QuestionDurationSeconds)
	}
	if c.StartingLives <= 0 {
		return fmt.Errorf("session: starting lives must be positive, got %d", c.StartingLives)
	}
	if c.FeedbackDelayMs < 0 {
		return fmt.Errorf("session: feedback delay must not be negative, got %d", c.FeedbackDelayMs)
	}
	return nil
}

func (c Config) QuestionDuration() time.Duration {
	return time.Duration(c.QuestionDurationSeconds) * time.Second
}

func (c Config) FeedbackDelay() time.Duration {
	return time.Duration(c.FeedbackDelayMs) * time.Millisecond
}
