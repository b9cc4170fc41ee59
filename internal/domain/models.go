package domain

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Difficulty grades a question.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// DefaultPoints is the award for a correct answer when the question carries no explicit points.
func (d Difficulty) DefaultPoints() int {
	switch d {
	case DifficultyMedium:
		return 15
	case DifficultyHard:
		return 20
	default:
		return 10
	}
}

// Valid reports whether d is one of the known difficulties.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// DedupKey identifies a question across categories. Raw ids are only unique
// within their category, so the category is part of the identity.
type DedupKey struct {
	CategoryID string `json:"categoryId"`
	ID         string `json:"id"`
}

func (k DedupKey) String() string {
	return k.CategoryID + "/" + k.ID
}

// ParseDedupKey is the inverse of DedupKey.String.
func ParseDedupKey(raw string) (DedupKey, error) {
	category, id, ok := strings.Cut(raw, "/")
	if !ok || category == "" || id == "" {
		return DedupKey{}, fmt.Errorf("malformed question key %q", raw)
	}
	return DedupKey{CategoryID: category, ID: id}, nil
}

// Question models a multiple choice question with exactly one correct option.
type Question struct {
	ID           string     `json:"id"`
	CategoryID   string     `json:"categoryId"`
	Difficulty   Difficulty `json:"difficulty"`
	Prompt       string     `json:"prompt"`
	Options      []string   `json:"options"`
	CorrectIndex int        `json:"correctIndex"`
	Points       int        `json:"points,omitempty"` // defaults by difficulty if zero
	Explanation  string     `json:"explanation,omitempty"`
	Tags         []string   `json:"tags,omitempty"`
}

// Key returns the dedup identity of the question.
func (q Question) Key() DedupKey {
	return DedupKey{CategoryID: q.CategoryID, ID: q.ID}
}

// Normalize fills derived fields. categoryID is used when the record does not name its own category.
func (q Question) Normalize(categoryID string) Question {
	if q.CategoryID == "" {
		q.CategoryID = categoryID
	}
	q.Difficulty = Difficulty(strings.ToLower(strings.TrimSpace(string(q.Difficulty))))
	if q.Difficulty == "" {
		q.Difficulty = DifficultyMedium
	}
	if q.Points <= 0 {
		q.Points = q.Difficulty.DefaultPoints()
	}
	if len(q.Tags) == 0 {
		q.Tags = []string{q.CategoryID, string(q.Difficulty)}
	}
	q.Options = append([]string(nil), q.Options...)
	return q
}

// Validate checks the structural invariants of a question.
func (q Question) Validate() error {
	switch {
	case q.ID == "":
		return fmt.Errorf("%w: missing id", ErrInvalidQuestion)
	case q.CategoryID == "":
		return fmt.Errorf("%w: %s has no category", ErrInvalidQuestion, q.ID)
	case strings.TrimSpace(q.Prompt) == "":
		return fmt.Errorf("%w: %s has an empty prompt", ErrInvalidQuestion, q.Key())
	case len(q.Options) < 2:
		return fmt.Errorf("%w: %s needs at least 2 options, has %d", ErrInvalidQuestion, q.Key(), len(q.Options))
	case q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options):
		return fmt.Errorf("%w: %s correct index %d out of range", ErrInvalidQuestion, q.Key(), q.CorrectIndex)
	case !q.Difficulty.Valid():
		return fmt.Errorf("%w: %s has unknown difficulty %q", ErrInvalidQuestion, q.Key(), q.Difficulty)
	case q.Points < 0:
		return fmt.Errorf("%w: %s has negative points", ErrInvalidQuestion, q.Key())
	}
	return nil
}

// SelectionRequest asks for a question set for one play.
type SelectionRequest struct {
	CategoryID string `json:"categoryId"`
	Count      int    `json:"count"`
	UserID     string `json:"userId,omitempty"` // empty for anonymous play
	DayKey     string `json:"dayKey"`           // calendar day, e.g. 2024-01-01
}

// Anonymous reports whether the request carries no user identity.
func (r SelectionRequest) Anonymous() bool {
	return r.UserID == ""
}

// CacheKey identifies the deterministic result of a request. Anonymous
// requests are not deterministic and should not be cached.
func (r SelectionRequest) CacheKey() string {
	return strings.Join([]string{
		url.QueryEscape(r.CategoryID),
		url.QueryEscape(r.DayKey),
		url.QueryEscape(r.UserID),
		strconv.Itoa(r.Count),
	}, ":")
}

// Outcome is how a play ended.
type Outcome string

const (
	OutcomeComplete Outcome = "complete"
	OutcomeFailed   Outcome = "failed"
)

// Summary is the terminal result of a play.
type Summary struct {
	Score          int     `json:"score"`
	CorrectCount   int     `json:"correctCount"`
	TotalQuestions int     `json:"totalQuestions"`
	Outcome        Outcome `json:"outcome"`
}

// PlayResult is what gets handed to the session recording service when a play ends.
type PlayResult struct {
	PlayID     string    `json:"playId"`
	UserID     string    `json:"userId,omitempty"`
	CategoryID string    `json:"categoryId"`
	DayKey     string    `json:"dayKey"`
	Summary    Summary   `json:"summary"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
}
