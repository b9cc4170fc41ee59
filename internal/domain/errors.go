package domain

import "errors"

var (
	// ErrEmptyRepository is returned when selection runs against a bank with no questions.
	ErrEmptyRepository = errors.New("question repository is empty")
	// ErrNegativeCount rejects selection requests asking for fewer than zero questions.
	ErrNegativeCount = errors.New("question count must not be negative")
	// ErrInvalidQuestion indicates a malformed question record in the bank.
	ErrInvalidQuestion = errors.New("invalid question")
	// ErrQuestionNotFound indicates a question key is not present in the bank.
	ErrQuestionNotFound = errors.New("question not found")

	// ErrNoQuestions is returned when a play is started with an empty question list.
	ErrNoQuestions = errors.New("session requires at least one question")
	// ErrNotStarted is returned for transitions on a machine that was never started.
	ErrNotStarted = errors.New("session not started")
	// ErrInvalidTransition is returned when a transition is not allowed in the current phase.
	ErrInvalidTransition = errors.New("invalid session transition")
	// ErrOptionOutOfRange indicates a submitted option index is not valid for the current question.
	ErrOptionOutOfRange = errors.New("option index out of range")
	// ErrSessionOver is returned for any input after the session reached a terminal phase.
	ErrSessionOver = errors.New("session is over")

	// ErrPlayNotFound is returned when a play id is unknown to the play store.
	ErrPlayNotFound = errors.New("play not found")
)
