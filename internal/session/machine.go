// Package session implements the timed, life-limited question loop of a single play.
//
// A Machine is owned by exactly one caller and is not safe for concurrent use.
// Every transition either applies completely or returns an error and leaves
// the state untouched.
package session

import (
	"fmt"

	"trivia-quiz-service/internal/domain"
)

// Answer records how one question was resolved.
type Answer struct {
	QuestionIndex int             `json:"questionIndex"`
	Key           domain.DedupKey `json:"key"`
	Selected      int             `json:"selected"` // -1 when the clock ran out
	CorrectIndex  int             `json:"correctIndex"`
	Correct       bool            `json:"correct"`
	Awarded       int             `json:"awarded"`
	TimedOut      bool            `json:"timedOut"`
}

// State is a snapshot of a play.
type State struct {
	Questions     []domain.Question
	CurrentIndex  int
	Lives         int
	Score         int
	CorrectCount  int
	TimeRemaining int
	Phase         Phase
	Answers       []Answer
}

// Machine drives one play from Start to Complete or Failed.
type Machine struct {
	cfg     Config
	started bool
	state   State
}

// New builds an idle machine. Zero config fields take their defaults.
func New(cfg Config) (*Machine, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Machine{cfg: cfg}, nil
}

// Config returns the run parameters in effect.
func (m *Machine) Config() Config {
	return m.cfg
}

// Start begins the play on a fixed, ordered question list.
func (m *Machine) Start(questions []domain.Question) error {
	if m.started {
		return fmt.Errorf("start: %w: already started", domain.ErrInvalidTransition)
	}
	if len(questions) == 0 {
		return domain.ErrNoQuestions
	}
	m.state = State{
		Questions:     append([]domain.Question(nil), questions...),
		CurrentIndex:  0,
		Lives:         m.cfg.StartingLives,
		Score:         0,
		CorrectCount:  0,
		TimeRemaining: m.cfg.QuestionDurationSeconds,
		Phase:         PhaseAwaitingAnswer,
	}
	m.started = true
	return nil
}

// Tick counts down one second. When the clock reaches zero the question times
// out and expired is true.
func (m *Machine) Tick() (expired bool, err error) {
	if err := m.requireAwaiting("tick"); err != nil {
		return false, err
	}
	m.state.TimeRemaining--
	if m.state.TimeRemaining > 0 {
		return false, nil
	}
	m.lock(-1)
	return true, nil
}

// Answer locks in the selected option of the current question.
func (m *Machine) Answer(option int) (Answer, error) {
	if err := m.requireAwaiting("answer"); err != nil {
		return Answer{}, err
	}
	q := m.state.Questions[m.state.CurrentIndex]
	if option < 0 || option >= len(q.Options) {
		return Answer{}, fmt.Errorf("answer %d of %d options: %w", option, len(q.Options), domain.ErrOptionOutOfRange)
	}
	return m.lock(option), nil
}

// Timeout resolves the current question as unanswered.
func (m *Machine) Timeout() (Answer, error) {
	if err := m.requireAwaiting("timeout"); err != nil {
		return Answer{}, err
	}
	return m.lock(-1), nil
}

// Advance leaves the feedback phase: game over at zero lives, complete after
// the last question, otherwise on to the next question.
func (m *Machine) Advance() error {
	if err := m.require("advance", PhaseLocked); err != nil {
		return err
	}
	switch {
	case m.state.Lives == 0:
		m.state.Phase = PhaseFailed
	case m.state.CurrentIndex+1 == len(m.state.Questions):
		m.state.Phase = PhaseComplete
	default:
		m.state.CurrentIndex++
		m.state.TimeRemaining = m.cfg.QuestionDurationSeconds
		m.state.Phase = PhaseAwaitingAnswer
	}
	return nil
}

// State returns a copy of the current state.
func (m *Machine) State() State {
	s := m.state
	s.Questions = append([]domain.Question(nil), m.state.Questions...)
	s.Answers = append([]Answer(nil), m.state.Answers...)
	return s
}

// Phase is the current phase. An idle machine reports the zero phase, so check Started first.
func (m *Machine) Phase() Phase {
	return m.state.Phase
}

// Started reports whether Start succeeded.
func (m *Machine) Started() bool {
	return m.started
}

// Current returns the question at the current index.
func (m *Machine) Current() (domain.Question, bool) {
	if !m.started {
		return domain.Question{}, false
	}
	return m.state.Questions[m.state.CurrentIndex], true
}

// LastAnswer returns the most recent resolution, if any.
func (m *Machine) LastAnswer() (Answer, bool) {
	if len(m.state.Answers) == 0 {
		return Answer{}, false
	}
	return m.state.Answers[len(m.state.Answers)-1], true
}

// Summary is available once the play is terminal.
func (m *Machine) Summary() (domain.Summary, bool) {
	if !m.started || !m.state.Phase.Terminal() {
		return domain.Summary{}, false
	}
	outcome := domain.OutcomeComplete
	if m.state.Phase == PhaseFailed {
		outcome = domain.OutcomeFailed
	}
	return domain.Summary{
		Score:          m.state.Score,
		CorrectCount:   m.state.CorrectCount,
		TotalQuestions: len(m.state.Questions),
		Outcome:        outcome,
	}, true
}

func (m *Machine) requireAwaiting(op string) error {
	return m.require(op, PhaseAwaitingAnswer)
}

func (m *Machine) require(op string, want Phase) error {
	if !m.started {
		return fmt.Errorf("%s: %w", op, domain.ErrNotStarted)
	}
	if m.state.Phase.Terminal() {
		return fmt.Errorf("%s: %w", op, domain.ErrSessionOver)
	}
	if m.state.Phase != want {
		return fmt.Errorf("%s in %s: %w", op, m.state.Phase, domain.ErrInvalidTransition)
	}
	return nil
}

// lock resolves the current question; selected is -1 for a timeout.
func (m *Machine) lock(selected int) Answer {
	q := m.state.Questions[m.state.CurrentIndex]
	ans := Answer{
		QuestionIndex: m.state.CurrentIndex,
		Key:           q.Key(),
		Selected:      selected,
		CorrectIndex:  q.CorrectIndex,
		TimedOut:      selected < 0,
	}
	if !ans.TimedOut && selected == q.CorrectIndex {
		ans.Correct = true
		ans.Awarded = pointsFor(q)
		m.state.Score += ans.Awarded
		m.state.CorrectCount++
	} else if m.state.Lives > 0 {
		m.state.Lives--
	}
	if ans.TimedOut {
		m.state.TimeRemaining = 0
	}
	m.state.Answers = append(m.state.Answers, ans)
	m.state.Phase = PhaseLocked
	return ans
}

func pointsFor(q domain.Question) int {
	if q.Points > 0 {
		return q.Points
	}
	return q.Difficulty.DefaultPoints()
}
