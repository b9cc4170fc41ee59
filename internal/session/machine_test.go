package session

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trivia-quiz-service/internal/domain"
)

func questions(n int) []domain.Question {
	qs := make([]domain.Question, n)
	for i := range qs {
		qs[i] = domain.Question{
			ID:           fmt.Sprintf("%03d", i+1),
			CategoryID:   "science",
			Difficulty:   domain.DifficultyMedium,
			Prompt:       fmt.Sprintf("question %d", i+1),
			Options:      []string{"a", "b", "c", "d"},
			CorrectIndex: 1,
			Points:       15,
		}
	}
	return qs
}

func started(t *testing.T, cfg Config, n int) *Machine {
	t.Helper()
	m, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, m.Start(questions(n)))
	return m
}

func TestStartInitialState(t *testing.T) {
	m := started(t, Config{}, 3)

	s := m.State()
	assert.Equal(t, 0, s.CurrentIndex)
	assert.Equal(t, 3, s.Lives)
	assert.Equal(t, 0, s.Score)
	assert.Equal(t, 0, s.CorrectCount)
	assert.Equal(t, 30, s.TimeRemaining)
	assert.Equal(t, PhaseAwaitingAnswer, s.Phase)
	assert.Len(t, s.Questions, 3)
}

func TestStartRejectsEmptyList(t *testing.T) {
	m, err := New(DefaultConfig())
	require.NoError(t, err)

	assert.ErrorIs(t, m.Start(nil), domain.ErrNoQuestions)
	assert.False(t, m.Started())

	_, err = m.Answer(0)
	assert.ErrorIs(t, err, domain.ErrNotStarted)
}

func TestStartTwiceRejected(t *testing.T) {
	m := started(t, Config{}, 2)
	assert.ErrorIs(t, m.Start(questions(5)), domain.ErrInvalidTransition)
	assert.Len(t, m.State().Questions, 2)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	_, err := New(Config{StartingLives: -1})
	assert.Error(t, err)
	_, err = New(Config{QuestionDurationSeconds: -5})
	assert.Error(t, err)
}

func TestCorrectAnswerScores(t *testing.T) {
	m := started(t, Config{}, 2)

	ans, err := m.Answer(1)
	require.NoError(t, err)
	assert.True(t, ans.Correct)
	assert.Equal(t, 15, ans.Awarded)

	s := m.State()
	assert.Equal(t, PhaseLocked, s.Phase)
	assert.Equal(t, 15, s.Score)
	assert.Equal(t, 1, s.CorrectCount)
	assert.Equal(t, 3, s.Lives)
}

func TestPointsDefaultByDifficulty(t *testing.T) {
	qs := questions(1)
	qs[0].Points = 0
	qs[0].Difficulty = domain.DifficultyHard

	m, err := New(Config{})
	require.NoError(t, err)
	require.NoError(t, m.Start(qs))

	ans, err := m.Answer(1)
	require.NoError(t, err)
	assert.Equal(t, 20, ans.Awarded)
}

func TestWrongAnswerCostsLife(t *testing.T) {
	m := started(t, Config{}, 2)

	ans, err := m.Answer(0)
	require.NoError(t, err)
	assert.False(t, ans.Correct)
	assert.Zero(t, ans.Awarded)

	s := m.State()
	assert.Equal(t, 2, s.Lives)
	assert.Equal(t, 0, s.Score)
	assert.Equal(t, PhaseLocked, s.Phase)
}

func TestOutOfRangeOptionLeavesStateUnchanged(t *testing.T) {
	m := started(t, Config{}, 2)
	before := m.State()

	for _, option := range []int{-1, 4, 100} {
		_, err := m.Answer(option)
		assert.ErrorIs(t, err, domain.ErrOptionOutOfRange)
	}
	assert.Equal(t, before, m.State())
}

func TestAnswerWhileLockedRejected(t *testing.T) {
	m := started(t, Config{}, 2)
	_, err := m.Answer(1)
	require.NoError(t, err)
	before := m.State()

	_, err = m.Answer(1)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	_, err = m.Timeout()
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	_, err = m.Tick()
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Equal(t, before, m.State())
}

func TestAdvanceRequiresLocked(t *testing.T) {
	m := started(t, Config{}, 2)
	assert.ErrorIs(t, m.Advance(), domain.ErrInvalidTransition)
}

func TestTickCountsDownToTimeout(t *testing.T) {
	m := started(t, Config{QuestionDurationSeconds: 3}, 2)

	expired, err := m.Tick()
	require.NoError(t, err)
	assert.False(t, expired)
	assert.Equal(t, 2, m.State().TimeRemaining)

	_, _ = m.Tick()
	expired, err = m.Tick()
	require.NoError(t, err)
	assert.True(t, expired)

	s := m.State()
	assert.Equal(t, PhaseLocked, s.Phase)
	assert.Equal(t, 0, s.TimeRemaining)
	assert.Equal(t, 2, s.Lives)
	assert.Equal(t, 0, s.CorrectCount)

	last, ok := m.LastAnswer()
	require.True(t, ok)
	assert.True(t, last.TimedOut)
	assert.Equal(t, -1, last.Selected)
}

func TestTimeoutCountsAsIncorrect(t *testing.T) {
	m := started(t, Config{}, 2)

	ans, err := m.Timeout()
	require.NoError(t, err)
	assert.True(t, ans.TimedOut)
	assert.False(t, ans.Correct)
	assert.Equal(t, 2, m.State().Lives)
}

func TestAdvanceResetsTimer(t *testing.T) {
	m := started(t, Config{QuestionDurationSeconds: 10}, 2)
	for i := 0; i < 4; i++ {
		_, err := m.Tick()
		require.NoError(t, err)
	}
	_, err := m.Answer(1)
	require.NoError(t, err)
	require.NoError(t, m.Advance())

	s := m.State()
	assert.Equal(t, 1, s.CurrentIndex)
	assert.Equal(t, 10, s.TimeRemaining)
	assert.Equal(t, PhaseAwaitingAnswer, s.Phase)
}

func TestSingleQuestionWrongAnswerCompletes(t *testing.T) {
	m := started(t, Config{}, 1)

	_, err := m.Answer(3)
	require.NoError(t, err)
	require.NoError(t, m.Advance())

	s := m.State()
	assert.Equal(t, PhaseComplete, s.Phase)
	assert.Equal(t, 2, s.Lives)
	assert.Equal(t, 0, s.CorrectCount)

	sum, ok := m.Summary()
	require.True(t, ok)
	assert.Equal(t, domain.Summary{Score: 0, CorrectCount: 0, TotalQuestions: 1, Outcome: domain.OutcomeComplete}, sum)
}

func TestLastLifeLostFailsImmediately(t *testing.T) {
	m := started(t, Config{StartingLives: 1}, 5)

	_, err := m.Answer(1)
	require.NoError(t, err)
	require.NoError(t, m.Advance())

	_, err = m.Answer(0)
	require.NoError(t, err)
	require.NoError(t, m.Advance())

	s := m.State()
	assert.Equal(t, PhaseFailed, s.Phase)
	assert.Equal(t, 1, s.CurrentIndex, "remaining questions are never presented")
	assert.Equal(t, 0, s.Lives)
	assert.Len(t, s.Answers, 2)

	sum, ok := m.Summary()
	require.True(t, ok)
	assert.Equal(t, domain.Summary{Score: 15, CorrectCount: 1, TotalQuestions: 5, Outcome: domain.OutcomeFailed}, sum)
}

func TestFailureOnLastQuestionWins(t *testing.T) {
	m := started(t, Config{StartingLives: 1}, 1)
	_, err := m.Timeout()
	require.NoError(t, err)
	require.NoError(t, m.Advance())
	assert.Equal(t, PhaseFailed, m.Phase())
}

func TestTerminalStability(t *testing.T) {
	m := started(t, Config{}, 1)
	_, err := m.Answer(1)
	require.NoError(t, err)
	require.NoError(t, m.Advance())
	require.Equal(t, PhaseComplete, m.Phase())
	before := m.State()

	_, err = m.Answer(1)
	assert.ErrorIs(t, err, domain.ErrSessionOver)
	_, err = m.Timeout()
	assert.ErrorIs(t, err, domain.ErrSessionOver)
	_, err = m.Tick()
	assert.ErrorIs(t, err, domain.ErrSessionOver)
	assert.ErrorIs(t, m.Advance(), domain.ErrSessionOver)

	assert.Equal(t, before, m.State())
}

func TestSummaryUnavailableMidPlay(t *testing.T) {
	m := started(t, Config{}, 2)
	_, ok := m.Summary()
	assert.False(t, ok)
}

func TestStateIsACopy(t *testing.T) {
	m := started(t, Config{}, 2)
	s := m.State()
	s.Questions[0].Prompt = "mutated"
	s.Lives = 0

	q, ok := m.Current()
	require.True(t, ok)
	assert.Equal(t, "question 1", q.Prompt)
	assert.Equal(t, 3, m.State().Lives)
}

// Random walks through the machine must never break its invariants.
func TestInvariantsUnderRandomInput(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for run := 0; run < 200; run++ {
		m := started(t, Config{QuestionDurationSeconds: 3, StartingLives: 1 + r.Intn(3)}, 1+r.Intn(8))

		prev := m.State()
		for step := 0; step < 100; step++ {
			terminalBefore := m.Phase().Terminal()
			switch r.Intn(5) {
			case 0:
				_, _ = m.Tick()
			case 1:
				_, _ = m.Answer(r.Intn(6) - 1)
			case 2:
				_, _ = m.Timeout()
			default:
				_ = m.Advance()
			}
			cur := m.State()

			require.GreaterOrEqual(t, cur.Lives, 0)
			require.GreaterOrEqual(t, cur.Score, prev.Score)
			require.GreaterOrEqual(t, cur.CorrectCount, prev.CorrectCount)
			require.LessOrEqual(t, cur.CurrentIndex, len(cur.Questions))
			if terminalBefore {
				require.Equal(t, prev, cur)
			}
			prev = cur
		}
	}
}

func TestPhaseText(t *testing.T) {
	text, err := PhaseLocked.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "locked", string(text))

	var p Phase
	require.NoError(t, p.UnmarshalText([]byte("failed")))
	assert.Equal(t, PhaseFailed, p)
	assert.Error(t, p.UnmarshalText([]byte("paused")))
	assert.Equal(t, "phase(9)", Phase(9).String())
}
