package app

import (
	"sync"
	"time"

	"trivia-quiz-service/internal/domain"
	"trivia-quiz-service/internal/session"
)

// Play is one in-progress run: a question set plus the machine driving it.
// The mutex makes the caller holding it the single owner of the machine for
// the duration of a transition.
type Play struct {
	id         string
	userID     string
	categoryID string
	dayKey     string
	startedAt  time.Time

	mu       sync.Mutex
	machine  *session.Machine
	recorded bool
}

// NewPlay wraps a started machine. Exported for infrastructure layers that need to seed plays.
func NewPlay(id string, req domain.SelectionRequest, machine *session.Machine, startedAt time.Time) *Play {
	return &Play{
		id:         id,
		userID:     req.UserID,
		categoryID: req.CategoryID,
		dayKey:     req.DayKey,
		startedAt:  startedAt,
		machine:    machine,
	}
}

func (p *Play) ID() string {
	return p.id
}

// Terminal reports whether the play has reached Complete or Failed.
func (p *Play) Terminal() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.machine.Phase().Terminal()
}

// QuestionView is a question as shown to the player. The answer and
// explanation are only filled in once the question is locked.
type QuestionView struct {
	Key          domain.DedupKey   `json:"key"`
	Difficulty   domain.Difficulty `json:"difficulty"`
	Prompt       string            `json:"prompt"`
	Options      []string          `json:"options"`
	Points       int               `json:"points"`
	CorrectIndex *int              `json:"correctIndex,omitempty"`
	Explanation  string            `json:"explanation,omitempty"`
}

// PlayView is the render model of a play.
type PlayView struct {
	PlayID         string          `json:"playId"`
	CategoryID     string          `json:"categoryId"`
	DayKey         string          `json:"dayKey"`
	Phase          session.Phase   `json:"phase"`
	QuestionNumber int             `json:"questionNumber"`
	TotalQuestions int             `json:"totalQuestions"`
	Lives          int             `json:"lives"`
	Score          int             `json:"score"`
	CorrectCount   int             `json:"correctCount"`
	TimeRemaining  int             `json:"timeRemaining"`
	Question       *QuestionView   `json:"question,omitempty"`
	LastAnswer     *session.Answer `json:"lastAnswer,omitempty"`
	Summary        *domain.Summary `json:"summary,omitempty"`
}

func (p *Play) viewLocked() PlayView {
	st := p.machine.State()
	view := PlayView{
		PlayID:         p.id,
		CategoryID:     p.categoryID,
		DayKey:         p.dayKey,
		Phase:          st.Phase,
		QuestionNumber: st.CurrentIndex + 1,
		TotalQuestions: len(st.Questions),
		Lives:          st.Lives,
		Score:          st.Score,
		CorrectCount:   st.CorrectCount,
		TimeRemaining:  st.TimeRemaining,
	}

	if q, ok := p.machine.Current(); ok && !st.Phase.Terminal() {
		qv := &QuestionView{
			Key:        q.Key(),
			Difficulty: q.Difficulty,
			Prompt:     q.Prompt,
			Options:    append([]string(nil), q.Options...),
			Points:     q.Points,
		}
		if st.Phase == session.PhaseLocked {
			correct := q.CorrectIndex
			qv.CorrectIndex = &correct
			qv.Explanation = q.Explanation
		}
		view.Question = qv
	}

	if st.Phase != session.PhaseAwaitingAnswer {
		if last, ok := p.machine.LastAnswer(); ok {
			view.LastAnswer = &last
		}
	}
	if sum, ok := p.machine.Summary(); ok {
		view.Summary = &sum
	}
	return view
}

func (p *Play) resultLocked(finishedAt time.Time) (domain.PlayResult, bool) {
	sum, ok := p.machine.Summary()
	if !ok {
		return domain.PlayResult{}, false
	}
	return domain.PlayResult{
		PlayID:     p.id,
		UserID:     p.userID,
		CategoryID: p.categoryID,
		DayKey:     p.dayKey,
		Summary:    sum,
		StartedAt:  p.startedAt,
		FinishedAt: finishedAt,
	}, true
}
