package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"trivia-quiz-service/internal/domain"
	"trivia-quiz-service/internal/logging"
	"trivia-quiz-service/internal/metrics"
	"trivia-quiz-service/internal/selector"
	"trivia-quiz-service/internal/session"
)

// DefaultQuestionCount is used when a start request does not say how many questions it wants.
const DefaultQuestionCount = 10

// DefaultFinishedTTL is how long a finished play stays readable before it is evicted.
const DefaultFinishedTTL = time.Minute

// PlayRepository abstracts where live plays are kept (in-memory, Redis, etc).
type PlayRepository interface {
	Put(play *Play)
	Get(playID string) (*Play, bool)
	Delete(playID string)
}

// QuestionSelector produces the question set for a play (directly or through a cache).
type QuestionSelector interface {
	Select(ctx context.Context, req domain.SelectionRequest) (selector.Selection, error)
}

// ResultRecorder hands finished plays to the session recording service.
type ResultRecorder interface {
	Record(ctx context.Context, result domain.PlayResult) error
}

// Options configures a PlayService. Zero values take defaults.
type Options struct {
	Session      session.Config
	DefaultCount int
	Metrics      *metrics.Metrics
	Now          func() time.Time
	NewID        func() string
	// FinishedTTL keeps a terminal play in the store so its summary can still be fetched.
	FinishedTTL time.Duration
	// AfterFunc schedules eviction of finished plays; defaults to time.AfterFunc.
	AfterFunc func(d time.Duration, f func())
}

// StartRequest asks for a new play.
type StartRequest struct {
	UserID     string
	CategoryID string
	Count      int    // 0 means the configured default
	DayKey     string // empty means today (UTC)
}

// PlayService contains the play use cases: it consumes one selection per play
// and routes player input into that play's session machine.
type PlayService struct {
	plays     PlayRepository
	questions QuestionSelector
	recorder  ResultRecorder
	cfg       session.Config
	count     int
	metrics   *metrics.Metrics
	now       func() time.Time
	newID     func() string
	ttl       time.Duration
	afterFunc func(d time.Duration, f func())
}

func NewPlayService(plays PlayRepository, questions QuestionSelector, recorder ResultRecorder, opts Options) *PlayService {
	s := &PlayService{
		plays:     plays,
		questions: questions,
		recorder:  recorder,
		cfg:       opts.Session.WithDefaults(),
		count:     opts.DefaultCount,
		metrics:   opts.Metrics,
		now:       opts.Now,
		newID:     opts.NewID,
		ttl:       opts.FinishedTTL,
		afterFunc: opts.AfterFunc,
	}
	if s.ttl <= 0 {
		s.ttl = DefaultFinishedTTL
	}
	if s.afterFunc == nil {
		s.afterFunc = func(d time.Duration, f func()) { time.AfterFunc(d, f) }
	}
	if s.count <= 0 {
		s.count = DefaultQuestionCount
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	return s
}

// SessionConfig returns the run parameters every play is started with.
func (s *PlayService) SessionConfig() session.Config {
	return s.cfg
}

// DayKey formats t as the calendar day used to vary selections.
func DayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// Start selects questions and begins a new play.
func (s *PlayService) Start(ctx context.Context, req StartRequest) (PlayView, error) {
	logger := logging.FromContext(ctx)

	selReq := s.selectionRequest(req)
	sel, err := s.questions.Select(ctx, selReq)
	if err != nil {
		return PlayView{}, fmt.Errorf("select questions: %w", err)
	}
	source := SelectionSource(sel)
	s.metrics.ObserveSelection(source, len(sel.Questions), selReq.Count)
	if source != metrics.SourceCategory || sel.Short(selReq.Count) {
		logger.Info().
			Str("category", selReq.CategoryID).
			Str("source", source).
			Int("requested", selReq.Count).
			Int("selected", len(sel.Questions)).
			Int("from_fallback", sel.FromFallback).
			Msg("selection degraded")
	}

	machine, err := session.New(s.cfg)
	if err != nil {
		return PlayView{}, err
	}
	if err := machine.Start(sel.Questions); err != nil {
		return PlayView{}, fmt.Errorf("start play: %w", err)
	}

	play := NewPlay(s.newID(), selReq, machine, s.now())
	s.plays.Put(play)
	s.metrics.PlayStarted()

	logger.Debug().
		Str("play_id", play.ID()).
		Str("category", selReq.CategoryID).
		Int("questions", len(sel.Questions)).
		Msg("play started")

	play.mu.Lock()
	defer play.mu.Unlock()
	return play.viewLocked(), nil
}

// Preview returns the selection a start request would play, without starting it.
func (s *PlayService) Preview(ctx context.Context, req StartRequest) (domain.SelectionRequest, selector.Selection, error) {
	selReq := s.selectionRequest(req)
	sel, err := s.questions.Select(ctx, selReq)
	if err != nil {
		return selReq, selector.Selection{}, fmt.Errorf("select questions: %w", err)
	}
	return selReq, sel, nil
}

func (s *PlayService) selectionRequest(req StartRequest) domain.SelectionRequest {
	selReq := domain.SelectionRequest{
		CategoryID: req.CategoryID,
		Count:      req.Count,
		UserID:     req.UserID,
		DayKey:     req.DayKey,
	}
	if selReq.Count == 0 {
		selReq.Count = s.count
	}
	if selReq.DayKey == "" {
		selReq.DayKey = DayKey(s.now())
	}
	return selReq
}

// Get returns the current view of a play.
func (s *PlayService) Get(_ context.Context, playID string) (PlayView, error) {
	play, ok := s.plays.Get(playID)
	if !ok {
		return PlayView{}, domain.ErrPlayNotFound
	}
	play.mu.Lock()
	defer play.mu.Unlock()
	return play.viewLocked(), nil
}

// Answer submits an option for the current question.
func (s *PlayService) Answer(ctx context.Context, playID string, option int) (PlayView, error) {
	return s.apply(ctx, playID, func(m *session.Machine) error {
		_, err := m.Answer(option)
		return err
	})
}

// Timeout resolves the current question as unanswered.
func (s *PlayService) Timeout(ctx context.Context, playID string) (PlayView, error) {
	return s.apply(ctx, playID, func(m *session.Machine) error {
		_, err := m.Timeout()
		return err
	})
}

// Tick counts the question clock down by one second. expired is true when the tick timed the question out.
func (s *PlayService) Tick(ctx context.Context, playID string) (view PlayView, expired bool, err error) {
	view, err = s.apply(ctx, playID, func(m *session.Machine) error {
		var tickErr error
		expired, tickErr = m.Tick()
		return tickErr
	})
	return view, expired, err
}

// Advance moves past the feedback phase. When the play becomes terminal its
// result is recorded exactly once.
func (s *PlayService) Advance(ctx context.Context, playID string) (PlayView, error) {
	return s.apply(ctx, playID, func(m *session.Machine) error {
		return m.Advance()
	})
}

// Leave discards a play. Unknown ids are ignored.
func (s *PlayService) Leave(_ context.Context, playID string) {
	if _, ok := s.plays.Get(playID); !ok {
		return
	}
	s.plays.Delete(playID)
	s.metrics.PlayDiscarded()
}

func (s *PlayService) apply(ctx context.Context, playID string, transition func(*session.Machine) error) (PlayView, error) {
	play, ok := s.plays.Get(playID)
	if !ok {
		return PlayView{}, domain.ErrPlayNotFound
	}

	play.mu.Lock()
	if err := transition(play.machine); err != nil {
		play.mu.Unlock()
		return PlayView{}, err
	}
	view := play.viewLocked()
	var (
		result  domain.PlayResult
		pending bool
	)
	if !play.recorded {
		result, pending = play.resultLocked(s.now())
		play.recorded = pending
	}
	play.mu.Unlock()

	if pending {
		s.finish(ctx, result)
		s.afterFunc(s.ttl, func() { s.evict(playID) })
	}
	return view, nil
}

// evict drops a finished play unless it was already left or replaced.
func (s *PlayService) evict(playID string) {
	play, ok := s.plays.Get(playID)
	if !ok || !play.Terminal() {
		return
	}
	s.plays.Delete(playID)
	s.metrics.PlayDiscarded()
}

func (s *PlayService) finish(ctx context.Context, result domain.PlayResult) {
	logger := logging.FromContext(ctx)
	s.metrics.PlayFinished(string(result.Summary.Outcome))

	logger.Info().
		Str("play_id", result.PlayID).
		Str("category", result.CategoryID).
		Str("outcome", string(result.Summary.Outcome)).
		Int("score", result.Summary.Score).
		Int("correct", result.Summary.CorrectCount).
		Int("total", result.Summary.TotalQuestions).
		Msg("play finished")

	if s.recorder == nil {
		return
	}
	if err := s.recorder.Record(ctx, result); err != nil {
		s.metrics.RecordFailed()
		logger.Error().Err(err).Str("play_id", result.PlayID).Msg("record play result failed")
	}
}

// SelectionSource classifies where a selection's questions came from.
func SelectionSource(sel selector.Selection) string {
	switch {
	case sel.CategoryMiss:
		return metrics.SourceFallback
	case sel.FromFallback > 0:
		return metrics.SourceMixed
	default:
		return metrics.SourceCategory
	}
}

// DirectSelector adapts a selector.Selector to QuestionSelector without caching.
type DirectSelector struct {
	Selector *selector.Selector
}

func (d DirectSelector) Select(_ context.Context, req domain.SelectionRequest) (selector.Selection, error) {
	return d.Selector.SelectDetailed(req)
}
