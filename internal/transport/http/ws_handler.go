package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"trivia-quiz-service/internal/app"
	"trivia-quiz-service/internal/domain"
	"trivia-quiz-service/internal/logging"
)

// WSHandler runs one play per connection. The server is the play's clock: it
// ticks the question timer and advances past feedback on its own.
type WSHandler struct {
	service       *app.PlayService
	upgrader      websocket.Upgrader
	tickInterval  time.Duration
	feedbackDelay time.Duration
}

func NewWSHandler(service *app.PlayService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		tickInterval:  time.Second,
		feedbackDelay: service.SessionConfig().FeedbackDelay(),
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	Option *int `json:"option"`
}

type tickPayload struct {
	QuestionNumber int `json:"questionNumber"`
	TimeRemaining  int `json:"timeRemaining"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades HTTP requests to websockets and drives a play over them.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context())

	req, err := startRequestFromQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn().Err(err).Msg("ws upgrade failed")
		return
	}
	defer conn.Close()

	view, err := h.service.Start(r.Context(), req)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	playID := view.PlayID
	defer h.service.Leave(r.Context(), playID)

	send := make(chan outboundMessage[any], 16)
	answers := make(chan int)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	driverDone := make(chan struct{})

	emit := func(msg outboundMessage[any]) bool {
		select {
		case send <- msg:
			return true
		case <-closeSignals:
			return false
		}
	}

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				logger.Debug().Err(err).Str("play_id", playID).Msg("ws write error")
				return
			}
		}
	}()

	go func() {
		defer close(driverDone)
		h.drive(r, playID, answers, emit, closeSignals)
	}()

	emit(outboundMessage[any]{Type: "question", Payload: view})

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.Option == nil {
				emit(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid answer payload"}})
				continue
			}
			select {
			case answers <- *payload.Option:
			case <-driverDone:
				emit(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: domain.ErrSessionOver.Error()}})
			}
		default:
			emit(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}})
		}
	}

	close(closeSignals)
	<-driverDone
	close(send)
	<-writerDone
}

// drive owns the play's timing until it ends or the connection goes away.
func (h *WSHandler) drive(r *http.Request, playID string, answers <-chan int, emit func(outboundMessage[any]) bool, done <-chan struct{}) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	ticker := time.NewTicker(h.tickInterval)
	defer ticker.Stop()

	// non-nil only while the current question is locked
	var advance <-chan time.Time

	locked := func(view app.PlayView) bool {
		advance = time.After(h.feedbackDelay)
		return emit(outboundMessage[any]{Type: "feedback", Payload: view})
	}

	for {
		select {
		case <-done:
			return

		case <-ticker.C:
			if advance != nil {
				continue
			}
			view, expired, err := h.service.Tick(ctx, playID)
			if err != nil {
				logger.Warn().Err(err).Str("play_id", playID).Msg("tick failed")
				return
			}
			if expired {
				if !locked(view) {
					return
				}
				continue
			}
			if !emit(outboundMessage[any]{Type: "tick", Payload: tickPayload{
				QuestionNumber: view.QuestionNumber,
				TimeRemaining:  view.TimeRemaining,
			}}) {
				return
			}

		case option := <-answers:
			view, err := h.service.Answer(ctx, playID, option)
			if err != nil {
				if !emit(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}) {
					return
				}
				continue
			}
			if !locked(view) {
				return
			}

		case <-advance:
			advance = nil
			view, err := h.service.Advance(ctx, playID)
			if err != nil {
				logger.Warn().Err(err).Str("play_id", playID).Msg("advance failed")
				return
			}
			if view.Phase.Terminal() {
				emit(outboundMessage[any]{Type: "summary", Payload: view})
				return
			}
			ticker.Reset(h.tickInterval)
			if !emit(outboundMessage[any]{Type: "question", Payload: view}) {
				return
			}
		}
	}
}

func startRequestFromQuery(r *http.Request) (app.StartRequest, error) {
	q := r.URL.Query()
	req := app.StartRequest{
		UserID:     q.Get("userId"),
		CategoryID: q.Get("category"),
		DayKey:     q.Get("day"),
	}
	if raw := q.Get("count"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return req, errors.New("count must be an integer")
		}
		if n < 0 {
			return req, domain.ErrNegativeCount
		}
		req.Count = n
	}
	return req, nil
}
