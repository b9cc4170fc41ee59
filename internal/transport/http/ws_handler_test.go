package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"trivia-quiz-service/internal/app"
	"trivia-quiz-service/internal/bank"
	"trivia-quiz-service/internal/domain"
	"trivia-quiz-service/internal/infra/memory"
	"trivia-quiz-service/internal/selector"
	"trivia-quiz-service/internal/session"
)

func TestWebSocketPlayFlow(t *testing.T) {
	service, b, recorder := newTestService(t, session.Config{})
	wsHandler := NewWSHandler(service)
	wsHandler.tickInterval = 20 * time.Millisecond
	wsHandler.feedbackDelay = 10 * time.Millisecond

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	server := httptest.NewServer(mux)
	defer server.Close()

	conn := dial(t, server, "/ws?userId=u1&category=science&count=2&day=2024-01-01")
	defer conn.Close()

	msg := readNext(conn, t, "question")
	for i := 0; i < 2; i++ {
		correct := correctOption(t, b, msg)
		if err := conn.WriteJSON(map[string]any{
			"type":    "answer",
			"payload": map[string]any{"option": correct},
		}); err != nil {
			t.Fatalf("write answer: %v", err)
		}

		feedback := readNext(conn, t, "feedback")
		last, _ := feedback.Payload["lastAnswer"].(map[string]any)
		if last["correct"] != true {
			t.Fatalf("expected correct feedback, got %+v", feedback.Payload)
		}
		if i == 0 {
			msg = readNext(conn, t, "question")
		}
	}

	summary := readNext(conn, t, "summary")
	sum, _ := summary.Payload["summary"].(map[string]any)
	if sum["outcome"] != string(domain.OutcomeComplete) || sum["correctCount"] != float64(2) {
		t.Fatalf("unexpected summary %+v", summary.Payload)
	}
	if got := recorder.Results(); len(got) != 1 {
		t.Fatalf("expected one recorded result, got %d", len(got))
	}
}

func TestWebSocketTimerExpires(t *testing.T) {
	service, _, _ := newTestService(t, session.Config{QuestionDurationSeconds: 2})
	wsHandler := NewWSHandler(service)
	wsHandler.tickInterval = 5 * time.Millisecond
	wsHandler.feedbackDelay = time.Hour

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	server := httptest.NewServer(mux)
	defer server.Close()

	conn := dial(t, server, "/ws?userId=u1&category=history&count=3")
	defer conn.Close()

	readNext(conn, t, "question")
	tick := readNext(conn, t, "tick")
	if tick.Payload["timeRemaining"] != float64(1) {
		t.Fatalf("expected one second left, got %+v", tick.Payload)
	}
	feedback := readNext(conn, t, "feedback")
	last, _ := feedback.Payload["lastAnswer"].(map[string]any)
	if last["timedOut"] != true || feedback.Payload["lives"] != float64(2) {
		t.Fatalf("expected timed out answer costing a life, got %+v", feedback.Payload)
	}
}

func TestWebSocketRejectsBadCount(t *testing.T) {
	service, _, _ := newTestService(t, session.Config{})
	server := httptest.NewServer(http.HandlerFunc(NewWSHandler(service).ServeWS))
	defer server.Close()

	_, resp, err := websocket.DefaultDialer.Dial("ws"+server.URL[len("http"):]+"/?count=abc", nil)
	if err == nil {
		t.Fatalf("expected handshake failure")
	}
	if resp == nil || resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", resp)
	}
}

func TestWebSocketInvalidAnswerPayload(t *testing.T) {
	service, _, _ := newTestService(t, session.Config{})
	wsHandler := NewWSHandler(service)
	wsHandler.tickInterval = time.Hour

	server := httptest.NewServer(http.HandlerFunc(wsHandler.ServeWS))
	defer server.Close()

	conn := dial(t, server, "/?category=gk&count=1")
	defer conn.Close()

	readNext(conn, t, "question")
	if err := conn.WriteJSON(map[string]any{"type": "answer", "payload": map[string]any{}}); err != nil {
		t.Fatalf("write: %v", err)
	}
	readNext(conn, t, "error")
	if err := conn.WriteJSON(map[string]any{"type": "answer", "payload": map[string]any{"option": 99}}); err != nil {
		t.Fatalf("write: %v", err)
	}
	readNext(conn, t, "error")
}

type wsMessage struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload"`
}

// readNext skips tick messages unless a tick is what the caller expects.
func readNext(conn *websocket.Conn, t *testing.T, expect string) wsMessage {
	t.Helper()
	for {
		var msg wsMessage
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read json: %v", err)
		}
		if msg.Type == "tick" && expect != "tick" {
			continue
		}
		if expect != "" && msg.Type != expect {
			t.Fatalf("expected type %s, got %s (%+v)", expect, msg.Type, msg.Payload)
		}
		return msg
	}
}

func dial(t *testing.T, server *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+server.URL[len("http"):]+path, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func correctOption(t *testing.T, b *bank.Bank, msg wsMessage) int {
	t.Helper()
	question, _ := msg.Payload["question"].(map[string]any)
	key, _ := question["key"].(map[string]any)
	categoryID, _ := key["categoryId"].(string)
	id, _ := key["id"].(string)
	q, ok := b.Lookup(domain.DedupKey{CategoryID: categoryID, ID: id})
	if !ok {
		t.Fatalf("question %s/%s not in bank", categoryID, id)
	}
	return q.CorrectIndex
}

func newTestService(t *testing.T, cfg session.Config) (*app.PlayService, *bank.Bank, *memory.ResultRecorder) {
	t.Helper()
	b, err := bank.New(bank.SampleQuestions())
	if err != nil {
		t.Fatalf("bank: %v", err)
	}
	recorder := memory.NewResultRecorder()
	service := app.NewPlayService(
		memory.NewPlayStore(),
		app.DirectSelector{Selector: selector.New(b, selector.Options{FallbackCategory: bank.GeneralKnowledge})},
		recorder,
		app.Options{Session: cfg},
	)
	return service, b, recorder
}
