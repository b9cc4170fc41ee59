package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trivia-quiz-service/internal/app"
	"trivia-quiz-service/internal/bank"
	"trivia-quiz-service/internal/infra/memory"
	"trivia-quiz-service/internal/metrics"
	"trivia-quiz-service/internal/selector"
	"trivia-quiz-service/internal/session"
)

func newAPIServer(t *testing.T) (*httptest.Server, *bank.Bank) {
	t.Helper()
	b, err := bank.New(bank.SampleQuestions())
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	service := app.NewPlayService(
		memory.NewPlayStore(),
		app.DirectSelector{Selector: selector.New(b, selector.Options{FallbackCategory: bank.GeneralKnowledge})},
		memory.NewResultRecorder(),
		app.Options{Metrics: metrics.New(reg)},
	)
	server := httptest.NewServer(NewMux(service, reg, zerolog.Nop()))
	t.Cleanup(server.Close)
	return server, b
}

func doJSON(t *testing.T, method, url string, body any, out any) int {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode < 300 && resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestAPIPlayLifecycle(t *testing.T) {
	server, b := newAPIServer(t)

	var view app.PlayView
	status := doJSON(t, http.MethodPost, server.URL+"/v1/plays", map[string]any{"userId": "u1", "category": "science", "count": 1, "day": "2024-01-01"}, &view)
	require.Equal(t, http.StatusCreated, status)
	require.NotNil(t, view.Question)
	assert.Equal(t, session.PhaseAwaitingAnswer, view.Phase)
	assert.Nil(t, view.Question.CorrectIndex)

	q, ok := b.Lookup(view.Question.Key)
	require.True(t, ok)
	playURL := server.URL + "/v1/plays/" + view.PlayID

	var tick tickResponse
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodPost, playURL+"/tick", nil, &tick))
	assert.False(t, tick.Expired)
	assert.Equal(t, 29, tick.Play.TimeRemaining)

	require.Equal(t, http.StatusOK, doJSON(t, http.MethodPost, playURL+"/answer", map[string]any{"option": q.CorrectIndex}, &view))
	assert.Equal(t, session.PhaseLocked, view.Phase)
	require.NotNil(t, view.Question.CorrectIndex)

	require.Equal(t, http.StatusOK, doJSON(t, http.MethodPost, playURL+"/advance", nil, &view))
	assert.Equal(t, session.PhaseComplete, view.Phase)
	require.NotNil(t, view.Summary)
	assert.Equal(t, q.Points, view.Summary.Score)

	require.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, playURL, nil, &view))
	assert.Equal(t, session.PhaseComplete, view.Phase)

	assert.Equal(t, http.StatusNoContent, doJSON(t, http.MethodDelete, playURL, nil, nil))
	assert.Equal(t, http.StatusNotFound, doJSON(t, http.MethodGet, playURL, nil, nil))
}

func TestAPIErrorStatuses(t *testing.T) {
	server, _ := newAPIServer(t)

	var view app.PlayView
	require.Equal(t, http.StatusCreated, doJSON(t, http.MethodPost, server.URL+"/v1/plays", map[string]any{"category": "gk", "count": 2}, &view))
	playURL := server.URL + "/v1/plays/" + view.PlayID

	assert.Equal(t, http.StatusBadRequest, doJSON(t, http.MethodPost, server.URL+"/v1/plays", map[string]any{"count": -1}, nil))
	assert.Equal(t, http.StatusBadRequest, doJSON(t, http.MethodPost, playURL+"/answer", map[string]any{"option": 9}, nil))
	assert.Equal(t, http.StatusBadRequest, doJSON(t, http.MethodPost, playURL+"/answer", map[string]any{}, nil))
	assert.Equal(t, http.StatusConflict, doJSON(t, http.MethodPost, playURL+"/advance", nil, nil))
	assert.Equal(t, http.StatusNotFound, doJSON(t, http.MethodPost, server.URL+"/v1/plays/nope/timeout", nil, nil))

	require.Equal(t, http.StatusOK, doJSON(t, http.MethodPost, playURL+"/timeout", nil, &view))
	assert.Equal(t, 2, view.Lives)
	assert.Equal(t, http.StatusConflict, doJSON(t, http.MethodPost, playURL+"/timeout", nil, nil))
}

func TestAPISelectionIsDeterministic(t *testing.T) {
	server, _ := newAPIServer(t)
	url := server.URL + "/v1/selection?category=nope&count=4&userId=u1&day=2024-01-01"

	var first, second selectionResponse
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, url, nil, &first))
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, url, nil, &second))

	assert.True(t, first.CategoryMiss)
	assert.Equal(t, 4, first.FromFallback)
	assert.Len(t, first.Questions, 4)
	assert.Equal(t, first.Questions, second.Questions)
	assert.Equal(t, first.Seed, second.Seed)

	assert.Equal(t, http.StatusBadRequest, doJSON(t, http.MethodGet, server.URL+"/v1/selection?count=-2", nil, nil))
}

func TestHealthAndMetrics(t *testing.T) {
	server, _ := newAPIServer(t)

	require.Equal(t, http.StatusCreated, doJSON(t, http.MethodPost, server.URL+"/v1/plays", map[string]any{"category": "gk"}, &app.PlayView{}))

	resp, err := http.Get(server.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "trivia_plays_started_total 1"), string(body))
}
