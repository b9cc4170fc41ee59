package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"trivia-quiz-service/internal/app"
	"trivia-quiz-service/internal/domain"
	"trivia-quiz-service/internal/logging"
)

// APIHandler exposes the play use cases over JSON. The caller is the clock:
// it posts tick, timeout and advance itself.
type APIHandler struct {
	service *app.PlayService
}

func NewAPIHandler(service *app.PlayService) *APIHandler {
	return &APIHandler{service: service}
}

// Register mounts the API routes on mux.
func (h *APIHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/plays", h.start)
	mux.HandleFunc("GET /v1/plays/{id}", h.get)
	mux.HandleFunc("DELETE /v1/plays/{id}", h.leave)
	mux.HandleFunc("POST /v1/plays/{id}/answer", h.answer)
	mux.HandleFunc("POST /v1/plays/{id}/timeout", h.timeout)
	mux.HandleFunc("POST /v1/plays/{id}/tick", h.tick)
	mux.HandleFunc("POST /v1/plays/{id}/advance", h.advance)
	mux.HandleFunc("GET /v1/selection", h.selection)
}

type startBody struct {
	UserID   string `json:"userId"`
	Category string `json:"category"`
	Count    int    `json:"count"`
	Day      string `json:"day"`
}

type answerBody struct {
	Option *int `json:"option"`
}

type tickResponse struct {
	Play    app.PlayView `json:"play"`
	Expired bool         `json:"expired"`
}

type selectionQuestion struct {
	Key        domain.DedupKey   `json:"key"`
	Difficulty domain.Difficulty `json:"difficulty"`
	Prompt     string            `json:"prompt"`
	Points     int               `json:"points"`
}

type selectionResponse struct {
	CategoryID   string              `json:"categoryId"`
	UserID       string              `json:"userId,omitempty"`
	DayKey       string              `json:"dayKey"`
	Requested    int                 `json:"requested"`
	Seed         int64               `json:"seed"`
	FromCategory int                 `json:"fromCategory"`
	FromFallback int                 `json:"fromFallback"`
	CategoryMiss bool                `json:"categoryMiss"`
	Questions    []selectionQuestion `json:"questions"`
}

func (h *APIHandler) start(w http.ResponseWriter, r *http.Request) {
	var body startBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, r, badRequest("invalid JSON body"))
		return
	}
	if body.Count < 0 {
		writeError(w, r, domain.ErrNegativeCount)
		return
	}
	view, err := h.service.Start(r.Context(), app.StartRequest{
		UserID:     body.UserID,
		CategoryID: body.Category,
		Count:      body.Count,
		DayKey:     body.Day,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

func (h *APIHandler) get(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *APIHandler) leave(w http.ResponseWriter, r *http.Request) {
	h.service.Leave(r.Context(), r.PathValue("id"))
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) answer(w http.ResponseWriter, r *http.Request) {
	var body answerBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Option == nil {
		writeError(w, r, badRequest("body must be {\"option\": n}"))
		return
	}
	view, err := h.service.Answer(r.Context(), r.PathValue("id"), *body.Option)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *APIHandler) timeout(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Timeout(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *APIHandler) tick(w http.ResponseWriter, r *http.Request) {
	view, expired, err := h.service.Tick(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tickResponse{Play: view, Expired: expired})
}

func (h *APIHandler) advance(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Advance(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *APIHandler) selection(w http.ResponseWriter, r *http.Request) {
	req, err := startRequestFromQuery(r)
	if err != nil {
		writeError(w, r, badRequest(err.Error()))
		return
	}
	selReq, sel, err := h.service.Preview(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp := selectionResponse{
		CategoryID:   selReq.CategoryID,
		UserID:       selReq.UserID,
		DayKey:       selReq.DayKey,
		Requested:    selReq.Count,
		Seed:         sel.Seed,
		FromCategory: sel.FromCategory,
		FromFallback: sel.FromFallback,
		CategoryMiss: sel.CategoryMiss,
		Questions:    make([]selectionQuestion, len(sel.Questions)),
	}
	for i, q := range sel.Questions {
		resp.Questions[i] = selectionQuestion{Key: q.Key(), Difficulty: q.Difficulty, Prompt: q.Prompt, Points: q.Points}
	}
	writeJSON(w, http.StatusOK, resp)
}

type badRequest string

func (e badRequest) Error() string { return string(e) }

func statusFor(err error) int {
	var br badRequest
	switch {
	case errors.As(err, &br),
		errors.Is(err, domain.ErrNegativeCount),
		errors.Is(err, domain.ErrOptionOutOfRange):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrPlayNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrSessionOver),
		errors.Is(err, domain.ErrNotStarted):
		return http.StatusConflict
	case errors.Is(err, domain.ErrEmptyRepository),
		errors.Is(err, domain.ErrNoQuestions):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger := logging.FromContext(r.Context())
		logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	writeJSON(w, status, errorPayload{Message: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

