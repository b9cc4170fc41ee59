package http

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"trivia-quiz-service/internal/app"
	"trivia-quiz-service/internal/logging"
)

// NewMux wires health, metrics, the play API and the websocket endpoint.
// Every request context carries logger.
func NewMux(service *app.PlayService, gatherer prometheus.Gatherer, logger zerolog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	NewAPIHandler(service).Register(mux)
	mux.HandleFunc("/ws", NewWSHandler(service).ServeWS)

	return withLogger(mux, logger)
}

func withLogger(next http.Handler, logger zerolog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(logging.IntoContext(r.Context(), logger)))
	})
}
