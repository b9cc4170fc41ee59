// Package metrics exposes Prometheus collectors for selection and play activity.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "trivia"

// Selection sources.
const (
	SourceCategory = "category" // request filled from its own category
	SourceMixed    = "mixed"    // category topped up from the rest of the bank
	SourceFallback = "fallback" // category missing or empty
)

type Metrics struct {
	selections      *prometheus.CounterVec
	selectionSize   prometheus.Histogram
	shortSelections prometheus.Counter
	playsStarted    prometheus.Counter
	playsFinished   *prometheus.CounterVec
	livePlays       prometheus.Gauge
	recordFailures  prometheus.Counter
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		selections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "selections_total",
			Help:      "Question selections by where the questions came from.",
		}, []string{"source"}),
		selectionSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "selection_size",
			Help:      "Number of questions returned per selection.",
			Buckets:   []float64{0, 1, 5, 10, 15, 20, 30, 50},
		}),
		shortSelections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "selections_short_total",
			Help:      "Selections that returned fewer questions than requested.",
		}),
		playsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plays_started_total",
			Help:      "Plays started.",
		}),
		playsFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plays_finished_total",
			Help:      "Plays that reached a terminal phase, by outcome.",
		}, []string{"outcome"}),
		livePlays: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "live_plays",
			Help:      "Plays currently held in the play store.",
		}),
		recordFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "record_failures_total",
			Help:      "Play results the recording service rejected.",
		}),
	}
	reg.MustRegister(
		m.selections,
		m.selectionSize,
		m.shortSelections,
		m.playsStarted,
		m.playsFinished,
		m.livePlays,
		m.recordFailures,
	)
	return m
}

// ObserveSelection records one selection of size got for a request of want.
func (m *Metrics) ObserveSelection(source string, got, want int) {
	if m == nil {
		return
	}
	m.selections.WithLabelValues(source).Inc()
	m.selectionSize.Observe(float64(got))
	if got < want {
		m.shortSelections.Inc()
	}
}

func (m *Metrics) PlayStarted() {
	if m == nil {
		return
	}
	m.playsStarted.Inc()
	m.livePlays.Inc()
}

func (m *Metrics) PlayFinished(outcome string) {
	if m == nil {
		return
	}
	m.playsFinished.WithLabelValues(outcome).Inc()
}

func (m *Metrics) PlayDiscarded() {
	if m == nil {
		return
	}
	m.livePlays.Dec()
}

func (m *Metrics) RecordFailed() {
	if m == nil {
		return
	}
	m.recordFailures.Inc()
}
