// Package metrics defines the Prometheus instrumentation for the intake
// platform.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds every collector the platform records. All methods are safe
// for concurrent use.
type Metrics struct {
	CallsStarted  prometheus.Counter
	CallsEnded    *prometheus.CounterVec
	DialogueTurns *prometheus.CounterVec
	LLMFallbacks  prometheus.Counter
	SlotSearch    prometheus.Histogram
}

// New registers the platform collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CallsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "intake_calls_started_total",
			Help: "Inbound calls answered by the intake agent.",
		}),
		CallsEnded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "intake_calls_ended_total",
			Help: "Finished calls by outcome.",
		}, []string{"outcome"}),
		DialogueTurns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "intake_dialogue_turns_total",
			Help: "Processed caller utterances by resulting dialogue state.",
		}, []string{"state"}),
		LLMFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "intake_llm_fallbacks_total",
			Help: "Turns where the language model was bypassed or failed and keyword rules answered instead.",
		}),
		SlotSearch: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "intake_slot_search_duration_seconds",
			Help:    "Latency of scheduling engine slot searches.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(m.CallsStarted, m.CallsEnded, m.DialogueTurns, m.LLMFallbacks, m.SlotSearch)
	return m
}

// ObserveCallStarted counts an answered call.
func (m *Metrics) ObserveCallStarted() {
	m.CallsStarted.Inc()
}

// ObserveTurn counts a processed utterance by the state it landed in.
func (m *Metrics) ObserveTurn(state string) {
	m.DialogueTurns.WithLabelValues(state).Inc()
}

// ObserveOutcome counts a finished call by outcome.
func (m *Metrics) ObserveOutcome(outcome string) {
	m.CallsEnded.WithLabelValues(outcome).Inc()
}

// ObserveLLMFallback counts a keyword-rule fallback.
func (m *Metrics) ObserveLLMFallback() {
	m.LLMFallbacks.Inc()
}

// ObserveSlotSearch records one slot search duration.
func (m *Metrics) ObserveSlotSearch(d time.Duration) {
	m.SlotSearch.Observe(d.Seconds())
}
