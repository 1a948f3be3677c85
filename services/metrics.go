package services

import "github.com/prometheus/client_golang/prometheus"

var turnsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "intake",
		Name:      "turns_total",
		Help:      "Conversation turns processed, by resulting step",
	},
	[]string{"step"},
)

var diseaseMatchesTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "intake",
		Name:      "disease_matches_total",
		Help:      "Disease matcher outcomes by winning strategy",
	},
	[]string{"strategy"}, // name, dataset, llm, needs_more_context, none
)

var llmRequestsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "intake",
		Name:      "llm_requests_total",
		Help:      "Text completion calls by purpose and status",
	},
	[]string{"purpose", "status"},
)

var llmLatency = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "intake",
		Name:      "llm_latency_seconds",
		Help:      "Latency of text completion calls",
		Buckets:   []float64{0.25, 0.5, 1, 2, 3, 5, 8, 10, 15, 20},
	},
	[]string{"provider"},
)

var bookingsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "intake",
		Name:      "bookings_total",
		Help:      "Booking and payment outcomes",
	},
	[]string{"outcome"},
)

func init() {
	prometheus.MustRegister(turnsTotal, diseaseMatchesTotal, llmRequestsTotal, llmLatency, bookingsTotal)
}
