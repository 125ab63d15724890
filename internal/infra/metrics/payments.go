package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		initiatesTotal,
		probesTotal,
		probeDuration,
	)
}

var (
	// result: ok|rejected
	initiatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stk_push_initiates_total",
			Help: "STK push initiation attempts by result.",
		},
		[]string{"result"},
	)

	// outcome: initiated|pending|paid|failed|error; cached=true means the
	// probe was answered from the terminal-outcome cache.
	probesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "status_probes_total",
			Help: "Status probes by mapped outcome and cache hit.",
		},
		[]string{"outcome", "cached"},
	)

	probeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "status_probe_duration_seconds",
			Help:    "Gateway status lookup latency in seconds.",
			Buckets: []float64{0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"success"},
	)
)

func IncInitiate(result string) {
	initiatesTotal.WithLabelValues(norm(result)).Inc()
}

func IncProbe(outcome string, cached bool) {
	probesTotal.WithLabelValues(norm(outcome), boolLabel(cached)).Inc()
}

func ObserveProbeDuration(d time.Duration, success bool) {
	probeDuration.WithLabelValues(boolLabel(success)).Observe(d.Seconds())
}

func norm(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "unknown"
	}
	return s
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
