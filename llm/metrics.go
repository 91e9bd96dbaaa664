package llm

import "github.com/prometheus/client_golang/prometheus"

var llmLatency = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "leaddesk",
		Subsystem: "llm",
		Name:      "latency_seconds",
		Help:      "Latency of LLM completions",
		Buckets:   []float64{0.25, 0.5, 1, 2, 3, 4, 5, 6, 8, 10, 15, 20, 30},
	},
	[]string{"model", "status"},
)

var llmTokensTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "leaddesk",
		Subsystem: "llm",
		Name:      "tokens_total",
		Help:      "Tokens used by the LLM",
	},
	[]string{"model", "type"}, // type: input, output
)

var llmFallbacksTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "leaddesk",
		Subsystem: "llm",
		Name:      "fallbacks_total",
		Help:      "Canned replies served instead of a completion, by error class",
	},
	[]string{"class"},
)

func init() {
	prometheus.MustRegister(llmLatency)
	prometheus.MustRegister(llmTokensTotal)
	prometheus.MustRegister(llmFallbacksTotal)
}
