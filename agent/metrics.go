package agent

import "github.com/prometheus/client_golang/prometheus"

var inboundMessagesTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "leaddesk",
		Name:      "inbound_messages_total",
		Help:      "Inbound messages handled, by channel and outcome",
	},
	[]string{"channel", "outcome"}, // outcome: reply, fallback, ephemeral
)

var interestTransitionsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "leaddesk",
		Name:      "interest_transitions_total",
		Help:      "Lead interest level changes",
	},
	[]string{"from", "to"},
)

func init() {
	prometheus.MustRegister(inboundMessagesTotal)
	prometheus.MustRegister(interestTransitionsTotal)
}
