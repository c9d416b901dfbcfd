package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(adminCommandTotal, reviewDecisionsTotal) }

var adminCommandTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "admin_command_total",
		Help: "Tracks attempts to use admin commands.",
	},
	[]string{"command", "status"}, // status: 'authorized', 'unauthorized'
)

var reviewDecisionsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "review_decisions_total",
		Help: "Requests approved or rejected by administrators.",
	},
	[]string{"decision"},
)

func IncAdminCommand(command, status string) {
	adminCommandTotal.WithLabelValues(norm(command), norm(status)).Inc()
}

func IncReviewDecision(decision string) {
	reviewDecisionsTotal.WithLabelValues(norm(decision)).Inc()
}
