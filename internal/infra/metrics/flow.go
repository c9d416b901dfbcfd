package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(flowEventsTotal, flowInputRejectedTotal, requestsSubmittedTotal, photosReceivedTotal)
}

var flowEventsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "flow_events_total",
		Help: "Conversation events processed, by state and event kind.",
	},
	[]string{"state", "event"},
)

var flowInputRejectedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "flow_input_rejected_total",
		Help: "Events rejected as invalid for the conversation state.",
	},
	[]string{"state"},
)

var requestsSubmittedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "requests_submitted_total",
		Help: "Registration requests reaching submitted status, by category.",
	},
	[]string{"category"},
)

var photosReceivedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "photos_received_total",
		Help: "Accepted photo uploads, by slot and delivery (single/album).",
	},
	[]string{"slot", "delivery"},
)

func IncFlowEvent(state, event string) {
	flowEventsTotal.WithLabelValues(norm(state), norm(event)).Inc()
}

func IncInputRejected(state string) {
	flowInputRejectedTotal.WithLabelValues(norm(state)).Inc()
}

func IncRequestSubmitted(category string) {
	requestsSubmittedTotal.WithLabelValues(norm(category)).Inc()
}

func IncPhotosReceived(slot, delivery string, n int) {
	photosReceivedTotal.WithLabelValues(norm(slot), norm(delivery)).Add(float64(n))
}
