package monitoring

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	allocationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticket_allocations_total",
			Help: "Bulk allocation attempts by outcome",
		},
		[]string{"outcome"},
	)

	transitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticket_transitions_total",
			Help: "Single-ticket transitions by command and outcome",
		},
		[]string{"command", "outcome"},
	)

	gateScansTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gate_scans_total",
			Help: "Gate validation scans by outcome",
		},
		[]string{"outcome"},
	)

	ticketsGenerated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tickets_generated_total",
			Help: "Tickets created through event inventory generation",
		},
	)

	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method and status code",
		},
		[]string{"method", "status"},
	)
)

func RecordAllocation(outcome string) {
	allocationsTotal.WithLabelValues(outcome).Inc()
}

func RecordTransition(command, outcome string) {
	transitionsTotal.WithLabelValues(command, outcome).Inc()
}

func RecordGateScan(outcome string) {
	gateScansTotal.WithLabelValues(outcome).Inc()
}

func RecordTicketsGenerated(n int) {
	ticketsGenerated.Add(float64(n))
}

func RecordHTTPRequest(method string, status int) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(status)).Inc()
}
