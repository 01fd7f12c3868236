package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Tickets counts forwarding attempts by outcome: created, rejected, failed.
	Tickets = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "errorsender_tickets_total",
		Help: "Error report tickets forwarded to Desk365, by outcome",
	}, []string{"outcome"})

	// Screenshots counts screenshot handling by outcome: attached,
	// decode_failed, store_failed.
	Screenshots = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "errorsender_screenshots_total",
		Help: "Screenshots received with error reports, by outcome",
	}, []string{"outcome"})

	RemoteLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "errorsender_desk365_request_duration_seconds",
		Help:    "Latency of Desk365 ticket creation requests",
		Buckets: prometheus.DefBuckets,
	})
)
