// Package metrics exposes Prometheus instrumentation for the ticket
// lifecycle. Collectors register themselves with the default registry
// and are served from the admin API's /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TicketsOpened = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tickets_opened_total",
			Help: "Total tickets opened since process start",
		},
	)

	TicketsClosed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tickets_closed_total",
			Help: "Total tickets closed since process start",
		},
	)

	OpenTickets = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "open_tickets",
			Help: "Current number of open tickets across all guilds",
		},
	)
)
