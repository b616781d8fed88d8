package api

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dental_http_requests_total",
		Help: "HTTP requests handled by the slot server.",
	}, []string{"method", "path", "status"})

	reservationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dental_slot_reservations_total",
		Help: "Slot reservation attempts by outcome (reserved, race_lost, contended).",
	}, []string{"outcome"})

	releasesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dental_slot_releases_total",
		Help: "Slots released back to the pool.",
	})

	holdsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dental_slot_holds_total",
		Help: "Hold operations by outcome (held, conflict, released).",
	}, []string{"outcome"})
)

func observeRequest(method, path string, status int) {
	requestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
}
