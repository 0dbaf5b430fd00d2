// Package metrics exposes the Prometheus collectors of the API.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SocketConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "nirmaan_socket_connections",
		Help: "Currently open WebSocket connections",
	})

	RoomJoins = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nirmaan_room_joins_total",
		Help: "Room joins by room kind (task, user, role)",
	}, []string{"kind"})

	EventsEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nirmaan_events_emitted_total",
		Help: "Real-time events delivered to connection buffers by event name",
	}, []string{"event"})

	EventsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nirmaan_events_dropped_total",
		Help: "Real-time events dropped because a connection buffer was full",
	}, []string{"event"})

	TasksCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nirmaan_tasks_created_total",
		Help: "Tasks created",
	})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nirmaan_http_requests_total",
		Help: "HTTP requests by method, route and status",
	}, []string{"method", "route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "nirmaan_http_request_duration_seconds",
		Help:    "HTTP request latency by method and route",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
