// Package metrics provides Prometheus instrumentation for the watch-party
// server: room and event counters, poll throughput, and request latency.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RoomsTotal tracks the number of rooms created since startup. Rooms
	// are never evicted, so this is also the live room count.
	RoomsTotal = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "watchparty_rooms_total",
		Help: "Number of rooms created since startup",
	})

	// EventsAppended counts events appended to room logs, labeled by kind:
	// "video-updated", "player-sync", or "chat-message".
	EventsAppended = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "watchparty_events_appended_total",
		Help: "Total number of events appended to room logs",
	}, []string{"kind"})

	// PollsServed counts event-poll requests, labeled by outcome:
	// "events" when the response carried events, "empty" otherwise.
	PollsServed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "watchparty_polls_served_total",
		Help: "Total number of event polls served",
	}, []string{"outcome"})

	// ChatBlocked counts chat messages rejected before posting, labeled by
	// cause: "muted", "rate_limited", or "invalid".
	ChatBlocked = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "watchparty_chat_blocked_total",
		Help: "Total number of chat messages rejected",
	}, []string{"cause"})

	// RequestLatency records API request latency in seconds.
	RequestLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "watchparty_request_latency_seconds",
		Help:    "API request latency in seconds",
		Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
	})
)

func init() {
	prometheus.MustRegister(
		RoomsTotal,
		EventsAppended,
		PollsServed,
		ChatBlocked,
		RequestLatency,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
