package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	connectionsAccepted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "lspmux",
			Subsystem: "server",
			Name:      "connections_accepted_total",
			Help:      "Client connections accepted by the relay listener.",
		},
	)
	handshakeFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "lspmux",
			Subsystem: "server",
			Name:      "handshake_failures_total",
			Help:      "Connections dropped before launch due to a bad handshake.",
		},
	)
	launchFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "lspmux",
			Subsystem: "instance",
			Name:      "launch_failures_total",
			Help:      "Language server processes that failed to start.",
		},
	)
	activeInstances = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "lspmux",
			Subsystem: "instance",
			Name:      "active",
			Help:      "Language server processes currently attached to a client.",
		},
	)
	framesRelayed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lspmux",
			Subsystem: "relay",
			Name:      "frames_total",
			Help:      "Frames forwarded, by direction.",
		},
		[]string{"direction"},
	)
	relayErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lspmux",
			Subsystem: "relay",
			Name:      "errors_total",
			Help:      "Copy loops terminated by a framing or transport error, by direction.",
		},
		[]string{"direction"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			connectionsAccepted,
			handshakeFailures,
			launchFailures,
			activeInstances,
			framesRelayed,
			relayErrors,
		)
	})
}

func RecordConnectionAccepted() {
	RegisterMetrics()
	connectionsAccepted.Inc()
}

func RecordHandshakeFailure() {
	RegisterMetrics()
	handshakeFailures.Inc()
}

func RecordLaunchFailure() {
	RegisterMetrics()
	launchFailures.Inc()
}

func SetActiveInstances(n int) {
	RegisterMetrics()
	activeInstances.Set(float64(n))
}

func RecordFrameRelayed(direction string) {
	RegisterMetrics()
	framesRelayed.WithLabelValues(direction).Inc()
}

func RecordRelayError(direction string) {
	RegisterMetrics()
	relayErrors.WithLabelValues(direction).Inc()
}
