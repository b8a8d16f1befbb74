// Package metrics exposes Prometheus collectors for the relay.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "mockchat"

// Relay directions.
const (
	BrowserToBrowser = "browser_to_browser"
	BrowserToBot     = "browser_to_bot"
	BotToBrowser     = "bot_to_browser"
)

// Drop reasons.
const (
	ReasonInvalidEvent = "invalid_event"
	ReasonMalformed    = "malformed_frame"
	ReasonNotReady     = "not_ready"
)

// Metrics holds the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry     *prometheus.Registry
	sessions     *prometheus.GaugeVec
	relayed      *prometheus.CounterVec
	dropped      *prometheus.CounterVec
	sendFailures *prometheus.CounterVec
}

// New registers the collectors on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		sessions: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions",
			Help:      "Open real-time connections by role and endpoint.",
		}, []string{"role", "endpoint"}),
		relayed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "relayed_messages_total",
			Help:      "Messages delivered to peers by relay direction.",
		}, []string{"direction"}),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dropped_events_total",
			Help:      "Inbound events or deliveries dropped, by reason.",
		}, []string{"reason"}),
		sendFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "send_failures_total",
			Help:      "Deliveries that failed because the peer was gone.",
		}, []string{"role"}),
	}
	m.registry.MustRegister(
		m.sessions,
		m.relayed,
		m.dropped,
		m.sendFailures,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// SessionDelta adjusts the open-session gauge.
func (m *Metrics) SessionDelta(role, endpoint string, delta int) {
	if m == nil {
		return
	}
	m.sessions.WithLabelValues(role, endpoint).Add(float64(delta))
}

// Relayed counts n deliveries in direction.
func (m *Metrics) Relayed(direction string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.relayed.WithLabelValues(direction).Add(float64(n))
}

// Dropped counts one dropped event.
func (m *Metrics) Dropped(reason string) {
	if m == nil {
		return
	}
	m.dropped.WithLabelValues(reason).Inc()
}

// SendFailed counts one failed delivery to a peer of role.
func (m *Metrics) SendFailed(role string) {
	if m == nil {
		return
	}
	m.sendFailures.WithLabelValues(role).Inc()
}
