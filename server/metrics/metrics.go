// Package metrics holds the prometheus collectors of the server. A nil
// *Metrics is valid and records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "lanshare"

type Metrics struct {
	sessions        prometheus.Gauge
	contents        prometheus.Gauge
	requests        *prometheus.CounterVec
	routes          *prometheus.CounterVec
	chatMessages    prometheus.Counter
	evicted         prometheus.Counter
	malformed       prometheus.Counter
	recoveredPanics prometheus.Counter
}

// New registers the collectors on reg. Pass prometheus.NewRegistry() in
// tests to avoid clashing with the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		sessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions",
			Help:      "Number of joined sessions",
		}),
		contents: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "content_items",
			Help:      "Number of content items with at least one host",
		}),
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Inbound requests handled, by type",
		}, []string{"type"}),
		routes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "routes_total",
			Help:      "Signaling and relay routing decisions, by type and outcome",
		}, []string{"type", "outcome"}),
		chatMessages: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_messages_total",
			Help:      "Chat messages appended to the log",
		}),
		evicted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evicted_subscribers_total",
			Help:      "Subscribers evicted because their queue was full",
		}),
		malformed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "malformed_frames_total",
			Help:      "Inbound frames that could not be decoded",
		}),
		recoveredPanics: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recovered_panics_total",
			Help:      "Panics recovered while handling a session",
		}),
	}
}

func (m *Metrics) SetSessions(n int) {
	if m == nil {
		return
	}
	m.sessions.Set(float64(n))
}

func (m *Metrics) SetContents(n int) {
	if m == nil {
		return
	}
	m.contents.Set(float64(n))
}

func (m *Metrics) Request(requestType string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(requestType).Inc()
}

func (m *Metrics) Route(routeType, outcome string) {
	if m == nil {
		return
	}
	m.routes.WithLabelValues(routeType, outcome).Inc()
}

func (m *Metrics) ChatMessage() {
	if m == nil {
		return
	}
	m.chatMessages.Inc()
}

func (m *Metrics) Evicted() {
	if m == nil {
		return
	}
	m.evicted.Inc()
}

func (m *Metrics) Malformed() {
	if m == nil {
		return
	}
	m.malformed.Inc()
}

func (m *Metrics) RecoveredPanic() {
	if m == nil {
		return
	}
	m.recoveredPanics.Inc()
}
