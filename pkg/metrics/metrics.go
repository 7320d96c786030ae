// Package metrics exposes Prometheus counters for SSDP traffic.
//
// A nil *Metrics is valid and records nothing, so components can take one
// unconditionally.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Results recorded for received datagrams.
const (
	ResultAccepted  = "accepted"
	ResultMalformed = "malformed"
	ResultMismatch  = "mismatch"
	ResultFiltered  = "filtered"
)

// Metrics holds the SSDP counters.
type Metrics struct {
	received        *prometheus.CounterVec
	sent            *prometheus.CounterVec
	sendErrors      *prometheus.CounterVec
	connectorErrors prometheus.Counter
}

// New creates the counters and registers them with reg.
// A nil reg creates unregistered counters.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		received: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ssdp",
			Name:      "datagrams_received_total",
			Help:      "Datagrams read by receivers, by expected kind and outcome.",
		}, []string{"kind", "result"}),
		sent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ssdp",
			Name:      "messages_sent_total",
			Help:      "Messages sent, by kind.",
		}, []string{"kind"}),
		sendErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ssdp",
			Name:      "send_errors_total",
			Help:      "Failed sends, by kind.",
		}, []string{"kind"}),
		connectorErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ssdp",
			Name:      "connector_errors_total",
			Help:      "Connectors that could not be opened.",
		}),
	}

	if reg != nil {
		for _, c := range []prometheus.Collector{m.received, m.sent, m.sendErrors, m.connectorErrors} {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

// Received counts one datagram read while waiting for kind.
func (m *Metrics) Received(kind, result string) {
	if m == nil {
		return
	}
	m.received.WithLabelValues(kind, result).Inc()
}

// Sent counts one message sent.
func (m *Metrics) Sent(kind string) {
	if m == nil {
		return
	}
	m.sent.WithLabelValues(kind).Inc()
}

// SendError counts one failed send.
func (m *Metrics) SendError(kind string) {
	if m == nil {
		return
	}
	m.sendErrors.WithLabelValues(kind).Inc()
}

// ConnectorErrors counts n connectors that could not be opened.
func (m *Metrics) ConnectorErrors(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.connectorErrors.Add(float64(n))
}
