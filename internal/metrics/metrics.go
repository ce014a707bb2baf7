package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the kiosk counters. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	TicketsIssuedTotal  *prometheus.CounterVec
	NoDeskTotal         *prometheus.CounterVec
	StateRecoveredTotal *prometheus.CounterVec
	RemoteFailuresTotal *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		TicketsIssuedTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kiosk_tickets_issued_total",
				Help: "Tickets issued on this device",
			},
			[]string{"prefix"},
		),
		NoDeskTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kiosk_routing_no_desk_total",
				Help: "Issuance attempts rejected because no desk was available",
			},
			[]string{"service"},
		),
		StateRecoveredTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kiosk_state_recovered_total",
				Help: "Corrupt persisted values replaced with defaults",
			},
			[]string{"key"},
		),
		RemoteFailuresTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kiosk_remote_failures_total",
				Help: "Failed calls to remote collaborators",
			},
			[]string{"target"},
		),
	}
}

func (m *Metrics) TicketIssued(prefix string) {
	if m == nil {
		return
	}
	m.TicketsIssuedTotal.WithLabelValues(prefix).Inc()
}

func (m *Metrics) NoDesk(service string) {
	if m == nil {
		return
	}
	m.NoDeskTotal.WithLabelValues(service).Inc()
}

func (m *Metrics) StateRecovered(key string) {
	if m == nil {
		return
	}
	m.StateRecoveredTotal.WithLabelValues(key).Inc()
}

func (m *Metrics) RemoteFailure(target string) {
	if m == nil {
		return
	}
	m.RemoteFailuresTotal.WithLabelValues(target).Inc()
}
