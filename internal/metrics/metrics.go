package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the bot's prometheus collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	operations        *prometheus.CounterVec
	keyRotations      prometheus.Counter
	transfers         *prometheus.CounterVec
	reconcileFailures prometheus.Counter
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "custos_operations_total",
				Help: "Wallet operations by command and outcome.",
			},
			[]string{"op", "result"}),
		keyRotations: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "custos_key_rotations_total",
				Help: "Wallet keys issued, including the first key of a wallet.",
			}),
		transfers: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "custos_transfers_total",
				Help: "Bundles broadcast by kind.",
			},
			[]string{"kind"}),
		reconcileFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "custos_reconcile_failures_total",
				Help: "Address lookups skipped during balance reconciliation.",
			}),
	}

	startTime := time.Now()
	reg.MustRegister(
		m.operations,
		m.keyRotations,
		m.transfers,
		m.reconcileFailures,
		prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "custos_uptime_seconds",
				Help: "Uptime of the bot in seconds.",
			},
			func() float64 {
				return time.Since(startTime).Seconds()
			}),
	)
	return m
}

func (m *Metrics) Operation(op, result string) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(op, result).Inc()
}

func (m *Metrics) KeyRotated() {
	if m == nil {
		return
	}
	m.keyRotations.Inc()
}

func (m *Metrics) Transfer(kind string) {
	if m == nil {
		return
	}
	m.transfers.WithLabelValues(kind).Inc()
}

func (m *Metrics) ReconcileFailed() {
	if m == nil {
		return
	}
	m.reconcileFailures.Inc()
}
