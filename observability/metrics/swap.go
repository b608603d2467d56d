package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// SwapMetrics aggregates the escrow lifecycle counters exported for off-chain
// monitors.
type SwapMetrics struct {
	escrowsCreated   *prometheus.CounterVec
	withdrawals      *prometheus.CounterVec
	cancellations    *prometheus.CounterVec
	rescues          prometheus.Counter
	creationRejected *prometheus.CounterVec
}

var (
	swapOnce     sync.Once
	swapRegistry *SwapMetrics
)

// Swap returns the process-wide swap metrics registry, registering the
// collectors on first use.
func Swap() *SwapMetrics {
	swapOnce.Do(func() {
		swapRegistry = &SwapMetrics{
			escrowsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "swap_escrows_created_total",
				Help: "Count of escrow instances created by side.",
			}, []string{"side"}),
			withdrawals: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "swap_withdrawals_total",
				Help: "Count of successful escrow withdrawals by side.",
			}, []string{"side"}),
			cancellations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "swap_cancellations_total",
				Help: "Count of successful escrow cancellations by side.",
			}, []string{"side"}),
			rescues: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "swap_rescues_total",
				Help: "Count of emergency rescues of stray assets.",
			}),
			creationRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "swap_creation_rejected_total",
				Help: "Count of rejected escrow creation requests by reason.",
			}, []string{"reason"}),
		}
		prometheus.MustRegister(
			swapRegistry.escrowsCreated,
			swapRegistry.withdrawals,
			swapRegistry.cancellations,
			swapRegistry.rescues,
			swapRegistry.creationRejected,
		)
	})
	return swapRegistry
}

// ObserveEscrowCreated records a successful escrow creation.
func (m *SwapMetrics) ObserveEscrowCreated(side string) {
	if m == nil {
		return
	}
	m.escrowsCreated.WithLabelValues(side).Inc()
}

// ObserveWithdrawal records a successful withdrawal.
func (m *SwapMetrics) ObserveWithdrawal(side string) {
	if m == nil {
		return
	}
	m.withdrawals.WithLabelValues(side).Inc()
}

// ObserveCancellation records a successful cancellation.
func (m *SwapMetrics) ObserveCancellation(side string) {
	if m == nil {
		return
	}
	m.cancellations.WithLabelValues(side).Inc()
}

// ObserveRescue records a successful emergency rescue.
func (m *SwapMetrics) ObserveRescue() {
	if m == nil {
		return
	}
	m.rescues.Inc()
}

// ObserveCreationRejected records a rejected creation request.
func (m *SwapMetrics) ObserveCreationRejected(reason string) {
	if m == nil {
		return
	}
	if reason == "" {
		reason = "unknown"
	}
	m.creationRejected.WithLabelValues(reason).Inc()
}
