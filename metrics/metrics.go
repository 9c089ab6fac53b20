// Package metrics exports consume loop activity to Prometheus.
package metrics

import (
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	sigreceipts "github.com/srozzo/go-signal-receipts"
)

// Collector is a sigreceipts.Observer and a prometheus.Collector. Pass it to
// sigreceipts.WithObserver and register it with a prometheus.Registerer.
type Collector struct {
	rounds     prometheus.Counter
	idleRounds prometheus.Counter
	receipts   *prometheus.CounterVec
	deliveries *prometheus.CounterVec
	panics     *prometheus.CounterVec
}

var _ sigreceipts.Observer = (*Collector)(nil)

func NewCollector(namespace string) *Collector {
	return &Collector{
		rounds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rounds_total",
			Help:      "Consume loop rounds run.",
		}),
		idleRounds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "idle_rounds_total",
			Help:      "Rounds that found no pending deliveries.",
		}),
		receipts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "receipts_total",
			Help:      "Receipts handed to delegates.",
		}, []string{"signal"}),
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deliveries_total",
			Help:      "Signal deliveries accounted for by dispatched receipts.",
		}, []string{"signal"}),
		panics: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "delegate_panics_total",
			Help:      "Delegates that panicked.",
		}, []string{"signal"}),
	}
}

func (c *Collector) ReceiptDispatched(r sigreceipts.Receipt) {
	name := sigreceipts.SignalName(r.Signal)
	c.receipts.WithLabelValues(name).Inc()
	c.deliveries.WithLabelValues(name).Add(float64(r.Count))
}

func (c *Collector) DelegatePanicked(sig syscall.Signal) {
	c.panics.WithLabelValues(sigreceipts.SignalName(sig)).Inc()
}

func (c *Collector) RoundCompleted(dispatched int) {
	c.rounds.Inc()
	if dispatched == 0 {
		c.idleRounds.Inc()
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.rounds.Describe(ch)
	c.idleRounds.Describe(ch)
	c.receipts.Describe(ch)
	c.deliveries.Describe(ch)
	c.panics.Describe(ch)
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.rounds.Collect(ch)
	c.idleRounds.Collect(ch)
	c.receipts.Collect(ch)
	c.deliveries.Collect(ch)
	c.panics.Collect(ch)
}
