// Package metrics holds the Prometheus collectors for pipeline runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "metal_price_tracker"

// Metrics groups the tracker's collectors
type Metrics struct {
	Runs        *prometheus.CounterVec
	Attempts    *prometheus.CounterVec
	Deliveries  *prometheus.CounterVec
	RunDuration prometheus.Histogram
	LastGold    prometheus.Gauge
	LastSilver  prometheus.Gauge
}

// New registers the collectors with reg
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Runs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Pipeline runs by trigger and status.",
		}, []string{"trigger", "status"}),
		Attempts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quote_attempts_total",
			Help:      "Quote fetch and parse attempts by outcome.",
		}, []string{"outcome"}),
		Deliveries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deliveries_total",
			Help:      "Notification deliveries by channel and status.",
		}, []string{"channel", "status"}),
		RunDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of a pipeline run.",
			Buckets:   []float64{1, 2, 5, 10, 20, 30, 60, 120},
		}),
		LastGold: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_gold_price",
			Help:      "Most recently stored gold price.",
		}),
		LastSilver: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_silver_price",
			Help:      "Most recently stored silver price.",
		}),
	}
}

// ObserveRun records one finished run
func (m *Metrics) ObserveRun(trigger, status string, elapsed time.Duration) {
	m.Runs.WithLabelValues(trigger, status).Inc()
	m.RunDuration.Observe(elapsed.Seconds())
}

// ObserveAttempt records one quote attempt
func (m *Metrics) ObserveAttempt(outcome string) {
	m.Attempts.WithLabelValues(outcome).Inc()
}

// ObserveDelivery records one delivery result
func (m *Metrics) ObserveDelivery(channel, status string) {
	m.Deliveries.WithLabelValues(channel, status).Inc()
}

// ObservePrice records the latest stored prices
func (m *Metrics) ObservePrice(gold, silver int64) {
	m.LastGold.Set(float64(gold))
	m.LastSilver.Set(float64(silver))
}
