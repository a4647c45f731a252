package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SweepMetrics tracks the cutoff sweep worker.
type SweepMetrics struct {
	runDuration    prometheus.Histogram
	ordersArchived prometheus.Counter
	runFailures    prometheus.Counter
	backlog        prometheus.Gauge
}

var (
	sweepMetricsOnce sync.Once
	sweepMetrics     *SweepMetrics
)

// Sweep returns the process-wide sweep metrics, registering them on first use.
func Sweep() *SweepMetrics {
	sweepMetricsOnce.Do(func() {
		sweepMetrics = newSweepMetrics(prometheus.DefaultRegisterer)
	})
	return sweepMetrics
}

// ResetSweepMetricsForTest clears the singleton so tests can re-register
// against a private registerer.
func ResetSweepMetricsForTest() {
	sweepMetricsOnce = sync.Once{}
	sweepMetrics = nil
}

func newSweepMetrics(registerer prometheus.Registerer) *SweepMetrics {
	m := &SweepMetrics{
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "lunchline_sweep_run_duration_ms",
			Help:    "Duration of a cutoff sweep run in milliseconds.",
			Buckets: []float64{10, 50, 100, 500, 1000, 5000},
		}),
		ordersArchived: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lunchline_sweep_orders_archived_total",
			Help: "Orders archived because every covered date passed cutoff.",
		}),
		runFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lunchline_sweep_run_failures_total",
			Help: "Sweep runs that ended with an error.",
		}),
		backlog: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "lunchline_sweep_backlog",
			Help: "Active orders still awaiting archival evaluation.",
		}),
	}
	if registerer != nil {
		registerer.MustRegister(m.runDuration, m.ordersArchived, m.runFailures, m.backlog)
	}
	return m
}

// ObserveRun records one sweep run.
func (m *SweepMetrics) ObserveRun(duration time.Duration, archived int, err error) {
	if m == nil {
		return
	}
	m.runDuration.Observe(float64(duration.Milliseconds()))
	if archived > 0 {
		m.ordersArchived.Add(float64(archived))
	}
	if err != nil {
		m.runFailures.Inc()
	}
}

// SetBacklog records the current sweep backlog size.
func (m *SweepMetrics) SetBacklog(size int) {
	if m == nil {
		return
	}
	m.backlog.Set(float64(size))
}
