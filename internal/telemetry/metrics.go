// Package telemetry records sweep metrics with Prometheus instruments. A
// nil *Metrics is valid and records nothing.
package telemetry

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "brat"

// Metrics holds the instruments for one process.
type Metrics struct {
	registry *prometheus.Registry

	items      *prometheus.CounterVec
	assetBytes prometheus.Counter
	duration   prometheus.Histogram
}

// New creates Metrics backed by a private registry.
func New() (*Metrics, error) {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		items: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sweep_items_total",
			Help:      "Tracked repositories processed by a sweep, by outcome.",
		}, []string{"status", "reason"}),
		assetBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "asset_bytes_total",
			Help:      "Bytes downloaded from release assets and raw files.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sweep_duration_seconds",
			Help:      "Duration of complete sweeps in seconds.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}),
	}

	for _, c := range []prometheus.Collector{m.items, m.assetBytes, m.duration} {
		if err := m.registry.Register(c); err != nil {
			return nil, fmt.Errorf("registering collector: %w", err)
		}
	}
	return m, nil
}

// RecordItem counts one processed item. reason is empty for successes.
func (m *Metrics) RecordItem(status, reason string) {
	if m == nil {
		return
	}
	m.items.WithLabelValues(status, reason).Inc()
}

// AddAssetBytes adds n downloaded bytes.
func (m *Metrics) AddAssetBytes(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.assetBytes.Add(float64(n))
}

// RecordSweepDuration observes the duration of one sweep.
func (m *Metrics) RecordSweepDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.duration.Observe(d.Seconds())
}

// Gatherer exposes the registry for exposition.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	if m == nil {
		return prometheus.NewRegistry()
	}
	return m.registry
}

// WriteTextfile writes the current values in the text exposition format,
// suitable for node_exporter's textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}
