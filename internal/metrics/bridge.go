package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Bridge exposes a Collector to a Prometheus registry. Sampling happens at
// scrape time via Summarize, so nothing touches the benchmark hot path.
type Bridge struct {
	collector   *Collector
	timingDesc  *prometheus.Desc
	counterDesc *prometheus.Desc
}

var _ prometheus.Collector = (*Bridge)(nil)

// NewBridge wraps collector for registration.
func NewBridge(collector *Collector, namespace string) *Bridge {
	if namespace == "" {
		namespace = "docbench"
	}
	return &Bridge{
		collector: collector,
		timingDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "timing_seconds"),
			"Recorded timing distributions by metric name",
			[]string{"name"}, nil,
		),
		counterDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "events_total"),
			"Recorded counters by counter name",
			[]string{"name"}, nil,
		),
	}
}

// Register attaches the bridge to registry.
func (b *Bridge) Register(registry *prometheus.Registry) error {
	return registry.Register(b)
}

// Describe implements prometheus.Collector.
func (b *Bridge) Describe(ch chan<- *prometheus.Desc) {
	ch <- b.timingDesc
	ch <- b.counterDesc
}

// Collect implements prometheus.Collector by snapshotting the live
// collector and emitting one summary per metric and one counter per name.
func (b *Bridge) Collect(ch chan<- prometheus.Metric) {
	snap := b.collector.Summarize()

	for _, name := range snap.MetricNames() {
		stats := snap.Metric(name)
		quantiles := map[float64]float64{
			0.5:  stats.Percentile(50).Seconds(),
			0.95: stats.Percentile(95).Seconds(),
			0.99: stats.Percentile(99).Seconds(),
		}
		sum := stats.Mean().Seconds() * float64(stats.Count())
		ch <- prometheus.MustNewConstSummary(
			b.timingDesc, uint64(stats.Count()), sum, quantiles, name,
		)
	}

	for _, name := range snap.CounterNames() {
		ch <- prometheus.MustNewConstMetric(
			b.counterDesc, prometheus.CounterValue, float64(snap.Counter(name)), name,
		)
	}
}
