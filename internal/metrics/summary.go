package metrics

import (
	"sort"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"github.com/FranckPachot/rick-DocBench-sub000/pkg/types"
)

// summary is the immutable snapshot returned by Collector.Summarize. The
// histogram copies inside it are never written again.
type summary struct {
	metrics  map[string]*metricStats
	counters map[string]int64
	taken    time.Time
}

var _ types.Summary = (*summary)(nil)

func (s *summary) HasMetric(name string) bool {
	_, ok := s.metrics[name]
	return ok
}

// Metric returns the stats for name, or empty stats for an unknown name so
// callers can chain queries without nil checks.
func (s *summary) Metric(name string) types.MetricStats {
	if m, ok := s.metrics[name]; ok {
		return m
	}
	return emptyStats{}
}

func (s *summary) Counter(name string) int64 {
	return s.counters[name]
}

func (s *summary) MetricNames() []string {
	names := make([]string, 0, len(s.metrics))
	for name := range s.metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *summary) CounterNames() []string {
	names := make([]string, 0, len(s.counters))
	for name := range s.counters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// metricStats answers percentile queries over one frozen histogram.
type metricStats struct {
	hist *hdrhistogram.Histogram
}

var _ types.MetricStats = (*metricStats)(nil)

func (m *metricStats) Count() int64 {
	return m.hist.TotalCount()
}

func (m *metricStats) Mean() time.Duration {
	return time.Duration(m.hist.Mean())
}

// Percentile answers an approximate quantile query; p is in percent, e.g.
// 99.0 for p99.
func (m *metricStats) Percentile(p float64) time.Duration {
	return time.Duration(m.hist.ValueAtQuantile(p))
}

func (m *metricStats) Min() time.Duration {
	return time.Duration(m.hist.Min())
}

func (m *metricStats) Max() time.Duration {
	return time.Duration(m.hist.Max())
}

// emptyStats stands in for metrics that were never recorded.
type emptyStats struct{}

func (emptyStats) Count() int64                     { return 0 }
func (emptyStats) Mean() time.Duration              { return 0 }
func (emptyStats) Percentile(float64) time.Duration { return 0 }
func (emptyStats) Min() time.Duration               { return 0 }
func (emptyStats) Max() time.Duration               { return 0 }
