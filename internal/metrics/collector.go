package metrics

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"github.com/FranckPachot/rick-DocBench-sub000/internal/breakdown"
	"github.com/FranckPachot/rick-DocBench-sub000/pkg/types"
)

const (
	// Histogram value range in nanoseconds. Samples span roughly 10ns
	// (clamped up from the floor) to 100s without overflow.
	histogramMin = int64(1)
	histogramMax = int64(100 * time.Second)

	// DefaultSignificantDigits bounds percentile error to a fixed
	// relative tolerance of 0.1%.
	DefaultSignificantDigits = 3
)

// timingEntry pairs one named histogram with its own mutex so that
// unrelated metric names never contend on the hot path. The HDR histogram
// itself is not goroutine-safe.
type timingEntry struct {
	mu   sync.Mutex
	hist *hdrhistogram.Histogram
}

// Collector accumulates named timing samples into HDR histograms and named
// deltas into counters. It is safe for concurrent use; the only full lock
// is taken when a name is seen for the first time and on Reset.
type Collector struct {
	mu       sync.RWMutex
	timings  map[string]*timingEntry
	counters map[string]*int64

	sigfigs   int
	lastReset time.Time
}

// NewCollector creates a collector with the given histogram precision.
// Zero or negative sigfigs falls back to DefaultSignificantDigits.
func NewCollector(sigfigs int) *Collector {
	if sigfigs <= 0 || sigfigs > 5 {
		sigfigs = DefaultSignificantDigits
	}
	return &Collector{
		timings:   make(map[string]*timingEntry),
		counters:  make(map[string]*int64),
		sigfigs:   sigfigs,
		lastReset: time.Now(),
	}
}

// RecordTiming appends one sample to the histogram keyed by name, creating
// it lazily. Samples outside the histogram range are clamped, never dropped.
func (c *Collector) RecordTiming(name string, d time.Duration) {
	entry := c.timing(name)

	v := int64(d)
	if v < histogramMin {
		v = histogramMin
	}
	if v > histogramMax {
		v = histogramMax
	}

	entry.mu.Lock()
	_ = entry.hist.RecordValue(v) // range already clamped
	entry.mu.Unlock()
}

// AddCounter increments the named counter by delta. Counters are plain
// values, not distributions.
func (c *Collector) AddCounter(name string, delta int64) {
	c.mu.RLock()
	ctr, ok := c.counters[name]
	c.mu.RUnlock()
	if !ok {
		c.mu.Lock()
		ctr, ok = c.counters[name]
		if !ok {
			ctr = new(int64)
			c.counters[name] = ctr
		}
		c.mu.Unlock()
	}
	atomic.AddInt64(ctr, delta)
}

// RecordOverheadBreakdown fans a single breakdown out into one timing
// sample per named dimension plus one per platform-specific entry, so
// every overhead component is independently queryable afterwards.
func (c *Collector) RecordOverheadBreakdown(b *breakdown.OverheadBreakdown) {
	if b == nil {
		return
	}
	for name, d := range b.Dimensions() {
		c.RecordTiming(name, d)
	}
	for name, d := range b.PlatformSpecific() {
		c.RecordTiming(breakdown.PlatformPrefix+name, d)
	}
}

// Reset clears all histograms and counters. Warm-up iterations must be
// discarded this way before measurement begins, or JIT and cache effects
// pollute the percentiles.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.timings = make(map[string]*timingEntry)
	c.counters = make(map[string]*int64)
	c.lastReset = time.Now()
}

// LastReset reports when the collector was last cleared.
func (c *Collector) LastReset() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastReset
}

// Summarize returns an immutable snapshot. The live histograms keep
// accumulating after the snapshot is taken.
func (c *Collector) Summarize() types.Summary {
	c.mu.RLock()
	defer c.mu.RUnlock()

	metrics := make(map[string]*metricStats, len(c.timings))
	for name, entry := range c.timings {
		entry.mu.Lock()
		snap := hdrhistogram.Import(entry.hist.Export())
		entry.mu.Unlock()
		metrics[name] = &metricStats{hist: snap}
	}

	counters := make(map[string]int64, len(c.counters))
	for name, ctr := range c.counters {
		counters[name] = atomic.LoadInt64(ctr)
	}

	return &summary{metrics: metrics, counters: counters, taken: time.Now()}
}

// timing returns the entry for name, creating it lazily.
func (c *Collector) timing(name string) *timingEntry {
	c.mu.RLock()
	entry, ok := c.timings[name]
	c.mu.RUnlock()
	if ok {
		return entry
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, ok = c.timings[name]; ok {
		return entry
	}
	entry = &timingEntry{hist: hdrhistogram.New(histogramMin, histogramMax, c.sigfigs)}
	c.timings[name] = entry
	return entry
}
