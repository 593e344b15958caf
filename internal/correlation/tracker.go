// Package correlation pairs asynchronous backend command notifications
// with the operations that issued them.
//
// Some backends emit command-start and command-completion events on a
// thread independent from the caller, identified only by a transient
// numeric id that may be reused over a connection's lifetime. The tracker
// stores a pending entry per start event and atomically removes it on
// completion. A completion with no matching start is classified as a miss
// and counted, never raised. Entries for different ids never contend: a
// global lock here would serialize unrelated in-flight operations and
// distort the very latencies being measured.
package correlation

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/FranckPachot/rick-DocBench-sub000/pkg/types"
)

// Metric and counter names emitted by the tracker.
const (
	MetricRoundTrip       = "correlation.round_trip"
	MetricServerExecution = "correlation.server_execution"
	MetricOverhead        = "correlation.overhead"
	MetricFailedRoundTrip = "correlation.failed.round_trip"

	CounterSuccess     = "correlation.success"
	CounterFailure     = "correlation.failure"
	CounterMiss        = "correlation.miss"
	CounterOverwritten = "correlation.overwritten"
	CounterClockSkew   = "correlation.clock_skew"
	CounterSwept       = "correlation.swept"
)

// pending lives only between a start notification and its completion.
type pending struct {
	id    int64
	label string
	start time.Time
}

// Tracker correlates start and completion notifications by transient id.
type Tracker struct {
	entries   sync.Map // int64 -> *pending
	collector types.MetricsCollector
	inflight  int64
}

// NewTracker builds a tracker emitting into collector.
func NewTracker(collector types.MetricsCollector) *Tracker {
	return &Tracker{collector: collector}
}

// Started records a start notification. A start for an id that is still
// pending overwrites the stale entry; id reuse after completion is legal
// on the wire protocols this observes.
func (t *Tracker) Started(id int64, label string) {
	entry := &pending{id: id, label: label, start: time.Now()}
	if _, loaded := t.entries.Swap(id, entry); loaded {
		t.collector.AddCounter(CounterOverwritten, 1)
	} else {
		atomic.AddInt64(&t.inflight, 1)
	}
}

// Succeeded records a completion notification carrying the backend's own
// execution time. Absent a matching start it counts a miss and emits no
// timing. Overhead is round trip minus server execution, floored at zero:
// clock skew between client and backend counters must never produce a
// negative sample. Each floor is surfaced through the clock-skew counter.
func (t *Tracker) Succeeded(id int64, serverExecution time.Duration) {
	entry := t.remove(id)
	if entry == nil {
		t.collector.AddCounter(CounterMiss, 1)
		return
	}

	roundTrip := time.Since(entry.start)
	overhead := roundTrip - serverExecution
	if overhead < 0 {
		overhead = 0
		t.collector.AddCounter(CounterClockSkew, 1)
	}

	t.collector.RecordTiming(MetricRoundTrip, roundTrip)
	t.collector.RecordTiming(MetricServerExecution, serverExecution)
	t.collector.RecordTiming(MetricOverhead, overhead)

	if entry.label != "" {
		prefix := "correlation." + entry.label
		t.collector.RecordTiming(prefix+".round_trip", roundTrip)
		t.collector.RecordTiming(prefix+".server_execution", serverExecution)
		t.collector.RecordTiming(prefix+".overhead", overhead)
	}

	t.collector.AddCounter(CounterSuccess, 1)
}

// Failed records a failure completion. It follows the same removal
// discipline but records only the round trip, under a distinct namespace,
// and increments the failure counter.
func (t *Tracker) Failed(id int64) {
	entry := t.remove(id)
	if entry == nil {
		t.collector.AddCounter(CounterMiss, 1)
		return
	}

	roundTrip := time.Since(entry.start)
	t.collector.RecordTiming(MetricFailedRoundTrip, roundTrip)
	if entry.label != "" {
		t.collector.RecordTiming("correlation."+entry.label+".failed.round_trip", roundTrip)
	}
	t.collector.AddCounter(CounterFailure, 1)
}

// Pending reports how many starts are awaiting completion.
func (t *Tracker) Pending() int {
	return int(atomic.LoadInt64(&t.inflight))
}

// Sweep removes entries older than maxAge, counting each as a miss and a
// sweep. There is no background eviction goroutine; the benchmark runner
// calls Sweep between phases so eviction scheduling never jitters a
// measurement.
func (t *Tracker) Sweep(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)
	swept := 0
	t.entries.Range(func(key, value interface{}) bool {
		entry := value.(*pending)
		if entry.start.Before(cutoff) {
			if _, loaded := t.entries.LoadAndDelete(key); loaded {
				atomic.AddInt64(&t.inflight, -1)
				swept++
			}
		}
		return true
	})
	if swept > 0 {
		t.collector.AddCounter(CounterMiss, int64(swept))
		t.collector.AddCounter(CounterSwept, int64(swept))
	}
	return swept
}

// remove atomically fetches and deletes the pending entry for id.
func (t *Tracker) remove(id int64) *pending {
	value, loaded := t.entries.LoadAndDelete(id)
	if !loaded {
		return nil
	}
	atomic.AddInt64(&t.inflight, -1)
	return value.(*pending)
}
