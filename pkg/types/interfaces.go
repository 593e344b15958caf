package types

import (
	"context"
	"time"

	"github.com/FranckPachot/rick-DocBench-sub000/internal/breakdown"
)

// Connection is an explicit scoped resource handed out by Connect. It must
// be closed on every exit path, including failure; Close is idempotent.
type Connection interface {
	Ping(ctx context.Context) error
	Close() error
}

// Adapter is the uniform execution surface each backend implements. It is
// the sole dependency boundary for the measurement core.
type Adapter interface {
	// Name identifies the backend for metric namespacing and logs.
	Name() string

	// Connect opens a connection. It fails with a configuration error
	// (all validation problems aggregated) before any network attempt,
	// and with a connection error on unreachable endpoints or invalid
	// credentials.
	Connect(ctx context.Context, cfg ConnectionConfig) (Connection, error)

	// Execute dispatches on the operation kind. It never returns a nil
	// result and never panics for a single failed operation; failure is
	// captured in the result.
	Execute(ctx context.Context, conn Connection, op *Operation, collector MetricsCollector) *OperationResult

	// ExecuteBulk runs many operations, reporting per-item success and
	// failure counts plus aggregate throughput.
	ExecuteBulk(ctx context.Context, conn Connection, ops []*Operation, collector MetricsCollector) *BulkResult

	// OverheadBreakdown extracts the breakdown from a result, falling
	// back to a total-latency-only breakdown when no fine-grained data
	// was captured. It never returns nil for a non-nil result.
	OverheadBreakdown(result *OperationResult) *breakdown.OverheadBreakdown

	// HasCapability reports whether the adapter supports an optional
	// behavior. Callers must check before relying on gated logic.
	HasCapability(tag CapabilityTag) bool

	// SetupTestEnvironment and TeardownTestEnvironment manage benchmark
	// fixtures. Both are idempotent and safe to call repeatedly.
	SetupTestEnvironment(ctx context.Context, conn Connection) error
	TeardownTestEnvironment(ctx context.Context, conn Connection) error
}

// MetricsCollector accumulates named timing and counter samples.
type MetricsCollector interface {
	RecordTiming(name string, d time.Duration)
	AddCounter(name string, delta int64)
	RecordOverheadBreakdown(b *breakdown.OverheadBreakdown)
	Reset()
	Summarize() Summary
}

// Summary is an immutable point-in-time snapshot of a collector.
type Summary interface {
	HasMetric(name string) bool
	Metric(name string) MetricStats
	Counter(name string) int64
	MetricNames() []string
	CounterNames() []string
}

// MetricStats is the percentile query surface over one named metric.
type MetricStats interface {
	Count() int64
	Mean() time.Duration
	Percentile(p float64) time.Duration
	Min() time.Duration
	Max() time.Duration
}
