package types

import (
	"time"

	"github.com/FranckPachot/rick-DocBench-sub000/internal/breakdown"
)

// OperationResult correlates an operation id to its outcome. It is built
// once per execution and never mutated. A failed operation is data here,
// not an exception: a single bad iteration must not abort measurement.
type OperationResult struct {
	OperationID string
	Kind        OperationKind
	Success     bool
	Err         error
	Duration    time.Duration
	Payload     interface{}
	Breakdown   *breakdown.OverheadBreakdown
	Metadata    map[string]string
}

// BulkResult reports the outcome of a bulk execution. Partial failure is
// expected, not exceptional.
type BulkResult struct {
	Succeeded     int
	Failed        int
	Results       []*OperationResult
	TotalDuration time.Duration
}

// Throughput returns operations per second across the bulk run, zero when
// no time elapsed.
func (r *BulkResult) Throughput() float64 {
	if r.TotalDuration <= 0 {
		return 0.0
	}
	return float64(r.Succeeded+r.Failed) / r.TotalDuration.Seconds()
}
