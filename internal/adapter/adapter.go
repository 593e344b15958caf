// Package adapter provides the shared plumbing backends build on: the
// capability set, result construction, and the bulk execution loop.
package adapter

import (
	"context"
	"time"

	"github.com/FranckPachot/rick-DocBench-sub000/internal/breakdown"
	"github.com/FranckPachot/rick-DocBench-sub000/pkg/errors"
	"github.com/FranckPachot/rick-DocBench-sub000/pkg/types"
	"github.com/FranckPachot/rick-DocBench-sub000/pkg/utils"
)

// Base carries the state every adapter shares.
type Base struct {
	name         string
	capabilities *types.CapabilitySet
	Logger       *utils.StructuredLogger
}

// NewBase builds the shared adapter state.
func NewBase(name string, logger *utils.StructuredLogger, caps ...types.CapabilityTag) *Base {
	if logger == nil {
		logger = utils.NewStructuredLogger(utils.INFO, utils.FormatText, nil)
	}
	return &Base{
		name:         name,
		capabilities: types.NewCapabilitySet(caps...),
		Logger:       logger.WithComponent("adapter." + name),
	}
}

// Name identifies the backend.
func (b *Base) Name() string { return b.name }

// HasCapability reports whether the adapter supports an optional behavior.
func (b *Base) HasCapability(tag types.CapabilityTag) bool {
	return b.capabilities.Has(tag)
}

// Capabilities exposes the full set for diagnostics.
func (b *Base) Capabilities() *types.CapabilitySet { return b.capabilities }

// RequireCapability returns a capability error when tag is unsupported.
// Capability-gated paths call it so an unchecked invocation surfaces as a
// typed error instead of undefined behavior.
func (b *Base) RequireCapability(tag types.CapabilityTag) error {
	if b.capabilities.Has(tag) {
		return nil
	}
	return errors.Newf(errors.ErrCodeCapabilityNotSupported,
		"capability %q not supported; call HasCapability before relying on it", tag).
		WithAdapter(b.name)
}

// SuccessResult builds the one-and-done result for a completed operation.
func (b *Base) SuccessResult(op *types.Operation, duration time.Duration, payload interface{}, bd *breakdown.OverheadBreakdown) *types.OperationResult {
	return &types.OperationResult{
		OperationID: op.ID,
		Kind:        op.Kind,
		Success:     true,
		Duration:    duration,
		Payload:     payload,
		Breakdown:   bd,
		Metadata:    map[string]string{"adapter": b.name},
	}
}

// FailureResult captures a per-operation failure as data. It never panics
// and never lets the error escape the benchmark loop boundary. An error
// that already carries a code (a capability gate, a validation failure)
// keeps it; anything else is wrapped as an operation failure.
func (b *Base) FailureResult(op *types.Operation, duration time.Duration, err error) *types.OperationResult {
	var resultErr *errors.BenchError
	if benchErr, ok := err.(*errors.BenchError); ok {
		resultErr = benchErr.WithAdapter(b.name).WithOperation(string(op.Kind))
	} else {
		resultErr = errors.Newf(errors.ErrCodeOperationFailed, "%s operation failed: %v", op.Kind, err).
			WithAdapter(b.name).
			WithOperation(string(op.Kind)).
			WithCause(err)
	}
	return &types.OperationResult{
		OperationID: op.ID,
		Kind:        op.Kind,
		Success:     false,
		Err:         resultErr,
		Duration:    duration,
		Metadata:    map[string]string{"adapter": b.name},
	}
}

// FallbackBreakdown extracts the breakdown from a result, substituting a
// total-latency-only breakdown when no fine-grained data was captured.
// Every adapter returns a breakdown, never nil.
func (b *Base) FallbackBreakdown(result *types.OperationResult) *breakdown.OverheadBreakdown {
	if result == nil {
		bd, _ := breakdown.TotalOnly(0)
		return bd
	}
	if result.Breakdown != nil {
		return result.Breakdown
	}
	bd, _ := breakdown.TotalOnly(result.Duration)
	return bd
}

// ExecuteFunc is one adapter's single-operation execution path.
type ExecuteFunc func(ctx context.Context, conn types.Connection, op *types.Operation, collector types.MetricsCollector) *types.OperationResult

// RunBulk executes ops sequentially through execute, reporting per-item
// success and failure counts plus aggregate throughput. Partial failure is
// expected, not exceptional: a failed item is counted and kept, and the
// loop continues.
func (b *Base) RunBulk(ctx context.Context, conn types.Connection, ops []*types.Operation, collector types.MetricsCollector, execute ExecuteFunc) *types.BulkResult {
	bulk := &types.BulkResult{Results: make([]*types.OperationResult, 0, len(ops))}

	start := time.Now()
	for _, op := range ops {
		result := execute(ctx, conn, op, collector)
		bulk.Results = append(bulk.Results, result)
		if result.Success {
			bulk.Succeeded++
		} else {
			bulk.Failed++
		}
	}
	bulk.TotalDuration = time.Since(start)

	collector.AddCounter("bulk.succeeded", int64(bulk.Succeeded))
	collector.AddCounter("bulk.failed", int64(bulk.Failed))

	b.Logger.Debug("bulk execution finished", map[string]interface{}{
		"operations": len(ops),
		"succeeded":  bulk.Succeeded,
		"failed":     bulk.Failed,
		"throughput": bulk.Throughput(),
	})

	return bulk
}

// ValidateConnectionConfig runs the checks shared by every backend,
// aggregating all problems so the caller sees them together before any
// network attempt is made.
func ValidateConnectionConfig(cfg types.ConnectionConfig) []error {
	var problems []error
	if cfg.URI == "" {
		problems = append(problems, errors.New(errors.ErrCodeConfigValidation, "connection uri is required"))
	}
	if cfg.Database == "" {
		problems = append(problems, errors.New(errors.ErrCodeConfigValidation, "database name is required"))
	}
	if cfg.PoolSize < 0 {
		problems = append(problems, errors.New(errors.ErrCodeConfigValidation, "pool size must not be negative"))
	}
	if cfg.ConnectTimeout < 0 {
		problems = append(problems, errors.New(errors.ErrCodeConfigValidation, "connect timeout must not be negative"))
	}
	return problems
}
