package adapter

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/FranckPachot/rick-DocBench-sub000/internal/metrics"
	"github.com/FranckPachot/rick-DocBench-sub000/pkg/errors"
	"github.com/FranckPachot/rick-DocBench-sub000/pkg/types"
)

func TestCapabilityGating(t *testing.T) {
	t.Parallel()

	b := NewBase("fake", nil, types.CapExplainPlans, types.CapBulkOperations)

	if !b.HasCapability(types.CapExplainPlans) {
		t.Error("HasCapability(explain) = false")
	}
	if b.HasCapability(types.CapCommandMonitoring) {
		t.Error("HasCapability(command monitoring) = true, never declared")
	}

	if err := b.RequireCapability(types.CapBulkOperations); err != nil {
		t.Errorf("RequireCapability(declared) = %v", err)
	}

	err := b.RequireCapability(types.CapServerTraversalTime)
	if err == nil {
		t.Fatal("RequireCapability(undeclared) = nil")
	}
	if !errors.IsCapabilityError(err) {
		t.Errorf("error %v is not a capability error", err)
	}
}

func TestFailureResultWrapsError(t *testing.T) {
	t.Parallel()

	b := NewBase("fake", nil)
	op := types.NewInsert(map[string]interface{}{"k": "v"})
	cause := fmt.Errorf("duplicate key")

	result := b.FailureResult(op, 3*time.Millisecond, cause)
	if result.Success {
		t.Error("Success = true on a failure result")
	}
	if result.OperationID != op.ID {
		t.Errorf("OperationID = %q, want %q", result.OperationID, op.ID)
	}

	benchErr, ok := result.Err.(*errors.BenchError)
	if !ok {
		t.Fatalf("Err type = %T, want *BenchError", result.Err)
	}
	if benchErr.Code != errors.ErrCodeOperationFailed {
		t.Errorf("Code = %v, want %v", benchErr.Code, errors.ErrCodeOperationFailed)
	}
	if benchErr.Adapter != "fake" {
		t.Errorf("Adapter = %q, want fake", benchErr.Adapter)
	}
	if benchErr.Cause != cause {
		t.Errorf("Cause = %v, want original error", benchErr.Cause)
	}
}

func TestFailureResultKeepsCodedErrors(t *testing.T) {
	t.Parallel()

	b := NewBase("fake", nil)
	op := types.NewAggregate(nil, true)
	capErr := b.RequireCapability(types.CapExplainPlans)
	if capErr == nil {
		t.Fatal("RequireCapability(undeclared) = nil")
	}

	result := b.FailureResult(op, time.Millisecond, capErr)
	if !errors.IsCapabilityError(result.Err) {
		t.Fatalf("result.Err = %v, capability code was rewritten", result.Err)
	}
	benchErr, ok := result.Err.(*errors.BenchError)
	if !ok {
		t.Fatalf("Err type = %T, want *BenchError", result.Err)
	}
	if benchErr.Adapter != "fake" {
		t.Errorf("Adapter = %q, want fake", benchErr.Adapter)
	}
	if benchErr.Operation != string(op.Kind) {
		t.Errorf("Operation = %q, want %q", benchErr.Operation, op.Kind)
	}
}

func TestFallbackBreakdownNeverNil(t *testing.T) {
	t.Parallel()

	b := NewBase("fake", nil)
	op := types.NewRead("doc-1", nil, types.ReadPrimary)

	t.Run("nil result", func(t *testing.T) {
		if bd := b.FallbackBreakdown(nil); bd == nil {
			t.Error("FallbackBreakdown(nil) = nil")
		}
	})

	t.Run("result without breakdown", func(t *testing.T) {
		result := b.SuccessResult(op, 5*time.Millisecond, nil, nil)
		bd := b.FallbackBreakdown(result)
		if bd == nil {
			t.Fatal("FallbackBreakdown = nil")
		}
		if got := bd.TotalLatency(); got != 5*time.Millisecond {
			t.Errorf("fallback TotalLatency = %v, want 5ms", got)
		}
	})

	t.Run("result with breakdown keeps it", func(t *testing.T) {
		result := b.SuccessResult(op, 5*time.Millisecond, nil, nil)
		result.Breakdown = b.FallbackBreakdown(result)
		if got := b.FallbackBreakdown(result); got != result.Breakdown {
			t.Error("existing breakdown was replaced")
		}
	})
}

func TestRunBulkPartialFailure(t *testing.T) {
	t.Parallel()

	b := NewBase("fake", nil)
	c := metrics.NewCollector(3)

	ops := []*types.Operation{
		types.NewInsert(map[string]interface{}{"n": 1}),
		types.NewInsert(map[string]interface{}{"n": 2}),
		types.NewInsert(map[string]interface{}{"n": 3}),
	}

	calls := 0
	execute := func(ctx context.Context, conn types.Connection, op *types.Operation, collector types.MetricsCollector) *types.OperationResult {
		calls++
		if calls == 2 {
			return b.FailureResult(op, time.Millisecond, fmt.Errorf("rejected"))
		}
		return b.SuccessResult(op, time.Millisecond, nil, nil)
	}

	bulk := b.RunBulk(context.Background(), nil, ops, c, execute)

	if bulk.Succeeded != 2 || bulk.Failed != 1 {
		t.Errorf("Succeeded/Failed = %d/%d, want 2/1", bulk.Succeeded, bulk.Failed)
	}
	if len(bulk.Results) != 3 {
		t.Errorf("Results length = %d, want 3 (failed items are kept)", len(bulk.Results))
	}
	if calls != 3 {
		t.Errorf("execute calls = %d, want 3 (failure must not stop the loop)", calls)
	}
	if bulk.Throughput() <= 0 {
		t.Errorf("Throughput = %v, want > 0", bulk.Throughput())
	}

	s := c.Summarize()
	if got := s.Counter("bulk.succeeded"); got != 2 {
		t.Errorf("bulk.succeeded counter = %d, want 2", got)
	}
	if got := s.Counter("bulk.failed"); got != 1 {
		t.Errorf("bulk.failed counter = %d, want 1", got)
	}
}

func TestValidateConnectionConfigAggregates(t *testing.T) {
	t.Parallel()

	problems := ValidateConnectionConfig(types.ConnectionConfig{
		PoolSize:       -1,
		ConnectTimeout: -time.Second,
	})
	if len(problems) != 4 {
		t.Errorf("problems = %d, want 4 (uri, database, pool size, timeout)", len(problems))
	}

	ok := ValidateConnectionConfig(types.ConnectionConfig{
		URI:      "mongodb://localhost:27017",
		Database: "bench",
	})
	if len(ok) != 0 {
		t.Errorf("valid config produced problems: %v", ok)
	}
}
