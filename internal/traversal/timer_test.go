package traversal

import (
	"testing"

	"github.com/FranckPachot/rick-DocBench-sub000/internal/metrics"
	"github.com/FranckPachot/rick-DocBench-sub000/pkg/errors"
)

func newTimer() (*Timer, *metrics.Collector) {
	c := metrics.NewCollector(3)
	return NewTimer(c), c
}

func TestFieldPositionTracking(t *testing.T) {
	t.Parallel()

	tm, c := newTimer()
	tm.StartDeserialization("op-1")

	for i, name := range []string{"_id", "name", "payload"} {
		if err := tm.RecordFieldAccessAt("op-1", name, i); err != nil {
			t.Fatalf("RecordFieldAccessAt(%s): %v", name, err)
		}
	}

	if got := tm.FieldPosition("op-1", "payload"); got != 2 {
		t.Errorf("FieldPosition(payload) = %d, want 2", got)
	}
	if got := tm.FieldPosition("op-1", "unknown"); got != -1 {
		t.Errorf("FieldPosition(unknown) = %d, want -1", got)
	}

	bd, err := tm.EndDeserialization("op-1")
	if err != nil {
		t.Fatalf("EndDeserialization: %v", err)
	}
	if bd.FieldCount != 3 {
		t.Errorf("FieldCount = %d, want 3", bd.FieldCount)
	}
	if bd.LastFieldPosition != 2 {
		t.Errorf("LastFieldPosition = %d, want 2", bd.LastFieldPosition)
	}

	s := c.Summarize()
	if got := s.Metric(MetricFieldPrefix + "name").Count(); got != 1 {
		t.Errorf("per-field samples for name = %d, want 1", got)
	}
	if got := s.Counter(CounterFieldCount); got != 3 {
		t.Errorf("field count counter = %d, want 3", got)
	}
	if got := s.Metric(MetricTotalTime).Count(); got != 1 {
		t.Errorf("total time samples = %d, want 1", got)
	}
}

func TestPositionlessAccessLeavesOrdinalUnset(t *testing.T) {
	t.Parallel()

	tm, _ := newTimer()
	tm.StartDeserialization("op-1")

	if err := tm.RecordFieldAccess("op-1", "a"); err != nil {
		t.Fatalf("RecordFieldAccess: %v", err)
	}
	if err := tm.RecordFieldAccess("op-1", "b"); err != nil {
		t.Fatalf("RecordFieldAccess: %v", err)
	}

	bd, err := tm.EndDeserialization("op-1")
	if err != nil {
		t.Fatalf("EndDeserialization: %v", err)
	}
	if bd.FieldCount != 2 {
		t.Errorf("FieldCount = %d, want 2", bd.FieldCount)
	}
	if bd.LastFieldPosition != -1 {
		t.Errorf("LastFieldPosition = %d, want -1 for position-free access", bd.LastFieldPosition)
	}
}

func TestIndependentContexts(t *testing.T) {
	t.Parallel()

	tm, _ := newTimer()
	tm.StartDeserialization("op-1")
	tm.StartDeserialization("op-2")

	if err := tm.RecordFieldAccess("op-1", "a"); err != nil {
		t.Fatalf("op-1 access: %v", err)
	}
	for _, name := range []string{"x", "y"} {
		if err := tm.RecordFieldAccess("op-2", name); err != nil {
			t.Fatalf("op-2 access: %v", err)
		}
	}

	bd1, err := tm.EndDeserialization("op-1")
	if err != nil {
		t.Fatalf("EndDeserialization(op-1): %v", err)
	}
	bd2, err := tm.EndDeserialization("op-2")
	if err != nil {
		t.Fatalf("EndDeserialization(op-2): %v", err)
	}

	if bd1.FieldCount != 1 {
		t.Errorf("op-1 FieldCount = %d, want 1", bd1.FieldCount)
	}
	if bd2.FieldCount != 2 {
		t.Errorf("op-2 FieldCount = %d, want 2", bd2.FieldCount)
	}
}

func TestClearAffectsOnlyItsContext(t *testing.T) {
	t.Parallel()

	tm, _ := newTimer()
	tm.StartDeserialization("op-1")
	tm.StartDeserialization("op-2")

	tm.Clear("op-1")

	if got := tm.Open(); got != 1 {
		t.Errorf("Open = %d, want 1", got)
	}
	if err := tm.RecordFieldAccess("op-1", "a"); err == nil {
		t.Error("cleared context still accepts events")
	}
	if err := tm.RecordFieldAccess("op-2", "a"); err != nil {
		t.Errorf("untouched context rejected event: %v", err)
	}
}

func TestNestingDepth(t *testing.T) {
	t.Parallel()

	tm, _ := newTimer()
	tm.StartDeserialization("op-1")

	mustDo := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
	}
	mustDo(tm.EnterNestedDocument("op-1"))
	mustDo(tm.EnterNestedDocument("op-1"))
	mustDo(tm.ExitNestedDocument("op-1"))
	mustDo(tm.EnterNestedDocument("op-1"))
	mustDo(tm.ExitNestedDocument("op-1"))
	mustDo(tm.ExitNestedDocument("op-1"))
	// Extra exits must floor at zero, not go negative.
	mustDo(tm.ExitNestedDocument("op-1"))
	mustDo(tm.ExitNestedDocument("op-1"))

	bd, err := tm.EndDeserialization("op-1")
	if err != nil {
		t.Fatalf("EndDeserialization: %v", err)
	}
	if bd.MaxNestingDepth != 2 {
		t.Errorf("MaxNestingDepth = %d, want 2", bd.MaxNestingDepth)
	}
}

func TestArrayElementCounting(t *testing.T) {
	t.Parallel()

	tm, _ := newTimer()
	tm.StartDeserialization("op-1")

	if err := tm.EnterArray("op-1", "tags"); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		if err := tm.RecordArrayElementAccess("op-1", "tags", i); err != nil {
			t.Fatal(err)
		}
	}
	if err := tm.ExitArray("op-1", "tags"); err != nil {
		t.Fatal(err)
	}

	bd, err := tm.EndDeserialization("op-1")
	if err != nil {
		t.Fatalf("EndDeserialization: %v", err)
	}
	if bd.TotalArrayElements != 5 {
		t.Errorf("TotalArrayElements = %d, want 5", bd.TotalArrayElements)
	}
}

func TestEventsWithoutContext(t *testing.T) {
	t.Parallel()

	tm, _ := newTimer()

	err := tm.RecordFieldAccess("ghost", "a")
	if err == nil {
		t.Fatal("expected an error for a missing context")
	}
	benchErr, ok := err.(*errors.BenchError)
	if !ok {
		t.Fatalf("unexpected error type: %T", err)
	}
	if benchErr.Code != errors.ErrCodeNoContext {
		t.Errorf("Code = %v, want %v", benchErr.Code, errors.ErrCodeNoContext)
	}

	if _, err := tm.EndDeserialization("ghost"); err == nil {
		t.Error("EndDeserialization accepted a missing context")
	}
	// Clear on a missing id is a no-op, never a panic.
	tm.Clear("ghost")
}

func TestRestartDiscardsPreviousContext(t *testing.T) {
	t.Parallel()

	tm, _ := newTimer()
	tm.StartDeserialization("op-1")
	if err := tm.RecordFieldAccess("op-1", "a"); err != nil {
		t.Fatal(err)
	}

	tm.StartDeserialization("op-1")
	bd, err := tm.EndDeserialization("op-1")
	if err != nil {
		t.Fatalf("EndDeserialization: %v", err)
	}
	if bd.FieldCount != 0 {
		t.Errorf("FieldCount = %d, want 0 after restart", bd.FieldCount)
	}
}
