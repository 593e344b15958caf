package mongodb

import (
	"io"
	"testing"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/FranckPachot/rick-DocBench-sub000/internal/correlation"
	"github.com/FranckPachot/rick-DocBench-sub000/internal/metrics"
	"github.com/FranckPachot/rick-DocBench-sub000/internal/traversal"
	"github.com/FranckPachot/rick-DocBench-sub000/pkg/types"
	"github.com/FranckPachot/rick-DocBench-sub000/pkg/utils"
)

func newTestAdapter() (*Adapter, *metrics.Collector, *traversal.Timer) {
	c := metrics.NewCollector(3)
	logger := utils.NewStructuredLogger(utils.ERROR, utils.FormatText, io.Discard)
	timer := traversal.NewTimer(c)
	return New(logger, correlation.NewTracker(c), timer), c, timer
}

func TestDeclaredCapabilities(t *testing.T) {
	t.Parallel()

	a, _, _ := newTestAdapter()
	for _, tag := range []types.CapabilityTag{
		types.CapCommandMonitoring,
		types.CapServerExecutionTime,
		types.CapExplainPlans,
		types.CapBulkOperations,
		types.CapFieldAccessTiming,
	} {
		if !a.HasCapability(tag) {
			t.Errorf("HasCapability(%s) = false", tag)
		}
	}
}

func TestWalkDocumentRecordsOrdinalPositions(t *testing.T) {
	t.Parallel()

	a, c, _ := newTestAdapter()

	doc := bson.D{
		{Key: "_id", Value: "doc-1"},
		{Key: "name", Value: "widget"},
		{Key: "price", Value: int32(42)},
	}

	// Positions are only queryable while a context is open, so replay the
	// walk on a scratch timer with its own collector; the adapter's
	// collector sees only the walkDocument pass below.
	scratch := traversal.NewTimer(metrics.NewCollector(3))
	scratch.StartDeserialization("pos-check")
	for i, elem := range doc {
		if err := scratch.RecordFieldAccessAt("pos-check", elem.Key, i); err != nil {
			t.Fatal(err)
		}
	}
	if got := scratch.FieldPosition("pos-check", "price"); got != 2 {
		t.Errorf("FieldPosition(price) = %d, want 2", got)
	}
	scratch.Clear("pos-check")

	total, err := a.walkDocument("op-1", doc)
	if err != nil {
		t.Fatalf("walkDocument: %v", err)
	}
	if total <= 0 {
		t.Errorf("traversal total = %v, want > 0", total)
	}

	s := c.Summarize()
	if got := s.Counter(traversal.CounterFieldCount); got != 3 {
		t.Errorf("field count = %d, want 3", got)
	}
	for _, name := range []string{"_id", "name", "price"} {
		if got := s.Metric(traversal.MetricFieldPrefix + name).Count(); got != 1 {
			t.Errorf("samples for %s = %d, want 1", name, got)
		}
	}
}

func TestWalkDocumentNestedAndArrays(t *testing.T) {
	t.Parallel()

	a, c, _ := newTestAdapter()

	doc := bson.D{
		{Key: "meta", Value: bson.D{
			{Key: "created", Value: "2026-01-01"},
			{Key: "owner", Value: bson.D{{Key: "id", Value: int32(7)}}},
		}},
		{Key: "tags", Value: bson.A{"a", "b", bson.D{{Key: "k", Value: "v"}}}},
	}

	if _, err := a.walkDocument("op-1", doc); err != nil {
		t.Fatalf("walkDocument: %v", err)
	}

	s := c.Summarize()
	// meta, created, owner, id, tags, k
	if got := s.Counter(traversal.CounterFieldCount); got != 6 {
		t.Errorf("field count = %d, want 6", got)
	}
	if got := s.Metric(traversal.MetricTotalTime).Count(); got != 1 {
		t.Errorf("total time samples = %d, want 1", got)
	}
}

func TestWalkDocumentClosesItsContext(t *testing.T) {
	t.Parallel()

	a, _, timer := newTestAdapter()

	if _, err := a.walkDocument("op-1", bson.D{{Key: "a", Value: int32(1)}}); err != nil {
		t.Fatal(err)
	}
	if got := timer.Open(); got != 0 {
		t.Errorf("open contexts after walk = %d, want 0", got)
	}
}
