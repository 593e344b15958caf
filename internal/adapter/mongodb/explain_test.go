package mongodb

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestExplainBreakdownRoutesDocCountsToCounters(t *testing.T) {
	t.Parallel()

	a, c, _ := newTestAdapter()
	plan := bson.M{
		"executionStats": bson.M{
			"executionTimeMillis": int32(7),
			"totalDocsExamined":   int64(120),
		},
	}

	bd, err := a.explainBreakdown(plan, time.Now().Add(-10*time.Millisecond), c)
	if err != nil {
		t.Fatalf("explainBreakdown: %v", err)
	}
	if got := bd.ServerExecutionTime(); got != 7*time.Millisecond {
		t.Errorf("ServerExecutionTime = %v, want 7ms", got)
	}
	if dims := bd.PlatformSpecific(); len(dims) != 0 {
		t.Errorf("platform dimensions = %v, document counts are not durations", dims)
	}

	if got := c.Summarize().Counter("explain.docs_examined"); got != 120 {
		t.Errorf("explain.docs_examined counter = %d, want 120", got)
	}
}

func TestExplainBreakdownWithoutStats(t *testing.T) {
	t.Parallel()

	a, c, _ := newTestAdapter()

	bd, err := a.explainBreakdown(bson.M{"ok": 1.0}, time.Now(), c)
	if err != nil {
		t.Fatalf("explainBreakdown: %v", err)
	}
	if got := bd.ServerExecutionTime(); got != 0 {
		t.Errorf("ServerExecutionTime = %v, want 0 without executionStats", got)
	}
	if got := c.Summarize().Counter("explain.docs_examined"); got != 0 {
		t.Errorf("explain.docs_examined counter = %d, want 0", got)
	}
}
