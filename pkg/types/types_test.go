package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOperationConstructors(t *testing.T) {
	t.Parallel()

	insert := NewInsert(map[string]interface{}{"k": "v"})
	require.NotEmpty(t, insert.ID)
	assert.Equal(t, OpInsert, insert.Kind)
	assert.Equal(t, "v", insert.Document["k"])

	read := NewRead("doc-1", []string{"name"}, "")
	assert.Equal(t, OpRead, read.Kind)
	assert.Equal(t, ReadPrimary, read.ReadPreference, "empty preference defaults to primary")

	update := NewUpdate("doc-1", "address.city", "Lausanne", true)
	assert.Equal(t, OpUpdate, update.Kind)
	assert.True(t, update.Upsert)

	del := NewDelete("doc-1")
	assert.Equal(t, OpDelete, del.Kind)
	assert.Equal(t, "doc-1", del.DocumentID)

	agg := NewAggregate([]map[string]interface{}{{"$match": map[string]interface{}{"a": 1}}}, true)
	assert.Equal(t, OpAggregate, agg.Kind)
	assert.True(t, agg.Explain)

	// Every constructor must hand out a distinct id.
	ids := map[string]bool{insert.ID: true, read.ID: true, update.ID: true, del.ID: true, agg.ID: true}
	assert.Len(t, ids, 5)
}

func TestCapabilitySet(t *testing.T) {
	t.Parallel()

	s := NewCapabilitySet(CapExplainPlans, CapBulkOperations)
	assert.True(t, s.Has(CapExplainPlans))
	assert.False(t, s.Has(CapCommandMonitoring))

	s.Add(CapFieldAccessTiming)
	assert.True(t, s.Has(CapFieldAccessTiming))

	assert.Equal(t, []CapabilityTag{CapBulkOperations, CapExplainPlans, CapFieldAccessTiming}, s.Tags())

	var nilSet *CapabilitySet
	assert.False(t, nilSet.Has(CapExplainPlans), "nil set must answer, not panic")
}

func TestBulkResultThroughput(t *testing.T) {
	t.Parallel()

	r := &BulkResult{Succeeded: 90, Failed: 10, TotalDuration: 2 * time.Second}
	assert.InDelta(t, 50.0, r.Throughput(), 0.001)

	assert.Zero(t, (&BulkResult{Succeeded: 5}).Throughput(), "zero elapsed time yields zero, not infinity")
}

func TestConnectionConfigDefaults(t *testing.T) {
	t.Parallel()

	cfg := ConnectionConfig{URI: "mongodb://localhost:27017", Database: "bench"}.WithDefaults()
	assert.Equal(t, 10*time.Second, cfg.ConnectTimeout)
	assert.Equal(t, 30*time.Second, cfg.SocketTimeout)
	assert.Equal(t, 8, cfg.PoolSize)
	assert.Equal(t, "docbench", cfg.Collection)

	custom := ConnectionConfig{PoolSize: 2, Collection: "mine"}.WithDefaults()
	assert.Equal(t, 2, custom.PoolSize, "explicit values survive")
	assert.Equal(t, "mine", custom.Collection)
}
