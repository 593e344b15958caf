// Package traversal instruments navigation cost inside a single
// operation's deserialization: field access, nested-document entry and
// exit, and array element access.
//
// The per-field deltas it emits are the evidence that access cost grows
// with field ordinal position for a sequential-scan encoding and stays
// flat for a hash-indexed one. Contexts for distinct operation ids are
// independent; clearing one never affects the others.
package traversal

import (
	"sync"
	"time"

	"github.com/FranckPachot/rick-DocBench-sub000/pkg/errors"
	"github.com/FranckPachot/rick-DocBench-sub000/pkg/types"
)

// Metric and counter names emitted by the timer.
const (
	MetricTotalTime   = "traversal.total_time"
	MetricFieldPrefix = "traversal.field."
	CounterFieldCount = "traversal.field_count"
)

// Breakdown is the finalized traversal evidence for one operation.
type Breakdown struct {
	TotalTime          time.Duration
	FieldCount         int
	MaxNestingDepth    int
	LastFieldPosition  int
	TotalArrayElements int
}

// opContext is the per-operation traversal state.
type opContext struct {
	start     time.Time
	lastEvent time.Time

	fieldCount        int
	fieldPositions    map[string]int
	lastFieldPosition int

	depth    int
	maxDepth int

	arrayCounts        map[string]int
	totalArrayElements int
}

// Timer tracks traversal state for concurrently open operation ids.
type Timer struct {
	mu        sync.RWMutex
	contexts  map[string]*opContext
	collector types.MetricsCollector
}

// NewTimer builds a timer emitting into collector.
func NewTimer(collector types.MetricsCollector) *Timer {
	return &Timer{
		contexts:  make(map[string]*opContext),
		collector: collector,
	}
}

// StartDeserialization opens a context for id, timestamped at call time.
// Restarting an id discards its previous context.
func (t *Timer) StartDeserialization(id string) {
	now := time.Now()
	t.mu.Lock()
	t.contexts[id] = &opContext{
		start:             now,
		lastEvent:         now,
		fieldPositions:    make(map[string]int),
		lastFieldPosition: -1,
		arrayCounts:       make(map[string]int),
	}
	t.mu.Unlock()
}

// RecordFieldAccess emits the delta since the last event as a timing
// sample named for the field.
func (t *Timer) RecordFieldAccess(id, name string) error {
	return t.recordField(id, name, -1)
}

// RecordFieldAccessAt additionally tracks the field's observed ordinal
// position within the document.
func (t *Timer) RecordFieldAccessAt(id, name string, position int) error {
	return t.recordField(id, name, position)
}

func (t *Timer) recordField(id, name string, position int) error {
	now := time.Now()

	t.mu.Lock()
	ctx, ok := t.contexts[id]
	if !ok {
		t.mu.Unlock()
		return noContext(id)
	}
	delta := now.Sub(ctx.lastEvent)
	ctx.lastEvent = now
	ctx.fieldCount++
	if position >= 0 {
		ctx.fieldPositions[name] = position
		if position > ctx.lastFieldPosition {
			ctx.lastFieldPosition = position
		}
	}
	t.mu.Unlock()

	t.collector.RecordTiming(MetricFieldPrefix+name, delta)
	return nil
}

// EnterNestedDocument increments the nesting depth for id.
func (t *Timer) EnterNestedDocument(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	ctx, ok := t.contexts[id]
	if !ok {
		return noContext(id)
	}
	ctx.depth++
	if ctx.depth > ctx.maxDepth {
		ctx.maxDepth = ctx.depth
	}
	return nil
}

// ExitNestedDocument decrements the nesting depth, never below zero.
func (t *Timer) ExitNestedDocument(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	ctx, ok := t.contexts[id]
	if !ok {
		return noContext(id)
	}
	if ctx.depth > 0 {
		ctx.depth--
	}
	return nil
}

// EnterArray marks the start of array traversal for arrayName.
func (t *Timer) EnterArray(id, arrayName string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	ctx, ok := t.contexts[id]
	if !ok {
		return noContext(id)
	}
	if _, seen := ctx.arrayCounts[arrayName]; !seen {
		ctx.arrayCounts[arrayName] = 0
	}
	return nil
}

// ExitArray marks the end of array traversal for arrayName.
func (t *Timer) ExitArray(id, arrayName string) error {
	t.mu.RLock()
	_, ok := t.contexts[id]
	t.mu.RUnlock()
	if !ok {
		return noContext(id)
	}
	return nil
}

// RecordArrayElementAccess counts one element access within arrayName.
func (t *Timer) RecordArrayElementAccess(id, arrayName string, index int) error {
	now := time.Now()
	t.mu.Lock()
	defer t.mu.Unlock()
	ctx, ok := t.contexts[id]
	if !ok {
		return noContext(id)
	}
	ctx.lastEvent = now
	ctx.arrayCounts[arrayName]++
	ctx.totalArrayElements++
	return nil
}

// EndDeserialization closes the context for id, emits the total-time
// sample and the field-count counter, and returns the finalized evidence.
func (t *Timer) EndDeserialization(id string) (*Breakdown, error) {
	now := time.Now()

	t.mu.Lock()
	ctx, ok := t.contexts[id]
	if ok {
		delete(t.contexts, id)
	}
	t.mu.Unlock()
	if !ok {
		return nil, noContext(id)
	}

	total := now.Sub(ctx.start)
	t.collector.RecordTiming(MetricTotalTime, total)
	t.collector.AddCounter(CounterFieldCount, int64(ctx.fieldCount))

	return &Breakdown{
		TotalTime:          total,
		FieldCount:         ctx.fieldCount,
		MaxNestingDepth:    ctx.maxDepth,
		LastFieldPosition:  ctx.lastFieldPosition,
		TotalArrayElements: ctx.totalArrayElements,
	}, nil
}

// FieldPosition reports the observed ordinal position of a field within
// the open context for id, or -1 when unknown.
func (t *Timer) FieldPosition(id, name string) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	ctx, ok := t.contexts[id]
	if !ok {
		return -1
	}
	pos, seen := ctx.fieldPositions[name]
	if !seen {
		return -1
	}
	return pos
}

// Clear discards the context for id without emitting anything. Other open
// contexts are unaffected.
func (t *Timer) Clear(id string) {
	t.mu.Lock()
	delete(t.contexts, id)
	t.mu.Unlock()
}

// Open reports how many contexts are currently open.
func (t *Timer) Open() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.contexts)
}

func noContext(id string) error {
	return errors.Newf(errors.ErrCodeNoContext, "no open deserialization context for operation %q", id)
}
