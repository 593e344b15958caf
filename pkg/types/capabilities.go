package types

import "sort"

// CapabilityTag names an optional adapter behavior. Callers must check
// HasCapability before relying on capability-gated logic; the set is
// queried, never inferred from the adapter's concrete type.
type CapabilityTag string

const (
	// CapCommandMonitoring: the adapter receives asynchronous command
	// start/completion notifications and can correlate them.
	CapCommandMonitoring CapabilityTag = "command-monitoring"

	// CapServerExecutionTime: the adapter can report backend-measured
	// execution time for an operation.
	CapServerExecutionTime CapabilityTag = "server-execution-time"

	// CapServerTraversalTime: the adapter can report true server-side
	// field traversal time. Adapters without it report zero for that
	// dimension rather than omitting it.
	CapServerTraversalTime CapabilityTag = "server-traversal-time"

	// CapExplainPlans: the adapter can obtain a server execution plan with
	// per-phase timings.
	CapExplainPlans CapabilityTag = "explain-plans"

	// CapBulkOperations: the adapter has a native bulk execution path.
	CapBulkOperations CapabilityTag = "bulk-operations"

	// CapFieldAccessTiming: the adapter instruments per-field access cost
	// during client-side deserialization.
	CapFieldAccessTiming CapabilityTag = "field-access-timing"
)

// CapabilitySet is the per-adapter-instance set of supported behaviors.
type CapabilitySet struct {
	tags map[CapabilityTag]struct{}
}

// NewCapabilitySet builds a set from the given tags.
func NewCapabilitySet(tags ...CapabilityTag) *CapabilitySet {
	s := &CapabilitySet{tags: make(map[CapabilityTag]struct{}, len(tags))}
	for _, tag := range tags {
		s.tags[tag] = struct{}{}
	}
	return s
}

// Has reports whether the set contains tag.
func (s *CapabilitySet) Has(tag CapabilityTag) bool {
	if s == nil {
		return false
	}
	_, ok := s.tags[tag]
	return ok
}

// Add extends the set with tag.
func (s *CapabilitySet) Add(tag CapabilityTag) {
	s.tags[tag] = struct{}{}
}

// Tags returns the sorted tag list.
func (s *CapabilitySet) Tags() []CapabilityTag {
	out := make([]CapabilityTag, 0, len(s.tags))
	for tag := range s.tags {
		out = append(out, tag)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
