// Package breakdown models the decomposition of a single operation's
// latency into named cost components and the overhead metrics derived
// from them.
package breakdown

import (
	"time"

	"github.com/FranckPachot/rick-DocBench-sub000/pkg/errors"
)

// Dimension names used when a breakdown is fanned out into metric samples.
const (
	DimTotalLatency          = "overhead.total_latency"
	DimConnectionAcquisition = "overhead.connection_acquisition"
	DimConnectionRelease     = "overhead.connection_release"
	DimSerialization         = "overhead.serialization"
	DimDeserialization       = "overhead.deserialization"
	DimWireTransmit          = "overhead.wire_transmit"
	DimWireReceive           = "overhead.wire_receive"
	DimServerExecution       = "overhead.server_execution"
	DimServerParse           = "overhead.server_parse"
	DimServerTraversal       = "overhead.server_traversal"
	DimServerIndex           = "overhead.server_index"
	DimServerFetch           = "overhead.server_fetch"
	DimClientTraversal       = "overhead.client_traversal"

	// PlatformPrefix namespaces adapter-specific dimensions.
	PlatformPrefix = "overhead.platform."
)

// OverheadBreakdown decomposes one operation's total latency into thirteen
// named durations plus an open set of platform-specific durations. A
// breakdown is immutable once built; adapters that cannot observe a
// dimension report it as zero rather than omitting it, so the summation
// identities over the derived metrics always hold.
type OverheadBreakdown struct {
	totalLatency          time.Duration
	connectionAcquisition time.Duration
	connectionRelease     time.Duration
	serializationTime     time.Duration
	deserializationTime   time.Duration
	wireTransmitTime      time.Duration
	wireReceiveTime       time.Duration
	serverExecutionTime   time.Duration
	serverParseTime       time.Duration
	serverTraversalTime   time.Duration
	serverIndexTime       time.Duration
	serverFetchTime       time.Duration
	clientTraversalTime   time.Duration

	platformSpecific map[string]time.Duration
}

// Builder accumulates breakdown dimensions. Dimensions left unset default
// to zero. Build validates before any derived value can be computed.
type Builder struct {
	b        OverheadBreakdown
	platform map[string]time.Duration
}

// NewBuilder returns an empty breakdown accumulator.
func NewBuilder() *Builder {
	return &Builder{platform: make(map[string]time.Duration)}
}

func (bl *Builder) TotalLatency(d time.Duration) *Builder          { bl.b.totalLatency = d; return bl }
func (bl *Builder) ConnectionAcquisition(d time.Duration) *Builder { bl.b.connectionAcquisition = d; return bl }
func (bl *Builder) ConnectionRelease(d time.Duration) *Builder     { bl.b.connectionRelease = d; return bl }
func (bl *Builder) SerializationTime(d time.Duration) *Builder     { bl.b.serializationTime = d; return bl }
func (bl *Builder) DeserializationTime(d time.Duration) *Builder   { bl.b.deserializationTime = d; return bl }
func (bl *Builder) WireTransmitTime(d time.Duration) *Builder      { bl.b.wireTransmitTime = d; return bl }
func (bl *Builder) WireReceiveTime(d time.Duration) *Builder       { bl.b.wireReceiveTime = d; return bl }
func (bl *Builder) ServerExecutionTime(d time.Duration) *Builder   { bl.b.serverExecutionTime = d; return bl }
func (bl *Builder) ServerParseTime(d time.Duration) *Builder       { bl.b.serverParseTime = d; return bl }
func (bl *Builder) ServerTraversalTime(d time.Duration) *Builder   { bl.b.serverTraversalTime = d; return bl }
func (bl *Builder) ServerIndexTime(d time.Duration) *Builder       { bl.b.serverIndexTime = d; return bl }
func (bl *Builder) ServerFetchTime(d time.Duration) *Builder       { bl.b.serverFetchTime = d; return bl }
func (bl *Builder) ClientTraversalTime(d time.Duration) *Builder   { bl.b.clientTraversalTime = d; return bl }

// Platform records an adapter-specific named duration.
func (bl *Builder) Platform(name string, d time.Duration) *Builder {
	bl.platform[name] = d
	return bl
}

// Build validates every dimension and returns the immutable breakdown.
// Validation is fail-fast: a negative duration rejects construction before
// any derived value is computed.
func (bl *Builder) Build() (*OverheadBreakdown, error) {
	dims := map[string]time.Duration{
		DimTotalLatency:          bl.b.totalLatency,
		DimConnectionAcquisition: bl.b.connectionAcquisition,
		DimConnectionRelease:     bl.b.connectionRelease,
		DimSerialization:         bl.b.serializationTime,
		DimDeserialization:       bl.b.deserializationTime,
		DimWireTransmit:          bl.b.wireTransmitTime,
		DimWireReceive:           bl.b.wireReceiveTime,
		DimServerExecution:       bl.b.serverExecutionTime,
		DimServerParse:           bl.b.serverParseTime,
		DimServerTraversal:       bl.b.serverTraversalTime,
		DimServerIndex:           bl.b.serverIndexTime,
		DimServerFetch:           bl.b.serverFetchTime,
		DimClientTraversal:       bl.b.clientTraversalTime,
	}
	for name, d := range dims {
		if d < 0 {
			return nil, errors.Newf(errors.ErrCodeInvalidBreakdown,
				"negative duration for %s: %v", name, d)
		}
	}
	for name, d := range bl.platform {
		if d < 0 {
			return nil, errors.Newf(errors.ErrCodeInvalidBreakdown,
				"negative platform duration for %s: %v", name, d)
		}
	}

	out := bl.b
	out.platformSpecific = make(map[string]time.Duration, len(bl.platform))
	for name, d := range bl.platform {
		out.platformSpecific[name] = d
	}
	return &out, nil
}

// TotalOnly returns a breakdown carrying only the total latency. Adapters
// fall back to it when no fine-grained data was captured, so callers always
// receive a breakdown, never nil.
func TotalOnly(total time.Duration) (*OverheadBreakdown, error) {
	return NewBuilder().TotalLatency(total).Build()
}

// Base dimension accessors.

func (b *OverheadBreakdown) TotalLatency() time.Duration          { return b.totalLatency }
func (b *OverheadBreakdown) ConnectionAcquisition() time.Duration { return b.connectionAcquisition }
func (b *OverheadBreakdown) ConnectionRelease() time.Duration     { return b.connectionRelease }
func (b *OverheadBreakdown) SerializationTime() time.Duration     { return b.serializationTime }
func (b *OverheadBreakdown) DeserializationTime() time.Duration   { return b.deserializationTime }
func (b *OverheadBreakdown) WireTransmitTime() time.Duration      { return b.wireTransmitTime }
func (b *OverheadBreakdown) WireReceiveTime() time.Duration       { return b.wireReceiveTime }
func (b *OverheadBreakdown) ServerExecutionTime() time.Duration   { return b.serverExecutionTime }
func (b *OverheadBreakdown) ServerParseTime() time.Duration       { return b.serverParseTime }
func (b *OverheadBreakdown) ServerTraversalTime() time.Duration   { return b.serverTraversalTime }
func (b *OverheadBreakdown) ServerIndexTime() time.Duration       { return b.serverIndexTime }
func (b *OverheadBreakdown) ServerFetchTime() time.Duration       { return b.serverFetchTime }
func (b *OverheadBreakdown) ClientTraversalTime() time.Duration   { return b.clientTraversalTime }

// PlatformSpecific returns a copy of the adapter-specific dimensions.
func (b *OverheadBreakdown) PlatformSpecific() map[string]time.Duration {
	out := make(map[string]time.Duration, len(b.platformSpecific))
	for name, d := range b.platformSpecific {
		out[name] = d
	}
	return out
}

// Derived overhead metrics. All are pure functions of the base dimensions.

// TotalOverhead is everything that is not useful server-side data fetching.
func (b *OverheadBreakdown) TotalOverhead() time.Duration {
	return b.totalLatency - b.serverFetchTime
}

// TraversalOverhead is the combined server and client field navigation cost.
func (b *OverheadBreakdown) TraversalOverhead() time.Duration {
	return b.serverTraversalTime + b.clientTraversalTime
}

// NetworkOverhead is the combined wire transit cost.
func (b *OverheadBreakdown) NetworkOverhead() time.Duration {
	return b.wireTransmitTime + b.wireReceiveTime
}

// SerializationOverhead is the combined encode and decode cost.
func (b *OverheadBreakdown) SerializationOverhead() time.Duration {
	return b.serializationTime + b.deserializationTime
}

// ConnectionOverhead is the combined connection lifecycle cost.
func (b *OverheadBreakdown) ConnectionOverhead() time.Duration {
	return b.connectionAcquisition + b.connectionRelease
}

// Percentage variants. When total latency is zero every percentage is
// exactly 0.0, never NaN or infinity.

func (b *OverheadBreakdown) OverheadPercentage() float64 {
	return b.percentage(b.TotalOverhead())
}

func (b *OverheadBreakdown) TraversalPercentage() float64 {
	return b.percentage(b.TraversalOverhead())
}

func (b *OverheadBreakdown) NetworkPercentage() float64 {
	return b.percentage(b.NetworkOverhead())
}

func (b *OverheadBreakdown) SerializationPercentage() float64 {
	return b.percentage(b.SerializationOverhead())
}

func (b *OverheadBreakdown) ConnectionPercentage() float64 {
	return b.percentage(b.ConnectionOverhead())
}

func (b *OverheadBreakdown) percentage(d time.Duration) float64 {
	if b.totalLatency == 0 {
		return 0.0
	}
	return float64(d) / float64(b.totalLatency) * 100.0
}

// Dimensions returns every base dimension keyed by its metric name, in the
// shape the collector fans out.
func (b *OverheadBreakdown) Dimensions() map[string]time.Duration {
	return map[string]time.Duration{
		DimTotalLatency:          b.totalLatency,
		DimConnectionAcquisition: b.connectionAcquisition,
		DimConnectionRelease:     b.connectionRelease,
		DimSerialization:         b.serializationTime,
		DimDeserialization:       b.deserializationTime,
		DimWireTransmit:          b.wireTransmitTime,
		DimWireReceive:           b.wireReceiveTime,
		DimServerExecution:       b.serverExecutionTime,
		DimServerParse:           b.serverParseTime,
		DimServerTraversal:       b.serverTraversalTime,
		DimServerIndex:           b.serverIndexTime,
		DimServerFetch:           b.serverFetchTime,
		DimClientTraversal:       b.clientTraversalTime,
	}
}
