/*
Package types defines the contracts of the benchmark measurement core: the
operation model, the adapter SPI, and the metrics collection surface.

# Architecture Overview

The harness follows a layered design with the adapter boundary as its sole
dependency on concrete backends:

	┌─────────────────────────────────────────────┐
	│              Benchmark Runner               │
	│              (internal/bench)               │
	└─────────────────────────────────────────────┘
	                      │
	┌─────────────────────────────────────────────┐
	│         Adapter Capability Contract         │
	│     (internal/adapter/{mongodb,postgres})   │
	└─────────────────────────────────────────────┘
	          │             │              │
	┌─────────┴───┐ ┌───────┴──────┐ ┌─────┴──────┐
	│ Correlation │ │  Traversal   │ │  Metrics   │
	│   Tracker   │ │    Timer     │ │ Collector  │
	└─────────────┘ └──────────────┘ └────────────┘

# Operation Model

Operation is a discriminated struct over a closed kind set (insert, read,
update, delete, aggregate). Adapters dispatch on Kind; results are data,
including failures, so one bad iteration never aborts a run.

# Capability Negotiation

Adapters expose an open set of named optional behaviors via HasCapability.
Callers must check before relying on gated logic; invoking it unchecked
yields a capability error, never undefined behavior.

# Thread Safety

Implementations of MetricsCollector and Adapter must tolerate concurrent
callers; each operation runs on its own goroutine performing a blocking
backend call, and completion notifications may arrive on different threads.
*/
package types
