/*
Package metrics provides thread-safe accumulation of named timing and
counter samples into percentile-queryable HDR histograms.

The collector keys histograms by metric name and creates them lazily. Each
histogram carries its own lock, so recordings under unrelated names never
contend; the package-level lock is only taken on first use of a name and on
Reset. Summarize produces an immutable snapshot while the live histograms
keep accumulating.

Reset is correctness-critical for benchmarking: warm-up iterations are
recorded and then discarded with Reset before measurement begins.

The optional Bridge exports snapshots to a Prometheus registry at scrape
time for runs that want external observation.
*/
package metrics
