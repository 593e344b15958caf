// Package bench owns a benchmark run: the collector, tracker, and timer
// it measures with, and the warmup/measure phases that drive an adapter.
package bench

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/FranckPachot/rick-DocBench-sub000/internal/config"
	"github.com/FranckPachot/rick-DocBench-sub000/internal/correlation"
	"github.com/FranckPachot/rick-DocBench-sub000/internal/metrics"
	"github.com/FranckPachot/rick-DocBench-sub000/internal/traversal"
	"github.com/FranckPachot/rick-DocBench-sub000/pkg/retry"
	"github.com/FranckPachot/rick-DocBench-sub000/pkg/types"
	"github.com/FranckPachot/rick-DocBench-sub000/pkg/utils"
)

// Run holds the measurement state for one benchmark run. All state lives
// here, scoped to the run; concurrent runs do not share anything.
type Run struct {
	cfg       *config.Configuration
	logger    *utils.StructuredLogger
	collector *metrics.Collector
	tracker   *correlation.Tracker
	timer     *traversal.Timer
	retryer   *retry.Retryer
	registry  *prometheus.Registry
}

// NewRun wires a run context from configuration. When Prometheus export
// is enabled the collector is bridged into a registry owned by the run.
func NewRun(cfg *config.Configuration, logger *utils.StructuredLogger) (*Run, error) {
	collector := metrics.NewCollector(cfg.Metrics.SignificantDigits)
	r := &Run{
		cfg:       cfg,
		logger:    logger.WithComponent("bench"),
		collector: collector,
		tracker:   correlation.NewTracker(collector),
		timer:     traversal.NewTimer(collector),
		retryer:   retry.New(retry.DefaultConfig()),
	}

	if cfg.Metrics.Prometheus {
		r.registry = prometheus.NewRegistry()
		if err := metrics.NewBridge(collector, "docbench").Register(r.registry); err != nil {
			return nil, err
		}
	}

	return r, nil
}

func (r *Run) Collector() *metrics.Collector   { return r.collector }
func (r *Run) Tracker() *correlation.Tracker   { return r.tracker }
func (r *Run) Timer() *traversal.Timer         { return r.timer }
func (r *Run) Config() *config.Configuration   { return r.cfg }
func (r *Run) Logger() *utils.StructuredLogger { return r.logger }

// Registry exposes the Prometheus registry, nil unless metrics export is
// enabled in the configuration.
func (r *Run) Registry() *prometheus.Registry { return r.registry }

// Connect opens a connection through the adapter, retrying transient
// connection failures with backoff. Configuration errors fail immediately.
func (r *Run) Connect(ctx context.Context, adapter types.Adapter) (types.Connection, error) {
	var conn types.Connection
	err := r.retryer.DoWithContext(ctx, func(ctx context.Context) error {
		var err error
		conn, err = adapter.Connect(ctx, r.cfg.Target.Connection)
		return err
	})
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// Warmup executes ops without keeping their samples: the collector is
// reset afterwards and any correlation entries the warmup left behind are
// swept, so measurement starts from a clean slate.
func (r *Run) Warmup(ctx context.Context, adapter types.Adapter, conn types.Connection, ops []*types.Operation) {
	r.logger.Info("warmup phase", map[string]interface{}{
		"operations": len(ops),
		"adapter":    adapter.Name(),
	})

	for _, op := range ops {
		adapter.Execute(ctx, conn, op, r.collector)
	}

	swept := r.tracker.Sweep(0)
	r.collector.Reset()

	if swept > 0 {
		r.logger.Debug("swept stale correlation entries after warmup", map[string]interface{}{
			"count": swept,
		})
	}
}

// Measure fans ops across the configured concurrency, one blocking call
// per operation per worker, and returns the collector's summary. Failed
// operations are counted and logged, never abort the run.
func (r *Run) Measure(ctx context.Context, adapter types.Adapter, conn types.Connection, ops []*types.Operation) types.Summary {
	workers := r.cfg.Run.Concurrency
	if workers < 1 {
		workers = 1
	}

	r.logger.Info("measurement phase", map[string]interface{}{
		"operations":  len(ops),
		"concurrency": workers,
		"adapter":     adapter.Name(),
	})

	work := make(chan *types.Operation)
	var wg sync.WaitGroup
	var failed int64
	var mu sync.Mutex

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for op := range work {
				result := adapter.Execute(ctx, conn, op, r.collector)
				if !result.Success {
					mu.Lock()
					failed++
					mu.Unlock()
					r.logger.Warn("operation failed", map[string]interface{}{
						"operation_id": op.ID,
						"kind":         string(op.Kind),
						"error":        result.Err.Error(),
					})
					continue
				}
				bd := adapter.OverheadBreakdown(result)
				r.collector.RecordTiming("measure.total_latency", bd.TotalLatency())
			}
		}()
	}

	for _, op := range ops {
		work <- op
	}
	close(work)
	wg.Wait()

	r.collector.AddCounter("measure.failed", failed)

	if maxAge := r.cfg.Run.SweepMaxAge; maxAge > 0 {
		if swept := r.tracker.Sweep(maxAge); swept > 0 {
			r.logger.Warn("swept stale correlation entries", map[string]interface{}{
				"count": swept,
			})
		}
	}

	return r.collector.Summarize()
}

// MeasureBulk runs the operations through the adapter's bulk path in
// chunks of the configured bulk size and returns the combined result.
func (r *Run) MeasureBulk(ctx context.Context, adapter types.Adapter, conn types.Connection, ops []*types.Operation) *types.BulkResult {
	size := r.cfg.Run.BulkSize
	if size < 1 {
		size = len(ops)
	}

	start := time.Now()
	combined := &types.BulkResult{}
	for begin := 0; begin < len(ops); begin += size {
		end := begin + size
		if end > len(ops) {
			end = len(ops)
		}
		chunk := adapter.ExecuteBulk(ctx, conn, ops[begin:end], r.collector)
		combined.Succeeded += chunk.Succeeded
		combined.Failed += chunk.Failed
		combined.Results = append(combined.Results, chunk.Results...)
	}
	combined.TotalDuration = time.Since(start)

	return combined
}
