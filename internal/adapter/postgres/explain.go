package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/FranckPachot/rick-DocBench-sub000/internal/breakdown"
	"github.com/FranckPachot/rick-DocBench-sub000/pkg/errors"
	"github.com/FranckPachot/rick-DocBench-sub000/pkg/types"
)

// explainPlan mirrors the top-level shape of EXPLAIN (ANALYZE, FORMAT JSON)
// output. Times are reported by the server in milliseconds.
type explainPlan struct {
	Plan         map[string]interface{} `json:"Plan"`
	PlanningTime float64                `json:"Planning Time"`
	ExecTime     float64                `json:"Execution Time"`
}

// explainScan runs the query under EXPLAIN ANALYZE and folds the server's
// own timings into the breakdown: Execution Time becomes server execution,
// Planning Time becomes server parse/plan.
func (a *Adapter) explainScan(ctx context.Context, pc *connection, query string, args []interface{}, start time.Time, collector types.MetricsCollector) (interface{}, *breakdown.OverheadBreakdown, error) {
	var raw []byte
	err := pc.pool.QueryRow(ctx, "EXPLAIN (ANALYZE, FORMAT JSON) "+query, args...).Scan(&raw)
	if err != nil {
		return nil, nil, err
	}

	var plans []explainPlan
	if err := json.Unmarshal(raw, &plans); err != nil {
		return nil, nil, err
	}
	if len(plans) == 0 {
		return nil, nil, errors.New(errors.ErrCodeOperationFailed, "explain returned no plan").
			WithAdapter(a.Name())
	}
	plan := plans[0]

	if nodeType, ok := plan.Plan["Node Type"].(string); ok {
		a.Logger.Debug("explain plan", map[string]interface{}{
			"node_type":      nodeType,
			"execution_ms":   plan.ExecTime,
			"planning_ms":    plan.PlanningTime,
			"query_preamble": preamble(query),
		})
	}

	bd, err := a.planBreakdown(plan, start, collector)
	if err != nil {
		return nil, nil, err
	}
	return plan.Plan, bd, nil
}

// planBreakdown folds server-reported plan timings into a breakdown. Row
// counts are tallies, not durations, so they land in a counter instead of
// a timing dimension.
func (a *Adapter) planBreakdown(plan explainPlan, start time.Time, collector types.MetricsCollector) (*breakdown.OverheadBreakdown, error) {
	if rows, ok := plan.Plan["Actual Rows"]; ok {
		collector.AddCounter("explain.actual_rows", asInt64(rows))
	}

	return breakdown.NewBuilder().
		TotalLatency(time.Since(start)).
		ServerExecutionTime(millis(plan.ExecTime)).
		ServerParseTime(millis(plan.PlanningTime)).
		Build()
}

func millis(ms float64) time.Duration {
	return time.Duration(ms * float64(time.Millisecond))
}

func asInt64(v interface{}) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int64:
		return n
	case int32:
		return int64(n)
	case int:
		return int64(n)
	default:
		return 0
	}
}

func preamble(query string) string {
	const max = 48
	if len(query) <= max {
		return query
	}
	return fmt.Sprintf("%s...", query[:max])
}
