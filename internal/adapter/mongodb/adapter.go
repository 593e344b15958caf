// Package mongodb implements the benchmark adapter for MongoDB, whose BSON
// documents require sequential field-name scanning per nesting level.
package mongodb

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/FranckPachot/rick-DocBench-sub000/internal/adapter"
	"github.com/FranckPachot/rick-DocBench-sub000/internal/breakdown"
	"github.com/FranckPachot/rick-DocBench-sub000/internal/correlation"
	"github.com/FranckPachot/rick-DocBench-sub000/internal/traversal"
	"github.com/FranckPachot/rick-DocBench-sub000/pkg/errors"
	"github.com/FranckPachot/rick-DocBench-sub000/pkg/types"
	"github.com/FranckPachot/rick-DocBench-sub000/pkg/utils"
)

// Adapter benchmarks a MongoDB backend.
type Adapter struct {
	*adapter.Base
	tracker *correlation.Tracker
	timer   *traversal.Timer
}

// New builds a MongoDB adapter. The tracker receives the driver's
// asynchronous command notifications; the timer instruments client-side
// document traversal.
func New(logger *utils.StructuredLogger, tracker *correlation.Tracker, timer *traversal.Timer) *Adapter {
	return &Adapter{
		Base: adapter.NewBase("mongodb", logger,
			types.CapCommandMonitoring,
			types.CapServerExecutionTime,
			types.CapExplainPlans,
			types.CapBulkOperations,
			types.CapFieldAccessTiming,
		),
		tracker: tracker,
		timer:   timer,
	}
}

// connection wraps the driver client as an explicit scoped resource.
type connection struct {
	client     *mongo.Client
	database   string
	collection string

	closeOnce sync.Once
	closeErr  error
}

// Ping verifies the backend is reachable.
func (c *connection) Ping(ctx context.Context) error {
	return c.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client. Idempotent: repeat calls return the first
// outcome without a second disconnect.
func (c *connection) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.client.Disconnect(context.Background())
	})
	return c.closeErr
}

func (c *connection) coll(pref types.ReadPreference) *mongo.Collection {
	opts := options.Collection()
	switch pref {
	case types.ReadSecondary:
		opts = opts.SetReadPreference(readpref.SecondaryPreferred())
	case types.ReadNearest:
		opts = opts.SetReadPreference(readpref.Nearest())
	}
	return c.client.Database(c.database).Collection(c.collection, opts)
}

// Connect validates cfg (aggregating every problem before any network
// attempt), then dials and pings the deployment. The command monitor is
// wired here: start and completion notifications for this connection's
// lifetime flow into the correlation tracker.
func (a *Adapter) Connect(ctx context.Context, cfg types.ConnectionConfig) (types.Connection, error) {
	if problems := adapter.ValidateConnectionConfig(cfg); len(problems) > 0 {
		return nil, errors.NewConfigValidation(problems).WithAdapter(a.Name())
	}
	cfg = cfg.WithDefaults()

	clientOpts := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetTimeout(cfg.SocketTimeout).
		SetMaxPoolSize(uint64(cfg.PoolSize)).
		SetMonitor(a.commandMonitor())
	if cfg.Username != "" {
		clientOpts = clientOpts.SetAuth(options.Credential{
			Username: cfg.Username,
			Password: cfg.Password,
		})
	}

	client, err := mongo.Connect(clientOpts)
	if err != nil {
		return nil, errors.Newf(errors.ErrCodeConnectionFailed, "connect failed: %v", err).
			WithAdapter(a.Name()).WithCause(err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Newf(errors.ErrCodeConnectionFailed, "endpoint unreachable: %v", err).
			WithAdapter(a.Name()).WithCause(err)
	}

	a.Logger.Info("connected", map[string]interface{}{
		"database":   cfg.Database,
		"collection": cfg.Collection,
	})

	return &connection{
		client:     client,
		database:   cfg.Database,
		collection: cfg.Collection,
	}, nil
}

// Execute dispatches on the operation kind. A failed operation is captured
// in its result; it never panics and never aborts the caller's loop.
func (a *Adapter) Execute(ctx context.Context, conn types.Connection, op *types.Operation, collector types.MetricsCollector) *types.OperationResult {
	mc, ok := conn.(*connection)
	if !ok {
		return a.FailureResult(op, 0, fmt.Errorf("connection is not a mongodb connection"))
	}

	capture := &serverCapture{}
	ctx = withCapture(ctx, capture)

	start := time.Now()
	var (
		payload interface{}
		bd      *breakdown.OverheadBreakdown
		err     error
	)

	switch op.Kind {
	case types.OpInsert:
		payload, bd, err = a.execInsert(ctx, mc, op, start, capture)
	case types.OpRead:
		payload, bd, err = a.execRead(ctx, mc, op, start, capture, collector)
	case types.OpUpdate:
		payload, bd, err = a.execUpdate(ctx, mc, op, start, capture)
	case types.OpDelete:
		payload, bd, err = a.execDelete(ctx, mc, op, start, capture)
	case types.OpAggregate:
		payload, bd, err = a.execAggregate(ctx, mc, op, start, capture, collector)
	default:
		err = errors.Newf(errors.ErrCodeOperationUnsupported, "unknown operation kind %q", op.Kind)
	}

	duration := time.Since(start)
	if err != nil {
		return a.FailureResult(op, duration, err)
	}

	if bd != nil {
		collector.RecordOverheadBreakdown(bd)
	}
	collector.RecordTiming("operation."+string(op.Kind), duration)

	return a.SuccessResult(op, duration, payload, bd)
}

func (a *Adapter) execInsert(ctx context.Context, mc *connection, op *types.Operation, start time.Time, capture *serverCapture) (interface{}, *breakdown.OverheadBreakdown, error) {
	serStart := time.Now()
	raw, err := bson.Marshal(op.Document)
	if err != nil {
		return nil, nil, err
	}
	serialization := time.Since(serStart)

	res, err := mc.coll(types.ReadPrimary).InsertOne(ctx, bson.Raw(raw))
	if err != nil {
		return nil, nil, err
	}

	bd, err := breakdown.NewBuilder().
		TotalLatency(time.Since(start)).
		SerializationTime(serialization).
		ServerExecutionTime(capture.duration()).
		Build()
	if err != nil {
		return nil, nil, err
	}
	return res.InsertedID, bd, nil
}

func (a *Adapter) execRead(ctx context.Context, mc *connection, op *types.Operation, start time.Time, capture *serverCapture, collector types.MetricsCollector) (interface{}, *breakdown.OverheadBreakdown, error) {
	findOpts := options.FindOne()
	if len(op.ProjectionPaths) > 0 {
		proj := bson.D{}
		for _, path := range op.ProjectionPaths {
			proj = append(proj, bson.E{Key: path, Value: 1})
		}
		findOpts = findOpts.SetProjection(proj)
	}

	raw, err := mc.coll(op.ReadPreference).
		FindOne(ctx, bson.D{{Key: "_id", Value: op.DocumentID}}, findOpts).
		Raw()
	if err != nil {
		return nil, nil, err
	}

	desStart := time.Now()
	var doc bson.D
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, nil, err
	}
	deserialization := time.Since(desStart)

	clientTraversal, err := a.walkDocument(op.ID, doc)
	if err != nil {
		return nil, nil, err
	}

	collector.AddCounter("bson.document_bytes", int64(len(raw)))

	bd, err := breakdown.NewBuilder().
		TotalLatency(time.Since(start)).
		DeserializationTime(deserialization).
		ServerExecutionTime(capture.duration()).
		ClientTraversalTime(clientTraversal).
		Build()
	if err != nil {
		return nil, nil, err
	}
	return doc, bd, nil
}

func (a *Adapter) execUpdate(ctx context.Context, mc *connection, op *types.Operation, start time.Time, capture *serverCapture) (interface{}, *breakdown.OverheadBreakdown, error) {
	serStart := time.Now()
	update := bson.D{{Key: "$set", Value: bson.D{{Key: op.Path, Value: op.NewValue}}}}
	serialization := time.Since(serStart)

	res, err := mc.coll(types.ReadPrimary).UpdateOne(ctx,
		bson.D{{Key: "_id", Value: op.DocumentID}},
		update,
		options.UpdateOne().SetUpsert(op.Upsert))
	if err != nil {
		return nil, nil, err
	}

	bd, err := breakdown.NewBuilder().
		TotalLatency(time.Since(start)).
		SerializationTime(serialization).
		ServerExecutionTime(capture.duration()).
		Build()
	if err != nil {
		return nil, nil, err
	}
	return res.ModifiedCount, bd, nil
}

func (a *Adapter) execDelete(ctx context.Context, mc *connection, op *types.Operation, start time.Time, capture *serverCapture) (interface{}, *breakdown.OverheadBreakdown, error) {
	res, err := mc.coll(types.ReadPrimary).DeleteOne(ctx, bson.D{{Key: "_id", Value: op.DocumentID}})
	if err != nil {
		return nil, nil, err
	}

	bd, err := breakdown.NewBuilder().
		TotalLatency(time.Since(start)).
		ServerExecutionTime(capture.duration()).
		Build()
	if err != nil {
		return nil, nil, err
	}
	return res.DeletedCount, bd, nil
}

func (a *Adapter) execAggregate(ctx context.Context, mc *connection, op *types.Operation, start time.Time, capture *serverCapture, collector types.MetricsCollector) (interface{}, *breakdown.OverheadBreakdown, error) {
	pipeline := make([]bson.M, len(op.PipelineStages))
	for i, stage := range op.PipelineStages {
		pipeline[i] = bson.M(stage)
	}

	if op.Explain {
		if err := a.RequireCapability(types.CapExplainPlans); err != nil {
			return nil, nil, err
		}
		return a.explainAggregate(ctx, mc, op, pipeline, start, collector)
	}

	cursor, err := mc.coll(op.ReadPreference).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, nil, err
	}
	defer cursor.Close(ctx)

	desStart := time.Now()
	var results []bson.D
	if err := cursor.All(ctx, &results); err != nil {
		return nil, nil, err
	}
	deserialization := time.Since(desStart)

	bd, err := breakdown.NewBuilder().
		TotalLatency(time.Since(start)).
		DeserializationTime(deserialization).
		ServerExecutionTime(capture.duration()).
		Build()
	if err != nil {
		return nil, nil, err
	}
	return results, bd, nil
}

// explainAggregate asks the server for its own timing of the pipeline. The
// executionStats mode reports execution time in whole milliseconds.
func (a *Adapter) explainAggregate(ctx context.Context, mc *connection, op *types.Operation, pipeline []bson.M, start time.Time, collector types.MetricsCollector) (interface{}, *breakdown.OverheadBreakdown, error) {
	cmd := bson.D{
		{Key: "explain", Value: bson.D{
			{Key: "aggregate", Value: mc.collection},
			{Key: "pipeline", Value: pipeline},
			{Key: "cursor", Value: bson.D{}},
		}},
		{Key: "verbosity", Value: "executionStats"},
	}

	var plan bson.M
	if err := mc.client.Database(mc.database).RunCommand(ctx, cmd).Decode(&plan); err != nil {
		return nil, nil, err
	}

	bd, err := a.explainBreakdown(plan, start, collector)
	if err != nil {
		return nil, nil, err
	}
	return plan, bd, nil
}

// explainBreakdown folds the server's executionStats into a breakdown.
// Document counts are plain tallies, not durations, so they go to a
// counter rather than a timing dimension.
func (a *Adapter) explainBreakdown(plan bson.M, start time.Time, collector types.MetricsCollector) (*breakdown.OverheadBreakdown, error) {
	builder := breakdown.NewBuilder().TotalLatency(time.Since(start))
	if stats, ok := plan["executionStats"].(bson.M); ok {
		if millis, ok := toInt64(stats["executionTimeMillis"]); ok {
			builder = builder.ServerExecutionTime(time.Duration(millis) * time.Millisecond)
		}
		if docs, ok := toInt64(stats["totalDocsExamined"]); ok {
			collector.AddCounter("explain.docs_examined", docs)
		}
	}
	return builder.Build()
}

// ExecuteBulk reuses the shared per-item loop; partial failure is data.
func (a *Adapter) ExecuteBulk(ctx context.Context, conn types.Connection, ops []*types.Operation, collector types.MetricsCollector) *types.BulkResult {
	return a.RunBulk(ctx, conn, ops, collector, a.Execute)
}

// OverheadBreakdown never returns nil: results without fine-grained data
// fall back to a total-latency-only breakdown.
func (a *Adapter) OverheadBreakdown(result *types.OperationResult) *breakdown.OverheadBreakdown {
	return a.FallbackBreakdown(result)
}

// SetupTestEnvironment provisions the benchmark collection. Safe to call
// repeatedly: an existing collection is left in place.
func (a *Adapter) SetupTestEnvironment(ctx context.Context, conn types.Connection) error {
	mc, ok := conn.(*connection)
	if !ok {
		return errors.New(errors.ErrCodeSetupFailed, "connection is not a mongodb connection").WithAdapter(a.Name())
	}

	err := mc.client.Database(mc.database).CreateCollection(ctx, mc.collection)
	if err != nil {
		var cmdErr mongo.CommandError
		// NamespaceExists: a prior setup already created it
		if !(errorAs(err, &cmdErr) && cmdErr.Code == 48) {
			return errors.Newf(errors.ErrCodeSetupFailed, "create collection failed: %v", err).
				WithAdapter(a.Name()).WithCause(err)
		}
	}
	return nil
}

// TeardownTestEnvironment drops the benchmark collection. Dropping a
// missing collection is a no-op, so repeat calls succeed.
func (a *Adapter) TeardownTestEnvironment(ctx context.Context, conn types.Connection) error {
	mc, ok := conn.(*connection)
	if !ok {
		return errors.New(errors.ErrCodeSetupFailed, "connection is not a mongodb connection").WithAdapter(a.Name())
	}
	if err := mc.client.Database(mc.database).Collection(mc.collection).Drop(ctx); err != nil {
		return errors.Newf(errors.ErrCodeSetupFailed, "drop collection failed: %v", err).
			WithAdapter(a.Name()).WithCause(err)
	}
	return nil
}

func toInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		return int64(n), true
	default:
		return 0, false
	}
}
