package mongodb

import (
	"context"
	stderr "errors"
	"sync/atomic"
	"time"

	"go.mongodb.org/mongo-driver/v2/event"
)

// serverCapture holds the backend-reported duration of the command issued
// within one Execute call. The driver delivers the succeeded event inside
// the operation's call path, so the capture travels by context; the
// tracker handles the fully asynchronous aggregation independently.
type serverCapture struct {
	nanos int64
}

func (c *serverCapture) record(d time.Duration) {
	atomic.StoreInt64(&c.nanos, int64(d))
}

func (c *serverCapture) duration() time.Duration {
	return time.Duration(atomic.LoadInt64(&c.nanos))
}

type captureKey struct{}

func withCapture(ctx context.Context, c *serverCapture) context.Context {
	return context.WithValue(ctx, captureKey{}, c)
}

func captureFrom(ctx context.Context) *serverCapture {
	c, _ := ctx.Value(captureKey{}).(*serverCapture)
	return c
}

// commandMonitor bridges the driver's asynchronous command notifications
// into the correlation tracker. The driver identifies each command only by
// a transient numeric RequestID that may be reused over the connection's
// lifetime; pairing is the tracker's job. Completion handlers may run on a
// different goroutine than the issuing caller, which is why nothing here
// assumes same-thread delivery.
func (a *Adapter) commandMonitor() *event.CommandMonitor {
	return &event.CommandMonitor{
		Started: func(ctx context.Context, e *event.CommandStartedEvent) {
			a.tracker.Started(e.RequestID, e.CommandName)
		},
		Succeeded: func(ctx context.Context, e *event.CommandSucceededEvent) {
			a.tracker.Succeeded(e.RequestID, e.Duration)
			if capture := captureFrom(ctx); capture != nil {
				capture.record(e.Duration)
			}
		},
		Failed: func(ctx context.Context, e *event.CommandFailedEvent) {
			a.tracker.Failed(e.RequestID)
		},
	}
}

func errorAs(err error, target interface{}) bool {
	return stderr.As(err, target)
}
