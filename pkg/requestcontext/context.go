// Package requestcontext provides context accessors for run-scoped values.
//
// Values are set once by the command entry point and consumed by services and
// stores. Keeping the accessors here means services depend only on
// context.Context, and tests can inject a fixed time or actor without any
// further plumbing:
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
//	ctx = requestcontext.WithActor(ctx, "ops@example.com")
package requestcontext

import (
	"context"
	"time"
)

type (
	actorKey   struct{}
	runTimeKey struct{}
)

// Actor retrieves the operator identity recorded for this run. Empty when
// not set.
func Actor(ctx context.Context) string {
	if actor, ok := ctx.Value(actorKey{}).(string); ok {
		return actor
	}
	return ""
}

// WithActor records the operator identity for audit attribution.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// Now retrieves the run-scoped time from context. Falls back to time.Now()
// when not set.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(runTimeKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context. Useful for tests and for
// batches that want one consistent timestamp across all writes.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, runTimeKey{}, t)
}
