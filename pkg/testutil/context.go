package testutil

import (
	"context"
	"time"

	"hubops/pkg/requestcontext"
)

// FixedTime is the reference instant used by Context so assertions on
// timestamps are deterministic.
var FixedTime = time.Date(2025, 11, 9, 12, 0, 0, 0, time.UTC)

// Context returns a background context carrying FixedTime and a test actor.
func Context() context.Context {
	ctx := requestcontext.WithTime(context.Background(), FixedTime)
	return requestcontext.WithActor(ctx, "test-operator@example.com")
}
