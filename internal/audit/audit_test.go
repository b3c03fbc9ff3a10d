package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hubops/pkg/testutil"
)

func TestPublisherStampsEvents(t *testing.T) {
	store := NewMemoryStore()
	publisher := NewPublisher(store)
	ctx := testutil.Context()

	require.NoError(t, publisher.Emit(ctx, Event{
		Action:  ActionClaimsSet,
		Subject: "arely@example.com",
	}))

	events, err := publisher.List(ctx)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, testutil.FixedTime, events[0].Timestamp)
	assert.Equal(t, "test-operator@example.com", events[0].Actor)
	assert.Equal(t, ActionClaimsSet, events[0].Action)
}

func TestPublisherKeepsExplicitStamps(t *testing.T) {
	store := NewMemoryStore()
	publisher := NewPublisher(store)
	ctx := testutil.Context()

	require.NoError(t, publisher.Emit(ctx, Event{
		Actor:   "cron",
		Action:  ActionExpenseRelinked,
		Subject: "expense-1",
	}))

	events, err := publisher.List(ctx)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "cron", events[0].Actor)
}
