package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitClassifiesAndStamps(t *testing.T) {
	fixed := time.Date(2025, 5, 20, 8, 0, 0, 0, time.UTC)
	p := NewPublisher(4, WithPublisherClock(func() time.Time { return fixed }))

	err := p.Emit(context.Background(), Event{
		Action:  ActionAdminProvisioned,
		ActorID: "op-1",
	})
	require.NoError(t, err)

	got := <-p.Inbox()
	assert.Equal(t, CategoryCompliance, got.Category)
	assert.Equal(t, fixed, got.OccurredAt)
}

func TestEmitDoesNotBlockWhenInboxFull(t *testing.T) {
	p := NewPublisher(1)
	ctx := context.Background()

	require.NoError(t, p.Emit(ctx, Event{Action: ActionAuthFailed}))

	done := make(chan struct{})
	go func() {
		_ = p.Emit(ctx, Event{Action: ActionAuthFailed})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Emit blocked on a full inbox")
	}
}

func TestCategoryOf(t *testing.T) {
	assert.Equal(t, CategorySecurity, CategoryOf(ActionForcedSignOut))
	assert.Equal(t, CategoryCompliance, CategoryOf(ActionKycStatusChanged))
	assert.Equal(t, CategoryOperations, CategoryOf(Action("unknown_action")))
}

func TestMemoryStoreListRecent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	for _, action := range []Action{ActionOperatorSignedIn, ActionAdminProvisioned, ActionOperatorSignedOut} {
		require.NoError(t, store.Append(ctx, Event{Action: action}))
	}

	events, err := store.ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, ActionAdminProvisioned, events[0].Action)
	assert.Equal(t, ActionOperatorSignedOut, events[1].Action)

	all, err := store.ListRecent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
