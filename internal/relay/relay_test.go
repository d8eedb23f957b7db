package relay_test

import (
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/abdallaazouz/handy-man-sub000/internal/models"
	"github.com/abdallaazouz/handy-man-sub000/internal/relay"
	"github.com/abdallaazouz/handy-man-sub000/internal/storage/memstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPublish_PersistsBeforeFanout(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	store := memstore.New()
	rel := relay.New(store, discardLogger())

	received := make(chan models.Notification, 1)
	rel.Subscribe(func(n models.Notification) {
		received <- n
	})

	persisted, err := rel.Publish(ctx, models.Notification{Type: "task_created", Message: "Task 001 was created"})
	require.NoError(t, err)
	assert.Positive(t, persisted.ID)

	select {
	case n := <-received:
		// The delivered record is the persisted one, id and timestamp included.
		assert.Equal(t, persisted.ID, n.ID)
		assert.Equal(t, "task_created", n.Type)
	case <-time.After(time.Second):
		t.Fatal("subscriber never received the notification")
	}

	stored, err := store.ListNotifications(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, persisted.ID, stored[0].ID)
}

func TestPublish_PanickingSubscriberDoesNotAffectOthers(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	rel := relay.New(memstore.New(), discardLogger())

	rel.Subscribe(func(models.Notification) {
		panic("bad subscriber")
	})

	received := make(chan models.Notification, 1)
	rel.Subscribe(func(n models.Notification) {
		received <- n
	})

	persisted, err := rel.Publish(ctx, models.Notification{Type: "task_sent", Message: "Task 001 was sent"})
	require.NoError(t, err)
	assert.Positive(t, persisted.ID)

	select {
	case n := <-received:
		assert.Equal(t, persisted.ID, n.ID)
	case <-time.After(time.Second):
		t.Fatal("healthy subscriber was starved by a panicking one")
	}
}

func TestUnsubscribe_StopsDelivery(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	rel := relay.New(memstore.New(), discardLogger())

	var mu sync.Mutex
	var count int
	id := rel.Subscribe(func(models.Notification) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	_, err := rel.Publish(ctx, models.Notification{Type: "task_created", Message: "one"})
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return count == 1
	}, time.Second, 10*time.Millisecond)

	rel.Unsubscribe(id)

	_, err = rel.Publish(ctx, models.Notification{Type: "task_created", Message: "two"})
	require.NoError(t, err)

	// Give any stray delivery a moment to land before asserting.
	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, count)
}

func TestLogActivity_PrefixesType(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	store := memstore.New()
	rel := relay.New(store, discardLogger())

	require.NoError(t, rel.LogActivity(ctx, "task", "Task 001 accepted by Bob", `{"taskId":1}`))

	stored, err := store.ListNotifications(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "activity_task", stored[0].Type)
	assert.Equal(t, `{"taskId":1}`, stored[0].Metadata)
}
