// Package relay implements the in-process notification broadcaster. Every
// published record is persisted first, then fanned out to live subscribers;
// push delivery is an optimization, the stored notification is the source of
// truth.
package relay

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/abdallaazouz/handy-man-sub000/internal/models"
	"github.com/abdallaazouz/handy-man-sub000/internal/storage"
)

// Listener receives each persisted notification. Listeners run on their own
// goroutines; a panicking listener is recovered and logged without affecting
// the other subscribers or the persisted record.
type Listener func(n models.Notification)

type subscriber struct {
	id int64
	fn Listener
}

// Relay persists notifications and broadcasts them to subscribers. The
// subscriber list is process-lifetime state; it is not persisted.
type Relay struct {
	store storage.NotificationStore
	log   *slog.Logger

	mu     sync.Mutex
	nextID int64
	subs   []subscriber
}

// New creates a Relay backed by the given notification store.
func New(store storage.NotificationStore, log *slog.Logger) *Relay {
	return &Relay{store: store, log: log}
}

// Subscribe registers a listener and returns its subscription id.
func (r *Relay) Subscribe(fn Listener) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	r.subs = append(r.subs, subscriber{id: r.nextID, fn: fn})
	return r.nextID
}

// Unsubscribe removes the listener with the given subscription id. Unknown
// ids are ignored.
func (r *Relay) Unsubscribe(id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, sub := range r.subs {
		if sub.id == id {
			r.subs = append(r.subs[:i], r.subs[i+1:]...)
			return
		}
	}
}

// Publish persists the notification with a server-assigned timestamp and then
// fans it out to every current subscriber asynchronously. The record is
// durably stored before any fan-out begins; a failing subscriber never fails
// the write.
func (r *Relay) Publish(ctx context.Context, n models.Notification) (models.Notification, error) {
	persisted, err := r.store.CreateNotification(ctx, n)
	if err != nil {
		return models.Notification{}, fmt.Errorf("failed to persist notification: %w", err)
	}

	r.mu.Lock()
	subs := make([]subscriber, len(r.subs))
	copy(subs, r.subs)
	r.mu.Unlock()

	for _, sub := range subs {
		go r.deliver(sub, persisted)
	}

	return persisted, nil
}

// deliver invokes a single listener, recovering from panics so one bad
// subscriber cannot block delivery to the rest.
func (r *Relay) deliver(sub subscriber, n models.Notification) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("notification listener panicked",
				"subscription", sub.id, "notification", n.ID, "panic", rec)
		}
	}()
	sub.fn(n)
}

// LogActivity records an activity-log entry: a notification whose type is the
// given tag prefixed with "activity_".
func (r *Relay) LogActivity(ctx context.Context, activityType, message, metadata string) error {
	_, err := r.Publish(ctx, models.Notification{
		Type:     "activity_" + activityType,
		Message:  message,
		Metadata: metadata,
	})
	return err
}
