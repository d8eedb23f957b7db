package lifecycle_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/abdallaazouz/handy-man-sub000/internal/lifecycle"
	"github.com/abdallaazouz/handy-man-sub000/internal/models"
	"github.com/abdallaazouz/handy-man-sub000/internal/relay"
	"github.com/abdallaazouz/handy-man-sub000/internal/storage/memstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSender records deliveries and can be told to fail for specific chats.
type fakeSender struct {
	sentTasks  []int64
	sentInfos  []int64
	failChats  map[int64]bool
	clientInfo bool
}

func (f *fakeSender) SendTask(_ context.Context, _ models.Task, tech models.Technician) error {
	if f.failChats[tech.TelegramID] {
		return assert.AnError
	}
	f.sentTasks = append(f.sentTasks, tech.TelegramID)
	return nil
}

func (f *fakeSender) SendClientInfo(_ context.Context, _ models.Task, tech models.Technician) error {
	if f.failChats[tech.TelegramID] {
		return assert.AnError
	}
	f.sentInfos = append(f.sentInfos, tech.TelegramID)
	f.clientInfo = true
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	store      *memstore.Store
	controller *lifecycle.Controller
	sender     *fakeSender
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memstore.New()
	logger := discardLogger()
	controller := lifecycle.New(store, relay.New(store, logger), logger)
	sender := &fakeSender{failChats: map[int64]bool{}}
	controller.BindSender(sender)
	return &fixture{store: store, controller: controller, sender: sender}
}

func (f *fixture) addTechnician(t *testing.T, telegramID int64, name string) models.Technician {
	t.Helper()
	tech, err := f.store.CreateTechnician(t.Context(), models.Technician{
		TelegramID: telegramID, Name: name, IsActive: true,
	})
	require.NoError(t, err)
	return tech
}

func (f *fixture) addTask(t *testing.T, status models.TaskStatus, technicianIDs ...int64) models.Task {
	t.Helper()
	task, err := f.store.CreateTask(t.Context(), models.Task{
		TaskID:        "T-1001",
		TaskNumber:    "001",
		Title:         "Fix boiler",
		TechnicianIDs: technicianIDs,
		Status:        status,
		PaymentStatus: models.PaymentOnDemand,
	})
	require.NoError(t, err)
	return task
}

func (f *fixture) notificationsOfType(t *testing.T, notifType string) []models.Notification {
	t.Helper()
	all, err := f.store.ListNotifications(t.Context())
	require.NoError(t, err)
	var matched []models.Notification
	for _, n := range all {
		if n.Type == notifType {
			matched = append(matched, n)
		}
	}
	return matched
}

func TestDispatch(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	t.Run("error - no technicians assigned, nothing is sent", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		task := f.addTask(t, models.StatusPending)

		_, err := f.controller.Dispatch(ctx, task.ID)

		require.ErrorIs(t, err, lifecycle.ErrNoTechnicians)
		assert.Empty(t, f.sender.sentTasks)

		unchanged, err := f.store.GetTask(ctx, task.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusPending, unchanged.Status)
	})

	t.Run("error - already sent task cannot be dispatched again", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		tech := f.addTechnician(t, 111, "Bob")
		task := f.addTask(t, models.StatusSent, tech.ID)

		_, err := f.controller.Dispatch(ctx, task.ID)

		require.ErrorIs(t, err, lifecycle.ErrInvalidTransition)
		assert.Empty(t, f.sender.sentTasks)
	})

	t.Run("error - unknown task", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)

		_, err := f.controller.Dispatch(ctx, 42)

		require.Error(t, err)
	})

	t.Run("error - every delivery failed", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		tech := f.addTechnician(t, 111, "Bob")
		f.sender.failChats[111] = true
		task := f.addTask(t, models.StatusPending, tech.ID)

		_, err := f.controller.Dispatch(ctx, task.ID)

		require.ErrorIs(t, err, lifecycle.ErrSendFailed)

		unchanged, err := f.store.GetTask(ctx, task.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusPending, unchanged.Status)
	})

	t.Run("success - partial delivery still marks the task sent", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		bob := f.addTechnician(t, 111, "Bob")
		carol := f.addTechnician(t, 222, "Carol")
		f.sender.failChats[222] = true
		task := f.addTask(t, models.StatusPending, bob.ID, carol.ID)

		updated, err := f.controller.Dispatch(ctx, task.ID)

		require.NoError(t, err)
		assert.Equal(t, models.StatusSent, updated.Status)
		assert.Equal(t, []int64{111}, f.sender.sentTasks)
		assert.Len(t, f.notificationsOfType(t, "task_sent"), 1)
	})

	t.Run("error - inactive technicians are never messaged", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		tech, err := f.store.CreateTechnician(ctx, models.Technician{
			TelegramID: 111, Name: "Bob", IsActive: false,
		})
		require.NoError(t, err)
		task := f.addTask(t, models.StatusPending, tech.ID)

		_, err = f.controller.Dispatch(ctx, task.ID)

		require.ErrorIs(t, err, lifecycle.ErrSendFailed)
		assert.Empty(t, f.sender.sentTasks)

		unchanged, err := f.store.GetTask(ctx, task.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusPending, unchanged.Status)
	})

	t.Run("success - only active technicians receive the dispatch", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		bob := f.addTechnician(t, 111, "Bob")
		carol, err := f.store.CreateTechnician(ctx, models.Technician{
			TelegramID: 222, Name: "Carol", IsActive: false,
		})
		require.NoError(t, err)
		task := f.addTask(t, models.StatusPending, bob.ID, carol.ID)

		updated, err := f.controller.Dispatch(ctx, task.ID)

		require.NoError(t, err)
		assert.Equal(t, models.StatusSent, updated.Status)
		assert.Equal(t, []int64{111}, f.sender.sentTasks)
	})

	t.Run("success - rejected task can be re-dispatched", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		tech := f.addTechnician(t, 111, "Bob")
		task := f.addTask(t, models.StatusRejected, tech.ID)

		updated, err := f.controller.Dispatch(ctx, task.ID)

		require.NoError(t, err)
		assert.Equal(t, models.StatusSent, updated.Status)
	})
}

func TestAcceptReject(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	t.Run("success - sent task is accepted with one notification", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		tech := f.addTechnician(t, 111, "Bob")
		task := f.addTask(t, models.StatusSent, tech.ID)

		updated, err := f.controller.Accept(ctx, task.ID, tech)

		require.NoError(t, err)
		assert.Equal(t, models.StatusAccepted, updated.Status)
		// Payment status is untouched by lifecycle transitions.
		assert.Equal(t, models.PaymentOnDemand, updated.PaymentStatus)
		assert.Len(t, f.notificationsOfType(t, "task_accepted"), 1)
		assert.Len(t, f.notificationsOfType(t, "activity_task"), 1)
	})

	t.Run("success - sent task is rejected", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		tech := f.addTechnician(t, 111, "Bob")
		task := f.addTask(t, models.StatusSent, tech.ID)

		updated, err := f.controller.Reject(ctx, task.ID, tech)

		require.NoError(t, err)
		assert.Equal(t, models.StatusRejected, updated.Status)
		assert.Len(t, f.notificationsOfType(t, "task_rejected"), 1)
	})

	t.Run("error - pending task cannot be accepted", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		tech := f.addTechnician(t, 111, "Bob")
		task := f.addTask(t, models.StatusPending, tech.ID)

		_, err := f.controller.Accept(ctx, task.ID, tech)

		require.ErrorIs(t, err, lifecycle.ErrInvalidTransition)
	})

	t.Run("error - completed task cannot be rejected", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		tech := f.addTechnician(t, 111, "Bob")
		task := f.addTask(t, models.StatusCompleted, tech.ID)

		_, err := f.controller.Reject(ctx, task.ID, tech)

		require.ErrorIs(t, err, lifecycle.ErrInvalidTransition)
	})
}

func TestComplete(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	t.Run("success - accepted task is completed", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		tech := f.addTechnician(t, 111, "Bob")
		task := f.addTask(t, models.StatusAccepted, tech.ID)

		updated, err := f.controller.Complete(ctx, task.ID, tech)

		require.NoError(t, err)
		assert.Equal(t, models.StatusCompleted, updated.Status)
		assert.Len(t, f.notificationsOfType(t, "task_completed"), 1)
	})

	t.Run("error - pending task cannot be completed", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		tech := f.addTechnician(t, 111, "Bob")
		task := f.addTask(t, models.StatusPending, tech.ID)

		_, err := f.controller.Complete(ctx, task.ID, tech)

		require.ErrorIs(t, err, lifecycle.ErrInvalidTransition)
	})

	t.Run("error - completing twice fails the second time", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		tech := f.addTechnician(t, 111, "Bob")
		task := f.addTask(t, models.StatusSent, tech.ID)

		_, err := f.controller.Complete(ctx, task.ID, tech)
		require.NoError(t, err)

		_, err = f.controller.Complete(ctx, task.ID, tech)
		require.ErrorIs(t, err, lifecycle.ErrInvalidTransition)
	})
}

func TestSendClientInfo(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	t.Run("success - client info send does not change status", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		tech := f.addTechnician(t, 111, "Bob")
		task := f.addTask(t, models.StatusSent, tech.ID)

		require.NoError(t, f.controller.SendClientInfo(ctx, task.ID, tech.ID))

		assert.True(t, f.sender.clientInfo)
		unchanged, err := f.store.GetTask(ctx, task.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusSent, unchanged.Status)
		assert.Len(t, f.notificationsOfType(t, "client_info_sent"), 1)
	})

	t.Run("error - no technicians assigned", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		tech := f.addTechnician(t, 111, "Bob")
		task := f.addTask(t, models.StatusPending)

		err := f.controller.SendClientInfo(ctx, task.ID, tech.ID)

		require.ErrorIs(t, err, lifecycle.ErrNoTechnicians)
	})
}

func TestDispatch_WithoutSender(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	store := memstore.New()
	logger := discardLogger()
	controller := lifecycle.New(store, relay.New(store, logger), logger)

	tech, err := store.CreateTechnician(ctx, models.Technician{TelegramID: 111, Name: "Bob", IsActive: true})
	require.NoError(t, err)
	task, err := store.CreateTask(ctx, models.Task{
		Title: "Fix boiler", TechnicianIDs: []int64{tech.ID}, Status: models.StatusPending,
	})
	require.NoError(t, err)

	_, err = controller.Dispatch(ctx, task.ID)

	require.ErrorIs(t, err, lifecycle.ErrNoSender)
}
