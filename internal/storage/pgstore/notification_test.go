package pgstore_test

import (
	"regexp"
	"testing"
	"time"

	"github.com/abdallaazouz/handy-man-sub000/internal/models"
	"github.com/abdallaazouz/handy-man-sub000/internal/storage"
	"github.com/abdallaazouz/handy-man-sub000/internal/storage/pgstore"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var notificationColumns = []string{"id", "type", "message", "metadata", "is_read", "created_at"}

func TestCreateNotification(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	t.Run("error - insert error", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		store := pgstore.New(mock)

		mock.ExpectQuery(regexp.QuoteMeta(pgstore.InsertNotificationSQL)).
			WithArgs("task_sent", "Task 001 was sent", "{}").
			WillReturnError(assert.AnError)

		_, err = store.CreateNotification(ctx, models.Notification{
			Type: "task_sent", Message: "Task 001 was sent", Metadata: "{}",
		})

		require.Error(t, err)
		require.ErrorContains(t, err, "failed to insert notification")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success - create notification", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		store := pgstore.New(mock)

		mock.ExpectQuery(regexp.QuoteMeta(pgstore.InsertNotificationSQL)).
			WithArgs("task_sent", "Task 001 was sent", "{}").
			WillReturnRows(pgxmock.NewRows(notificationColumns).
				AddRow(int64(10), "task_sent", "Task 001 was sent", "{}", false, time.Now()))

		created, err := store.CreateNotification(ctx, models.Notification{
			Type: "task_sent", Message: "Task 001 was sent", Metadata: "{}",
		})

		require.NoError(t, err)
		assert.Equal(t, int64(10), created.ID)
		assert.False(t, created.IsRead)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestMarkNotificationRead(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	t.Run("error - notification not found", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		store := pgstore.New(mock)

		mock.ExpectExec(regexp.QuoteMeta("UPDATE notifications SET is_read = TRUE WHERE id = $1")).
			WithArgs(int64(42)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err = store.MarkNotificationRead(ctx, 42)

		require.ErrorIs(t, err, storage.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success - mark read", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		store := pgstore.New(mock)

		mock.ExpectExec(regexp.QuoteMeta("UPDATE notifications SET is_read = TRUE WHERE id = $1")).
			WithArgs(int64(10)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		require.NoError(t, store.MarkNotificationRead(ctx, 10))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestMarkAllNotificationsRead(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := pgstore.New(mock)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE notifications SET is_read = TRUE WHERE is_read = FALSE")).
		WillReturnResult(pgxmock.NewResult("UPDATE", 3))

	updated, err := store.MarkAllNotificationsRead(ctx)

	require.NoError(t, err)
	assert.Equal(t, int64(3), updated)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteNotifications(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	t.Run("success - empty id list is a no-op", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		store := pgstore.New(mock)

		deleted, err := store.DeleteNotifications(ctx, nil)

		require.NoError(t, err)
		assert.Zero(t, deleted)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success - unknown ids are ignored", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		store := pgstore.New(mock)

		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM notifications WHERE id = ANY($1)")).
			WithArgs([]int64{10, 11, 999}).
			WillReturnResult(pgxmock.NewResult("DELETE", 2))

		deleted, err := store.DeleteNotifications(ctx, []int64{10, 11, 999})

		require.NoError(t, err)
		assert.Equal(t, int64(2), deleted)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
