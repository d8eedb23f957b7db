package pgstore_test

import (
	"regexp"
	"testing"
	"time"

	"github.com/abdallaazouz/handy-man-sub000/internal/models"
	"github.com/abdallaazouz/handy-man-sub000/internal/storage"
	"github.com/abdallaazouz/handy-man-sub000/internal/storage/pgstore"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var taskColumns = []string{
	"id", "task_code", "task_number", "title", "description", "client_name", "client_phone",
	"address", "map_url", "technician_ids", "status", "payment_status", "scheduled_date",
	"start_time", "end_time", "created_at", "updated_at",
}

func taskRow(now time.Time) *pgxmock.Rows {
	return pgxmock.NewRows(taskColumns).
		AddRow(int64(1), "T-1001", "001", "Fix boiler", "No hot water", "Alice", "+100200300",
			"12 Main St", "https://maps.example/12", []int64{3, 7}, models.StatusPending,
			models.PaymentOnDemand, "2026-09-01", "09:00", "11:00", now, now)
}

func TestListTasks(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	t.Run("error - query tasks", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		store := pgstore.New(mock)

		mock.ExpectQuery(regexp.QuoteMeta(pgstore.SelectTasksSQL)).
			WillReturnError(assert.AnError)

		_, err = store.ListTasks(ctx)

		require.Error(t, err)
		require.ErrorContains(t, err, "failed to query tasks")
		require.ErrorIs(t, err, assert.AnError)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error - scan task row", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		store := pgstore.New(mock)

		mock.ExpectQuery(regexp.QuoteMeta(pgstore.SelectTasksSQL)).
			WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("invalid_id"))

		_, err = store.ListTasks(ctx)

		require.Error(t, err)
		require.ErrorContains(t, err, "failed to scan task row")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error - rows error", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		store := pgstore.New(mock)

		mock.ExpectQuery(regexp.QuoteMeta(pgstore.SelectTasksSQL)).
			WillReturnRows(taskRow(time.Now()).RowError(1, assert.AnError))

		_, err = store.ListTasks(ctx)

		require.Error(t, err)
		require.ErrorContains(t, err, "failed to read task rows")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success - list tasks", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		store := pgstore.New(mock)
		now := time.Now()

		mock.ExpectQuery(regexp.QuoteMeta(pgstore.SelectTasksSQL)).
			WillReturnRows(taskRow(now))

		tasks, err := store.ListTasks(ctx)

		require.NoError(t, err)
		require.Len(t, tasks, 1)
		assert.Equal(t, int64(1), tasks[0].ID)
		assert.Equal(t, "T-1001", tasks[0].TaskID)
		assert.Equal(t, []int64{3, 7}, tasks[0].TechnicianIDs)
		assert.Equal(t, models.StatusPending, tasks[0].Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGetTask(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	t.Run("error - task not found", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		store := pgstore.New(mock)

		mock.ExpectQuery(regexp.QuoteMeta(pgstore.SelectTaskByIDSQL)).
			WithArgs(int64(42)).
			WillReturnError(pgx.ErrNoRows)

		_, err = store.GetTask(ctx, 42)

		require.ErrorIs(t, err, storage.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error - query error", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		store := pgstore.New(mock)

		mock.ExpectQuery(regexp.QuoteMeta(pgstore.SelectTaskByIDSQL)).
			WithArgs(int64(42)).
			WillReturnError(assert.AnError)

		_, err = store.GetTask(ctx, 42)

		require.Error(t, err)
		require.ErrorContains(t, err, "failed to query task")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success - get task", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		store := pgstore.New(mock)
		now := time.Now()

		mock.ExpectQuery(regexp.QuoteMeta(pgstore.SelectTaskByIDSQL)).
			WithArgs(int64(1)).
			WillReturnRows(taskRow(now))

		task, err := store.GetTask(ctx, 1)

		require.NoError(t, err)
		assert.Equal(t, "Fix boiler", task.Title)
		assert.Equal(t, "Alice", task.ClientName)
		assert.Equal(t, []int64{3, 7}, task.TechnicianIDs)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCreateTask(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	t.Run("error - insert error", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		store := pgstore.New(mock)

		mock.ExpectQuery(regexp.QuoteMeta(pgstore.InsertTaskSQL)).
			WillReturnError(assert.AnError)

		_, err = store.CreateTask(ctx, models.Task{Title: "Fix boiler"})

		require.Error(t, err)
		require.ErrorContains(t, err, "failed to insert task")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success - nil technician set is stored as empty array", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		store := pgstore.New(mock)
		now := time.Now()

		mock.ExpectQuery(regexp.QuoteMeta(pgstore.InsertTaskSQL)).
			WithArgs("T-1001", "001", "Fix boiler", "No hot water", "Alice", "+100200300",
				"12 Main St", "https://maps.example/12", []int64{}, models.StatusPending,
				models.PaymentOnDemand, "2026-09-01", "09:00", "11:00").
			WillReturnRows(taskRow(now))

		created, err := store.CreateTask(ctx, models.Task{
			TaskID:        "T-1001",
			TaskNumber:    "001",
			Title:         "Fix boiler",
			Description:   "No hot water",
			ClientName:    "Alice",
			ClientPhone:   "+100200300",
			Address:       "12 Main St",
			MapURL:        "https://maps.example/12",
			Status:        models.StatusPending,
			PaymentStatus: models.PaymentOnDemand,
			ScheduledDate: "2026-09-01",
			StartTime:     "09:00",
			EndTime:       "11:00",
		})

		require.NoError(t, err)
		assert.Equal(t, int64(1), created.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUpdateTask(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	status := models.StatusSent

	t.Run("error - task not found", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		store := pgstore.New(mock)

		mock.ExpectQuery(`UPDATE tasks SET updated_at = \$1, status = \$2 WHERE id = \$3`).
			WithArgs(pgxmock.AnyArg(), status, int64(42)).
			WillReturnError(pgx.ErrNoRows)

		_, err = store.UpdateTask(ctx, 42, storage.TaskUpdate{Status: &status})

		require.ErrorIs(t, err, storage.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success - status only update touches no other column", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		store := pgstore.New(mock)
		now := time.Now()

		mock.ExpectQuery(`UPDATE tasks SET updated_at = \$1, status = \$2 WHERE id = \$3`).
			WithArgs(pgxmock.AnyArg(), status, int64(1)).
			WillReturnRows(taskRow(now))

		updated, err := store.UpdateTask(ctx, 1, storage.TaskUpdate{Status: &status})

		require.NoError(t, err)
		assert.Equal(t, int64(1), updated.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDeleteTask(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	t.Run("error - exec error", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		store := pgstore.New(mock)

		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM tasks WHERE id = $1")).
			WithArgs(int64(1)).
			WillReturnError(assert.AnError)

		_, err = store.DeleteTask(ctx, 1)

		require.Error(t, err)
		require.ErrorContains(t, err, "failed to delete task")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success - missing task reports false without error", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		store := pgstore.New(mock)

		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM tasks WHERE id = $1")).
			WithArgs(int64(42)).
			WillReturnResult(pgxmock.NewResult("DELETE", 0))

		deleted, err := store.DeleteTask(ctx, 42)

		require.NoError(t, err)
		assert.False(t, deleted)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success - delete task", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		store := pgstore.New(mock)

		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM tasks WHERE id = $1")).
			WithArgs(int64(1)).
			WillReturnResult(pgxmock.NewResult("DELETE", 1))

		deleted, err := store.DeleteTask(ctx, 1)

		require.NoError(t, err)
		assert.True(t, deleted)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
