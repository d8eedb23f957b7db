package pgstore_test

import (
	"regexp"
	"testing"
	"time"

	"github.com/abdallaazouz/handy-man-sub000/internal/models"
	"github.com/abdallaazouz/handy-man-sub000/internal/storage"
	"github.com/abdallaazouz/handy-man-sub000/internal/storage/pgstore"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var technicianColumns = []string{
	"id", "telegram_id", "name", "username", "phone", "category", "area", "is_active", "joined_at",
}

func technicianRow(now time.Time) *pgxmock.Rows {
	return pgxmock.NewRows(technicianColumns).
		AddRow(int64(3), int64(987654), "Bob", "bob_fixes", "+100400500", "plumbing", "North", true, now)
}

func TestListTechnicians(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	t.Run("error - query technicians", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		store := pgstore.New(mock)

		mock.ExpectQuery(regexp.QuoteMeta(pgstore.SelectTechniciansSQL)).
			WillReturnError(assert.AnError)

		_, err = store.ListTechnicians(ctx)

		require.Error(t, err)
		require.ErrorContains(t, err, "failed to query technicians")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success - list technicians", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		store := pgstore.New(mock)

		mock.ExpectQuery(regexp.QuoteMeta(pgstore.SelectTechniciansSQL)).
			WillReturnRows(technicianRow(time.Now()))

		techs, err := store.ListTechnicians(ctx)

		require.NoError(t, err)
		require.Len(t, techs, 1)
		assert.Equal(t, int64(987654), techs[0].TelegramID)
		assert.Equal(t, "Bob", techs[0].Name)
		assert.True(t, techs[0].IsActive)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGetTechnicianByTelegramID(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	t.Run("error - technician not found", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		store := pgstore.New(mock)

		mock.ExpectQuery(`SELECT .+ FROM technicians WHERE telegram_id = \$1`).
			WithArgs(int64(111)).
			WillReturnError(pgx.ErrNoRows)

		_, err = store.GetTechnicianByTelegramID(ctx, 111)

		require.ErrorIs(t, err, storage.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success - get technician", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		store := pgstore.New(mock)

		mock.ExpectQuery(`SELECT .+ FROM technicians WHERE telegram_id = \$1`).
			WithArgs(int64(987654)).
			WillReturnRows(technicianRow(time.Now()))

		tech, err := store.GetTechnicianByTelegramID(ctx, 987654)

		require.NoError(t, err)
		assert.Equal(t, int64(3), tech.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCreateTechnician(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	t.Run("error - duplicate telegram id", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		store := pgstore.New(mock)

		mock.ExpectQuery(regexp.QuoteMeta(pgstore.InsertTechnicianSQL)).
			WillReturnError(&pgconn.PgError{Code: "23505"})

		_, err = store.CreateTechnician(ctx, models.Technician{TelegramID: 987654, Name: "Bob"})

		require.ErrorIs(t, err, storage.ErrConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error - insert error", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		store := pgstore.New(mock)

		mock.ExpectQuery(regexp.QuoteMeta(pgstore.InsertTechnicianSQL)).
			WillReturnError(assert.AnError)

		_, err = store.CreateTechnician(ctx, models.Technician{TelegramID: 987654, Name: "Bob"})

		require.Error(t, err)
		require.ErrorContains(t, err, "failed to insert technician")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success - create technician", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		store := pgstore.New(mock)

		mock.ExpectQuery(regexp.QuoteMeta(pgstore.InsertTechnicianSQL)).
			WithArgs(int64(987654), "Bob", "bob_fixes", "+100400500", "plumbing", "North", true).
			WillReturnRows(technicianRow(time.Now()))

		created, err := store.CreateTechnician(ctx, models.Technician{
			TelegramID: 987654,
			Name:       "Bob",
			Username:   "bob_fixes",
			Phone:      "+100400500",
			Category:   "plumbing",
			Area:       "North",
			IsActive:   true,
		})

		require.NoError(t, err)
		assert.Equal(t, int64(3), created.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUpdateTechnician(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	t.Run("success - empty update falls back to a plain read", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		store := pgstore.New(mock)

		mock.ExpectQuery(`SELECT .+ FROM technicians WHERE id = \$1`).
			WithArgs(int64(3)).
			WillReturnRows(technicianRow(time.Now()))

		tech, err := store.UpdateTechnician(ctx, 3, storage.TechnicianUpdate{})

		require.NoError(t, err)
		assert.Equal(t, "Bob", tech.Name)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error - duplicate telegram id", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		store := pgstore.New(mock)
		telegramID := int64(111)

		mock.ExpectQuery(`UPDATE technicians SET telegram_id = \$1 WHERE id = \$2`).
			WithArgs(telegramID, int64(3)).
			WillReturnError(&pgconn.PgError{Code: "23505"})

		_, err = store.UpdateTechnician(ctx, 3, storage.TechnicianUpdate{TelegramID: &telegramID})

		require.ErrorIs(t, err, storage.ErrConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success - rename technician", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		store := pgstore.New(mock)
		name := "Robert"

		mock.ExpectQuery(`UPDATE technicians SET name = \$1 WHERE id = \$2`).
			WithArgs(name, int64(3)).
			WillReturnRows(technicianRow(time.Now()))

		_, err = store.UpdateTechnician(ctx, 3, storage.TechnicianUpdate{Name: &name})

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
