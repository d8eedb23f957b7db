package pgstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/abdallaazouz/handy-man-sub000/internal/models"
	"github.com/abdallaazouz/handy-man-sub000/internal/storage"
	"github.com/jackc/pgx/v5"
)

// taskColumns is the canonical column list scanned into models.Task.
const taskColumns = `id, task_code, task_number, title, description, client_name, client_phone,
		address, map_url, technician_ids, status, payment_status, scheduled_date, start_time,
		end_time, created_at, updated_at`

// SelectTasksSQL lists all tasks, newest first. Exported for tests.
const SelectTasksSQL = `SELECT ` + taskColumns + ` FROM tasks ORDER BY id DESC`

// SelectTaskByIDSQL fetches a single task by id. Exported for tests.
const SelectTaskByIDSQL = `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`

// InsertTaskSQL creates a task and returns the stored row. Exported for tests.
const InsertTaskSQL = `
	INSERT INTO tasks (task_code, task_number, title, description, client_name, client_phone,
		address, map_url, technician_ids, status, payment_status, scheduled_date, start_time, end_time)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	RETURNING ` + taskColumns

func scanTask(row pgx.Row) (models.Task, error) {
	var task models.Task
	err := row.Scan(
		&task.ID, &task.TaskID, &task.TaskNumber, &task.Title, &task.Description,
		&task.ClientName, &task.ClientPhone, &task.Address, &task.MapURL,
		&task.TechnicianIDs, &task.Status, &task.PaymentStatus,
		&task.ScheduledDate, &task.StartTime, &task.EndTime,
		&task.CreatedAt, &task.UpdatedAt,
	)
	return task, err
}

func (s *Store) queryTasks(ctx context.Context, query string, args ...any) ([]models.Task, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		task, errScan := scanTask(rows)
		if errScan != nil {
			return nil, fmt.Errorf("failed to scan task row: %w", errScan)
		}
		tasks = append(tasks, task)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read task rows: %w", err)
	}

	return tasks, nil
}

// ListTasks retrieves all tasks ordered by creation, newest first.
func (s *Store) ListTasks(ctx context.Context) ([]models.Task, error) {
	return s.queryTasks(ctx, SelectTasksSQL)
}

// ListTasksByTechnician retrieves tasks whose technician set contains technicianID.
func (s *Store) ListTasksByTechnician(ctx context.Context, technicianID int64) ([]models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE $1 = ANY(technician_ids) ORDER BY id DESC`
	return s.queryTasks(ctx, query, technicianID)
}

// ListTasksByStatus retrieves tasks currently in the given lifecycle state.
func (s *Store) ListTasksByStatus(ctx context.Context, status models.TaskStatus) ([]models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE status = $1 ORDER BY id DESC`
	return s.queryTasks(ctx, query, status)
}

// GetTask retrieves a single task by its id. A missing id is reported as
// storage.ErrNotFound.
func (s *Store) GetTask(ctx context.Context, id int64) (models.Task, error) {
	task, err := scanTask(s.db.QueryRow(ctx, SelectTaskByIDSQL, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Task{}, storage.ErrNotFound
		}
		return models.Task{}, fmt.Errorf("failed to query task %d: %w", id, err)
	}
	return task, nil
}

// CreateTask inserts a new task; identity and timestamps are assigned by the
// database. The technician id set is stored as a native bigint array.
func (s *Store) CreateTask(ctx context.Context, task models.Task) (models.Task, error) {
	ids := task.TechnicianIDs
	if ids == nil {
		ids = []int64{}
	}

	created, err := scanTask(s.db.QueryRow(ctx, InsertTaskSQL,
		task.TaskID, task.TaskNumber, task.Title, task.Description,
		task.ClientName, task.ClientPhone, task.Address, task.MapURL,
		ids, task.Status, task.PaymentStatus,
		task.ScheduledDate, task.StartTime, task.EndTime,
	))
	if err != nil {
		return models.Task{}, fmt.Errorf("failed to insert task: %w", err)
	}
	return created, nil
}

// UpdateTask merges the non-nil fields of upd into the stored task and
// refreshes its updated_at timestamp.
func (s *Store) UpdateTask(ctx context.Context, id int64, upd storage.TaskUpdate) (models.Task, error) {
	builder := psql.Update("tasks").Set("updated_at", time.Now())

	if upd.TaskID != nil {
		builder = builder.Set("task_code", *upd.TaskID)
	}
	if upd.TaskNumber != nil {
		builder = builder.Set("task_number", *upd.TaskNumber)
	}
	if upd.Title != nil {
		builder = builder.Set("title", *upd.Title)
	}
	if upd.Description != nil {
		builder = builder.Set("description", *upd.Description)
	}
	if upd.ClientName != nil {
		builder = builder.Set("client_name", *upd.ClientName)
	}
	if upd.ClientPhone != nil {
		builder = builder.Set("client_phone", *upd.ClientPhone)
	}
	if upd.Address != nil {
		builder = builder.Set("address", *upd.Address)
	}
	if upd.MapURL != nil {
		builder = builder.Set("map_url", *upd.MapURL)
	}
	if upd.TechnicianIDs != nil {
		builder = builder.Set("technician_ids", *upd.TechnicianIDs)
	}
	if upd.Status != nil {
		builder = builder.Set("status", *upd.Status)
	}
	if upd.PaymentStatus != nil {
		builder = builder.Set("payment_status", *upd.PaymentStatus)
	}
	if upd.ScheduledDate != nil {
		builder = builder.Set("scheduled_date", *upd.ScheduledDate)
	}
	if upd.StartTime != nil {
		builder = builder.Set("start_time", *upd.StartTime)
	}
	if upd.EndTime != nil {
		builder = builder.Set("end_time", *upd.EndTime)
	}

	query, args, err := builder.Where(squirrel.Eq{"id": id}).Suffix("RETURNING " + taskColumns).ToSql()
	if err != nil {
		return models.Task{}, fmt.Errorf("failed to build task update: %w", err)
	}

	task, err := scanTask(s.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Task{}, storage.ErrNotFound
		}
		return models.Task{}, fmt.Errorf("failed to update task %d: %w", id, err)
	}
	return task, nil
}

// DeleteTask removes the task and reports whether a row was deleted.
func (s *Store) DeleteTask(ctx context.Context, id int64) (bool, error) {
	cmdTag, err := s.db.Exec(ctx, "DELETE FROM tasks WHERE id = $1", id)
	if err != nil {
		return false, fmt.Errorf("failed to delete task %d: %w", id, err)
	}
	return cmdTag.RowsAffected() > 0, nil
}
