package pgstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/abdallaazouz/handy-man-sub000/internal/models"
	"github.com/abdallaazouz/handy-man-sub000/internal/storage"
	"github.com/jackc/pgx/v5"
)

const technicianColumns = `id, telegram_id, name, username, phone, category, area, is_active, joined_at`

// SelectTechniciansSQL lists all technicians. Exported for tests.
const SelectTechniciansSQL = `SELECT ` + technicianColumns + ` FROM technicians ORDER BY id`

// InsertTechnicianSQL creates a technician and returns the stored row. Exported for tests.
const InsertTechnicianSQL = `
	INSERT INTO technicians (telegram_id, name, username, phone, category, area, is_active)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	RETURNING ` + technicianColumns

func scanTechnician(row pgx.Row) (models.Technician, error) {
	var tech models.Technician
	err := row.Scan(
		&tech.ID, &tech.TelegramID, &tech.Name, &tech.Username, &tech.Phone,
		&tech.Category, &tech.Area, &tech.IsActive, &tech.JoinedAt,
	)
	return tech, err
}

// ListTechnicians retrieves all technicians ordered by id.
func (s *Store) ListTechnicians(ctx context.Context) ([]models.Technician, error) {
	rows, err := s.db.Query(ctx, SelectTechniciansSQL)
	if err != nil {
		return nil, fmt.Errorf("failed to query technicians: %w", err)
	}
	defer rows.Close()

	var techs []models.Technician
	for rows.Next() {
		tech, errScan := scanTechnician(rows)
		if errScan != nil {
			return nil, fmt.Errorf("failed to scan technician row: %w", errScan)
		}
		techs = append(techs, tech)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read technician rows: %w", err)
	}

	return techs, nil
}

// GetTechnician retrieves a technician by internal id.
func (s *Store) GetTechnician(ctx context.Context, id int64) (models.Technician, error) {
	query := `SELECT ` + technicianColumns + ` FROM technicians WHERE id = $1`
	tech, err := scanTechnician(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Technician{}, storage.ErrNotFound
		}
		return models.Technician{}, fmt.Errorf("failed to query technician %d: %w", id, err)
	}
	return tech, nil
}

// GetTechnicianByTelegramID retrieves a technician by their Telegram chat ID.
func (s *Store) GetTechnicianByTelegramID(ctx context.Context, telegramID int64) (models.Technician, error) {
	query := `SELECT ` + technicianColumns + ` FROM technicians WHERE telegram_id = $1`
	tech, err := scanTechnician(s.db.QueryRow(ctx, query, telegramID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Technician{}, storage.ErrNotFound
		}
		return models.Technician{}, fmt.Errorf("failed to query technician by telegram id %d: %w", telegramID, err)
	}
	return tech, nil
}

// CreateTechnician inserts a new technician. A duplicate Telegram ID surfaces
// as storage.ErrConflict.
func (s *Store) CreateTechnician(ctx context.Context, tech models.Technician) (models.Technician, error) {
	created, err := scanTechnician(s.db.QueryRow(ctx, InsertTechnicianSQL,
		tech.TelegramID, tech.Name, tech.Username, tech.Phone, tech.Category, tech.Area, tech.IsActive,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return models.Technician{}, storage.ErrConflict
		}
		return models.Technician{}, fmt.Errorf("failed to insert technician: %w", err)
	}
	return created, nil
}

// UpdateTechnician merges the non-nil fields of upd into the stored technician.
func (s *Store) UpdateTechnician(ctx context.Context, id int64, upd storage.TechnicianUpdate) (models.Technician, error) {
	builder := psql.Update("technicians")

	touched := false
	if upd.TelegramID != nil {
		builder = builder.Set("telegram_id", *upd.TelegramID)
		touched = true
	}
	if upd.Name != nil {
		builder = builder.Set("name", *upd.Name)
		touched = true
	}
	if upd.Username != nil {
		builder = builder.Set("username", *upd.Username)
		touched = true
	}
	if upd.Phone != nil {
		builder = builder.Set("phone", *upd.Phone)
		touched = true
	}
	if upd.Category != nil {
		builder = builder.Set("category", *upd.Category)
		touched = true
	}
	if upd.Area != nil {
		builder = builder.Set("area", *upd.Area)
		touched = true
	}
	if upd.IsActive != nil {
		builder = builder.Set("is_active", *upd.IsActive)
		touched = true
	}
	if !touched {
		return s.GetTechnician(ctx, id)
	}

	query, args, err := builder.Where(squirrel.Eq{"id": id}).Suffix("RETURNING " + technicianColumns).ToSql()
	if err != nil {
		return models.Technician{}, fmt.Errorf("failed to build technician update: %w", err)
	}

	tech, err := scanTechnician(s.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Technician{}, storage.ErrNotFound
		}
		if isUniqueViolation(err) {
			return models.Technician{}, storage.ErrConflict
		}
		return models.Technician{}, fmt.Errorf("failed to update technician %d: %w", id, err)
	}
	return tech, nil
}

// DeleteTechnician removes the technician and reports whether a row was deleted.
func (s *Store) DeleteTechnician(ctx context.Context, id int64) (bool, error) {
	cmdTag, err := s.db.Exec(ctx, "DELETE FROM technicians WHERE id = $1", id)
	if err != nil {
		return false, fmt.Errorf("failed to delete technician %d: %w", id, err)
	}
	return cmdTag.RowsAffected() > 0, nil
}
