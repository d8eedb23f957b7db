package pgstore

import (
	"context"
	"fmt"

	"github.com/abdallaazouz/handy-man-sub000/internal/models"
	"github.com/abdallaazouz/handy-man-sub000/internal/storage"
	"github.com/jackc/pgx/v5"
)

const notificationColumns = `id, type, message, metadata, is_read, created_at`

// SelectNotificationsSQL lists notifications, newest first. Exported for tests.
const SelectNotificationsSQL = `SELECT ` + notificationColumns + ` FROM notifications ORDER BY created_at DESC, id DESC`

// InsertNotificationSQL creates a notification and returns the stored row. Exported for tests.
const InsertNotificationSQL = `
	INSERT INTO notifications (type, message, metadata)
	VALUES ($1, $2, $3)
	RETURNING ` + notificationColumns

func scanNotification(row pgx.Row) (models.Notification, error) {
	var n models.Notification
	err := row.Scan(&n.ID, &n.Type, &n.Message, &n.Metadata, &n.IsRead, &n.CreatedAt)
	return n, err
}

func (s *Store) queryNotifications(ctx context.Context, query string, args ...any) ([]models.Notification, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	var notifs []models.Notification
	for rows.Next() {
		n, errScan := scanNotification(rows)
		if errScan != nil {
			return nil, fmt.Errorf("failed to scan notification row: %w", errScan)
		}
		notifs = append(notifs, n)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read notification rows: %w", err)
	}

	return notifs, nil
}

// ListNotifications retrieves all notifications, newest first.
func (s *Store) ListNotifications(ctx context.Context) ([]models.Notification, error) {
	return s.queryNotifications(ctx, SelectNotificationsSQL)
}

// ListUnreadNotifications retrieves unread notifications, newest first.
func (s *Store) ListUnreadNotifications(ctx context.Context) ([]models.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE is_read = FALSE ORDER BY created_at DESC, id DESC`
	return s.queryNotifications(ctx, query)
}

// CreateNotification inserts a new notification; the creation timestamp is
// assigned by the database.
func (s *Store) CreateNotification(ctx context.Context, n models.Notification) (models.Notification, error) {
	created, err := scanNotification(s.db.QueryRow(ctx, InsertNotificationSQL, n.Type, n.Message, n.Metadata))
	if err != nil {
		return models.Notification{}, fmt.Errorf("failed to insert notification: %w", err)
	}
	return created, nil
}

// MarkNotificationRead flips the is_read flag of one notification.
func (s *Store) MarkNotificationRead(ctx context.Context, id int64) error {
	cmdTag, err := s.db.Exec(ctx, "UPDATE notifications SET is_read = TRUE WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to mark notification %d read: %w", id, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// MarkAllNotificationsRead flips the is_read flag of every unread notification.
func (s *Store) MarkAllNotificationsRead(ctx context.Context) (int64, error) {
	cmdTag, err := s.db.Exec(ctx, "UPDATE notifications SET is_read = TRUE WHERE is_read = FALSE")
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return cmdTag.RowsAffected(), nil
}

// DeleteNotification removes one notification and reports whether a row was deleted.
func (s *Store) DeleteNotification(ctx context.Context, id int64) (bool, error) {
	cmdTag, err := s.db.Exec(ctx, "DELETE FROM notifications WHERE id = $1", id)
	if err != nil {
		return false, fmt.Errorf("failed to delete notification %d: %w", id, err)
	}
	return cmdTag.RowsAffected() > 0, nil
}

// DeleteNotifications removes the given notifications, ignoring unknown ids.
func (s *Store) DeleteNotifications(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	cmdTag, err := s.db.Exec(ctx, "DELETE FROM notifications WHERE id = ANY($1)", ids)
	if err != nil {
		return 0, fmt.Errorf("failed to delete notifications: %w", err)
	}
	return cmdTag.RowsAffected(), nil
}
