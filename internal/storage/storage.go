// Package storage defines the persistence contract shared by the in-memory
// and PostgreSQL backends. Both implementations must produce identical
// observable behavior; callers never see backend-specific encodings.
package storage

import (
	"context"
	"errors"

	"github.com/abdallaazouz/handy-man-sub000/internal/models"
)

var (
	// ErrNotFound is returned when a referenced record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned on unique-key violations, e.g. a duplicate
	// technician telegram ID or invoice number.
	ErrConflict = errors.New("record already exists")
)

// TaskUpdate carries a partial update for a task. Nil fields are left
// untouched; the backend refreshes the UpdatedAt timestamp on every merge.
type TaskUpdate struct {
	TaskID        *string
	TaskNumber    *string
	Title         *string
	Description   *string
	ClientName    *string
	ClientPhone   *string
	Address       *string
	MapURL        *string
	TechnicianIDs *[]int64
	Status        *models.TaskStatus
	PaymentStatus *models.PaymentStatus
	ScheduledDate *string
	StartTime     *string
	EndTime       *string
}

// TechnicianUpdate carries a partial update for a technician.
type TechnicianUpdate struct {
	TelegramID *int64
	Name       *string
	Username   *string
	Phone      *string
	Category   *string
	Area       *string
	IsActive   *bool
}

// InvoiceUpdate carries a partial update for an invoice.
type InvoiceUpdate struct {
	ClientName     *string
	Amount         *float64
	Status         *models.InvoiceStatus
	PaymentMethods *[]string
	IssueDate      *string
	DueDate        *string
	PaidDate       *string
}

// TaskStore manages task records.
type TaskStore interface {
	ListTasks(ctx context.Context) ([]models.Task, error)
	ListTasksByTechnician(ctx context.Context, technicianID int64) ([]models.Task, error)
	ListTasksByStatus(ctx context.Context, status models.TaskStatus) ([]models.Task, error)
	GetTask(ctx context.Context, id int64) (models.Task, error)
	CreateTask(ctx context.Context, task models.Task) (models.Task, error)
	UpdateTask(ctx context.Context, id int64, upd TaskUpdate) (models.Task, error)
	DeleteTask(ctx context.Context, id int64) (bool, error)
}

// TechnicianStore manages technician records.
type TechnicianStore interface {
	ListTechnicians(ctx context.Context) ([]models.Technician, error)
	GetTechnician(ctx context.Context, id int64) (models.Technician, error)
	GetTechnicianByTelegramID(ctx context.Context, telegramID int64) (models.Technician, error)
	CreateTechnician(ctx context.Context, tech models.Technician) (models.Technician, error)
	UpdateTechnician(ctx context.Context, id int64, upd TechnicianUpdate) (models.Technician, error)
	DeleteTechnician(ctx context.Context, id int64) (bool, error)
}

// InvoiceStore manages invoice records.
type InvoiceStore interface {
	ListInvoices(ctx context.Context) ([]models.Invoice, error)
	ListInvoicesByTechnician(ctx context.Context, technicianID int64) ([]models.Invoice, error)
	GetInvoice(ctx context.Context, id int64) (models.Invoice, error)
	CreateInvoice(ctx context.Context, inv models.Invoice) (models.Invoice, error)
	UpdateInvoice(ctx context.Context, id int64, upd InvoiceUpdate) (models.Invoice, error)
	DeleteInvoice(ctx context.Context, id int64) (bool, error)
}

// NotificationStore manages persisted activity records. Listing is ordered by
// creation time, newest first.
type NotificationStore interface {
	ListNotifications(ctx context.Context) ([]models.Notification, error)
	ListUnreadNotifications(ctx context.Context) ([]models.Notification, error)
	CreateNotification(ctx context.Context, n models.Notification) (models.Notification, error)
	MarkNotificationRead(ctx context.Context, id int64) error
	MarkAllNotificationsRead(ctx context.Context) (int64, error)
	DeleteNotification(ctx context.Context, id int64) (bool, error)
	DeleteNotifications(ctx context.Context, ids []int64) (int64, error)
}

// SettingsStore manages the singleton configuration rows. Get always succeeds
// after initialization; Save upserts the single logical instance.
type SettingsStore interface {
	GetBotSettings(ctx context.Context) (models.BotSettings, error)
	SaveBotSettings(ctx context.Context, s models.BotSettings) (models.BotSettings, error)
	GetSystemSettings(ctx context.Context) (models.SystemSettings, error)
	SaveSystemSettings(ctx context.Context, s models.SystemSettings) (models.SystemSettings, error)
	GetAdminProfile(ctx context.Context) (models.AdminProfile, error)
	SaveAdminProfile(ctx context.Context, p models.AdminProfile) (models.AdminProfile, error)
}

// Store is the full persistence contract consumed by the application.
type Store interface {
	TaskStore
	TechnicianStore
	InvoiceStore
	NotificationStore
	SettingsStore

	Ping(ctx context.Context) error
	Close()
}
