// Package memstore provides the in-memory storage backend. Data lives only
// for the process lifetime; the backend is used for development and tests.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/abdallaazouz/handy-man-sub000/internal/models"
	"github.com/abdallaazouz/handy-man-sub000/internal/storage"
)

// Store is a map-based implementation of storage.Store guarded by a single
// RWMutex. Returned records are copies, so callers never alias internal state.
type Store struct {
	mu sync.RWMutex

	tasks         map[int64]models.Task
	technicians   map[int64]models.Technician
	invoices      map[int64]models.Invoice
	notifications map[int64]models.Notification

	botSettings    models.BotSettings
	systemSettings models.SystemSettings
	adminProfile   models.AdminProfile

	nextTaskID         int64
	nextTechnicianID   int64
	nextInvoiceID      int64
	nextNotificationID int64

	now func() time.Time
}

// New creates an empty in-memory store with default singleton settings rows.
func New() *Store {
	return &Store{
		tasks:         make(map[int64]models.Task),
		technicians:   make(map[int64]models.Technician),
		invoices:      make(map[int64]models.Invoice),
		notifications: make(map[int64]models.Notification),
		botSettings:   models.BotSettings{ID: 1},
		systemSettings: models.SystemSettings{
			ID:       1,
			Language: "en",
			Currency: "USD",
			Timezone: "UTC",
		},
		adminProfile: models.AdminProfile{ID: 1, Username: "admin", Name: "Administrator"},
		now:          time.Now,
	}
}

// Ping always succeeds for the in-memory backend.
func (s *Store) Ping(_ context.Context) error { return nil }

// Close is a no-op for the in-memory backend.
func (s *Store) Close() {}

func copyIDs(ids []int64) []int64 {
	if ids == nil {
		return nil
	}
	out := make([]int64, len(ids))
	copy(out, ids)
	return out
}

func copyStrings(ss []string) []string {
	if ss == nil {
		return nil
	}
	out := make([]string, len(ss))
	copy(out, ss)
	return out
}

func copyTask(t models.Task) models.Task {
	t.TechnicianIDs = copyIDs(t.TechnicianIDs)
	return t
}

func copyInvoice(inv models.Invoice) models.Invoice {
	inv.PaymentMethods = copyStrings(inv.PaymentMethods)
	return inv
}

// ListTasks returns all tasks ordered by creation time, newest first.
func (s *Store) ListTasks(_ context.Context) ([]models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tasks := make([]models.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		tasks = append(tasks, copyTask(t))
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID > tasks[j].ID })
	return tasks, nil
}

// ListTasksByTechnician returns tasks whose technician set contains technicianID.
func (s *Store) ListTasksByTechnician(_ context.Context, technicianID int64) ([]models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var tasks []models.Task
	for _, t := range s.tasks {
		for _, id := range t.TechnicianIDs {
			if id == technicianID {
				tasks = append(tasks, copyTask(t))
				break
			}
		}
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID > tasks[j].ID })
	return tasks, nil
}

// ListTasksByStatus returns tasks currently in the given lifecycle state.
func (s *Store) ListTasksByStatus(_ context.Context, status models.TaskStatus) ([]models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var tasks []models.Task
	for _, t := range s.tasks {
		if t.Status == status {
			tasks = append(tasks, copyTask(t))
		}
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID > tasks[j].ID })
	return tasks, nil
}

// GetTask returns the task with the given id or storage.ErrNotFound.
func (s *Store) GetTask(_ context.Context, id int64) (models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tasks[id]
	if !ok {
		return models.Task{}, storage.ErrNotFound
	}
	return copyTask(t), nil
}

// CreateTask assigns a new identity and timestamps and stores the task.
func (s *Store) CreateTask(_ context.Context, task models.Task) (models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextTaskID++
	task.ID = s.nextTaskID
	task.CreatedAt = s.now()
	task.UpdatedAt = task.CreatedAt
	task.TechnicianIDs = copyIDs(task.TechnicianIDs)
	s.tasks[task.ID] = task
	return copyTask(task), nil
}

// UpdateTask merges the non-nil fields of upd into the stored task and
// refreshes its UpdatedAt timestamp.
func (s *Store) UpdateTask(_ context.Context, id int64, upd storage.TaskUpdate) (models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return models.Task{}, storage.ErrNotFound
	}

	if upd.TaskID != nil {
		t.TaskID = *upd.TaskID
	}
	if upd.TaskNumber != nil {
		t.TaskNumber = *upd.TaskNumber
	}
	if upd.Title != nil {
		t.Title = *upd.Title
	}
	if upd.Description != nil {
		t.Description = *upd.Description
	}
	if upd.ClientName != nil {
		t.ClientName = *upd.ClientName
	}
	if upd.ClientPhone != nil {
		t.ClientPhone = *upd.ClientPhone
	}
	if upd.Address != nil {
		t.Address = *upd.Address
	}
	if upd.MapURL != nil {
		t.MapURL = *upd.MapURL
	}
	if upd.TechnicianIDs != nil {
		t.TechnicianIDs = copyIDs(*upd.TechnicianIDs)
	}
	if upd.Status != nil {
		t.Status = *upd.Status
	}
	if upd.PaymentStatus != nil {
		t.PaymentStatus = *upd.PaymentStatus
	}
	if upd.ScheduledDate != nil {
		t.ScheduledDate = *upd.ScheduledDate
	}
	if upd.StartTime != nil {
		t.StartTime = *upd.StartTime
	}
	if upd.EndTime != nil {
		t.EndTime = *upd.EndTime
	}
	t.UpdatedAt = s.now()

	s.tasks[id] = t
	return copyTask(t), nil
}

// DeleteTask removes the task and reports whether it existed.
func (s *Store) DeleteTask(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[id]; !ok {
		return false, nil
	}
	delete(s.tasks, id)
	return true, nil
}

// ListTechnicians returns all technicians ordered by id.
func (s *Store) ListTechnicians(_ context.Context) ([]models.Technician, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	techs := make([]models.Technician, 0, len(s.technicians))
	for _, t := range s.technicians {
		techs = append(techs, t)
	}
	sort.Slice(techs, func(i, j int) bool { return techs[i].ID < techs[j].ID })
	return techs, nil
}

// GetTechnician returns the technician with the given id or storage.ErrNotFound.
func (s *Store) GetTechnician(_ context.Context, id int64) (models.Technician, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.technicians[id]
	if !ok {
		return models.Technician{}, storage.ErrNotFound
	}
	return t, nil
}

// GetTechnicianByTelegramID looks a technician up by their Telegram chat ID.
func (s *Store) GetTechnicianByTelegramID(_ context.Context, telegramID int64) (models.Technician, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, t := range s.technicians {
		if t.TelegramID == telegramID {
			return t, nil
		}
	}
	return models.Technician{}, storage.ErrNotFound
}

// CreateTechnician stores a new technician. A duplicate Telegram ID is a
// storage.ErrConflict.
func (s *Store) CreateTechnician(_ context.Context, tech models.Technician) (models.Technician, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.technicians {
		if existing.TelegramID == tech.TelegramID {
			return models.Technician{}, storage.ErrConflict
		}
	}

	s.nextTechnicianID++
	tech.ID = s.nextTechnicianID
	tech.JoinedAt = s.now()
	s.technicians[tech.ID] = tech
	return tech, nil
}

// UpdateTechnician merges the non-nil fields of upd into the stored technician.
func (s *Store) UpdateTechnician(_ context.Context, id int64, upd storage.TechnicianUpdate) (models.Technician, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.technicians[id]
	if !ok {
		return models.Technician{}, storage.ErrNotFound
	}

	if upd.TelegramID != nil {
		for _, existing := range s.technicians {
			if existing.ID != id && existing.TelegramID == *upd.TelegramID {
				return models.Technician{}, storage.ErrConflict
			}
		}
		t.TelegramID = *upd.TelegramID
	}
	if upd.Name != nil {
		t.Name = *upd.Name
	}
	if upd.Username != nil {
		t.Username = *upd.Username
	}
	if upd.Phone != nil {
		t.Phone = *upd.Phone
	}
	if upd.Category != nil {
		t.Category = *upd.Category
	}
	if upd.Area != nil {
		t.Area = *upd.Area
	}
	if upd.IsActive != nil {
		t.IsActive = *upd.IsActive
	}

	s.technicians[id] = t
	return t, nil
}

// DeleteTechnician removes the technician and reports whether it existed.
func (s *Store) DeleteTechnician(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.technicians[id]; !ok {
		return false, nil
	}
	delete(s.technicians, id)
	return true, nil
}

// ListInvoices returns all invoices ordered by creation time, newest first.
func (s *Store) ListInvoices(_ context.Context) ([]models.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	invoices := make([]models.Invoice, 0, len(s.invoices))
	for _, inv := range s.invoices {
		invoices = append(invoices, copyInvoice(inv))
	}
	sort.Slice(invoices, func(i, j int) bool { return invoices[i].ID > invoices[j].ID })
	return invoices, nil
}

// ListInvoicesByTechnician returns invoices issued for the given technician.
func (s *Store) ListInvoicesByTechnician(_ context.Context, technicianID int64) ([]models.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var invoices []models.Invoice
	for _, inv := range s.invoices {
		if inv.TechnicianID == technicianID {
			invoices = append(invoices, copyInvoice(inv))
		}
	}
	sort.Slice(invoices, func(i, j int) bool { return invoices[i].ID > invoices[j].ID })
	return invoices, nil
}

// GetInvoice returns the invoice with the given id or storage.ErrNotFound.
func (s *Store) GetInvoice(_ context.Context, id int64) (models.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inv, ok := s.invoices[id]
	if !ok {
		return models.Invoice{}, storage.ErrNotFound
	}
	return copyInvoice(inv), nil
}

// CreateInvoice stores a new invoice. A duplicate invoice number is a
// storage.ErrConflict.
func (s *Store) CreateInvoice(_ context.Context, inv models.Invoice) (models.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.invoices {
		if existing.InvoiceNumber == inv.InvoiceNumber {
			return models.Invoice{}, storage.ErrConflict
		}
	}

	s.nextInvoiceID++
	inv.ID = s.nextInvoiceID
	inv.CreatedAt = s.now()
	inv.UpdatedAt = inv.CreatedAt
	inv.PaymentMethods = copyStrings(inv.PaymentMethods)
	s.invoices[inv.ID] = inv
	return copyInvoice(inv), nil
}

// UpdateInvoice merges the non-nil fields of upd into the stored invoice.
func (s *Store) UpdateInvoice(_ context.Context, id int64, upd storage.InvoiceUpdate) (models.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, ok := s.invoices[id]
	if !ok {
		return models.Invoice{}, storage.ErrNotFound
	}

	if upd.ClientName != nil {
		inv.ClientName = *upd.ClientName
	}
	if upd.Amount != nil {
		inv.Amount = *upd.Amount
	}
	if upd.Status != nil {
		inv.Status = *upd.Status
	}
	if upd.PaymentMethods != nil {
		inv.PaymentMethods = copyStrings(*upd.PaymentMethods)
	}
	if upd.IssueDate != nil {
		inv.IssueDate = *upd.IssueDate
	}
	if upd.DueDate != nil {
		inv.DueDate = *upd.DueDate
	}
	if upd.PaidDate != nil {
		inv.PaidDate = *upd.PaidDate
	}
	inv.UpdatedAt = s.now()

	s.invoices[id] = inv
	return copyInvoice(inv), nil
}

// DeleteInvoice removes the invoice and reports whether it existed.
func (s *Store) DeleteInvoice(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.invoices[id]; !ok {
		return false, nil
	}
	delete(s.invoices, id)
	return true, nil
}

// ListNotifications returns all notifications, newest first.
func (s *Store) ListNotifications(_ context.Context) ([]models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	notifs := make([]models.Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		notifs = append(notifs, n)
	}
	sort.Slice(notifs, func(i, j int) bool { return notifs[i].ID > notifs[j].ID })
	return notifs, nil
}

// ListUnreadNotifications returns unread notifications, newest first.
func (s *Store) ListUnreadNotifications(_ context.Context) ([]models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var notifs []models.Notification
	for _, n := range s.notifications {
		if !n.IsRead {
			notifs = append(notifs, n)
		}
	}
	sort.Slice(notifs, func(i, j int) bool { return notifs[i].ID > notifs[j].ID })
	return notifs, nil
}

// CreateNotification stores a new notification with a server-assigned
// creation timestamp.
func (s *Store) CreateNotification(_ context.Context, n models.Notification) (models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextNotificationID++
	n.ID = s.nextNotificationID
	n.IsRead = false
	n.CreatedAt = s.now()
	s.notifications[n.ID] = n
	return n, nil
}

// MarkNotificationRead flips the IsRead flag of one notification.
func (s *Store) MarkNotificationRead(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notifications[id]
	if !ok {
		return storage.ErrNotFound
	}
	n.IsRead = true
	s.notifications[id] = n
	return nil
}

// MarkAllNotificationsRead flips the IsRead flag of every unread notification
// and returns the number of records touched.
func (s *Store) MarkAllNotificationsRead(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	for id, n := range s.notifications {
		if !n.IsRead {
			n.IsRead = true
			s.notifications[id] = n
			count++
		}
	}
	return count, nil
}

// DeleteNotification removes one notification and reports whether it existed.
func (s *Store) DeleteNotification(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.notifications[id]; !ok {
		return false, nil
	}
	delete(s.notifications, id)
	return true, nil
}

// DeleteNotifications removes the given notifications, ignoring unknown ids,
// and returns the number of records removed.
func (s *Store) DeleteNotifications(_ context.Context, ids []int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	for _, id := range ids {
		if _, ok := s.notifications[id]; ok {
			delete(s.notifications, id)
			count++
		}
	}
	return count, nil
}

// GetBotSettings returns the singleton bot settings row.
func (s *Store) GetBotSettings(_ context.Context) (models.BotSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.botSettings, nil
}

// SaveBotSettings upserts the singleton bot settings row.
func (s *Store) SaveBotSettings(_ context.Context, settings models.BotSettings) (models.BotSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings.ID = 1
	settings.UpdatedAt = s.now()
	s.botSettings = settings
	return settings, nil
}

// GetSystemSettings returns the singleton system settings row.
func (s *Store) GetSystemSettings(_ context.Context) (models.SystemSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.systemSettings, nil
}

// SaveSystemSettings upserts the singleton system settings row.
func (s *Store) SaveSystemSettings(_ context.Context, settings models.SystemSettings) (models.SystemSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings.ID = 1
	settings.UpdatedAt = s.now()
	s.systemSettings = settings
	return settings, nil
}

// GetAdminProfile returns the singleton admin profile row.
func (s *Store) GetAdminProfile(_ context.Context) (models.AdminProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.adminProfile, nil
}

// SaveAdminProfile upserts the singleton admin profile row.
func (s *Store) SaveAdminProfile(_ context.Context, profile models.AdminProfile) (models.AdminProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	profile.ID = 1
	profile.UpdatedAt = s.now()
	s.adminProfile = profile
	return profile, nil
}
