// Package lifecycle implements the state machine governing a task's status
// and the notifications triggered by each transition.
//
// Transitions are strictly guarded: dispatch requires a pending or rejected
// task with at least one technician, accept/reject require a sent task, and
// complete requires a task that has been sent and not yet completed. Admin
// edits through the API remain free-form as a manual correction escape hatch.
package lifecycle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/abdallaazouz/handy-man-sub000/internal/models"
	"github.com/abdallaazouz/handy-man-sub000/internal/relay"
	"github.com/abdallaazouz/handy-man-sub000/internal/storage"
)

var (
	// ErrNoTechnicians is returned when dispatch or a client-info send is
	// attempted on a task with no assigned technicians.
	ErrNoTechnicians = errors.New("task has no assigned technicians")
	// ErrInvalidTransition is returned when the task's current status does
	// not allow the requested transition.
	ErrInvalidTransition = errors.New("transition not allowed from current status")
	// ErrSendFailed is returned when no assigned technician could be reached.
	ErrSendFailed = errors.New("failed to deliver message to any technician")
	// ErrNoSender is returned when a dispatch is attempted while the bot
	// gateway is not connected.
	ErrNoSender = errors.New("bot gateway is not connected")
)

// Sender delivers task messages to technicians. It is implemented by the bot
// gateway and bound after construction to break the mutual dependency between
// the gateway (which routes callbacks here) and this controller.
type Sender interface {
	SendTask(ctx context.Context, task models.Task, tech models.Technician) error
	SendClientInfo(ctx context.Context, task models.Task, tech models.Technician) error
}

// Controller owns task status transitions and their side effects.
type Controller struct {
	store  storage.Store
	relay  *relay.Relay
	log    *slog.Logger
	sender Sender
}

// New creates a Controller. BindSender must be called before Dispatch or
// SendClientInfo can succeed.
func New(store storage.Store, rel *relay.Relay, log *slog.Logger) *Controller {
	return &Controller{store: store, relay: rel, log: log}
}

// BindSender attaches the message sender used for dispatch and client-info
// sends.
func (c *Controller) BindSender(s Sender) {
	c.sender = s
}

// taskMeta serializes task reference metadata for notification records.
func taskMeta(task models.Task) string {
	meta, err := json.Marshal(map[string]any{
		"taskId":     task.ID,
		"taskCode":   task.TaskID,
		"taskNumber": task.TaskNumber,
	})
	if err != nil {
		return ""
	}
	return string(meta)
}

func (c *Controller) notify(ctx context.Context, notifType, message string, task models.Task) {
	if _, err := c.relay.Publish(ctx, models.Notification{
		Type:     notifType,
		Message:  message,
		Metadata: taskMeta(task),
	}); err != nil {
		c.log.ErrorContext(ctx, "failed to record notification", "type", notifType, "error", err)
	}
}

// Dispatch sends the task to every active assigned technician and, if at least one
// delivery succeeded, moves the task to sent. A task without technicians is
// rejected before any send is attempted.
func (c *Controller) Dispatch(ctx context.Context, taskID int64) (models.Task, error) {
	task, err := c.store.GetTask(ctx, taskID)
	if err != nil {
		return models.Task{}, fmt.Errorf("failed to load task for dispatch: %w", err)
	}

	if len(task.TechnicianIDs) == 0 {
		return models.Task{}, ErrNoTechnicians
	}
	if task.Status != models.StatusPending && task.Status != models.StatusRejected {
		return models.Task{}, ErrInvalidTransition
	}
	if c.sender == nil {
		return models.Task{}, ErrNoSender
	}

	var delivered int
	for _, techID := range task.TechnicianIDs {
		tech, techErr := c.store.GetTechnician(ctx, techID)
		if techErr != nil {
			c.log.WarnContext(ctx, "skipping unknown technician on dispatch",
				"task", task.ID, "technician", techID, "error", techErr)
			continue
		}
		if !tech.IsActive {
			c.log.InfoContext(ctx, "skipping inactive technician on dispatch",
				"task", task.ID, "technician", techID)
			continue
		}
		if sendErr := c.sender.SendTask(ctx, task, tech); sendErr != nil {
			c.log.WarnContext(ctx, "failed to send task to technician",
				"task", task.ID, "technician", techID, "error", sendErr)
			continue
		}
		delivered++
	}
	if delivered == 0 {
		return models.Task{}, ErrSendFailed
	}

	status := models.StatusSent
	updated, err := c.store.UpdateTask(ctx, task.ID, storage.TaskUpdate{Status: &status})
	if err != nil {
		return models.Task{}, fmt.Errorf("failed to mark task as sent: %w", err)
	}

	c.notify(ctx, "task_sent",
		fmt.Sprintf("Task %s was sent to %d technician(s)", updated.TaskNumber, delivered), updated)
	return updated, nil
}

// Accept records a technician's acceptance of a sent task.
func (c *Controller) Accept(ctx context.Context, taskID int64, tech models.Technician) (models.Task, error) {
	return c.respond(ctx, taskID, tech, models.StatusAccepted, "task_accepted", "accepted")
}

// Reject records a technician's rejection of a sent task.
func (c *Controller) Reject(ctx context.Context, taskID int64, tech models.Technician) (models.Task, error) {
	return c.respond(ctx, taskID, tech, models.StatusRejected, "task_rejected", "rejected")
}

func (c *Controller) respond(
	ctx context.Context,
	taskID int64,
	tech models.Technician,
	target models.TaskStatus,
	notifType, verb string,
) (models.Task, error) {
	task, err := c.store.GetTask(ctx, taskID)
	if err != nil {
		return models.Task{}, fmt.Errorf("failed to load task for response: %w", err)
	}
	if task.Status != models.StatusSent {
		return models.Task{}, ErrInvalidTransition
	}

	updated, err := c.store.UpdateTask(ctx, task.ID, storage.TaskUpdate{Status: &target})
	if err != nil {
		return models.Task{}, fmt.Errorf("failed to update task status: %w", err)
	}

	c.notify(ctx, notifType,
		fmt.Sprintf("Technician %s %s task %s", tech.Name, verb, updated.TaskNumber), updated)
	if err = c.relay.LogActivity(ctx, "task",
		fmt.Sprintf("Task %s %s by %s", updated.TaskNumber, verb, tech.Name), taskMeta(updated)); err != nil {
		c.log.ErrorContext(ctx, "failed to record activity", "task", updated.ID, "error", err)
	}
	return updated, nil
}

// Complete marks a dispatched task as completed. A pending or already
// completed task cannot be completed through a button press.
func (c *Controller) Complete(ctx context.Context, taskID int64, tech models.Technician) (models.Task, error) {
	task, err := c.store.GetTask(ctx, taskID)
	if err != nil {
		return models.Task{}, fmt.Errorf("failed to load task for completion: %w", err)
	}
	switch task.Status {
	case models.StatusSent, models.StatusAccepted, models.StatusInProgress:
	default:
		return models.Task{}, ErrInvalidTransition
	}

	status := models.StatusCompleted
	updated, err := c.store.UpdateTask(ctx, task.ID, storage.TaskUpdate{Status: &status})
	if err != nil {
		return models.Task{}, fmt.Errorf("failed to mark task as completed: %w", err)
	}

	c.notify(ctx, "task_completed",
		fmt.Sprintf("Technician %s completed task %s", tech.Name, updated.TaskNumber), updated)
	if err = c.relay.LogActivity(ctx, "task",
		fmt.Sprintf("Task %s completed by %s", updated.TaskNumber, tech.Name), taskMeta(updated)); err != nil {
		c.log.ErrorContext(ctx, "failed to record activity", "task", updated.ID, "error", err)
	}
	return updated, nil
}

// SendClientInfo delivers the confidential client details of a task to one of
// its assigned technicians. The task status is not changed.
func (c *Controller) SendClientInfo(ctx context.Context, taskID, technicianID int64) error {
	task, err := c.store.GetTask(ctx, taskID)
	if err != nil {
		return fmt.Errorf("failed to load task for client info: %w", err)
	}
	if len(task.TechnicianIDs) == 0 {
		return ErrNoTechnicians
	}
	if c.sender == nil {
		return ErrNoSender
	}

	tech, err := c.store.GetTechnician(ctx, technicianID)
	if err != nil {
		return fmt.Errorf("failed to load technician for client info: %w", err)
	}

	if err = c.sender.SendClientInfo(ctx, task, tech); err != nil {
		return fmt.Errorf("failed to send client info: %w", err)
	}

	c.notify(ctx, "client_info_sent",
		fmt.Sprintf("Client details of task %s were sent to %s", task.TaskNumber, tech.Name), task)
	return nil
}
