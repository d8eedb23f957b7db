package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/abdallaazouz/handy-man-sub000/internal/models"
	"github.com/abdallaazouz/handy-man-sub000/internal/storage"
)

// publish records a dashboard notification. Failures are logged and never
// abort the request that triggered them.
func (s *Server) publish(ctx context.Context, notifType, message, metadata string) {
	if _, err := s.relay.Publish(ctx, models.Notification{
		Type:     notifType,
		Message:  message,
		Metadata: metadata,
	}); err != nil {
		s.log.ErrorContext(ctx, "failed to record notification", "type", notifType, "error", err)
		return
	}
	s.metrics.NotificationsCreated.Inc()
}

func taskMetadata(task models.Task) string {
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

type taskRequest struct {
	TaskID        string   `json:"taskId"`
	TaskNumber    string   `json:"taskNumber"`
	Title         string   `json:"title"         validate:"required"`
	Description   string   `json:"description"`
	ClientName    string   `json:"clientName"`
	ClientPhone   string   `json:"clientPhone"`
	Address       string   `json:"address"`
	MapURL        string   `json:"mapUrl"`
	TechnicianIDs []int64  `json:"technicianIds"`
	Status        string   `json:"status"        validate:"omitempty,oneof=pending sent accepted rejected in_progress completed"`
	PaymentStatus string   `json:"paymentStatus" validate:"omitempty,oneof=on_demand paid pending"`
	ScheduledDate string   `json:"scheduledDate"`
	StartTime     string   `json:"startTime"`
	EndTime       string   `json:"endTime"`
}

type taskUpdateRequest struct {
	TaskID        *string  `json:"taskId"`
	TaskNumber    *string  `json:"taskNumber"`
	Title         *string  `json:"title"`
	Description   *string  `json:"description"`
	ClientName    *string  `json:"clientName"`
	ClientPhone   *string  `json:"clientPhone"`
	Address       *string  `json:"address"`
	MapURL        *string  `json:"mapUrl"`
	TechnicianIDs *[]int64 `json:"technicianIds"`
	Status        *string  `json:"status"        validate:"omitempty,oneof=pending sent accepted rejected in_progress completed"`
	PaymentStatus *string  `json:"paymentStatus" validate:"omitempty,oneof=on_demand paid pending"`
	ScheduledDate *string  `json:"scheduledDate"`
	StartTime     *string  `json:"startTime"`
	EndTime       *string  `json:"endTime"`
}

// listTasks returns every task, optionally filtered by status or assigned
// technician.
func (s *Server) listTasks(c echo.Context) error {
	ctx := c.Request().Context()

	if status := c.QueryParam("status"); status != "" {
		taskStatus := models.TaskStatus(status)
		if !taskStatus.Valid() {
			return c.JSON(http.StatusBadRequest, errorMessage{Error: "unknown task status"})
		}
		tasks, err := s.store.ListTasksByStatus(ctx, taskStatus)
		if err != nil {
			return s.fail(c, err)
		}
		return c.JSON(http.StatusOK, tasks)
	}

	if rawID := c.QueryParam("technicianId"); rawID != "" {
		var technicianID int64
		if _, err := fmt.Sscanf(rawID, "%d", &technicianID); err != nil || technicianID <= 0 {
			return c.JSON(http.StatusBadRequest, errorMessage{Error: "invalid technician identifier"})
		}
		tasks, err := s.store.ListTasksByTechnician(ctx, technicianID)
		if err != nil {
			return s.fail(c, err)
		}
		return c.JSON(http.StatusOK, tasks)
	}

	tasks, err := s.store.ListTasks(ctx)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, tasks)
}

func (s *Server) getTask(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	task, err := s.store.GetTask(c.Request().Context(), id)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, task)
}

// createTask stores a new task. Missing codes are generated, a missing status
// defaults to pending.
func (s *Server) createTask(c echo.Context) error {
	var req taskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if req.TaskID == "" {
		req.TaskID = "T-" + uuid.NewString()[:8]
	}
	if req.TaskNumber == "" {
		req.TaskNumber = req.TaskID
	}
	if req.Status == "" {
		req.Status = string(models.StatusPending)
	}
	if req.PaymentStatus == "" {
		req.PaymentStatus = string(models.PaymentOnDemand)
	}

	created, err := s.store.CreateTask(c.Request().Context(), models.Task{
		TaskID:        req.TaskID,
		TaskNumber:    req.TaskNumber,
		Title:         req.Title,
		Description:   req.Description,
		ClientName:    req.ClientName,
		ClientPhone:   req.ClientPhone,
		Address:       req.Address,
		MapURL:        req.MapURL,
		TechnicianIDs: req.TechnicianIDs,
		Status:        models.TaskStatus(req.Status),
		PaymentStatus: models.PaymentStatus(req.PaymentStatus),
		ScheduledDate: req.ScheduledDate,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
	})
	if err != nil {
		return s.fail(c, err)
	}

	s.publish(c.Request().Context(), "task_created",
		fmt.Sprintf("Task %s was created", created.TaskNumber), taskMetadata(created))
	return c.JSON(http.StatusCreated, created)
}

// updateTask merges the provided fields into the task. A status present in
// the payload is announced as a status change, any other edit as a plain
// update.
func (s *Server) updateTask(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	var req taskUpdateRequest
	if err = c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	if err = c.Validate(&req); err != nil {
		return err
	}

	upd := storage.TaskUpdate{
		TaskID:        req.TaskID,
		TaskNumber:    req.TaskNumber,
		Title:         req.Title,
		Description:   req.Description,
		ClientName:    req.ClientName,
		ClientPhone:   req.ClientPhone,
		Address:       req.Address,
		MapURL:        req.MapURL,
		TechnicianIDs: req.TechnicianIDs,
		ScheduledDate: req.ScheduledDate,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
	}
	if req.Status != nil {
		status := models.TaskStatus(*req.Status)
		upd.Status = &status
	}
	if req.PaymentStatus != nil {
		payment := models.PaymentStatus(*req.PaymentStatus)
		upd.PaymentStatus = &payment
	}

	updated, err := s.store.UpdateTask(c.Request().Context(), id, upd)
	if err != nil {
		return s.fail(c, err)
	}

	if req.Status != nil {
		s.publish(c.Request().Context(), "task_status_changed",
			fmt.Sprintf("Task %s status changed to %s", updated.TaskNumber, updated.Status),
			taskMetadata(updated))
	} else {
		s.publish(c.Request().Context(), "task_updated",
			fmt.Sprintf("Task %s was updated", updated.TaskNumber), taskMetadata(updated))
	}
	return c.JSON(http.StatusOK, updated)
}

func (s *Server) deleteTask(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	deleted, err := s.store.DeleteTask(c.Request().Context(), id)
	if err != nil {
		return s.fail(c, err)
	}
	if !deleted {
		return c.JSON(http.StatusNotFound, errorMessage{Error: "record not found"})
	}
	return c.NoContent(http.StatusNoContent)
}
