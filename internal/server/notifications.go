package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/abdallaazouz/handy-man-sub000/internal/models"
)

// keepAliveInterval is how often an SSE comment is written to detect dead
// stream consumers.
const keepAliveInterval = 25 * time.Second

// streamBuffer bounds the per-consumer event queue; a consumer that cannot
// keep up loses pushes but can recover from the persisted list.
const streamBuffer = 16

func (s *Server) listNotifications(c echo.Context) error {
	notifications, err := s.store.ListNotifications(c.Request().Context())
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, notifications)
}

func (s *Server) listUnreadNotifications(c echo.Context) error {
	notifications, err := s.store.ListUnreadNotifications(c.Request().Context())
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, notifications)
}

func (s *Server) markNotificationRead(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	if err = s.store.MarkNotificationRead(c.Request().Context(), id); err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) markAllNotificationsRead(c echo.Context) error {
	updated, err := s.store.MarkAllNotificationsRead(c.Request().Context())
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]int64{"updated": updated})
}

type bulkDeleteRequest struct {
	IDs []int64 `json:"ids" validate:"required,min=1"`
}

func (s *Server) bulkDeleteNotifications(c echo.Context) error {
	var req bulkDeleteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	deleted, err := s.store.DeleteNotifications(c.Request().Context(), req.IDs)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]int64{"deleted": deleted})
}

func (s *Server) deleteNotification(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	deleted, err := s.store.DeleteNotification(c.Request().Context(), id)
	if err != nil {
		return s.fail(c, err)
	}
	if !deleted {
		return c.JSON(http.StatusNotFound, errorMessage{Error: "record not found"})
	}
	return c.NoContent(http.StatusNoContent)
}

type streamEvent struct {
	Type string              `json:"type"`
	Data models.Notification `json:"data"`
}

// streamNotifications pushes every persisted notification to the client as a
// server-sent event, with periodic keep-alive comments. The subscription ends
// when the client disconnects.
func (s *Server) streamNotifications(c echo.Context) error {
	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.WriteHeader(http.StatusOK)
	res.Flush()

	events := make(chan models.Notification, streamBuffer)
	subID := s.relay.Subscribe(func(n models.Notification) {
		select {
		case events <- n:
		default:
		}
	})
	defer s.relay.Unsubscribe(subID)

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case n := <-events:
			payload, err := json.Marshal(streamEvent{Type: "notification", Data: n})
			if err != nil {
				s.log.ErrorContext(ctx, "failed to encode stream event", "notification", n.ID, "error", err)
				continue
			}
			if _, err = fmt.Fprintf(res, "data: %s\n\n", payload); err != nil {
				return nil
			}
			res.Flush()
		case <-ticker.C:
			if _, err := fmt.Fprint(res, ": keep-alive\n\n"); err != nil {
				return nil
			}
			res.Flush()
		}
	}
}
