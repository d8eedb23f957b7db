package server

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/abdallaazouz/handy-man-sub000/internal/models"
	"github.com/abdallaazouz/handy-man-sub000/internal/storage"
)

type technicianRequest struct {
	TelegramID int64  `json:"telegramId" validate:"required"`
	Name       string `json:"name"       validate:"required"`
	Username   string `json:"username"`
	Phone      string `json:"phone"`
	Category   string `json:"category"`
	Area       string `json:"area"`
	IsActive   *bool  `json:"isActive"`
}

type technicianUpdateRequest struct {
	TelegramID *int64  `json:"telegramId"`
	Name       *string `json:"name"`
	Username   *string `json:"username"`
	Phone      *string `json:"phone"`
	Category   *string `json:"category"`
	Area       *string `json:"area"`
	IsActive   *bool   `json:"isActive"`
}

func (s *Server) listTechnicians(c echo.Context) error {
	technicians, err := s.store.ListTechnicians(c.Request().Context())
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, technicians)
}

func (s *Server) getTechnician(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	tech, err := s.store.GetTechnician(c.Request().Context(), id)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, tech)
}

// createTechnician stores a manually entered technician. Duplicate Telegram
// chat ids are rejected with a conflict.
func (s *Server) createTechnician(c echo.Context) error {
	var req technicianRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	created, err := s.store.CreateTechnician(c.Request().Context(), models.Technician{
		TelegramID: req.TelegramID,
		Name:       req.Name,
		Username:   req.Username,
		Phone:      req.Phone,
		Category:   req.Category,
		Area:       req.Area,
		IsActive:   active,
	})
	if err != nil {
		return s.fail(c, err)
	}

	s.publish(c.Request().Context(), "technician_created",
		fmt.Sprintf("Technician %s was added", created.Name), "")
	return c.JSON(http.StatusCreated, created)
}

func (s *Server) updateTechnician(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	var req technicianUpdateRequest
	if err = c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	if err = c.Validate(&req); err != nil {
		return err
	}

	updated, err := s.store.UpdateTechnician(c.Request().Context(), id, storage.TechnicianUpdate{
		TelegramID: req.TelegramID,
		Name:       req.Name,
		Username:   req.Username,
		Phone:      req.Phone,
		Category:   req.Category,
		Area:       req.Area,
		IsActive:   req.IsActive,
	})
	if err != nil {
		return s.fail(c, err)
	}

	s.publish(c.Request().Context(), "technician_updated",
		fmt.Sprintf("Technician %s was updated", updated.Name), "")
	return c.JSON(http.StatusOK, updated)
}

func (s *Server) deleteTechnician(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	deleted, err := s.store.DeleteTechnician(c.Request().Context(), id)
	if err != nil {
		return s.fail(c, err)
	}
	if !deleted {
		return c.JSON(http.StatusNotFound, errorMessage{Error: "record not found"})
	}
	return c.NoContent(http.StatusNoContent)
}
