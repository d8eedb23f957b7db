package server

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/abdallaazouz/handy-man-sub000/internal/models"
	"github.com/abdallaazouz/handy-man-sub000/internal/storage"
)

type invoiceRequest struct {
	InvoiceNumber  string   `json:"invoiceNumber"`
	TaskID         int64    `json:"taskId"       validate:"required"`
	TechnicianID   int64    `json:"technicianId" validate:"required"`
	ClientName     string   `json:"clientName"`
	Amount         float64  `json:"amount"       validate:"gt=0"`
	Status         string   `json:"status"       validate:"omitempty,oneof=pending sent paid not_sent"`
	PaymentMethods []string `json:"paymentMethods"`
	IssueDate      string   `json:"issueDate"`
	DueDate        string   `json:"dueDate"`
	PaidDate       string   `json:"paidDate"`
}

type invoiceUpdateRequest struct {
	ClientName     *string   `json:"clientName"`
	Amount         *float64  `json:"amount" validate:"omitempty,gt=0"`
	Status         *string   `json:"status" validate:"omitempty,oneof=pending sent paid not_sent"`
	PaymentMethods *[]string `json:"paymentMethods"`
	IssueDate      *string   `json:"issueDate"`
	DueDate        *string   `json:"dueDate"`
	PaidDate       *string   `json:"paidDate"`
}

// listInvoices returns every invoice, optionally filtered by technician.
func (s *Server) listInvoices(c echo.Context) error {
	ctx := c.Request().Context()

	if rawID := c.QueryParam("technicianId"); rawID != "" {
		var technicianID int64
		if _, err := fmt.Sscanf(rawID, "%d", &technicianID); err != nil || technicianID <= 0 {
			return c.JSON(http.StatusBadRequest, errorMessage{Error: "invalid technician identifier"})
		}
		invoices, err := s.store.ListInvoicesByTechnician(ctx, technicianID)
		if err != nil {
			return s.fail(c, err)
		}
		return c.JSON(http.StatusOK, invoices)
	}

	invoices, err := s.store.ListInvoices(ctx)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, invoices)
}

func (s *Server) getInvoice(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	inv, err := s.store.GetInvoice(c.Request().Context(), id)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, inv)
}

// createInvoice stores a new invoice. A missing invoice number is generated;
// a missing status defaults to not_sent.
func (s *Server) createInvoice(c echo.Context) error {
	var req invoiceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if req.InvoiceNumber == "" {
		req.InvoiceNumber = "INV-" + uuid.NewString()[:8]
	}
	if req.Status == "" {
		req.Status = string(models.InvoiceNotSent)
	}

	created, err := s.store.CreateInvoice(c.Request().Context(), models.Invoice{
		InvoiceNumber:  req.InvoiceNumber,
		TaskID:         req.TaskID,
		TechnicianID:   req.TechnicianID,
		ClientName:     req.ClientName,
		Amount:         req.Amount,
		Status:         models.InvoiceStatus(req.Status),
		PaymentMethods: req.PaymentMethods,
		IssueDate:      req.IssueDate,
		DueDate:        req.DueDate,
		PaidDate:       req.PaidDate,
	})
	if err != nil {
		return s.fail(c, err)
	}

	s.publish(c.Request().Context(), "invoice_created",
		fmt.Sprintf("Invoice %s was created", created.InvoiceNumber), "")
	return c.JSON(http.StatusCreated, created)
}

func (s *Server) updateInvoice(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	var req invoiceUpdateRequest
	if err = c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	if err = c.Validate(&req); err != nil {
		return err
	}

	upd := storage.InvoiceUpdate{
		ClientName:     req.ClientName,
		Amount:         req.Amount,
		PaymentMethods: req.PaymentMethods,
		IssueDate:      req.IssueDate,
		DueDate:        req.DueDate,
		PaidDate:       req.PaidDate,
	}
	if req.Status != nil {
		status := models.InvoiceStatus(*req.Status)
		upd.Status = &status
	}

	updated, err := s.store.UpdateInvoice(c.Request().Context(), id, upd)
	if err != nil {
		return s.fail(c, err)
	}

	s.publish(c.Request().Context(), "invoice_updated",
		fmt.Sprintf("Invoice %s was updated", updated.InvoiceNumber), "")
	return c.JSON(http.StatusOK, updated)
}

func (s *Server) deleteInvoice(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	deleted, err := s.store.DeleteInvoice(c.Request().Context(), id)
	if err != nil {
		return s.fail(c, err)
	}
	if !deleted {
		return c.JSON(http.StatusNotFound, errorMessage{Error: "record not found"})
	}
	return c.NoContent(http.StatusNoContent)
}
