package server

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/abdallaazouz/handy-man-sub000/internal/lifecycle"
	"github.com/abdallaazouz/handy-man-sub000/internal/report"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// sendResult is the outcome of a bot trigger endpoint. Delivery failures are
// reported inside the body so the admin action itself still completes.
type sendResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

type sendTaskRequest struct {
	TaskID int64 `json:"taskId" validate:"required"`
}

// sendTask dispatches a task to its assigned technicians. Guard violations
// are client errors; delivery failures come back as success=false.
func (s *Server) sendTask(c echo.Context) error {
	var req sendTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	task, err := s.controller.Dispatch(c.Request().Context(), req.TaskID)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, map[string]any{"success": true, "task": task})
	case errors.Is(err, lifecycle.ErrNoSender):
		return c.JSON(http.StatusOK, sendResult{Success: false, Error: "bot is not connected"})
	case errors.Is(err, lifecycle.ErrSendFailed):
		return c.JSON(http.StatusOK, sendResult{Success: false, Error: "no technician could be reached"})
	default:
		return s.fail(c, err)
	}
}

type sendClientInfoRequest struct {
	TaskID       int64 `json:"taskId"       validate:"required"`
	TechnicianID int64 `json:"technicianId" validate:"required"`
}

// sendClientInfo delivers the confidential client details of a task to one
// assigned technician.
func (s *Server) sendClientInfo(c echo.Context) error {
	var req sendClientInfoRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	err := s.controller.SendClientInfo(c.Request().Context(), req.TaskID, req.TechnicianID)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, sendResult{Success: true})
	case errors.Is(err, lifecycle.ErrNoSender):
		return c.JSON(http.StatusOK, sendResult{Success: false, Error: "bot is not connected"})
	default:
		return s.fail(c, err)
	}
}

type sendInvoiceRequest struct {
	InvoiceID int64 `json:"invoiceId" validate:"required"`
}

// sendInvoice relays an invoice summary to its technician. The gateway
// reports a plain boolean; the invoice status is never changed here.
func (s *Server) sendInvoice(c echo.Context) error {
	var req sendInvoiceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if ok := s.gateway.SendInvoiceToTechnician(c.Request().Context(), req.InvoiceID); !ok {
		return c.JSON(http.StatusOK, sendResult{Success: false, Error: "failed to deliver invoice"})
	}
	return c.JSON(http.StatusOK, sendResult{Success: true})
}

// sendInvoicePDF forwards an uploaded PDF document to a technician's chat.
func (s *Server) sendInvoicePDF(c echo.Context) error {
	technicianID, err := strconv.ParseInt(c.FormValue("technicianId"), 10, 64)
	if err != nil || technicianID <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid technician identifier")
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "missing file")
	}
	src, err := fileHeader.Open()
	if err != nil {
		return s.fail(c, err)
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return s.fail(c, err)
	}

	tech, err := s.store.GetTechnician(c.Request().Context(), technicianID)
	if err != nil {
		return s.fail(c, err)
	}

	caption := c.FormValue("caption")
	if ok := s.gateway.SendInvoicePDF(c.Request().Context(), tech.TelegramID, data, fileHeader.Filename, caption); !ok {
		return c.JSON(http.StatusOK, sendResult{Success: false, Error: "failed to deliver document"})
	}
	return c.JSON(http.StatusOK, sendResult{Success: true})
}

type telegramStatusResponse struct {
	Connected bool   `json:"connected"`
	Username  string `json:"username,omitempty"`
}

func (s *Server) telegramStatus(c echo.Context) error {
	connected, username := s.gateway.Status()
	return c.JSON(http.StatusOK, telegramStatusResponse{Connected: connected, Username: username})
}

// taskReport exports all tasks as an Excel workbook grouped by status.
func (s *Server) taskReport(c echo.Context) error {
	tasks, err := s.store.ListTasks(c.Request().Context())
	if err != nil {
		return s.fail(c, err)
	}

	buf, err := report.GenerateTaskReport(tasks)
	if err != nil {
		if errors.Is(err, report.ErrNoRows) {
			return c.JSON(http.StatusNotFound, errorMessage{Error: "no tasks to report"})
		}
		return s.fail(c, err)
	}

	fileName := "tasks_report_" + time.Now().Format("2006-01-02") + ".xlsx"
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+fileName+`"`)
	return c.Blob(http.StatusOK, xlsxContentType, buf.Bytes())
}

// invoiceReport exports all invoices as an Excel workbook.
func (s *Server) invoiceReport(c echo.Context) error {
	invoices, err := s.store.ListInvoices(c.Request().Context())
	if err != nil {
		return s.fail(c, err)
	}

	buf, err := report.GenerateInvoiceReport(invoices)
	if err != nil {
		if errors.Is(err, report.ErrNoRows) {
			return c.JSON(http.StatusNotFound, errorMessage{Error: "no invoices to report"})
		}
		return s.fail(c, err)
	}

	fileName := "invoices_report_" + time.Now().Format("2006-01-02") + ".xlsx"
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+fileName+`"`)
	return c.Blob(http.StatusOK, xlsxContentType, buf.Bytes())
}
