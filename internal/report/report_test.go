package report_test

import (
	"testing"
	"time"

	"github.com/abdallaazouz/handy-man-sub000/internal/models"
	"github.com/abdallaazouz/handy-man-sub000/internal/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestGenerateTaskReport(t *testing.T) {
	now := time.Now()
	testTasks := []models.Task{
		{TaskID: "T-1001", TaskNumber: "001", Title: "Fix boiler", ClientName: "Alice",
			Status: models.StatusPending, PaymentStatus: models.PaymentOnDemand, CreatedAt: now},
		{TaskID: "T-1002", TaskNumber: "002", Title: "Install outlet", ClientName: "Bob",
			Status: models.StatusCompleted, PaymentStatus: models.PaymentPaid, CreatedAt: now},
		{TaskID: "T-1003", TaskNumber: "003", Title: "Replace lock", ClientName: "Carol",
			Status: models.StatusPending, PaymentStatus: models.PaymentPending, CreatedAt: now},
	}

	t.Run("successful report generation", func(t *testing.T) {
		buffer, err := report.GenerateTaskReport(testTasks)

		require.NoError(t, err)
		assert.NotNil(t, buffer)

		f, err := excelize.OpenReader(buffer)
		require.NoError(t, err)
		defer f.Close()

		sheetList := f.GetSheetList()
		assert.ElementsMatch(t, []string{"pending", "completed"}, sheetList)

		headerVal, err := f.GetCellValue("pending", "A1")
		require.NoError(t, err)
		assert.Equal(t, "Task", headerVal)

		taskIDVal, err := f.GetCellValue("pending", "A2")
		require.NoError(t, err)
		assert.Equal(t, "T-1001", taskIDVal)

		titleVal, err := f.GetCellValue("pending", "C3")
		require.NoError(t, err)
		assert.Equal(t, "Replace lock", titleVal)

		completedVal, err := f.GetCellValue("completed", "A2")
		require.NoError(t, err)
		assert.Equal(t, "T-1002", completedVal)
	})

	t.Run("no tasks found", func(t *testing.T) {
		buffer, err := report.GenerateTaskReport(nil)

		require.Error(t, err)
		assert.Nil(t, buffer)
		require.ErrorIs(t, err, report.ErrNoRows)
	})
}

func TestGenerateInvoiceReport(t *testing.T) {
	testInvoices := []models.Invoice{
		{InvoiceNumber: "INV-001", ClientName: "Alice", Amount: 120.5,
			Status: models.InvoicePending, PaymentMethods: []string{"cash", "card"}},
		{InvoiceNumber: "INV-002", ClientName: "Bob", Amount: 80,
			Status: models.InvoicePaid, PaidDate: "2026-08-20"},
	}

	t.Run("successful report generation", func(t *testing.T) {
		buffer, err := report.GenerateInvoiceReport(testInvoices)

		require.NoError(t, err)
		assert.NotNil(t, buffer)

		f, err := excelize.OpenReader(buffer)
		require.NoError(t, err)
		defer f.Close()

		assert.Equal(t, []string{"Invoices"}, f.GetSheetList())

		numberVal, err := f.GetCellValue("Invoices", "A2")
		require.NoError(t, err)
		assert.Equal(t, "INV-001", numberVal)

		methodsVal, err := f.GetCellValue("Invoices", "H2")
		require.NoError(t, err)
		assert.Equal(t, "cash, card", methodsVal)

		paidVal, err := f.GetCellValue("Invoices", "G3")
		require.NoError(t, err)
		assert.Equal(t, "2026-08-20", paidVal)
	})

	t.Run("no invoices found", func(t *testing.T) {
		buffer, err := report.GenerateInvoiceReport(nil)

		require.Error(t, err)
		assert.Nil(t, buffer)
		require.ErrorIs(t, err, report.ErrNoRows)
	})
}
