// Package report renders Excel exports of tasks and invoices for the
// dashboard download buttons.
package report

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/abdallaazouz/handy-man-sub000/internal/models"
	"github.com/xuri/excelize/v2"
)

// ErrNoRows is returned when an export is requested for an empty record set.
var ErrNoRows = errors.New("failed to generate report, no records were provided")

// maxSheetNameLength is the Excel limit for sheet names.
const maxSheetNameLength = 31

// Generator holds the state for the Excel report generation process.
type Generator struct {
	file *excelize.File
}

// NewGenerator creates a new report generator.
func NewGenerator() *Generator {
	return &Generator{
		file: excelize.NewFile(),
	}
}

// GenerateTaskReport renders tasks grouped by status, one sheet per status.
// It returns a buffer with the workbook or ErrNoRows when tasks is empty.
func GenerateTaskReport(tasks []models.Task) (*bytes.Buffer, error) {
	if len(tasks) == 0 {
		return nil, ErrNoRows
	}

	byStatus := make(map[string][]models.Task)
	for _, task := range tasks {
		byStatus[string(task.Status)] = append(byStatus[string(task.Status)], task)
	}

	gen := NewGenerator()
	defer gen.file.Close()

	for status, group := range byStatus {
		sheetName := truncateSheetName(status)
		if _, err := gen.file.NewSheet(sheetName); err != nil {
			return nil, fmt.Errorf("failed to generate new sheet '%s': %w", sheetName, err)
		}

		headers := []string{"Task", "Number", "Title", "Client", "Address", "Scheduled", "Payment", "Created"}
		widths := []float64{14, 12, 40, 25, 40, 16, 14, 18}
		if err := gen.setupSheet(sheetName, headers, widths, len(group)); err != nil {
			return nil, fmt.Errorf("failed to setup sheet '%s': %w", sheetName, err)
		}

		for i, task := range group {
			rowData := []interface{}{
				task.TaskID,
				task.TaskNumber,
				task.Title,
				task.ClientName,
				task.Address,
				task.ScheduledDate,
				string(task.PaymentStatus),
				task.CreatedAt.Format("02.01.2006"),
			}
			if err := gen.addRow(sheetName, i+2, rowData); err != nil {
				return nil, fmt.Errorf("failed to add row '%d': %w", i+2, err)
			}
		}
	}

	return gen.finish()
}

// GenerateInvoiceReport renders all invoices on a single sheet.
func GenerateInvoiceReport(invoices []models.Invoice) (*bytes.Buffer, error) {
	if len(invoices) == 0 {
		return nil, ErrNoRows
	}

	gen := NewGenerator()
	defer gen.file.Close()

	const sheetName = "Invoices"
	if _, err := gen.file.NewSheet(sheetName); err != nil {
		return nil, fmt.Errorf("failed to generate new sheet '%s': %w", sheetName, err)
	}

	headers := []string{"Invoice", "Client", "Amount", "Status", "Issued", "Due", "Paid", "Methods"}
	widths := []float64{16, 25, 12, 12, 14, 14, 14, 30}
	if err := gen.setupSheet(sheetName, headers, widths, len(invoices)); err != nil {
		return nil, fmt.Errorf("failed to setup sheet '%s': %w", sheetName, err)
	}

	for i, inv := range invoices {
		rowData := []interface{}{
			inv.InvoiceNumber,
			inv.ClientName,
			inv.Amount,
			string(inv.Status),
			inv.IssueDate,
			inv.DueDate,
			inv.PaidDate,
			strings.Join(inv.PaymentMethods, ", "),
		}
		if err := gen.addRow(sheetName, i+2, rowData); err != nil {
			return nil, fmt.Errorf("failed to add row '%d': %w", i+2, err)
		}
	}

	return gen.finish()
}

// setupSheet initializes the specified sheet with headers, styles, column
// widths and a styled table covering the data range.
func (g *Generator) setupSheet(sheetName string, headers []string, widths []float64, rowCount int) error {
	var err error

	headerStyle, err := g.file.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4F81BD"}, Pattern: 1},
		Alignment: &excelize.Alignment{Vertical: "center", Horizontal: "center"},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create new style: %w", err)
	}

	rowHeight := 20
	if err = g.file.SetRowHeight(sheetName, 1, float64(rowHeight)); err != nil {
		return fmt.Errorf("failed to set row height for headers: %w", err)
	}
	if err = g.file.SetSheetRow(sheetName, "A1", &headers); err != nil {
		return fmt.Errorf("failed to set sheet row for headers: %w", err)
	}

	lastCol, _ := excelize.ColumnNumberToName(len(headers))
	if err = g.file.SetCellStyle(sheetName, "A1", lastCol+"1", headerStyle); err != nil {
		return fmt.Errorf("failed to set cell style for headers: %w", err)
	}

	for i, width := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err = g.file.SetColWidth(sheetName, col, col, width); err != nil {
			return fmt.Errorf("failed to set column width: %w", err)
		}
	}

	if err = g.file.AddTable(sheetName, &excelize.Table{
		Range:     fmt.Sprintf("A1:%s%d", lastCol, rowCount+1),
		Name:      "table_" + strings.ReplaceAll(sheetName, " ", ""),
		StyleName: "TableStyleMedium9",
	}); err != nil {
		return fmt.Errorf("failed to add table: %w", err)
	}

	return nil
}

// addRow writes one data row starting at column A of the given row number.
func (g *Generator) addRow(sheetName string, rowNum int, rowData []interface{}) error {
	cell, _ := excelize.CoordinatesToCellName(1, rowNum)

	if err := g.file.SetSheetRow(sheetName, cell, &rowData); err != nil {
		return fmt.Errorf("failed to set sheet row: %w", err)
	}

	return nil
}

// finish drops the default sheet, activates the first data sheet and returns
// the rendered workbook.
func (g *Generator) finish() (*bytes.Buffer, error) {
	g.file.SetActiveSheet(0)

	if sheetIndex, _ := g.file.GetSheetIndex("Sheet1"); sheetIndex != -1 {
		if err := g.file.DeleteSheet("Sheet1"); err != nil {
			return nil, fmt.Errorf("failed to delete default sheet 'Sheet1': %w", err)
		}
	}

	buffer, err := g.file.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write data from saved file: %w", err)
	}

	return buffer, nil
}

// truncateSheetName truncates the given sheet name to the Excel limit.
func truncateSheetName(name string) string {
	if utf8.RuneCountInString(name) > maxSheetNameLength {
		runes := []rune(name)
		return string(runes[:maxSheetNameLength])
	}
	return name
}
