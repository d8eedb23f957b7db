package pgstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/abdallaazouz/handy-man-sub000/internal/models"
	"github.com/abdallaazouz/handy-man-sub000/internal/storage"
	"github.com/jackc/pgx/v5"
)

const invoiceColumns = `id, invoice_number, task_id, technician_id, client_name, amount, status,
		payment_methods, issue_date, due_date, paid_date, created_at, updated_at`

// SelectInvoicesSQL lists all invoices, newest first. Exported for tests.
const SelectInvoicesSQL = `SELECT ` + invoiceColumns + ` FROM invoices ORDER BY id DESC`

// InsertInvoiceSQL creates an invoice and returns the stored row. Exported for tests.
const InsertInvoiceSQL = `
	INSERT INTO invoices (invoice_number, task_id, technician_id, client_name, amount, status,
		payment_methods, issue_date, due_date, paid_date)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	RETURNING ` + invoiceColumns

func scanInvoice(row pgx.Row) (models.Invoice, error) {
	var inv models.Invoice
	err := row.Scan(
		&inv.ID, &inv.InvoiceNumber, &inv.TaskID, &inv.TechnicianID, &inv.ClientName,
		&inv.Amount, &inv.Status, &inv.PaymentMethods,
		&inv.IssueDate, &inv.DueDate, &inv.PaidDate,
		&inv.CreatedAt, &inv.UpdatedAt,
	)
	return inv, err
}

func (s *Store) queryInvoices(ctx context.Context, query string, args ...any) ([]models.Invoice, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query invoices: %w", err)
	}
	defer rows.Close()

	var invoices []models.Invoice
	for rows.Next() {
		inv, errScan := scanInvoice(rows)
		if errScan != nil {
			return nil, fmt.Errorf("failed to scan invoice row: %w", errScan)
		}
		invoices = append(invoices, inv)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read invoice rows: %w", err)
	}

	return invoices, nil
}

// ListInvoices retrieves all invoices, newest first.
func (s *Store) ListInvoices(ctx context.Context) ([]models.Invoice, error) {
	return s.queryInvoices(ctx, SelectInvoicesSQL)
}

// ListInvoicesByTechnician retrieves invoices issued for the given technician.
func (s *Store) ListInvoicesByTechnician(ctx context.Context, technicianID int64) ([]models.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE technician_id = $1 ORDER BY id DESC`
	return s.queryInvoices(ctx, query, technicianID)
}

// GetInvoice retrieves an invoice by id.
func (s *Store) GetInvoice(ctx context.Context, id int64) (models.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = $1`
	inv, err := scanInvoice(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Invoice{}, storage.ErrNotFound
		}
		return models.Invoice{}, fmt.Errorf("failed to query invoice %d: %w", id, err)
	}
	return inv, nil
}

// CreateInvoice inserts a new invoice. A duplicate invoice number surfaces as
// storage.ErrConflict.
func (s *Store) CreateInvoice(ctx context.Context, inv models.Invoice) (models.Invoice, error) {
	methods := inv.PaymentMethods
	if methods == nil {
		methods = []string{}
	}

	created, err := scanInvoice(s.db.QueryRow(ctx, InsertInvoiceSQL,
		inv.InvoiceNumber, inv.TaskID, inv.TechnicianID, inv.ClientName, inv.Amount,
		inv.Status, methods, inv.IssueDate, inv.DueDate, inv.PaidDate,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return models.Invoice{}, storage.ErrConflict
		}
		return models.Invoice{}, fmt.Errorf("failed to insert invoice: %w", err)
	}
	return created, nil
}

// UpdateInvoice merges the non-nil fields of upd into the stored invoice and
// refreshes its updated_at timestamp.
func (s *Store) UpdateInvoice(ctx context.Context, id int64, upd storage.InvoiceUpdate) (models.Invoice, error) {
	builder := psql.Update("invoices").Set("updated_at", time.Now())

	if upd.ClientName != nil {
		builder = builder.Set("client_name", *upd.ClientName)
	}
	if upd.Amount != nil {
		builder = builder.Set("amount", *upd.Amount)
	}
	if upd.Status != nil {
		builder = builder.Set("status", *upd.Status)
	}
	if upd.PaymentMethods != nil {
		builder = builder.Set("payment_methods", *upd.PaymentMethods)
	}
	if upd.IssueDate != nil {
		builder = builder.Set("issue_date", *upd.IssueDate)
	}
	if upd.DueDate != nil {
		builder = builder.Set("due_date", *upd.DueDate)
	}
	if upd.PaidDate != nil {
		builder = builder.Set("paid_date", *upd.PaidDate)
	}

	query, args, err := builder.Where(squirrel.Eq{"id": id}).Suffix("RETURNING " + invoiceColumns).ToSql()
	if err != nil {
		return models.Invoice{}, fmt.Errorf("failed to build invoice update: %w", err)
	}

	inv, err := scanInvoice(s.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Invoice{}, storage.ErrNotFound
		}
		return models.Invoice{}, fmt.Errorf("failed to update invoice %d: %w", id, err)
	}
	return inv, nil
}

// DeleteInvoice removes the invoice and reports whether a row was deleted.
func (s *Store) DeleteInvoice(ctx context.Context, id int64) (bool, error) {
	cmdTag, err := s.db.Exec(ctx, "DELETE FROM invoices WHERE id = $1", id)
	if err != nil {
		return false, fmt.Errorf("failed to delete invoice %d: %w", id, err)
	}
	return cmdTag.RowsAffected() > 0, nil
}
