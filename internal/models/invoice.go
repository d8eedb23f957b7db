package models

import "time"

// InvoiceStatus is the billing state of an invoice. Transitions are free-form:
// any defined value may be set directly through the API.
type InvoiceStatus string

// Invoice states.
const (
	InvoicePending InvoiceStatus = "pending"
	InvoiceSent    InvoiceStatus = "sent"
	InvoicePaid    InvoiceStatus = "paid"
	InvoiceNotSent InvoiceStatus = "not_sent"
)

// Valid reports whether s is one of the defined invoice statuses.
func (s InvoiceStatus) Valid() bool {
	switch s {
	case InvoicePending, InvoiceSent, InvoicePaid, InvoiceNotSent:
		return true
	}
	return false
}

// Invoice is a billing record tied to one task and one technician.
type Invoice struct {
	ID             int64         `json:"id"`             // Internal identifier
	InvoiceNumber  string        `json:"invoiceNumber"`  // Unique invoice number
	TaskID         int64         `json:"taskId"`         // Referenced task
	TechnicianID   int64         `json:"technicianId"`   // Referenced technician
	ClientName     string        `json:"clientName"`     // Name of the billed client
	Amount         float64       `json:"amount"`         // Positive amount due
	Status         InvoiceStatus `json:"status"`         // Billing state
	PaymentMethods []string      `json:"paymentMethods"` // Accepted payment methods
	IssueDate      string        `json:"issueDate"`      // Issue date, YYYY-MM-DD
	DueDate        string        `json:"dueDate"`        // Due date, YYYY-MM-DD
	PaidDate       string        `json:"paidDate"`       // Paid date, empty until settled
	CreatedAt      time.Time     `json:"createdAt"`      // Timestamp of record creation
	UpdatedAt      time.Time     `json:"updatedAt"`      // Timestamp of the last update
}
