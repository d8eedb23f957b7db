package models

import "time"

// TaskStatus represents the lifecycle state of a task.
type TaskStatus string

// Task lifecycle states. A task starts as pending, becomes sent once it is
// dispatched to a technician, moves to accepted/rejected on the technician's
// response and ends as completed.
const (
	StatusPending    TaskStatus = "pending"
	StatusSent       TaskStatus = "sent"
	StatusAccepted   TaskStatus = "accepted"
	StatusRejected   TaskStatus = "rejected"
	StatusInProgress TaskStatus = "in_progress"
	StatusCompleted  TaskStatus = "completed"
)

// Valid reports whether s is one of the defined task statuses.
func (s TaskStatus) Valid() bool {
	switch s {
	case StatusPending, StatusSent, StatusAccepted, StatusRejected, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// PaymentStatus is the payment dimension of a task, independent of lifecycle.
type PaymentStatus string

// Payment states of a task.
const (
	PaymentOnDemand PaymentStatus = "on_demand"
	PaymentPaid     PaymentStatus = "paid"
	PaymentPending  PaymentStatus = "pending"
)

// Valid reports whether p is one of the defined payment statuses.
func (p PaymentStatus) Valid() bool {
	switch p {
	case PaymentOnDemand, PaymentPaid, PaymentPending:
		return true
	}
	return false
}

// Task represents a unit of field work assigned to zero or more technicians.
type Task struct {
	ID            int64         `json:"id"`            // Numeric primary identifier
	TaskID        string        `json:"taskId"`        // External human-readable code, e.g. "T-1024"
	TaskNumber    string        `json:"taskNumber"`    // Sequential display code shown on the dashboard
	Title         string        `json:"title"`         // Short title of the work
	Description   string        `json:"description"`   // Detailed description of the work
	ClientName    string        `json:"clientName"`    // Name of the client
	ClientPhone   string        `json:"clientPhone"`   // Phone number of the client
	Address       string        `json:"address"`       // Location of the work
	MapURL        string        `json:"mapUrl"`        // Optional map link for the location
	TechnicianIDs []int64       `json:"technicianIds"` // Ordered identifiers of assigned technicians
	Status        TaskStatus    `json:"status"`        // Current lifecycle state
	PaymentStatus PaymentStatus `json:"paymentStatus"` // Payment state, settable independently
	ScheduledDate string        `json:"scheduledDate"` // Scheduled date, YYYY-MM-DD
	StartTime     string        `json:"startTime"`     // Scheduling window start, HH:MM
	EndTime       string        `json:"endTime"`       // Scheduling window end, HH:MM
	CreatedAt     time.Time     `json:"createdAt"`     // Timestamp of record creation
	UpdatedAt     time.Time     `json:"updatedAt"`     // Timestamp of the last update
}
