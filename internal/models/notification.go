package models

import "time"

// Notification is a persisted activity record that may also be pushed to live
// dashboard subscribers. Records are immutable after creation except for the
// IsRead flag.
type Notification struct {
	ID        int64     `json:"id"`        // Internal identifier
	Type      string    `json:"type"`      // Type tag, e.g. "task_accepted" or "activity_bot"
	Message   string    `json:"message"`   // Human-readable message
	Metadata  string    `json:"metadata"`  // Optional opaque serialized payload
	IsRead    bool      `json:"isRead"`    // Whether the admin has seen the record
	CreatedAt time.Time `json:"createdAt"` // Server-assigned creation timestamp
}
