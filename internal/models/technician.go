package models

import "time"

// Technician represents a field worker reachable over Telegram.
// A technician is identified primarily by their unique Telegram chat ID;
// records are created either by an admin or by self-registration via /start.
type Technician struct {
	ID         int64     `json:"id"`         // Internal identifier
	TelegramID int64     `json:"telegramId"` // Unique Telegram chat identifier
	Name       string    `json:"name"`       // Display name
	Username   string    `json:"username"`   // Optional Telegram username
	Phone      string    `json:"phone"`      // Optional phone number
	Category   string    `json:"category"`   // Service category, e.g. plumbing
	Area       string    `json:"area"`       // Coverage area
	IsActive   bool      `json:"isActive"`   // Whether the technician receives dispatches
	JoinedAt   time.Time `json:"joinedAt"`   // Timestamp of registration
}
