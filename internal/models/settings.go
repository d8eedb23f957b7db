package models

import "time"

// BotSettings is the singleton Telegram bot configuration row.
type BotSettings struct {
	ID        int64     `json:"id"`
	Token     string    `json:"token"`     // Telegram bot token
	IsEnabled bool      `json:"isEnabled"` // Whether the gateway should be connected
	UpdatedAt time.Time `json:"updatedAt"`
}

// SystemSettings is the singleton dashboard configuration row.
// Language is resolved at time-of-send by the bot gateway, so changing it
// takes effect on the next outgoing message.
type SystemSettings struct {
	ID        int64     `json:"id"`
	Language  string    `json:"language"` // Message language: "en" or "ar"
	Currency  string    `json:"currency"` // Display currency code, e.g. "USD"
	Timezone  string    `json:"timezone"` // IANA timezone name
	UpdatedAt time.Time `json:"updatedAt"`
}

// AdminProfile is the singleton dashboard administrator account.
// PasswordHash is a bcrypt hash and is never serialized to API responses.
type AdminProfile struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
