package pgstore

import (
	"context"
	"fmt"

	"github.com/abdallaazouz/handy-man-sub000/internal/models"
)

// Singleton rows live under a fixed primary key and are upserted in place.
const singletonID = 1

// GetBotSettings retrieves the singleton bot settings row.
func (s *Store) GetBotSettings(ctx context.Context) (models.BotSettings, error) {
	var settings models.BotSettings
	err := s.db.QueryRow(ctx,
		"SELECT id, token, is_enabled, updated_at FROM bot_settings WHERE id = $1", singletonID,
	).Scan(&settings.ID, &settings.Token, &settings.IsEnabled, &settings.UpdatedAt)
	if err != nil {
		return models.BotSettings{}, fmt.Errorf("failed to query bot settings: %w", err)
	}
	return settings, nil
}

// SaveBotSettings upserts the singleton bot settings row.
func (s *Store) SaveBotSettings(ctx context.Context, settings models.BotSettings) (models.BotSettings, error) {
	query := `
		INSERT INTO bot_settings (id, token, is_enabled, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (id) DO UPDATE SET token = EXCLUDED.token,
			is_enabled = EXCLUDED.is_enabled, updated_at = now()
		RETURNING id, token, is_enabled, updated_at`

	var saved models.BotSettings
	err := s.db.QueryRow(ctx, query, singletonID, settings.Token, settings.IsEnabled).
		Scan(&saved.ID, &saved.Token, &saved.IsEnabled, &saved.UpdatedAt)
	if err != nil {
		return models.BotSettings{}, fmt.Errorf("failed to upsert bot settings: %w", err)
	}
	return saved, nil
}

// GetSystemSettings retrieves the singleton system settings row.
func (s *Store) GetSystemSettings(ctx context.Context) (models.SystemSettings, error) {
	var settings models.SystemSettings
	err := s.db.QueryRow(ctx,
		"SELECT id, language, currency, timezone, updated_at FROM system_settings WHERE id = $1", singletonID,
	).Scan(&settings.ID, &settings.Language, &settings.Currency, &settings.Timezone, &settings.UpdatedAt)
	if err != nil {
		return models.SystemSettings{}, fmt.Errorf("failed to query system settings: %w", err)
	}
	return settings, nil
}

// SaveSystemSettings upserts the singleton system settings row.
func (s *Store) SaveSystemSettings(ctx context.Context, settings models.SystemSettings) (models.SystemSettings, error) {
	query := `
		INSERT INTO system_settings (id, language, currency, timezone, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (id) DO UPDATE SET language = EXCLUDED.language,
			currency = EXCLUDED.currency, timezone = EXCLUDED.timezone, updated_at = now()
		RETURNING id, language, currency, timezone, updated_at`

	var saved models.SystemSettings
	err := s.db.QueryRow(ctx, query, singletonID, settings.Language, settings.Currency, settings.Timezone).
		Scan(&saved.ID, &saved.Language, &saved.Currency, &saved.Timezone, &saved.UpdatedAt)
	if err != nil {
		return models.SystemSettings{}, fmt.Errorf("failed to upsert system settings: %w", err)
	}
	return saved, nil
}

// GetAdminProfile retrieves the singleton admin profile row.
func (s *Store) GetAdminProfile(ctx context.Context) (models.AdminProfile, error) {
	var profile models.AdminProfile
	err := s.db.QueryRow(ctx,
		"SELECT id, username, name, email, password_hash, updated_at FROM admin_profiles WHERE id = $1", singletonID,
	).Scan(&profile.ID, &profile.Username, &profile.Name, &profile.Email, &profile.PasswordHash, &profile.UpdatedAt)
	if err != nil {
		return models.AdminProfile{}, fmt.Errorf("failed to query admin profile: %w", err)
	}
	return profile, nil
}

// SaveAdminProfile upserts the singleton admin profile row.
func (s *Store) SaveAdminProfile(ctx context.Context, profile models.AdminProfile) (models.AdminProfile, error) {
	query := `
		INSERT INTO admin_profiles (id, username, name, email, password_hash, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (id) DO UPDATE SET username = EXCLUDED.username, name = EXCLUDED.name,
			email = EXCLUDED.email, password_hash = EXCLUDED.password_hash, updated_at = now()
		RETURNING id, username, name, email, password_hash, updated_at`

	var saved models.AdminProfile
	err := s.db.QueryRow(ctx, query, singletonID,
		profile.Username, profile.Name, profile.Email, profile.PasswordHash,
	).Scan(&saved.ID, &saved.Username, &saved.Name, &saved.Email, &saved.PasswordHash, &saved.UpdatedAt)
	if err != nil {
		return models.AdminProfile{}, fmt.Errorf("failed to upsert admin profile: %w", err)
	}
	return saved, nil
}
