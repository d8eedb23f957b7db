package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/abdallaazouz/handy-man-sub000/internal/auth"
	"github.com/abdallaazouz/handy-man-sub000/internal/models"
)

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token string              `json:"token"`
	User  models.AdminProfile `json:"user"`
}

// login verifies the admin credentials and issues a session token.
func (s *Server) login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	profile, err := s.store.GetAdminProfile(c.Request().Context())
	if err != nil {
		return s.fail(c, err)
	}

	if req.Username != profile.Username || !auth.VerifyPassword(profile.PasswordHash, req.Password) {
		s.log.WarnContext(c.Request().Context(), "rejected login attempt", "username", req.Username)
		return c.JSON(http.StatusUnauthorized, errorMessage{Error: "invalid credentials"})
	}

	token, err := s.sessions.IssueToken(profile.Username)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, loginResponse{Token: token, User: profile})
}

func (s *Server) getBotSettings(c echo.Context) error {
	settings, err := s.store.GetBotSettings(c.Request().Context())
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, settings)
}

type botSettingsRequest struct {
	Token     string `json:"token"`
	IsEnabled bool   `json:"isEnabled"`
}

// saveBotSettings persists the bot configuration and applies it immediately:
// an enabled bot with a token is (re)connected, anything else is stopped. The
// settings are saved even when the connection attempt fails, so the admin can
// correct the token without losing state.
func (s *Server) saveBotSettings(c echo.Context) error {
	var req botSettingsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}

	saved, err := s.store.SaveBotSettings(c.Request().Context(), models.BotSettings{
		Token:     req.Token,
		IsEnabled: req.IsEnabled,
	})
	if err != nil {
		return s.fail(c, err)
	}

	if saved.IsEnabled && saved.Token != "" {
		if err = s.gateway.Initialize(saved.Token); err != nil {
			s.log.WarnContext(c.Request().Context(), "failed to connect Telegram bot", "error", err)
			return c.JSON(http.StatusBadGateway, errorMessage{Error: "failed to connect Telegram bot"})
		}
	} else {
		s.gateway.Stop()
	}

	return c.JSON(http.StatusOK, saved)
}

func (s *Server) getSystemSettings(c echo.Context) error {
	settings, err := s.store.GetSystemSettings(c.Request().Context())
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, settings)
}

type systemSettingsRequest struct {
	Language string `json:"language" validate:"required,oneof=en ar"`
	Currency string `json:"currency" validate:"required"`
	Timezone string `json:"timezone" validate:"required"`
}

// saveSystemSettings persists the dashboard preferences. The language takes
// effect on the next outgoing bot message.
func (s *Server) saveSystemSettings(c echo.Context) error {
	var req systemSettingsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	saved, err := s.store.SaveSystemSettings(c.Request().Context(), models.SystemSettings{
		Language: req.Language,
		Currency: req.Currency,
		Timezone: req.Timezone,
	})
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, saved)
}

func (s *Server) getAdminProfile(c echo.Context) error {
	profile, err := s.store.GetAdminProfile(c.Request().Context())
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, profile)
}

type adminProfileRequest struct {
	Username string `json:"username" validate:"required"`
	Name     string `json:"name"`
	Email    string `json:"email"    validate:"omitempty,email"`
	Password string `json:"password"`
}

// saveAdminProfile updates the administrator account. An empty password keeps
// the current one; a non-empty password is hashed before storage.
func (s *Server) saveAdminProfile(c echo.Context) error {
	var req adminProfileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	current, err := s.store.GetAdminProfile(c.Request().Context())
	if err != nil {
		return s.fail(c, err)
	}

	hash := current.PasswordHash
	if req.Password != "" {
		if hash, err = auth.HashPassword(req.Password); err != nil {
			return s.fail(c, err)
		}
	}

	saved, err := s.store.SaveAdminProfile(c.Request().Context(), models.AdminProfile{
		Username:     req.Username,
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
	})
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, saved)
}
