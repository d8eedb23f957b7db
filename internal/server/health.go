package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// healthz reports the health of the persistence backend and the bot gateway
// connection state. A failing store ping makes the endpoint unavailable; a
// disconnected bot is informational only since the dashboard works without it.
func (s *Server) healthz(c echo.Context) error {
	ctx := c.Request().Context()
	s.log.DebugContext(ctx, "Performing health checks...")

	status := make(map[string]string)
	overallStatus := http.StatusOK

	if err := s.store.Ping(ctx); err != nil {
		status["storage"] = "unavailable"
		overallStatus = http.StatusServiceUnavailable
		s.log.WarnContext(ctx, "Health check failed: storage ping", "error", err)
	} else {
		status["storage"] = "ok"
	}

	if connected, _ := s.gateway.Status(); connected {
		status["telegram_bot"] = "connected"
	} else {
		status["telegram_bot"] = "disconnected"
	}

	s.log.DebugContext(ctx, "Health checks completed", "status", overallStatus)
	return c.JSON(overallStatus, status)
}
