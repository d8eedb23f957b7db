// Package server exposes the REST API consumed by the admin dashboard:
// entity CRUD, bot trigger endpoints, the notification stream and the
// operational endpoints (health, metrics).
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/abdallaazouz/handy-man-sub000/internal/auth"
	"github.com/abdallaazouz/handy-man-sub000/internal/bot"
	"github.com/abdallaazouz/handy-man-sub000/internal/lifecycle"
	"github.com/abdallaazouz/handy-man-sub000/internal/metrics"
	"github.com/abdallaazouz/handy-man-sub000/internal/relay"
	"github.com/abdallaazouz/handy-man-sub000/internal/storage"
)

const (
	readTimeout     = 5 * time.Second
	shutdownTimeout = 5 * time.Second
)

// Server wires the HTTP surface to the persistence store, the task lifecycle
// controller and the bot gateway.
type Server struct {
	echo       *echo.Echo
	store      storage.Store
	relay      *relay.Relay
	controller *lifecycle.Controller
	gateway    *bot.Gateway
	sessions   *auth.Manager
	metrics    *metrics.Metrics
	log        *slog.Logger
}

// New creates the server and registers every route. The login, health and
// metrics endpoints are public; everything under /api requires a session
// token.
func New(
	log *slog.Logger,
	store storage.Store,
	rel *relay.Relay,
	controller *lifecycle.Controller,
	gateway *bot.Gateway,
	sessions *auth.Manager,
	appMetrics *metrics.Metrics,
	registry *prometheus.Registry,
) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Binder = &strictBinder{}
	e.Validator = &requestValidator{validate: validator.New()}

	srv := &Server{
		echo:       e,
		store:      store,
		relay:      rel,
		controller: controller,
		gateway:    gateway,
		sessions:   sessions,
		metrics:    appMetrics,
		log:        log,
	}

	e.Use(middleware.Recover())
	e.Use(srv.requestLogger)
	e.Use(srv.observeRequests)

	e.GET("/healthz", srv.healthz)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	e.POST("/api/auth/login", srv.login)

	api := e.Group("/api", srv.authRequired)

	api.GET("/tasks", srv.listTasks)
	api.POST("/tasks", srv.createTask)
	api.GET("/tasks/:id", srv.getTask)
	api.PUT("/tasks/:id", srv.updateTask)
	api.DELETE("/tasks/:id", srv.deleteTask)

	api.GET("/technicians", srv.listTechnicians)
	api.POST("/technicians", srv.createTechnician)
	api.GET("/technicians/:id", srv.getTechnician)
	api.PUT("/technicians/:id", srv.updateTechnician)
	api.DELETE("/technicians/:id", srv.deleteTechnician)

	api.GET("/invoices", srv.listInvoices)
	api.POST("/invoices", srv.createInvoice)
	api.GET("/invoices/:id", srv.getInvoice)
	api.PUT("/invoices/:id", srv.updateInvoice)
	api.DELETE("/invoices/:id", srv.deleteInvoice)

	api.GET("/notifications", srv.listNotifications)
	api.GET("/notifications/unread", srv.listUnreadNotifications)
	api.GET("/notifications/stream", srv.streamNotifications)
	api.POST("/notifications/:id/read", srv.markNotificationRead)
	api.POST("/notifications/mark-all-read", srv.markAllNotificationsRead)
	api.POST("/notifications/bulk-delete", srv.bulkDeleteNotifications)
	api.DELETE("/notifications/:id", srv.deleteNotification)

	api.GET("/bot-settings", srv.getBotSettings)
	api.PUT("/bot-settings", srv.saveBotSettings)
	api.GET("/system-settings", srv.getSystemSettings)
	api.PUT("/system-settings", srv.saveSystemSettings)
	api.GET("/admin/profile", srv.getAdminProfile)
	api.PUT("/admin/profile", srv.saveAdminProfile)

	api.POST("/telegram/send-task", srv.sendTask)
	api.POST("/telegram/send-client-info", srv.sendClientInfo)
	api.POST("/telegram/send-invoice", srv.sendInvoice)
	api.POST("/telegram/send-invoice-pdf", srv.sendInvoicePDF)
	api.GET("/telegram/status", srv.telegramStatus)

	api.GET("/reports/tasks", srv.taskReport)
	api.GET("/reports/invoices", srv.invoiceReport)

	return srv
}

// Handler exposes the routed HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start runs the server until the context is cancelled, then shuts it down
// gracefully. The write timeout is left unset so the notification stream can
// stay open indefinitely.
func (s *Server) Start(ctx context.Context, port int) error {
	s.echo.Server.ReadTimeout = readTimeout

	s.log.InfoContext(ctx, "Starting API server", "port", port)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- s.echo.Start(fmt.Sprintf(":%d", port))
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.log.InfoContext(ctx, "API server shutting down.")
		if err := s.echo.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shutdown server: %w", err)
		}
		return nil
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	}
}

// strictBinder decodes JSON request bodies with unknown fields disallowed,
// so a misspelled payload key fails loudly instead of being silently dropped.
// Non-JSON requests fall through to echo's default binder.
type strictBinder struct {
	fallback echo.DefaultBinder
}

func (b *strictBinder) Bind(i interface{}, c echo.Context) error {
	req := c.Request()
	if req.ContentLength == 0 ||
		!strings.HasPrefix(req.Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		return b.fallback.Bind(i, c)
	}

	dec := json.NewDecoder(req.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

// requestValidator adapts go-playground/validator to echo's Validator hook.
type requestValidator struct {
	validate *validator.Validate
}

func (v *requestValidator) Validate(i interface{}) error {
	if err := v.validate.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

// requestLogger logs every completed request with its status and duration.
func (s *Server) requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)

		status := c.Response().Status
		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) {
			status = httpErr.Code
		}

		s.log.InfoContext(c.Request().Context(), "request completed",
			"method", c.Request().Method,
			"path", c.Request().URL.Path,
			"status", status,
			"duration", time.Since(start).String(),
		)
		return err
	}
}

// observeRequests records the request duration histogram, labelled by the
// route pattern rather than the raw path to keep cardinality bounded.
func (s *Server) observeRequests(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)

		status := c.Response().Status
		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) {
			status = httpErr.Code
		}

		s.metrics.HTTPRequestDuration.
			WithLabelValues(c.Request().Method, c.Path(), strconv.Itoa(status)).
			Observe(time.Since(start).Seconds())
		return err
	}
}

// authRequired validates the session token from the Authorization header.
// The notification stream also accepts a token query parameter because the
// browser EventSource API cannot set headers.
func (s *Server) authRequired(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := bearerToken(c.Request().Header.Get("Authorization"))
		if token == "" {
			token = c.QueryParam("token")
		}
		if token == "" {
			return c.JSON(http.StatusUnauthorized, errorMessage{Error: "missing session token"})
		}

		username, err := s.sessions.ValidateToken(token)
		if err != nil {
			s.log.WarnContext(c.Request().Context(), "rejected invalid session token", "error", err)
			return c.JSON(http.StatusUnauthorized, errorMessage{Error: "invalid session token"})
		}

		c.Set("username", username)
		return next(c)
	}
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && header[:len(prefix)] == prefix {
		return header[len(prefix):]
	}
	return ""
}

type errorMessage struct {
	Error string `json:"error"`
}

// fail maps domain errors to HTTP status codes. Internal errors are logged
// and reported with a generic message.
func (s *Server) fail(c echo.Context, err error) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return c.JSON(http.StatusNotFound, errorMessage{Error: "record not found"})
	case errors.Is(err, storage.ErrConflict):
		return c.JSON(http.StatusConflict, errorMessage{Error: "record already exists"})
	case errors.Is(err, lifecycle.ErrNoTechnicians):
		return c.JSON(http.StatusBadRequest, errorMessage{Error: "task has no assigned technicians"})
	case errors.Is(err, lifecycle.ErrInvalidTransition):
		return c.JSON(http.StatusConflict, errorMessage{Error: "transition not allowed from current status"})
	default:
		s.log.ErrorContext(c.Request().Context(), "request failed",
			"path", c.Request().URL.Path, "error", err)
		return c.JSON(http.StatusInternalServerError, errorMessage{Error: "internal server error"})
	}
}

// parseID extracts the numeric :id path parameter.
func parseID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid identifier")
	}
	return id, nil
}
