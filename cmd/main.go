package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/abdallaazouz/handy-man-sub000/internal/auth"
	"github.com/abdallaazouz/handy-man-sub000/internal/bot"
	"github.com/abdallaazouz/handy-man-sub000/internal/config"
	"github.com/abdallaazouz/handy-man-sub000/internal/i18n"
	"github.com/abdallaazouz/handy-man-sub000/internal/lifecycle"
	"github.com/abdallaazouz/handy-man-sub000/internal/metrics"
	"github.com/abdallaazouz/handy-man-sub000/internal/relay"
	"github.com/abdallaazouz/handy-man-sub000/internal/server"
	"github.com/abdallaazouz/handy-man-sub000/internal/storage"
	"github.com/abdallaazouz/handy-man-sub000/internal/storage/memstore"
	"github.com/abdallaazouz/handy-man-sub000/internal/storage/pgstore"
)

// Constants for different environment types.
const (
	envLocal = "local"
	envDev   = "development"
	envProd  = "production"
)

// defaultAdminPassword is set on first start when no admin password exists.
// The admin is expected to change it through the profile page.
const defaultAdminPassword = "admin"

// main is the entry point of the application.
func main() {
	// Create a context that will be canceled when an interrupt signal is received.
	// This allows for graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load application configuration.
	cfg := config.MustLoad()

	// Set up the logger based on the environment.
	logger := setupLogger(cfg.Env)

	// Create a separate registry for metrics with exemplar
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.NewMetrics(reg)

	// Initialize the persistence backend selected by the configuration.
	store, err := newStore(cfg, appMetrics)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer store.Close()

	// Load the embedded message locales.
	localizer, err := i18n.NewLocalizer()
	if err != nil {
		log.Fatalf("Failed to load locales: %v", err)
	}

	// Wire the notification relay, the task lifecycle and the bot gateway.
	broadcaster := relay.New(store, logger)
	controller := lifecycle.New(store, broadcaster, logger)
	gateway := bot.NewGateway(store, broadcaster, controller, localizer, appMetrics, logger, cfg.PollerTimeout)
	controller.BindSender(gateway)

	// Make sure the admin account has a password on first start.
	if err = ensureAdminPassword(ctx, logger, store); err != nil {
		log.Fatalf("Failed to initialize admin account: %v", err)
	}

	// Reconnect the bot if it was enabled with a stored token.
	if settings, settingsErr := store.GetBotSettings(ctx); settingsErr == nil &&
		settings.IsEnabled && settings.Token != "" {
		if initErr := gateway.Initialize(settings.Token); initErr != nil {
			logger.WarnContext(ctx, "Failed to reconnect Telegram bot on startup", "error", initErr)
		}
	}

	sessions := auth.NewManager(jwtSecret(ctx, logger, cfg), cfg.TokenTTL)

	logger.InfoContext(ctx, "Application started. Press Ctrl+C to stop.",
		"storage", cfg.Storage, "port", cfg.HTTPPort)

	srv := server.New(logger, store, broadcaster, controller, gateway, sessions, appMetrics, reg)
	if err = srv.Start(ctx, cfg.HTTPPort); err != nil {
		logger.ErrorContext(ctx, "API server failed", "error", err)
	}

	// Stop the bot gracefully.
	gateway.Stop()

	logger.InfoContext(ctx, "Application stopped gracefully.")
}

// newStore builds the configured storage backend. The postgres backend is
// migrated before use; anything else falls back to the in-memory store.
func newStore(cfg *config.Config, appMetrics *metrics.Metrics) (storage.Store, error) {
	if cfg.Storage != config.StoragePostgres {
		return memstore.New(), nil
	}

	dsn := pgstore.DSN(cfg.Database.Host, cfg.Database.Port, cfg.Database.User, cfg.Database.Password, cfg.Database.Name)
	if err := pgstore.Migrate(dsn); err != nil {
		return nil, err
	}

	pool, err := pgstore.NewDatabase(
		cfg.Database.Host, cfg.Database.Port, cfg.Database.User, cfg.Database.Password, cfg.Database.Name,
	)
	if err != nil {
		return nil, err
	}
	return pgstore.New(pgstore.Instrument(pool, appMetrics.DBQueryDuration)), nil
}

// ensureAdminPassword hashes and stores the default password when the admin
// profile has none yet, so the dashboard is reachable on a fresh install.
func ensureAdminPassword(ctx context.Context, logger *slog.Logger, store storage.Store) error {
	profile, err := store.GetAdminProfile(ctx)
	if err != nil {
		return err
	}
	if profile.PasswordHash != "" {
		return nil
	}

	hash, err := auth.HashPassword(defaultAdminPassword)
	if err != nil {
		return err
	}
	profile.PasswordHash = hash
	if _, err = store.SaveAdminProfile(ctx, profile); err != nil {
		return err
	}

	logger.WarnContext(ctx, "Admin password was initialized to the default. Change it after first login.",
		"username", profile.Username)
	return nil
}

// jwtSecret returns the configured signing secret, or a random one when none
// is configured. A random secret invalidates sessions on every restart.
func jwtSecret(ctx context.Context, logger *slog.Logger, cfg *config.Config) string {
	if cfg.JWTSecret != "" {
		return cfg.JWTSecret
	}
	logger.WarnContext(ctx, "No JWT secret configured, using a random one. Sessions will not survive restarts.")
	return uuid.NewString()
}

// setupLogger initializes and returns a logger based on the environment provided.
func setupLogger(env string) *slog.Logger {
	var logger *slog.Logger

	switch env {
	case envLocal:
		logger = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelDebug,
				AddSource: true,
				ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
					return a
				},
			}),
		)
	case envDev:
		logger = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelInfo,
				AddSource: false,
				ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
					return a
				},
			}),
		)
	case envProd:
		logger = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelWarn,
				AddSource: false,
				ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
					if a.Key == slog.TimeKey {
						return slog.Attr{}
					}
					return a
				},
			}),
		)
	default:
		logger = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelError,
				AddSource: false,
				ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
					if a.Key == slog.TimeKey {
						return slog.Attr{}
					}
					return a
				},
			}),
		)

		logger.Error(
			"The env parameter was not specified	 or was invalid. Logging will be minimal, by default.",
			slog.String("available_envs", "local, development, production"))
	}

	return logger
}
