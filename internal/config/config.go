package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage backend selectors.
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// Config holds the configuration settings for the application: environment
// type, HTTP port, storage backend selection, database credentials, session
// secret and the bot poller timeout.
type Config struct {
	Env           string         // Env is the current environment: local, development, production.
	HTTPPort      int            // HTTPPort is the port the REST API listens on.
	Storage       string         // Storage selects the persistence backend: memory or postgres.
	Database      PostgresConfig // Database holds the postgres database configuration.
	JWTSecret     string         // JWTSecret signs admin session tokens.
	TokenTTL      time.Duration  // TokenTTL is the lifetime of issued session tokens.
	PollerTimeout time.Duration  // PollerTimeout is the Telegram long-poller timeout.
}

// PostgresConfig struct holds the configuration details for connecting to a PostgreSQL database.
type PostgresConfig struct {
	Host     string // Host is the database server address.
	Port     string // Port is the database server port.
	User     string // User is the database user.
	Password string // Password is the database user's password.
	Name     string // Name is the name of the database.
}

// MustLoad loads the configuration from the environment (optionally seeded
// from a .env file) and returns a Config struct. It panics on malformed
// duration values so a bad deployment fails fast.
func MustLoad() *Config {
	_ = godotenv.Load()

	viper.AutomaticEnv()
	viper.SetDefault("HANDYMAN_ENV", "local")
	viper.SetDefault("HANDYMAN_HTTP_PORT", 8080)
	viper.SetDefault("HANDYMAN_STORAGE", StorageMemory)
	viper.SetDefault("HANDYMAN_TOKEN_TTL", "24h")
	viper.SetDefault("HANDYMAN_TELEGRAM_TIMEOUT", "10s")
	viper.SetDefault("DB_PORT", "5432")

	tokenTTL := viper.GetDuration("HANDYMAN_TOKEN_TTL")
	if tokenTTL <= 0 {
		panic("failed to parse token TTL from configuration")
	}
	pollerTimeout := viper.GetDuration("HANDYMAN_TELEGRAM_TIMEOUT")
	if pollerTimeout <= 0 {
		panic("failed to parse telegram timeout from configuration")
	}

	return &Config{
		Env:           viper.GetString("HANDYMAN_ENV"),
		HTTPPort:      viper.GetInt("HANDYMAN_HTTP_PORT"),
		Storage:       viper.GetString("HANDYMAN_STORAGE"),
		JWTSecret:     viper.GetString("HANDYMAN_JWT_SECRET"),
		TokenTTL:      tokenTTL,
		PollerTimeout: pollerTimeout,
		Database: PostgresConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			User:     viper.GetString("DB_USERNAME"),
			Password: viper.GetString("DB_PASSWORD"),
			Name:     viper.GetString("DB_NAME"),
		},
	}
}
