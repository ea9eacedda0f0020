package config

import (
	"fmt"     // For DSN formatting
	"strings" // For list parsing
	"time"    // For durations

	"github.com/google/uuid"    // For the development session secret
	"github.com/joho/godotenv"  // For loading .env files
	"github.com/robfig/cron/v3" // For janitor schedule validation
	"github.com/spf13/viper"    // For typed environment lookups with defaults
)

// Config holds the application configuration
type Config struct {
	AppHost    string // Listening host
	AppPort    string // Application port
	IsProd     bool   // Is production environment
	LogLevel   string // Logrus level name
	DBDriver   string // Database driver: postgres or mysql
	DBUser     string // Database user
	DBPassword string // Database password
	DBHost     string // Database host
	DBPort     string // Database port
	DBName     string // Database name
	DBSSLMode  string // Postgres sslmode

	SessionSecret string        // JWT signing key for the session cookie
	SessionTTL    time.Duration // Session lifetime
	RedisAddr     string        // Redis server address
	RedisPass     string        // Redis password
	RedisDB       int           // Redis database number

	HistoryBackend          string // History backend: file or database
	HistoryFile             string // JSON history file path
	OutputDir               string // Directory for generated documents
	AssetDir                string // Directory holding logo and brand images
	OnMissingAsset          string // skip or error
	CatalogFallbackFile     string // Static catalog used when the user's catalog is empty
	QuotationFallbackNumber string // Used when the form's quotation number is blank

	CORSOrigins     []string      // Allowed CORS origins, empty disables CORS
	SentryDSN       string        // Sentry DSN, empty disables reporting
	JanitorSchedule string        // Cron spec for orphaned document cleanup, empty disables
	JanitorGrace    time.Duration // Minimum age before an orphaned document is removed
}

// Backend names accepted by HISTORY_BACKEND
const (
	HistoryBackendFile     = "file"
	HistoryBackendDatabase = "database"
)

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	_ = godotenv.Load() // Load .env file if present
	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		AppHost:    v.GetString("APP_HOST"),
		AppPort:    v.GetString("APP_PORT"),
		IsProd:     v.GetBool("IS_PROD"),
		LogLevel:   v.GetString("LOG_LEVEL"),
		DBDriver:   strings.ToLower(v.GetString("DB_DRIVER")),
		DBUser:     v.GetString("DB_USER"),
		DBPassword: v.GetString("DB_PASSWORD"),
		DBHost:     v.GetString("DB_HOST"),
		DBPort:     v.GetString("DB_PORT"),
		DBName:     v.GetString("DB_NAME"),
		DBSSLMode:  v.GetString("DB_SSLMODE"),

		SessionSecret: v.GetString("SESSION_SECRET"),
		SessionTTL:    v.GetDuration("SESSION_TTL"),
		RedisAddr:     v.GetString("REDIS_ADDR"),
		RedisPass:     v.GetString("REDIS_PASS"),
		RedisDB:       v.GetInt("REDIS_DB"),

		HistoryBackend:          strings.ToLower(v.GetString("HISTORY_BACKEND")),
		HistoryFile:             v.GetString("HISTORY_FILE"),
		OutputDir:               v.GetString("OUTPUT_DIR"),
		AssetDir:                v.GetString("ASSET_DIR"),
		OnMissingAsset:          strings.ToLower(v.GetString("ON_MISSING_ASSET")),
		CatalogFallbackFile:     v.GetString("CATALOG_FALLBACK_FILE"),
		QuotationFallbackNumber: v.GetString("QUOTATION_FALLBACK_NUMBER"),

		CORSOrigins:     splitList(v.GetString("CORS_ORIGINS")),
		SentryDSN:       v.GetString("SENTRY_DSN"),
		JanitorSchedule: v.GetString("JANITOR_SCHEDULE"),
		JanitorGrace:    v.GetDuration("JANITOR_GRACE"),
	}
	if cfg.SessionSecret == "" && !cfg.IsProd {
		cfg.SessionSecret = uuid.NewString() // Sessions do not survive a restart in development
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_HOST", "127.0.0.1")
	v.SetDefault("APP_PORT", "8002")
	v.SetDefault("IS_PROD", false)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_NAME", "postgres")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("SESSION_SECRET", "")
	v.SetDefault("SESSION_TTL", "24h")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASS", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("HISTORY_BACKEND", HistoryBackendFile)
	v.SetDefault("HISTORY_FILE", "quotation_history.json")
	v.SetDefault("OUTPUT_DIR", "static")
	v.SetDefault("ASSET_DIR", "static")
	v.SetDefault("ON_MISSING_ASSET", "skip")
	v.SetDefault("CATALOG_FALLBACK_FILE", "products.json")
	v.SetDefault("QUOTATION_FALLBACK_NUMBER", "LSY/001")
	v.SetDefault("CORS_ORIGINS", "")
	v.SetDefault("SENTRY_DSN", "")
	v.SetDefault("JANITOR_SCHEDULE", "@daily")
	v.SetDefault("JANITOR_GRACE", "1h")
}

// Validate reports configuration that would make the server unusable
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "postgres", "mysql":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	switch c.HistoryBackend {
	case HistoryBackendFile, HistoryBackendDatabase:
	default:
		return fmt.Errorf("unsupported HISTORY_BACKEND %q", c.HistoryBackend)
	}
	if c.OnMissingAsset != "skip" && c.OnMissingAsset != "error" {
		return fmt.Errorf("unsupported ON_MISSING_ASSET %q", c.OnMissingAsset)
	}
	if c.SessionSecret == "" && c.IsProd {
		return fmt.Errorf("SESSION_SECRET is required in production")
	}
	if c.JanitorSchedule != "" {
		if _, err := cron.ParseStandard(c.JanitorSchedule); err != nil {
			return fmt.Errorf("invalid JANITOR_SCHEDULE %q: %w", c.JanitorSchedule, err)
		}
	}
	return nil
}

// DSN builds the data source name for the configured driver
func (c *Config) DSN() string {
	if c.DBDriver == "mysql" {
		return c.DBUser + ":" + c.DBPassword + "@tcp(" + c.DBHost + ":" + c.DBPort + ")/" + c.DBName + "?parseTime=true"
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode)
}

// Addr returns the host:port the server listens on
func (c *Config) Addr() string {
	return c.AppHost + ":" + c.AppPort
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
