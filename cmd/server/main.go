package main

import (
	"context"   // context package is needed for Redis operations and shutdown
	"errors"    // errors package is needed to detect a closed server
	"net/http"  // HTTP server
	"os"        // Signals
	"os/signal" // Graceful shutdown
	"syscall"   // SIGTERM
	"time"      // Timeouts

	"quotation_system/internal/api"     // Custom package for page handlers
	"quotation_system/internal/config"  // Custom package for configuration
	"quotation_system/internal/db"      // Custom package for database connection
	"quotation_system/internal/history" // Custom package for quotation history
	"quotation_system/internal/janitor" // Custom package for orphaned document cleanup
	"quotation_system/internal/render"  // Custom package for PDF rendering
	"quotation_system/internal/session" // Custom package for server-side sessions
	"quotation_system/internal/store"   // Custom package for users and products
	"quotation_system/internal/web"     // Custom package for HTML templates

	"github.com/getsentry/sentry-go"               // Error reporting
	sentrygin "github.com/getsentry/sentry-go/gin" // Sentry middleware for Gin
	"github.com/gin-contrib/cors"                  // CORS middleware
	"github.com/gin-gonic/gin"                     // Gin web framework
	"github.com/redis/go-redis/v9"                 // Redis client
	"github.com/sirupsen/logrus"                   // Logrus for structured logging
	"gorm.io/gorm"                                 // GORM ORM library
)

// setupLogger configures logrus from the config
func setupLogger(cfg *config.Config) {
	if cfg.IsProd {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logrus.WithField("level", cfg.LogLevel).Warn("Unknown LOG_LEVEL, using info")
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}

// historyStore picks the history backend named in the config
func historyStore(cfg *config.Config, conn *gorm.DB) history.Store {
	if cfg.HistoryBackend == config.HistoryBackendDatabase {
		return history.NewGormStore(conn, cfg.OutputDir)
	}
	return history.NewFileStore(cfg.HistoryFile, cfg.OutputDir)
}

// Main function to set up and run the server
func main() {
	cfg := config.LoadConfig() // Load configuration
	setupLogger(cfg)           // Setup logger
	if err := cfg.Validate(); err != nil {
		logrus.Fatalf("invalid configuration: %v", err)
	}

	// Sentry error tracking, enabled by SENTRY_DSN
	if cfg.SentryDSN != "" {
		env := "development"
		if cfg.IsProd {
			env = "production"
		}
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.SentryDSN, Environment: env}); err != nil {
			logrus.WithField("error", err).Error("Sentry init failed")
			cfg.SentryDSN = ""
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Connect to the database
	conn, err := db.Open(cfg)
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
	}

	// Setup Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr, // Redis server address
		Password: cfg.RedisPass, // Redis password
		DB:       cfg.RedisDB,   // Redis database number
	})

	// Test Redis connection
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		logrus.Fatalf("failed to connect to Redis: %v", err)
	}

	// Output directory for generated documents
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		logrus.Fatalf("failed to create output dir: %v", err)
	}

	// Stores and renderer
	users := store.NewUserStore(conn, redisClient)
	catalog := store.NewCatalogStore(conn, redisClient)
	sessions := session.NewRegistry(redisClient)
	hist := historyStore(cfg, conn)
	renderOpts := render.DefaultOptions(cfg.AssetDir)
	renderOpts.OnMissingAsset = render.MissingAssetPolicy(cfg.OnMissingAsset)
	renderer := render.New(renderOpts)

	// Orphaned document cleanup
	if cfg.JanitorSchedule != "" {
		runner, err := janitor.Schedule(cfg.JanitorSchedule, janitor.New(cfg.OutputDir, cfg.JanitorGrace, hist))
		if err != nil {
			logrus.Fatalf("failed to schedule janitor: %v", err)
		}
		runner.Start()
		defer runner.Stop()
	}

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup Gin
	r := gin.Default() // Gin router instance

	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logrus.Fatalf("failed to set trusted proxies: %v", err)
	}
	if cfg.SentryDSN != "" {
		r.Use(sentrygin.New(sentrygin.Options{Repanic: true})) // Report panics before Recovery handles them
	}
	if len(cfg.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORSOrigins,
			AllowMethods:     []string{"GET", "POST"},
			AllowHeaders:     []string{"Origin", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	r.SetHTMLTemplate(web.Templates()) // Embedded pages
	api.RegisterRoutes(r, api.Deps{
		Users:     users,
		Catalog:   catalog,
		Sessions:  sessions,
		History:   hist,
		Documents: renderer,
		Cookie: api.CookieConfig{
			Secret: cfg.SessionSecret,
			TTL:    cfg.SessionTTL,
			Secure: cfg.IsProd,
		},
		Quotation: api.QuotationOptions{
			OutputDir:           cfg.OutputDir,
			FallbackNumber:      cfg.QuotationFallbackNumber,
			CatalogFallbackFile: cfg.CatalogFallbackFile,
		},
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logrus.WithField("addr", cfg.Addr()).Info("Server running") // Log server start
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("server failed: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logrus.WithField("error", err).Error("Server shutdown error")
	}
	if err := redisClient.Close(); err != nil {
		logrus.WithField("error", err).Warn("Redis close error")
	}
}
