package main

import (
	"context"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"convertly/internal/auth"
	"convertly/internal/config"
	"convertly/internal/handler"
	"convertly/internal/middleware"
	"convertly/internal/preview"
	"convertly/internal/repository/postgres"
	"convertly/internal/service/conversion"
	"convertly/internal/service/identity"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// Setup structured logging
	logLevel := slog.LevelInfo
	if cfg.Environment == "dev" {
		logLevel = slog.LevelDebug
	}

	// Logs go to stdout, or to a rotated file when LOG_DIR is set.
	logOut := io.Writer(os.Stdout)
	if dir := os.Getenv("LOG_DIR"); dir != "" {
		logFile, err := config.SetupLogFile(dir, 10)
		if err != nil {
			log.Fatalf("Failed to set up log file: %v", err)
		}
		defer logFile.Close()
		logOut = io.MultiWriter(os.Stdout, logFile)
	}

	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
	)

	// Create JWT verifier for Supabase authentication
	jwtVerifier, err := auth.NewJWTVerifier(cfg.SupabaseJWKSURL, logger)
	if err != nil {
		log.Fatalf("Failed to create JWT verifier: %v", err)
	}
	defer jwtVerifier.Close()

	// Create pgx connection pool
	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.SupabaseDBURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	logger.Info("database connected")

	// Create repositories
	tables := postgres.NewTableNames(cfg.TablePrefix)
	usageRepo := postgres.NewUsageRepository(&postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	})

	// Load the format registry
	registry, err := conversion.NewRegistry()
	if err != nil {
		log.Fatalf("Failed to load format registry: %v", err)
	}
	logger.Info("format registry loaded", "formats", len(registry.Formats()))

	// Create services
	identityService := identity.NewService(usageRepo, logger)
	dispatcher := conversion.NewDispatcher(registry, logger)

	// Preview store with background expiry
	previews := preview.NewStore(preview.DefaultTTL, logger)
	previews.StartJanitor(ctx)

	// Create handlers
	formatsHandler := handler.NewFormatsHandler(registry, logger)
	convertHandler := handler.NewConvertHandler(dispatcher, identityService, registry, previews, logger)
	previewHandler := handler.NewPreviewHandler(previews, logger)
	usageHandler := handler.NewUsageHandler(identityService, logger)

	logger.Info("services initialized")

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", formatsHandler.HealthCheck)

	// Format routes
	mux.HandleFunc("GET /api/formats", formatsHandler.ListFormats)

	// Conversion routes
	mux.HandleFunc("POST /api/convert", convertHandler.Convert)

	// Preview routes
	mux.HandleFunc("GET /api/previews/{id}", previewHandler.GetPreview)
	mux.HandleFunc("DELETE /api/previews/{id}", previewHandler.ReleasePreview)

	// Usage routes
	mux.HandleFunc("GET /api/users/me/usage", usageHandler.GetUsage)

	// Build middleware chain
	var root http.Handler = mux

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS → Recovery → Auth → Routes
	root = middleware.Auth(jwtVerifier)(root)
	root = middleware.Recovery(logger)(root)

	// CORS - Must be before auth to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
	})
	root = corsHandler.Handler(root)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      root,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server
	logger.Info("listening", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to start server: %v", err)
	}
}
