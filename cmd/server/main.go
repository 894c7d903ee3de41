package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"redline/internal/auth"
	"redline/internal/config"
	"redline/internal/domain/services"
	"redline/internal/handler"
	"redline/internal/middleware"
	"redline/internal/repository/postgres"
	"redline/internal/review"
	oracleAnthropic "redline/internal/review/oracle/anthropic"
	oracleLorem "redline/internal/review/oracle/lorem"
	"redline/internal/service"
	"redline/internal/stage"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg := config.Load()

	// Setup structured logging
	logLevel := slog.LevelInfo
	if cfg.Environment == "dev" {
		logLevel = slog.LevelDebug
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
	)

	// Auth: real JWT verification when a JWKS URL is configured, a fixed
	// development user otherwise
	var authMiddleware func(http.Handler) http.Handler
	if cfg.AuthJWKSURL != "" {
		jwtVerifier, err := auth.NewJWTVerifier(cfg.AuthJWKSURL, logger)
		if err != nil {
			log.Fatalf("Failed to create JWT verifier: %v", err)
		}
		defer jwtVerifier.Close()
		authMiddleware = middleware.Auth(jwtVerifier, logger)
	} else {
		authMiddleware = middleware.DevAuth("dev-user", logger)
	}

	// Database
	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.TablePrefix); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	logger.Info("database connected",
		"max_conns", 25,
		"min_conns", 5,
	)

	// Repositories
	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: postgres.NewTableNames(cfg.TablePrefix),
		Logger: logger,
	}
	docRepo := postgres.NewDocumentRepository(repoConfig)
	annotationRepo := postgres.NewAnnotationRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool)

	// Stage catalog
	registry, err := stage.NewRegistry()
	if err != nil {
		log.Fatalf("Failed to load stage catalog: %v", err)
	}
	logger.Info("stage catalog loaded", "stages", len(registry.List()))

	// Oracle client
	oracleClient, err := setupOracle(cfg)
	if err != nil {
		log.Fatalf("Failed to setup oracle client: %v", err)
	}
	logger.Info("oracle client initialized",
		"provider", oracleClient.Name(),
		"model", cfg.OracleModel,
		"timeout", cfg.OracleTimeout,
	)

	// Services
	analyzer := review.NewAnalyzer(oracleClient, logger)
	orchestrator := review.NewOrchestrator(registry, docRepo, annotationRepo, txManager, analyzer, cfg.OracleTimeout, logger)
	docService := service.NewDocumentService(docRepo, annotationRepo, txManager, logger)
	annotationService := service.NewAnnotationService(annotationRepo, docRepo, logger)

	// Handlers
	docHandler := handler.NewDocumentHandler(docService, logger)
	annotationHandler := handler.NewAnnotationHandler(annotationService, logger)
	reviewHandler := handler.NewReviewHandler(orchestrator, logger)
	stageHandler := handler.NewStageHandler(registry, logger)

	logger.Info("services initialized")

	// HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", docHandler.HealthCheck)

	// Stage catalog
	mux.HandleFunc("GET /api/stages", stageHandler.ListStages)

	// Document routes
	mux.HandleFunc("POST /api/documents", docHandler.CreateDocument)
	mux.HandleFunc("POST /api/upload", docHandler.UploadDocument)
	mux.HandleFunc("GET /api/documents", docHandler.ListDocuments)
	mux.HandleFunc("GET /api/documents/{id}", docHandler.GetDocument)
	mux.HandleFunc("PATCH /api/documents/{id}", docHandler.UpdateDocument)
	mux.HandleFunc("DELETE /api/documents/{id}", docHandler.DeleteDocument)

	// Review routes
	mux.HandleFunc("POST /api/documents/{id}/analyze/{stage}", reviewHandler.AnalyzeStage)
	mux.HandleFunc("GET /api/documents/{id}/annotations", annotationHandler.ListAnnotations)

	// Annotation routes
	mux.HandleFunc("PATCH /api/annotations/{id}", annotationHandler.UpdateAnnotation)
	mux.HandleFunc("POST /api/annotations/{id}/resolve", annotationHandler.ResolveAnnotation)
	mux.HandleFunc("POST /api/annotations/{id}/dismiss", annotationHandler.DismissAnnotation)
	mux.HandleFunc("POST /api/annotations/{id}/apply-fix", annotationHandler.ApplyFixAnnotation)

	// Build middleware chain (applied in reverse order)
	// Order: CORS -> Recovery -> Auth -> Routes
	var root http.Handler = mux
	root = authMiddleware(root)
	root = middleware.Recovery(logger)(root)

	// CORS - must be before auth to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
	})
	root = corsHandler.Handler(root)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.OracleTimeout + 30*time.Second, // analyze calls block on the oracle
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("server listening", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// setupOracle picks the oracle client from configuration. The lorem client
// needs no credentials and is also the fallback when no API key is set
// outside production.
func setupOracle(cfg *config.Config) (services.OracleClient, error) {
	switch cfg.OracleProvider {
	case "lorem":
		return oracleLorem.NewClient(200 * time.Millisecond), nil
	case "anthropic":
		if cfg.AnthropicAPIKey == "" && cfg.Environment != "prod" {
			slog.Warn("no API key configured, falling back to mock oracle")
			return oracleLorem.NewClient(200 * time.Millisecond), nil
		}
		return oracleAnthropic.NewClient(cfg.AnthropicAPIKey, cfg.OracleModel, int(cfg.OracleMaxTokens))
	default:
		return nil, fmt.Errorf("unknown oracle provider %q", cfg.OracleProvider)
	}
}
