package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"zeto/internal/auth"
	"zeto/internal/capabilities"
	"zeto/internal/config"
	"zeto/internal/handler"
	"zeto/internal/handler/sse"
	"zeto/internal/middleware"
	"zeto/internal/repository/postgres"
	"zeto/internal/service/chat"
	"zeto/internal/service/document"
	"zeto/internal/service/llm"
	"zeto/internal/service/project"
	"zeto/internal/storage"
)

func main() {
	// .env is optional; production supplies real environment variables
	_ = godotenv.Load()

	cfg := config.Load()

	logLevel := slog.LevelInfo
	if cfg.Environment == "dev" || cfg.Debug {
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

	// Token verification is optional in local development
	var verifier auth.TokenVerifier
	if cfg.JWKSURL != "" {
		v, err := auth.NewJWKSVerifier(cfg.JWKSURL, logger)
		if err != nil {
			log.Fatalf("Failed to create JWT verifier: %v", err)
		}
		defer v.Close()
		verifier = v
	} else {
		logger.Warn("JWKS_URL not set, requests run unauthenticated")
	}

	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()
	logger.Info("database connected")

	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: postgres.NewTableNames(cfg.TablePrefix),
		Logger: logger,
	}
	projectRepo := postgres.NewProjectRepository(repoConfig)
	docRepo := postgres.NewDocumentRepository(repoConfig)
	convRepo := postgres.NewConversationRepository(repoConfig)

	var store storage.ObjectStore
	if cfg.StorageBucket != "" {
		gcs, err := storage.NewGCSStore(ctx, cfg.StorageBucket, logger)
		if err != nil {
			log.Fatalf("Failed to create object store: %v", err)
		}
		defer gcs.Close()
		store = gcs
	} else {
		logger.Warn("STORAGE_BUCKET not set, document uploads disabled")
		store = storage.Disabled{}
	}

	providerRegistry, err := llm.SetupProviders(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to setup completion providers: %v", err)
	}

	catalog, err := capabilities.NewRegistry()
	if err != nil {
		log.Fatalf("Failed to load model catalog: %v", err)
	}

	projectService := project.NewService(projectRepo, logger)
	documentService := document.NewService(docRepo, projectService, store, logger)
	chatService := chat.NewService(providerRegistry, projectService, docRepo, convRepo, cfg, logger)

	sseConfig := &sse.Config{PingInterval: config.KeepAliveInterval}

	projectHandler := handler.NewProjectHandler(projectService, logger)
	documentHandler := handler.NewDocumentHandler(documentService, logger)
	conversationHandler := handler.NewConversationHandler(convRepo, projectService, logger)
	chatHandler := handler.NewChatHandler(chatService, catalog, sseConfig, logger)
	modelsHandler := handler.NewModelsHandler(catalog, logger)

	logger.Info("services initialized")

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", handler.Health)

	mux.HandleFunc("GET /api/projects", projectHandler.List)
	mux.HandleFunc("POST /api/projects", projectHandler.Create)
	mux.HandleFunc("GET /api/projects/{id}", projectHandler.Get)
	mux.HandleFunc("PATCH /api/projects/{id}", projectHandler.Update)
	mux.HandleFunc("DELETE /api/projects/{id}", projectHandler.Delete)

	mux.HandleFunc("GET /api/projects/{id}/members", projectHandler.ListMembers)
	mux.HandleFunc("POST /api/projects/{id}/members", projectHandler.AddMember)
	mux.HandleFunc("PATCH /api/projects/{id}/members/{userId}", projectHandler.UpdateMember)
	mux.HandleFunc("DELETE /api/projects/{id}/members/{userId}", projectHandler.RemoveMember)

	mux.HandleFunc("GET /api/projects/{id}/documents", documentHandler.List)
	mux.HandleFunc("POST /api/projects/{id}/documents", documentHandler.Upload)
	mux.HandleFunc("GET /api/documents/{id}", documentHandler.Get)
	mux.HandleFunc("DELETE /api/documents/{id}", documentHandler.Delete)
	mux.HandleFunc("POST /api/extract-pdf", documentHandler.ExtractPDF)

	mux.HandleFunc("GET /api/projects/{id}/conversation", conversationHandler.Get)

	mux.HandleFunc("POST /api/chat", chatHandler.Send)
	mux.HandleFunc("GET /api/models", modelsHandler.List)

	// CORS wraps the outside so OPTIONS pre-flights never hit auth
	var h http.Handler = mux
	h = middleware.Auth(verifier)(h)
	h = middleware.Recovery(logger)(h)
	h = cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization", "Last-Event-ID"},
		AllowCredentials: true,
	}).Handler(h)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // long-lived SSE streams
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("listening", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to start server: %v", err)
	}
}
