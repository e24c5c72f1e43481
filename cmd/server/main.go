package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warmloop/warmloop/internal/auth"
	"github.com/warmloop/warmloop/internal/cache"
	"github.com/warmloop/warmloop/internal/config"
	"github.com/warmloop/warmloop/internal/dataset"
	"github.com/warmloop/warmloop/internal/db"
	"github.com/warmloop/warmloop/internal/leadimport"
	"github.com/warmloop/warmloop/internal/leads"
	"github.com/warmloop/warmloop/internal/middleware"
	"github.com/warmloop/warmloop/internal/notify"
	"github.com/warmloop/warmloop/internal/repository"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

func main() {
	// Create context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Setup database connection
	conn, err := db.NewConnection(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer conn.Close()

	// Run migrations
	if err := db.RunMigrations(cfg.Database, cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Optional redis-backed stats cache
	var statsCache *cache.Cache
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			log.Printf("Redis unavailable at %s, running without cache: %v", cfg.RedisAddr, err)
		} else {
			statsCache = cache.New(client, time.Minute)
			log.Printf("Connected to redis at %s", cfg.RedisAddr)
		}
	}

	// Create repositories
	leadRepo := repository.NewLeadRepository(conn.Pool)
	datasetRepo := repository.NewDatasetRepository(conn.Pool)
	importLogRepo := repository.NewImportLogRepository(conn.Pool)

	// Create services
	broker := notify.NewBroker()
	datasetService := dataset.NewService(datasetRepo)
	importService := leadimport.NewService(leadRepo, importLogRepo, statsCache, broker)
	leadService := leads.NewService(leadRepo, statsCache, broker)

	// Mount routes
	router := mux.NewRouter()
	api := router.PathPrefix("/api").Subrouter()
	dataset.NewHTTPHandler(datasetService).Register(api)
	leadimport.NewHTTPHandler(importService, datasetRepo, importLogRepo).Register(api)
	leads.NewHTTPHandler(leadService, broker).Register(api)

	// Setup CORS
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"},
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
	})

	handler := corsHandler.Handler(
		middleware.LoggingMiddleware(
			auth.Middleware(router),
		),
	)

	// Create HTTP server. WriteTimeout stays zero so event streams are not
	// cut off.
	server := &http.Server{
		Addr:        cfg.ServerAddr,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Starting server on %s", cfg.ServerAddr)
		log.Printf("API available at http://localhost%s/api", cfg.ServerAddr)

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
