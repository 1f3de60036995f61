package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mehmetcanozen/minilink-sub001/internal/cache"
	"github.com/mehmetcanozen/minilink-sub001/internal/config"
	"github.com/mehmetcanozen/minilink-sub001/internal/database"
	"github.com/mehmetcanozen/minilink-sub001/internal/handlers"
	"github.com/mehmetcanozen/minilink-sub001/internal/queue"
	"github.com/mehmetcanozen/minilink-sub001/internal/repository"
	"github.com/mehmetcanozen/minilink-sub001/internal/services"
	"github.com/mehmetcanozen/minilink-sub001/internal/shortcode"
)

const jobQueueName = "minilink:jobs"

func main() {
	// Load .env if present, then configuration
	_ = godotenv.Load()
	cfg := config.Load()

	// Set Gin mode
	gin.SetMode(cfg.Server.GinMode)

	ctx := context.Background()

	// Initialize DB pool and schema
	dbPool, err := database.NewPool(ctx, &cfg.DB)
	if err != nil {
		log.Fatalf("Failed to initialize DB pool: %v", err)
	}
	defer dbPool.Close()

	if err := database.EnsureSchema(ctx, dbPool); err != nil {
		log.Fatalf("Failed to apply schema: %v", err)
	}

	// Initialize Redis client
	redisClient, err := cache.NewClient(&cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to initialize Redis client: %v", err)
	}
	defer redisClient.Close()

	// Wire the short-code pipeline
	jobs := queue.NewClient(redisClient.Client, jobQueueName)
	generator := shortcode.NewGenerator(&cfg.Pool)
	pool := shortcode.NewPool(redisClient, jobs, cfg.Pool.MinPoolSize, cfg.Pool.MaxPoolSize, cfg.Pool.EntryTTLSeconds)
	linkRepo := repository.NewLinkRepository(dbPool)
	allocator := shortcode.NewAllocator(generator, cfg.Pool.MaxGenerationRetries)
	codeService := shortcode.NewService(pool, allocator, linkRepo)

	// Warm the pool synchronously before accepting traffic so the first
	// requests never fall back to the uniqueness-check path
	warmer := shortcode.NewWarmer(generator, pool)
	if err := warmer.Warm(ctx); err != nil {
		log.Fatalf("Failed to warm code pool: %v", err)
	}

	// Initialize services and handlers
	linkService := services.NewLinkService(linkRepo, codeService)
	linkHandler := handlers.NewLinkHandler(linkService)

	router := setupRouter(linkHandler)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

func setupRouter(linkHandler *handlers.LinkHandler) *gin.Engine {
	router := gin.Default()

	router.GET("/healthz", linkHandler.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	{
		api.POST("/links", linkHandler.CreateLink)
		api.GET("/pool/stats", linkHandler.PoolStats)
	}

	router.GET("/:code", linkHandler.Redirect)

	return router
}
