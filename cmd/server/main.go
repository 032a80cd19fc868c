package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sankalp-nadiger/LRMS-ByteDocker-sub001/internal/cache"
	"github.com/sankalp-nadiger/LRMS-ByteDocker-sub001/internal/config"
	"github.com/sankalp-nadiger/LRMS-ByteDocker-sub001/internal/database"
	"github.com/sankalp-nadiger/LRMS-ByteDocker-sub001/internal/handlers"
	"github.com/sankalp-nadiger/LRMS-ByteDocker-sub001/internal/logger"
	"github.com/sankalp-nadiger/LRMS-ByteDocker-sub001/internal/middleware"
	"github.com/sankalp-nadiger/LRMS-ByteDocker-sub001/internal/repository"
	"github.com/sankalp-nadiger/LRMS-ByteDocker-sub001/internal/services"
)

const (
	shutdownTimeout = 30 * time.Second
)

func main() {
	// Load configuration from environment variables
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	log := logger.New(cfg.Server.Env)
	log.Info("Starting LRMS nondh API", map[string]interface{}{
		"version":     handlers.APIVersion,
		"environment": cfg.Server.Env,
		"port":        cfg.Server.Port,
	})

	// Create database connection pool
	ctx := context.Background()
	db, err := database.NewPostgresPool(ctx, cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", err, map[string]interface{}{
			"host": cfg.Database.Host,
			"port": cfg.Database.Port,
			"name": cfg.Database.Name,
		})
	}
	defer db.Close()

	log.Info("Database connection established", map[string]interface{}{
		"host":     cfg.Database.Host,
		"port":     cfg.Database.Port,
		"database": cfg.Database.Name,
		"pool_min": cfg.Database.PoolMin,
		"pool_max": cfg.Database.PoolMax,
	})

	// Bring the schema up to date before serving
	migrator, err := database.NewMigrator(db, log)
	if err != nil {
		log.Fatal("Failed to initialise migrations", err, nil)
	}
	if err := migrator.Up(ctx); err != nil {
		log.Fatal("Failed to apply migrations", err, nil)
	}

	// Passbook cache is optional
	var (
		passbook    cache.PassbookCache = cache.NoopPassbookCache{}
		cachePinger handlers.Pinger
	)
	if cfg.Redis.Enabled() {
		redisCache, err := cache.NewRedisPassbookCache(cfg.Redis.URL, cfg.Redis.PassbookTTL)
		if err != nil {
			log.Fatal("Failed to connect to redis", err, nil)
		}
		defer redisCache.Close()
		passbook = redisCache
		cachePinger = redisCache
		log.Info("Passbook cache enabled", map[string]interface{}{
			"ttl": cfg.Redis.PassbookTTL.String(),
		})
	} else {
		log.Info("Passbook cache disabled", nil)
	}

	// Setup Gin router
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Add middleware in order: RequestID -> Logger -> Recovery -> CORS
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.CORS(cfg.CORS.Origins))

	// Register health check routes
	healthHandler := handlers.NewHealthHandler(db, cachePinger, cfg.Server.Env)
	router.GET("/health", healthHandler.Health)
	router.GET("/health/ready", healthHandler.Ready)
	router.GET("/api/v1/info", healthHandler.Info)

	// Initialize repository and service layers
	recordRepo := repository.NewLandRecordRepository(db)
	nondhRepo := repository.NewNondhRepository(db)
	chainService := services.NewChainService(recordRepo, nondhRepo, passbook, log)

	// Initialize handlers
	chainHandler := handlers.NewChainHandler(chainService)

	// Register API v1 routes
	v1 := router.Group("/api/v1")
	{
		records := v1.Group("/records/:" + middleware.RecordIDParam)
		{
			records.GET("/chain", chainHandler.GetChain)
			records.POST("/chain/recompute", chainHandler.RecomputeChain)
			records.GET("/passbook", chainHandler.GetPassbook)

			nondhs := records.Group("/nondhs/:" + handlers.EntryIDParam)
			{
				nondhs.GET("/previous-owners", chainHandler.GetPreviousOwners)
				nondhs.GET("/date-bounds", chainHandler.GetDateBounds)
				nondhs.PUT("/status", chainHandler.UpdateStatus)
				nondhs.PUT("/effective-date", chainHandler.SetEffectiveDate)
				nondhs.PUT("/affected-entries", chainHandler.SetAffectedEntries)
				nondhs.PUT("/equal-distribution", chainHandler.SetEqualDistribution)
				nondhs.POST("/owners", chainHandler.AddOwner)
				nondhs.PUT("/owners/:"+handlers.RelationIDParam+"/area", chainHandler.UpdateOwnerArea)
				nondhs.DELETE("/owners/:"+handlers.RelationIDParam, chainHandler.RemoveOwner)
				nondhs.DELETE("", chainHandler.DeleteEntry)
			}
		}
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server listening", map[string]interface{}{
			"port": cfg.Server.Port,
			"addr": srv.Addr,
		})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start", err, nil)
		}
	}()

	// Wait for interrupt signal (SIGINT or SIGTERM)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	// Graceful shutdown
	log.Info("Shutting down server...", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", err, map[string]interface{}{
			"timeout": shutdownTimeout.String(),
		})
	}

	log.Info("Server exited", nil)
}
