package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/catalog-api/backend/internal/config"
	"github.com/catalog-api/backend/internal/db"
	"github.com/catalog-api/backend/internal/handler"
	"github.com/catalog-api/backend/internal/logger"
	"github.com/catalog-api/backend/internal/metrics"
	"github.com/catalog-api/backend/internal/ratelimit"
	"github.com/catalog-api/backend/internal/service"
)

// @title Catalog API
// @version 1.0
// @description Product catalog with bearer token and API key authentication.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger := logger.New(cfg.LogLevel)

	if cfg.AppEnv != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	dsn, err := cfg.Postgres.DSN()
	if err != nil {
		logger.Fatal("invalid database config", "error", err)
	}
	pool, err := db.NewPostgresPool(ctx, dsn)
	if err != nil {
		logger.Fatal("failed to connect to postgres", "error", err)
	}
	store := db.New(pool)
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		logger.Fatal("failed to migrate database", "error", err)
	}

	authService, err := service.NewAuthService(store, cfg.Auth, cfg.IsTest())
	if err != nil {
		logger.Fatal("invalid auth config", "error", err)
	}
	if cfg.Auth.AdminEmail != "" && cfg.Auth.AdminPassword != "" {
		if err := authService.EnsureAdmin(ctx, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword, cfg.Auth.AdminName); err != nil {
			logger.Fatal("failed to bootstrap admin", "error", err)
		}
	}

	// 요청 제한: REDIS_URL이 있으면 인스턴스 간 공유, 없으면 프로세스 로컬
	var limiter ratelimit.Limiter
	if cfg.RateLimit.RedisURL != "" {
		redisClient, err := ratelimit.NewRedisClient(ctx, cfg.RateLimit.RedisURL)
		if err != nil {
			logger.Fatal("failed to connect to redis", "error", err)
		}
		defer redisClient.Close()
		limiter = ratelimit.NewRedisLimiter(redisClient, cfg.RateLimit.Max, cfg.RateLimit.Window)
	} else {
		limiter = ratelimit.NewInProcessLimiter(cfg.RateLimit.Max, cfg.RateLimit.Window)
	}

	verifier := service.NewVerifier([]byte(cfg.Auth.JWTSecret), store, logger)
	pipeline := service.NewPipeline(verifier, logger, metrics.Recorder{})

	router := handler.NewRouter(handler.RouterDeps{
		Logger:   logger,
		HTTP:     cfg.HTTP,
		Pipeline: pipeline,
		Limiter:  limiter,
		Auth:     handler.NewAuthHandler(authService),
		Products: handler.NewProductHandler(service.NewProductService(store)),
		Health:   handler.NewHealthHandler(store),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTP.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting server on", "address", srv.Addr, "env", cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to start server", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownGrace)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("error during server shutdown", "error", err)
	}
	logger.Info("shutdown complete")
}
