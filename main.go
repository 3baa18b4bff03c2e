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
	redis "github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"backend_smartiv/api"
	"backend_smartiv/config"
	"backend_smartiv/database"
	"backend_smartiv/logger"
	"backend_smartiv/services"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	zapLogger, err := logger.New(cfg.Logging.Level, cfg.Logging.Format, "smartiv-inventory")
	if err != nil {
		log.Fatalf("Ошибка инициализации логгера: %v", err)
	}
	defer zapLogger.Sync()

	cfg.LogConfig(zapLogger)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db := initDB(cfg, zapLogger)
	redisClient := initRedis(cfg, zapLogger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	jwtSecret := cfg.JWT.Secret
	if jwtSecret == "" {
		// Только для разработки: Validate требует секрет в production
		jwtSecret = uuid.NewString() + uuid.NewString()
		zapLogger.Warn("JWT_SECRET is not set, using a random secret; tokens will not survive restart")
	}

	store := services.NewGormCatalogStore(db)
	catalog := services.NewCatalogService(store, zapLogger, cfg.Catalog.PageMaxTake)
	heartbeat := services.NewHeartbeatService(store, zapLogger, cfg.Catalog.HeartbeatStaleAfter)

	router := api.SetupRouter(api.RouterDeps{
		Config:    cfg,
		Logger:    zapLogger,
		Redis:     redisClient,
		Catalog:   catalog,
		Export:    services.NewExportService(catalog, zapLogger),
		Auth:      services.NewAuthService(db, jwtSecret, cfg.JWT.Issuer, cfg.JWT.ExpiresIn, zapLogger),
		Heartbeat: heartbeat,
	})

	if err := heartbeat.Start(cfg.Catalog.HeartbeatSchedule); err != nil {
		zapLogger.Fatal("failed to schedule heartbeat sweep", zap.Error(err))
	}
	defer heartbeat.Stop()

	srv := &http.Server{
		Addr:              cfg.App.Host + ":" + cfg.App.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zapLogger.Info("server started", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}

// initDB инициализирует подключение к базе данных
func initDB(cfg *config.Config, zapLogger *zap.Logger) *gorm.DB {
	zapLogger.Info("initializing database", zap.String("driver", cfg.Database.Driver))

	// Создаем базу данных, если она не существует
	if err := database.CreateDatabaseIfNotExists(cfg, zapLogger); err != nil {
		zapLogger.Fatal("failed to create database", zap.Error(err))
	}

	db, err := database.Connect(cfg, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed to connect to database", zap.Error(err))
	}
	return db
}

// initRedis подключает Redis для rate limiting. Без Redis сервис работает без ограничений.
func initRedis(cfg *config.Config, zapLogger *zap.Logger) *redis.Client {
	if !cfg.Redis.Enabled {
		zapLogger.Info("redis disabled, rate limiting is off")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Redis.Timeout)
	defer cancel()

	client, err := database.InitRedis(ctx, cfg)
	if err != nil {
		zapLogger.Warn("redis unavailable, rate limiting is off", zap.Error(err))
		return nil
	}
	zapLogger.Info("connected to redis", zap.String("addr", client.Options().Addr))
	return client
}
