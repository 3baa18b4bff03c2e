package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	redis "github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"backend_smartiv/config"
	"backend_smartiv/middleware"
	"backend_smartiv/services"
)

// RouterDeps зависимости HTTP слоя
type RouterDeps struct {
	Config    *config.Config
	Logger    *zap.Logger
	Redis     *redis.Client // nil отключает rate limiting
	Catalog   *services.CatalogService
	Export    *services.ExportService
	Auth      *services.AuthService
	Heartbeat *services.HeartbeatService
}

// SetupRouter собирает gin router со всеми маршрутами
func SetupRouter(deps RouterDeps) *gin.Engine {
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(logger))
	r.Use(cors.New(corsConfig(cfg.CORS)))
	r.Use(middleware.Timeout(cfg.Security.RequestTimeout))

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "success",
			"message": "pong",
			"version": cfg.App.Version,
		})
	})

	authAPI := NewAuthAPI(deps.Auth, logger)
	catalogAPI := NewCatalogAPI(deps.Catalog, deps.Export, logger)
	heartbeatAPI := NewHeartbeatAPI(deps.Heartbeat, logger)

	authMiddleware := middleware.NewAuthMiddleware(deps.Auth, logger)
	apiLimit := middleware.APIRateLimit(deps.Redis, cfg.Security.RateLimitRequests, cfg.Security.RateLimitWindow, logger)

	apiGroup := r.Group("/api")
	{
		auth := apiGroup.Group("/auth")
		{
			authLimit := middleware.AuthRateLimit(deps.Redis, logger)
			auth.POST("/register", authLimit, authAPI.Register)
			auth.POST("/login", authLimit, authAPI.Login)
			auth.GET("/me", authMiddleware.RequireAuth(), authAPI.Me)
		}

		inventory := apiGroup.Group("/inventory")
		inventory.Use(authMiddleware.RequireAuth(), apiLimit)
		catalogAPI.RegisterRoutes(inventory)

		// Экраны шлют пинги без пользовательского токена
		apiGroup.POST("/screens/heartbeat", apiLimit, heartbeatAPI.RecordHeartbeat)
	}

	return r
}

func corsConfig(c config.CORSConfig) cors.Config {
	cc := cors.Config{
		AllowMethods:     c.AllowedMethods,
		AllowHeaders:     c.AllowedHeaders,
		ExposeHeaders:    []string{middleware.RequestIDHeader, "Content-Disposition"},
		AllowCredentials: c.AllowCredentials,
		MaxAge:           time.Duration(c.MaxAge) * time.Second,
	}
	if len(c.AllowedOrigins) == 0 {
		cc.AllowAllOrigins = true
		return cc
	}
	for _, origin := range c.AllowedOrigins {
		if origin == "*" {
			cc.AllowAllOrigins = true
			return cc
		}
	}
	cc.AllowOrigins = c.AllowedOrigins
	return cc
}
