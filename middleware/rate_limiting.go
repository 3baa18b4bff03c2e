package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	redis "github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"backend_smartiv/database"
)

// RateLimitConfig конфигурация rate limiting
type RateLimitConfig struct {
	Client       *redis.Client             // nil отключает ограничение
	Requests     int                       // Количество запросов
	Window       time.Duration             // Временное окно
	Scope        string                    // Группа маршрутов, входит в ключ
	KeyGenerator func(*gin.Context) string // Генератор ключей
	Logger       *zap.Logger
}

// DefaultKeyGenerator генерирует ключ на основе IP адреса
func DefaultKeyGenerator(c *gin.Context) string {
	return "ip:" + c.ClientIP()
}

// ActorKeyGenerator генерирует ключ на основе пользователя, для анонимных запросов по IP
func ActorKeyGenerator(c *gin.Context) string {
	if actor, ok := GetActor(c); ok {
		return "user:" + strconv.FormatUint(uint64(actor.UserID), 10)
	}
	return DefaultKeyGenerator(c)
}

// RateLimit создает middleware для ограничения частоты запросов (фиксированное окно в Redis)
func RateLimit(config RateLimitConfig) gin.HandlerFunc {
	if config.KeyGenerator == nil {
		config.KeyGenerator = DefaultKeyGenerator
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		if config.Client == nil || config.Requests <= 0 || config.Window <= 0 {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		key := database.RateLimitKey(config.Scope + ":" + config.KeyGenerator(c))

		// Счетчик и его TTL за один запрос к Redis
		pipe := config.Client.TxPipeline()
		incr := pipe.Incr(ctx, key)
		ttlCmd := pipe.TTL(ctx, key)
		if _, err := pipe.Exec(ctx); err != nil {
			// Redis недоступен: запрос не блокируем
			config.Logger.Warn("rate limit check skipped", zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}
		current := incr.Val()

		// Ключ без TTL получает срок жизни: первый запрос окна или потерянный EXPIRE
		ttl := ttlCmd.Val()
		if ttl <= 0 {
			if err := config.Client.Expire(ctx, key, config.Window).Err(); err != nil {
				config.Logger.Warn("rate limit expire failed", zap.String("key", key), zap.Error(err))
				c.Next()
				return
			}
			ttl = config.Window
		}
		reset := time.Now().Add(ttl).Unix()

		remaining := int64(config.Requests) - current
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(config.Requests))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(reset, 10))

		if current > int64(config.Requests) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"status": "error",
				"error": fmt.Sprintf("Too many requests. Limit: %d requests per %v",
					config.Requests, config.Window),
				"retry_after": config.Window.Seconds(),
			})
			return
		}

		c.Next()
	}
}

// AuthRateLimit ограничение для регистрации и входа
func AuthRateLimit(client *redis.Client, logger *zap.Logger) gin.HandlerFunc {
	return RateLimit(RateLimitConfig{
		Client:       client,
		Requests:     5,
		Window:       time.Minute,
		Scope:        "auth",
		KeyGenerator: DefaultKeyGenerator,
		Logger:       logger,
	})
}

// APIRateLimit ограничение для API каталога
func APIRateLimit(client *redis.Client, requests int, window time.Duration, logger *zap.Logger) gin.HandlerFunc {
	return RateLimit(RateLimitConfig{
		Client:       client,
		Requests:     requests,
		Window:       window,
		Scope:        "api",
		KeyGenerator: ActorKeyGenerator,
		Logger:       logger,
	})
}
