package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"backend_smartiv/services"
)

const actorKey = "actor"

// TokenParser проверяет токен доступа и возвращает пользователя
type TokenParser interface {
	ParseToken(ctx context.Context, token string) (services.Actor, error)
}

// AuthMiddleware проверяет аутентификацию пользователя
type AuthMiddleware struct {
	parser TokenParser
	logger *zap.Logger
}

// NewAuthMiddleware создает новый экземпляр AuthMiddleware
func NewAuthMiddleware(parser TokenParser, logger *zap.Logger) *AuthMiddleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthMiddleware{parser: parser, logger: logger.Named("auth")}
}

// RequireAuth middleware для проверки аутентификации
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"status": "error",
				"error":  "Authorization header is required",
			})
			return
		}

		token := extractToken(authHeader)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"status": "error",
				"error":  "Invalid authorization format",
			})
			return
		}

		actor, err := am.parser.ParseToken(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, services.ErrStorageUnavailable) {
				am.logger.Error("token check failed", zap.Error(err))
				c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
					"status": "error",
					"error":  "Service temporarily unavailable",
				})
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"status": "error",
				"error":  "Invalid or expired token",
			})
			return
		}

		c.Set(actorKey, actor)
		c.Next()
	}
}

// extractToken поддерживает схемы Bearer и Token, а также голый токен
func extractToken(header string) string {
	header = strings.TrimSpace(header)
	for _, scheme := range []string{"Bearer ", "Token "} {
		if len(header) >= len(scheme) && strings.EqualFold(header[:len(scheme)], scheme) {
			return strings.TrimSpace(header[len(scheme):])
		}
	}
	return header
}

// GetActor возвращает аутентифицированного пользователя из контекста
func GetActor(c *gin.Context) (services.Actor, bool) {
	value, exists := c.Get(actorKey)
	if !exists {
		return services.Actor{}, false
	}
	actor, ok := value.(services.Actor)
	return actor, ok
}

// SetActor кладет пользователя в контекст
func SetActor(c *gin.Context, actor services.Actor) {
	c.Set(actorKey, actor)
}
