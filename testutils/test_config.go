package testutils

import (
	"time"

	"backend_smartiv/config"
)

// TestJWTSecret секрет для подписи токенов в тестах
const TestJWTSecret = "test-secret-key-for-testing-only-0123456789"

// SetupTestConfig возвращает конфигурацию для тестов: SQLite, без Redis
func SetupTestConfig() *config.Config {
	cfg := &config.Config{
		App: config.AppConfigStruct{
			Env:     "test",
			Port:    "8080",
			Host:    "127.0.0.1",
			Version: "v1",
		},
		Database: config.DatabaseConfig{
			Driver:   "sqlite",
			Path:     "file::memory:",
			LogLevel: "silent",
		},
		Redis: config.RedisConfig{Enabled: false},
		JWT: config.JWTConfig{
			Secret:    TestJWTSecret,
			ExpiresIn: time.Hour,
			Issuer:    "smartiv-test",
		},
		CORS: config.CORSConfig{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type", "Authorization", "X-Request-ID"},
		},
		Security: config.SecurityConfig{
			RateLimitRequests: 100,
			RateLimitWindow:   time.Minute,
			RequestTimeout:    5 * time.Second,
		},
		Logging: config.LoggingConfig{Level: "error", Format: "console"},
		Catalog: config.CatalogConfig{
			PageMaxTake:         100,
			HeartbeatStaleAfter: 5 * time.Minute,
			HeartbeatSchedule:   "@every 1m",
		},
	}
	return cfg
}
