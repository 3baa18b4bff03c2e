package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"backend_smartiv/middleware"
	"backend_smartiv/services"
)

// errorStatuses HTTP статус для каждого вида ошибки каталога
var errorStatuses = []struct {
	kind   error
	status int
}{
	{services.ErrNotFound, http.StatusNotFound},
	{services.ErrDuplicateCode, http.StatusConflict},
	{services.ErrEmailTaken, http.StatusConflict},
	{services.ErrHasDependents, http.StatusConflict},
	{services.ErrValidation, http.StatusBadRequest},
	{services.ErrForbidden, http.StatusForbidden},
	{services.ErrInvalidCredentials, http.StatusUnauthorized},
	{services.ErrStorageUnavailable, http.StatusServiceUnavailable},
}

// statusFor HTTP статус ошибки сервиса, 500 для неизвестных
func statusFor(err error) int {
	for _, e := range errorStatuses {
		if errors.Is(err, e.kind) {
			return e.status
		}
	}
	return http.StatusInternalServerError
}

// respondError пишет ответ об ошибке. Текст внутренних ошибок наружу не отдается.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	status := statusFor(err)

	body := gin.H{"status": "error"}
	switch status {
	case http.StatusInternalServerError:
		logger.Error("request failed",
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		body["error"] = "Internal server error"
	case http.StatusServiceUnavailable:
		body["error"] = "Service temporarily unavailable"
	default:
		body["error"] = err.Error()
		var catalogErr *services.CatalogError
		if errors.As(err, &catalogErr) && catalogErr.Field != "" {
			body["field"] = catalogErr.Field
		}
	}

	c.AbortWithStatusJSON(status, body)
}

func respondBadRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
		"status": "error",
		"error":  message,
	})
}

func respondData(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{
		"status": "success",
		"data":   data,
	})
}

func respondPage[T any](c *gin.Context, page services.Page[T]) {
	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   page.Data,
		"meta":   page.Meta,
	})
}

// parseID разбирает числовой параметр пути
func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		respondBadRequest(c, "Invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// parsePageOptions читает page, take, order и search. Нормализация происходит в сервисе.
func parsePageOptions(c *gin.Context) (services.PageOptions, bool) {
	var opts services.PageOptions
	if err := c.ShouldBindQuery(&opts); err != nil {
		respondBadRequest(c, "Invalid pagination parameters")
		return opts, false
	}
	return opts, true
}

// actorFrom пользователь из контекста; пустой Actor не имеет прав на изменения
func actorFrom(c *gin.Context) services.Actor {
	actor, _ := middleware.GetActor(c)
	return actor
}
