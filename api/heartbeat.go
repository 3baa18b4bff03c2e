package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"backend_smartiv/services"
)

// HeartbeatAPI прием пингов от экранов
type HeartbeatAPI struct {
	heartbeat *services.HeartbeatService
	logger    *zap.Logger
}

// NewHeartbeatAPI создает новый экземпляр HeartbeatAPI
func NewHeartbeatAPI(heartbeat *services.HeartbeatService, logger *zap.Logger) *HeartbeatAPI {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HeartbeatAPI{heartbeat: heartbeat, logger: logger.Named("api")}
}

// RecordHeartbeat отмечает экран как ONLINE. Если IP не передан, берется адрес клиента.
func (ha *HeartbeatAPI) RecordHeartbeat(c *gin.Context) {
	var input services.HeartbeatInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	if input.IPAddress == "" {
		input.IPAddress = c.ClientIP()
	}

	screen, err := ha.heartbeat.RecordPing(c.Request.Context(), input)
	if err != nil {
		respondError(c, ha.logger, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{
		"id":        screen.ID,
		"code":      screen.Code,
		"status":    screen.Status,
		"last_ping": screen.LastPing,
	})
}
