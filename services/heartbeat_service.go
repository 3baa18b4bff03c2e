package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"backend_smartiv/models"
)

// HeartbeatService принимает пинги экранов и переводит молчащие экраны в OFFLINE.
// Каталог статус не вычисляет, это делает только этот сервис.
type HeartbeatService struct {
	store      CatalogStore
	logger     *zap.Logger
	staleAfter time.Duration
	cron       *cron.Cron
	now        func() time.Time
}

// NewHeartbeatService создает новый экземпляр HeartbeatService
func NewHeartbeatService(store CatalogStore, logger *zap.Logger, staleAfter time.Duration) *HeartbeatService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if staleAfter <= 0 {
		staleAfter = 5 * time.Minute
	}
	return &HeartbeatService{
		store:      store,
		logger:     logger.Named("heartbeat"),
		staleAfter: staleAfter,
		cron:       cron.New(),
		now:        time.Now,
	}
}

// HeartbeatInput пинг от экрана
type HeartbeatInput struct {
	Code      string `json:"code" validate:"required,max=64"`
	IPAddress string `json:"ip_address" validate:"omitempty,ip"`
}

// RecordPing отмечает экран как ONLINE и запоминает время пинга и IP
func (hs *HeartbeatService) RecordPing(ctx context.Context, input HeartbeatInput) (*models.Screen, error) {
	input.Code = strings.TrimSpace(input.Code)
	if err := validateInput(EntityScreen, input); err != nil {
		return nil, err
	}

	screen, err := hs.store.FindScreenByCode(ctx, input.Code)
	if err != nil {
		return nil, err
	}

	changes := map[string]any{
		"last_ping": hs.now(),
		"status":    models.ScreenStatusOnline,
	}
	if input.IPAddress != "" {
		changes["ip_address"] = input.IPAddress
	}

	updated, err := hs.store.UpdateScreen(ctx, screen.ID, changes)
	if err != nil {
		return nil, err
	}

	if screen.Status != models.ScreenStatusOnline {
		hs.logger.Info("screen online", zap.Uint("screen_id", screen.ID), zap.String("code", screen.Code))
	}
	return updated, nil
}

// SweepStale переводит в OFFLINE экраны без пинга дольше staleAfter
func (hs *HeartbeatService) SweepStale(ctx context.Context) (int64, error) {
	cutoff := hs.now().Add(-hs.staleAfter)
	count, err := hs.store.MarkScreensOffline(ctx, cutoff)
	if err != nil {
		hs.logger.Error("stale sweep failed", zap.Error(err))
		return 0, err
	}
	if count > 0 {
		hs.logger.Info("screens marked offline", zap.Int64("count", count), zap.Time("cutoff", cutoff))
	}
	return count, nil
}

// Start регистрирует периодическую проверку по расписанию cron и запускает планировщик
func (hs *HeartbeatService) Start(schedule string) error {
	_, err := hs.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		_, _ = hs.SweepStale(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to add heartbeat sweep job: %w", err)
	}

	hs.cron.Start()
	hs.logger.Info("heartbeat sweep started", zap.String("schedule", schedule), zap.Duration("stale_after", hs.staleAfter))
	return nil
}

// Stop останавливает планировщик и ждет завершения текущего запуска
func (hs *HeartbeatService) Stop() {
	<-hs.cron.Stop().Done()
	hs.logger.Info("heartbeat sweep stopped")
}
