package services

import (
	"context"

	"go.uber.org/zap"

	"backend_smartiv/models"
)

// CatalogService управляет каталогом: объекты, экраны, тарифы.
// Состояния между запросами не хранит, все читается из CatalogStore заново.
type CatalogService struct {
	store   CatalogStore
	logger  *zap.Logger
	maxTake int
}

// NewCatalogService создает новый экземпляр CatalogService
func NewCatalogService(store CatalogStore, logger *zap.Logger, maxTake int) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxTake <= 0 {
		maxTake = DefaultMaxTake
	}
	return &CatalogService{
		store:   store,
		logger:  logger.Named("catalog"),
		maxTake: maxTake,
	}
}

// ---- Проверки инвариантов ----
// Каждая проверка делает ровно одно чтение. Окончательную гарантию дают
// уникальные индексы и внешние ключи хранилища.

// ensurePropertyCodeUnique отсутствующий код не проверяется
func (s *CatalogService) ensurePropertyCodeUnique(ctx context.Context, code *string, excludeID uint) error {
	if code == nil {
		return nil
	}
	taken, err := s.store.PropertyCodeTaken(ctx, *code, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return duplicateCode(EntityProperty, "smartiv_code", *code)
	}
	return nil
}

// ensurePropertyExists возвращает найденный объект, чтобы не читать его повторно
func (s *CatalogService) ensurePropertyExists(ctx context.Context, id uint) (*models.Property, error) {
	return s.store.FindProperty(ctx, id)
}

func (s *CatalogService) ensureScreenCodeUnique(ctx context.Context, code string, excludeID uint) error {
	taken, err := s.store.ScreenCodeTaken(ctx, code, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return duplicateCode(EntityScreen, "code", code)
	}
	return nil
}

func (s *CatalogService) ensureScreenExists(ctx context.Context, id uint) (*models.Screen, error) {
	return s.store.FindScreen(ctx, id)
}

// ensureRateCardSlotFree на объект допускается один тариф на зону и один тариф по умолчанию
func (s *CatalogService) ensureRateCardSlotFree(ctx context.Context, propertyID uint, slot models.AdSlot, excludeID uint) error {
	taken, err := s.store.RateCardSlotTaken(ctx, propertyID, slot, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return duplicateCode(EntityRateCard, "target_slot", slot)
	}
	return nil
}

func (s *CatalogService) ensureRateCardExists(ctx context.Context, id uint) (*models.RateCard, error) {
	return s.store.FindRateCard(ctx, id)
}

// logFailure неожиданные ошибки хранилища пишем в лог, ошибки таксономии нет
func (s *CatalogService) logFailure(op string, err error) {
	if err == nil || isCatalogKind(err) {
		return
	}
	s.logger.Error("catalog operation failed", zap.String("op", op), zap.Error(err))
}
