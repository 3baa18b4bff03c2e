package services

import (
	"context"
	"time"

	"backend_smartiv/models"
)

// CatalogStore шлюз хранения каталога. Ошибки возвращаются уже в таксономии каталога:
// ErrNotFound, ErrDuplicateCode, ErrHasDependents, ErrStorageUnavailable.
type CatalogStore interface {
	FindProperty(ctx context.Context, id uint) (*models.Property, error)
	FindPropertyWithScreens(ctx context.Context, id uint) (*models.Property, error)
	PropertyCodeTaken(ctx context.Context, code string, excludeID uint) (bool, error)
	CreateProperty(ctx context.Context, property *models.Property) error
	UpdateProperty(ctx context.Context, id uint, changes map[string]any) (*models.Property, error)
	DeleteProperty(ctx context.Context, id uint) error
	ListProperties(ctx context.Context, opts PageOptions) (Page[models.PropertyListItem], error)

	FindScreen(ctx context.Context, id uint) (*models.Screen, error)
	FindScreenByCode(ctx context.Context, code string) (*models.Screen, error)
	ScreenCodeTaken(ctx context.Context, code string, excludeID uint) (bool, error)
	CreateScreen(ctx context.Context, screen *models.Screen) error
	UpdateScreen(ctx context.Context, id uint, changes map[string]any) (*models.Screen, error)
	DeleteScreen(ctx context.Context, id uint) error
	ListScreens(ctx context.Context, opts PageOptions, filter ScreenFilter) (Page[models.ScreenListItem], error)
	MarkScreensOffline(ctx context.Context, lastPingBefore time.Time) (int64, error)

	FindRateCard(ctx context.Context, id uint) (*models.RateCard, error)
	RateCardSlotTaken(ctx context.Context, propertyID uint, slot models.AdSlot, excludeID uint) (bool, error)
	CreateRateCard(ctx context.Context, card *models.RateCard) error
	UpdateRateCard(ctx context.Context, id uint, changes map[string]any) (*models.RateCard, error)
	DeleteRateCard(ctx context.Context, id uint) error
	ListRateCards(ctx context.Context, propertyID uint) ([]models.RateCard, error)
}

// ScreenFilter дополнительные фильтры списка экранов
type ScreenFilter struct {
	PropertyID *uint
	Status     *models.ScreenStatus
}
