package services

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"backend_smartiv/models"
)

const defaultResolution = "1920x1080"

// CreateScreenInput данные для регистрации экрана
type CreateScreenInput struct {
	PropertyID    uint                     `json:"property_id" validate:"required"`
	Name          string                   `json:"name" validate:"required,not_blank,max=150"`
	Code          string                   `json:"code" validate:"required,max=64"`
	Resolution    string                   `json:"resolution" validate:"omitempty,max=20"`
	Orientation   models.ScreenOrientation `json:"orientation" validate:"omitempty,screen_orientation"`
	Status        models.ScreenStatus      `json:"status" validate:"omitempty,screen_status"`
	IPAddress     *string                  `json:"ip_address" validate:"omitempty,ip"`
	RoomCategory  *models.RoomCategory     `json:"room_category" validate:"omitempty,room_category"`
	PriceOverride *int64                   `json:"price_override" validate:"omitempty,gte=0"`
}

// UpdateScreenInput частичное обновление экрана
type UpdateScreenInput struct {
	PropertyID    *uint                     `json:"property_id" validate:"omitempty,gt=0"`
	Name          *string                   `json:"name" validate:"omitempty,not_blank,max=150"`
	Code          *string                   `json:"code" validate:"omitempty,min=1,max=64"`
	Resolution    *string                   `json:"resolution" validate:"omitempty,min=1,max=20"`
	Orientation   *models.ScreenOrientation `json:"orientation" validate:"omitempty,screen_orientation"`
	Status        *models.ScreenStatus      `json:"status" validate:"omitempty,screen_status"`
	IPAddress     *string                   `json:"ip_address" validate:"omitempty,ip"`
	RoomCategory  *models.RoomCategory      `json:"room_category" validate:"omitempty,room_category"`
	PriceOverride *int64                    `json:"price_override" validate:"omitempty,gte=0"`
}

func (in UpdateScreenInput) changes() map[string]any {
	changes := map[string]any{}
	if in.PropertyID != nil {
		changes["property_id"] = *in.PropertyID
	}
	if in.Name != nil {
		changes["name"] = strings.TrimSpace(*in.Name)
	}
	if in.Code != nil {
		changes["code"] = strings.TrimSpace(*in.Code)
	}
	if in.Resolution != nil {
		changes["resolution"] = *in.Resolution
	}
	if in.Orientation != nil {
		changes["orientation"] = *in.Orientation
	}
	if in.Status != nil {
		changes["status"] = *in.Status
	}
	if in.IPAddress != nil {
		changes["ip_address"] = *in.IPAddress
	}
	if in.RoomCategory != nil {
		changes["room_category"] = *in.RoomCategory
	}
	if in.PriceOverride != nil {
		changes["price_override"] = *in.PriceOverride
	}
	return changes
}

// CreateScreen регистрирует экран на существующем объекте. Код экрана уникален.
func (s *CatalogService) CreateScreen(ctx context.Context, actor Actor, input CreateScreenInput) (*models.Screen, error) {
	if err := requireCatalogManager(actor, "create screen"); err != nil {
		return nil, err
	}
	if err := validateInput(EntityScreen, input); err != nil {
		return nil, err
	}

	code := strings.TrimSpace(input.Code)
	if code == "" {
		return nil, validationError(EntityScreen, "code", "required")
	}

	if _, err := s.ensurePropertyExists(ctx, input.PropertyID); err != nil {
		s.logFailure("create screen", err)
		return nil, err
	}
	if err := s.ensureScreenCodeUnique(ctx, code, 0); err != nil {
		s.logFailure("create screen", err)
		return nil, err
	}

	screen := &models.Screen{
		PropertyID:    input.PropertyID,
		Name:          strings.TrimSpace(input.Name),
		Code:          code,
		Resolution:    input.Resolution,
		Orientation:   input.Orientation,
		Status:        input.Status,
		IPAddress:     input.IPAddress,
		RoomCategory:  input.RoomCategory,
		PriceOverride: input.PriceOverride,
	}
	if screen.Resolution == "" {
		screen.Resolution = defaultResolution
	}
	if screen.Orientation == "" {
		screen.Orientation = models.OrientationLandscape
	}
	if screen.Status == "" {
		screen.Status = models.ScreenStatusOffline
	}

	if err := s.store.CreateScreen(ctx, screen); err != nil {
		s.logFailure("create screen", err)
		return nil, err
	}

	s.logger.Info("screen created",
		zap.Uint("screen_id", screen.ID),
		zap.Uint("property_id", screen.PropertyID),
		zap.Uint("actor_id", actor.UserID),
	)
	return screen, nil
}

// ListScreens список экранов, опционально только одного объекта
func (s *CatalogService) ListScreens(ctx context.Context, opts PageOptions, filter ScreenFilter) (Page[models.ScreenListItem], error) {
	page, err := s.store.ListScreens(ctx, opts.Normalize(s.maxTake), filter)
	s.logFailure("list screens", err)
	return page, err
}

// GetScreen экран вместе с объектом-владельцем
func (s *CatalogService) GetScreen(ctx context.Context, id uint) (*models.Screen, error) {
	screen, err := s.store.FindScreen(ctx, id)
	s.logFailure("get screen", err)
	return screen, err
}

// UpdateScreen меняет только переданные поля. Статус сохраняется как есть, из last_ping он не выводится.
func (s *CatalogService) UpdateScreen(ctx context.Context, actor Actor, id uint, input UpdateScreenInput) (*models.Screen, error) {
	if err := requireCatalogManager(actor, "update screen"); err != nil {
		return nil, err
	}
	if err := validateInput(EntityScreen, input); err != nil {
		return nil, err
	}

	current, err := s.ensureScreenExists(ctx, id)
	if err != nil {
		s.logFailure("update screen", err)
		return nil, err
	}

	changes := input.changes()
	if name, ok := changes["name"].(string); ok && name == "" {
		return nil, validationError(EntityScreen, "name", "required")
	}
	if code, ok := changes["code"].(string); ok && code != current.Code {
		if code == "" {
			return nil, validationError(EntityScreen, "code", "required")
		}
		if err := s.ensureScreenCodeUnique(ctx, code, id); err != nil {
			return nil, err
		}
	}
	if input.PropertyID != nil && *input.PropertyID != current.PropertyID {
		if _, err := s.ensurePropertyExists(ctx, *input.PropertyID); err != nil {
			return nil, err
		}
	}
	if len(changes) == 0 {
		return current, nil
	}

	screen, err := s.store.UpdateScreen(ctx, id, changes)
	if err != nil {
		s.logFailure("update screen", err)
		return nil, err
	}

	s.logger.Info("screen updated",
		zap.Uint("screen_id", id),
		zap.Int("fields", len(changes)),
		zap.Uint("actor_id", actor.UserID),
	)
	return screen, nil
}

// DeleteScreen удаляет экран
func (s *CatalogService) DeleteScreen(ctx context.Context, actor Actor, id uint) error {
	if err := requireCatalogManager(actor, "delete screen"); err != nil {
		return err
	}

	if _, err := s.ensureScreenExists(ctx, id); err != nil {
		s.logFailure("delete screen", err)
		return err
	}

	if err := s.store.DeleteScreen(ctx, id); err != nil {
		s.logFailure("delete screen", err)
		return err
	}

	s.logger.Info("screen deleted",
		zap.Uint("screen_id", id),
		zap.Uint("actor_id", actor.UserID),
	)
	return nil
}
