package services

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"backend_smartiv/models"
)

// CreatePropertyInput данные для создания объекта
type CreatePropertyInput struct {
	Name           string               `json:"name" validate:"required,not_blank,max=150"`
	Type           models.PropertyType  `json:"type" validate:"omitempty,property_type"`
	Classification models.PropertyClass `json:"classification" validate:"omitempty,property_class"`
	Address        string               `json:"address" validate:"required"`
	City           string               `json:"city" validate:"required,max=100"`
	SmartivID      *int64               `json:"smartiv_id"`
	SmartivCode    *string              `json:"smartiv_code" validate:"omitempty,max=64"`
	BaseColor      *string              `json:"base_color" validate:"omitempty,hexcolor,max=7"`
	ActiveColor    *string              `json:"active_color" validate:"omitempty,hexcolor,max=7"`
	EnabledSlots   []models.AdSlot      `json:"enabled_slots" validate:"omitempty,dive,ad_slot"`
}

// UpdatePropertyInput частичное обновление: nil означает "не менять"
type UpdatePropertyInput struct {
	Name           *string               `json:"name" validate:"omitempty,not_blank,max=150"`
	Type           *models.PropertyType  `json:"type" validate:"omitempty,property_type"`
	Classification *models.PropertyClass `json:"classification" validate:"omitempty,property_class"`
	Address        *string               `json:"address"`
	City           *string               `json:"city" validate:"omitempty,max=100"`
	SmartivID      *int64                `json:"smartiv_id"`
	SmartivCode    *string               `json:"smartiv_code" validate:"omitempty,max=64"`
	BaseColor      *string               `json:"base_color" validate:"omitempty,hexcolor,max=7"`
	ActiveColor    *string               `json:"active_color" validate:"omitempty,hexcolor,max=7"`
	EnabledSlots   *[]models.AdSlot      `json:"enabled_slots" validate:"omitempty,dive,ad_slot"`
}

// changes возвращает только переданные поля в виде колонок
func (in UpdatePropertyInput) changes() map[string]any {
	changes := map[string]any{}
	if in.Name != nil {
		changes["name"] = strings.TrimSpace(*in.Name)
	}
	if in.Type != nil {
		changes["type"] = *in.Type
	}
	if in.Classification != nil {
		changes["classification"] = *in.Classification
	}
	if in.Address != nil {
		changes["address"] = *in.Address
	}
	if in.City != nil {
		changes["city"] = *in.City
	}
	if in.SmartivID != nil {
		changes["smartiv_id"] = *in.SmartivID
	}
	if in.SmartivCode != nil {
		changes["smartiv_code"] = *in.SmartivCode
	}
	if in.BaseColor != nil {
		changes["base_color"] = *in.BaseColor
	}
	if in.ActiveColor != nil {
		changes["active_color"] = *in.ActiveColor
	}
	if in.EnabledSlots != nil {
		changes["enabled_slots"] = datatypes.JSONSlice[models.AdSlot](models.NormalizeAdSlots(*in.EnabledSlots))
	}
	return changes
}

// normalizeCode пустой код считается отсутствующим
func normalizeCode(code *string) *string {
	if code == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*code)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// CreateProperty создает объект. Код SmartIV, если указан, должен быть уникален.
func (s *CatalogService) CreateProperty(ctx context.Context, actor Actor, input CreatePropertyInput) (*models.Property, error) {
	if err := requireCatalogManager(actor, "create property"); err != nil {
		return nil, err
	}
	if err := validateInput(EntityProperty, input); err != nil {
		return nil, err
	}

	code := normalizeCode(input.SmartivCode)
	if err := s.ensurePropertyCodeUnique(ctx, code, 0); err != nil {
		s.logFailure("create property", err)
		return nil, err
	}

	property := &models.Property{
		Name:           strings.TrimSpace(input.Name),
		Type:           input.Type,
		Classification: input.Classification,
		Address:        input.Address,
		City:           input.City,
		SmartivID:      input.SmartivID,
		SmartivCode:    code,
		BaseColor:      input.BaseColor,
		ActiveColor:    input.ActiveColor,
		EnabledSlots:   models.NormalizeAdSlots(input.EnabledSlots),
	}
	if property.Type == "" {
		property.Type = models.PropertyTypeHotel
	}
	if property.Classification == "" {
		property.Classification = models.PropertyClassStandard
	}

	if err := s.store.CreateProperty(ctx, property); err != nil {
		s.logFailure("create property", err)
		return nil, err
	}

	s.logger.Info("property created",
		zap.Uint("property_id", property.ID),
		zap.Uint("actor_id", actor.UserID),
	)
	return property, nil
}

// ListProperties список объектов с количеством экранов
func (s *CatalogService) ListProperties(ctx context.Context, opts PageOptions) (Page[models.PropertyListItem], error) {
	page, err := s.store.ListProperties(ctx, opts.Normalize(s.maxTake))
	s.logFailure("list properties", err)
	return page, err
}

// GetProperty объект вместе с экранами
func (s *CatalogService) GetProperty(ctx context.Context, id uint) (*models.Property, error) {
	property, err := s.store.FindPropertyWithScreens(ctx, id)
	s.logFailure("get property", err)
	return property, err
}

// UpdateProperty меняет только переданные поля
func (s *CatalogService) UpdateProperty(ctx context.Context, actor Actor, id uint, input UpdatePropertyInput) (*models.Property, error) {
	if err := requireCatalogManager(actor, "update property"); err != nil {
		return nil, err
	}
	if err := validateInput(EntityProperty, input); err != nil {
		return nil, err
	}

	current, err := s.ensurePropertyExists(ctx, id)
	if err != nil {
		s.logFailure("update property", err)
		return nil, err
	}

	changes := input.changes()
	if name, ok := changes["name"].(string); ok && name == "" {
		return nil, validationError(EntityProperty, "name", "required")
	}
	if input.SmartivCode != nil {
		code := normalizeCode(input.SmartivCode)
		if code == nil {
			changes["smartiv_code"] = nil
		} else {
			changes["smartiv_code"] = *code
			if current.SmartivCode == nil || *current.SmartivCode != *code {
				if err := s.ensurePropertyCodeUnique(ctx, code, id); err != nil {
					return nil, err
				}
			}
		}
	}
	if len(changes) == 0 {
		return current, nil
	}

	property, err := s.store.UpdateProperty(ctx, id, changes)
	if err != nil {
		s.logFailure("update property", err)
		return nil, err
	}

	s.logger.Info("property updated",
		zap.Uint("property_id", id),
		zap.Int("fields", len(changes)),
		zap.Uint("actor_id", actor.UserID),
	)
	return property, nil
}

// DeleteProperty удаляет объект. Объект с экранами удалить нельзя, тарифы удаляются вместе с ним.
func (s *CatalogService) DeleteProperty(ctx context.Context, actor Actor, id uint) error {
	if err := requireCatalogManager(actor, "delete property"); err != nil {
		return err
	}

	if _, err := s.ensurePropertyExists(ctx, id); err != nil {
		s.logFailure("delete property", err)
		return err
	}

	if err := s.store.DeleteProperty(ctx, id); err != nil {
		s.logFailure("delete property", err)
		return err
	}

	s.logger.Info("property deleted",
		zap.Uint("property_id", id),
		zap.Uint("actor_id", actor.UserID),
	)
	return nil
}
