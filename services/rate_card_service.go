package services

import (
	"context"
	"math"

	"go.uber.org/zap"

	"backend_smartiv/models"
)

// CreateRateCardInput данные для создания тарифа. Пустая зона означает тариф по умолчанию.
type CreateRateCardInput struct {
	PricePerDay int64         `json:"price_per_day" validate:"required,gt=0"`
	TargetSlot  models.AdSlot `json:"target_slot" validate:"target_slot"`
	IsActive    *bool         `json:"is_active"`
}

// UpdateRateCardInput частичное обновление тарифа
type UpdateRateCardInput struct {
	PricePerDay *int64         `json:"price_per_day" validate:"omitempty,gt=0"`
	TargetSlot  *models.AdSlot `json:"target_slot" validate:"omitempty,target_slot"`
	IsActive    *bool          `json:"is_active"`
}

func (in UpdateRateCardInput) changes() map[string]any {
	changes := map[string]any{}
	if in.PricePerDay != nil {
		changes["price_per_day"] = *in.PricePerDay
	}
	if in.TargetSlot != nil {
		changes["target_slot"] = *in.TargetSlot
	}
	if in.IsActive != nil {
		changes["is_active"] = *in.IsActive
	}
	return changes
}

// Quote расчет стоимости размещения
type Quote struct {
	PropertyID  uint          `json:"property_id"`
	TargetSlot  models.AdSlot `json:"target_slot,omitempty"`
	RateCardID  uint          `json:"rate_card_id"`
	PricePerDay int64         `json:"price_per_day"`
	Days        int           `json:"days"`
	Total       int64         `json:"total"`
}

// CreateRateCard добавляет тариф объекту. На одну зону объекта допускается один тариф.
func (s *CatalogService) CreateRateCard(ctx context.Context, actor Actor, propertyID uint, input CreateRateCardInput) (*models.RateCard, error) {
	if err := requireCatalogManager(actor, "create rate card"); err != nil {
		return nil, err
	}
	if err := validateInput(EntityRateCard, input); err != nil {
		return nil, err
	}

	if _, err := s.ensurePropertyExists(ctx, propertyID); err != nil {
		s.logFailure("create rate card", err)
		return nil, err
	}
	if err := s.ensureRateCardSlotFree(ctx, propertyID, input.TargetSlot, 0); err != nil {
		s.logFailure("create rate card", err)
		return nil, err
	}

	card := &models.RateCard{
		PropertyID:  propertyID,
		PricePerDay: input.PricePerDay,
		TargetSlot:  input.TargetSlot,
		IsActive:    true,
	}
	if input.IsActive != nil {
		card.IsActive = *input.IsActive
	}

	if err := s.store.CreateRateCard(ctx, card); err != nil {
		s.logFailure("create rate card", err)
		return nil, err
	}

	s.logger.Info("rate card created",
		zap.Uint("rate_card_id", card.ID),
		zap.Uint("property_id", propertyID),
		zap.String("target_slot", string(card.TargetSlot)),
		zap.Uint("actor_id", actor.UserID),
	)
	return card, nil
}

// ListRateCards тарифы объекта
func (s *CatalogService) ListRateCards(ctx context.Context, propertyID uint) ([]models.RateCard, error) {
	if _, err := s.ensurePropertyExists(ctx, propertyID); err != nil {
		s.logFailure("list rate cards", err)
		return nil, err
	}
	cards, err := s.store.ListRateCards(ctx, propertyID)
	s.logFailure("list rate cards", err)
	return cards, err
}

// UpdateRateCard меняет только переданные поля. Смена зоны проверяет уникальность заново.
func (s *CatalogService) UpdateRateCard(ctx context.Context, actor Actor, id uint, input UpdateRateCardInput) (*models.RateCard, error) {
	if err := requireCatalogManager(actor, "update rate card"); err != nil {
		return nil, err
	}
	if err := validateInput(EntityRateCard, input); err != nil {
		return nil, err
	}

	current, err := s.ensureRateCardExists(ctx, id)
	if err != nil {
		s.logFailure("update rate card", err)
		return nil, err
	}

	if input.TargetSlot != nil && *input.TargetSlot != current.TargetSlot {
		if err := s.ensureRateCardSlotFree(ctx, current.PropertyID, *input.TargetSlot, id); err != nil {
			return nil, err
		}
	}

	changes := input.changes()
	if len(changes) == 0 {
		return current, nil
	}

	card, err := s.store.UpdateRateCard(ctx, id, changes)
	if err != nil {
		s.logFailure("update rate card", err)
		return nil, err
	}

	s.logger.Info("rate card updated",
		zap.Uint("rate_card_id", id),
		zap.Int("fields", len(changes)),
		zap.Uint("actor_id", actor.UserID),
	)
	return card, nil
}

// DeleteRateCard удаляет тариф
func (s *CatalogService) DeleteRateCard(ctx context.Context, actor Actor, id uint) error {
	if err := requireCatalogManager(actor, "delete rate card"); err != nil {
		return err
	}

	if _, err := s.ensureRateCardExists(ctx, id); err != nil {
		s.logFailure("delete rate card", err)
		return err
	}

	if err := s.store.DeleteRateCard(ctx, id); err != nil {
		s.logFailure("delete rate card", err)
		return err
	}

	s.logger.Info("rate card deleted",
		zap.Uint("rate_card_id", id),
		zap.Uint("actor_id", actor.UserID),
	)
	return nil
}

// EffectiveRate действующий тариф для зоны: сначала активный тариф зоны, затем активный тариф по умолчанию
func (s *CatalogService) EffectiveRate(ctx context.Context, propertyID uint, slot models.AdSlot) (*models.RateCard, error) {
	if slot != "" && !slot.IsValid() {
		return nil, validationError(EntityRateCard, "target_slot", "target_slot")
	}

	cards, err := s.ListRateCards(ctx, propertyID)
	if err != nil {
		return nil, err
	}

	var fallback *models.RateCard
	for i := range cards {
		card := &cards[i]
		if !card.IsActive {
			continue
		}
		if slot != "" && card.TargetSlot == slot {
			return card, nil
		}
		if card.IsDefault() {
			fallback = card
		}
	}
	if fallback != nil {
		return fallback, nil
	}

	return nil, &CatalogError{Kind: ErrNotFound, Entity: EntityRateCard, Field: "target_slot", Value: slot}
}

// Quote стоимость размещения в зоне на days дней в целых денежных единицах
func (s *CatalogService) Quote(ctx context.Context, propertyID uint, slot models.AdSlot, days int) (*Quote, error) {
	if days < 1 {
		return nil, validationError(EntityRateCard, "days", "min=1")
	}

	card, err := s.EffectiveRate(ctx, propertyID, slot)
	if err != nil {
		return nil, err
	}

	if card.PricePerDay > math.MaxInt64/int64(days) {
		return nil, validationError(EntityRateCard, "days", "overflow")
	}

	return &Quote{
		PropertyID:  propertyID,
		TargetSlot:  slot,
		RateCardID:  card.ID,
		PricePerDay: card.PricePerDay,
		Days:        days,
		Total:       card.PricePerDay * int64(days),
	}, nil
}
