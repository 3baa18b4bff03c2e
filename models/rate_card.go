package models

import "time"

// RateCard тариф за день показа на объекте, опционально для конкретной зоны
type RateCard struct {
	ID        uint      `json:"id" gorm:"primarykey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	PropertyID uint `json:"property_id" gorm:"not null;uniqueIndex:idx_rate_cards_property_slot"`

	// Цена за день в целых денежных единицах
	PricePerDay int64 `json:"price_per_day" gorm:"not null"`

	// Пустая зона означает тариф по умолчанию для всего объекта
	TargetSlot AdSlot `json:"target_slot,omitempty" gorm:"not null;default:'';type:varchar(32);uniqueIndex:idx_rate_cards_property_slot"`

	IsActive bool `json:"is_active" gorm:"not null"`
}

// TableName задает имя таблицы для модели RateCard
func (RateCard) TableName() string {
	return "rate_cards"
}

// IsDefault сообщает, что тариф действует для всего объекта
func (r *RateCard) IsDefault() bool {
	return r.TargetSlot == ""
}
