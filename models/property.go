package models

import (
	"time"

	"gorm.io/datatypes"
)

// Property представляет объект размещения (отель, больница), владеющий экранами
type Property struct {
	ID        uint      `json:"id" gorm:"primarykey"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
	UpdatedAt time.Time `json:"updated_at"`

	// Основные поля объекта
	Name           string        `json:"name" gorm:"not null;type:varchar(150)"`
	Type           PropertyType  `json:"type" gorm:"not null;default:'HOTEL';type:varchar(20)"`
	Classification PropertyClass `json:"classification" gorm:"not null;default:'STANDARD';type:varchar(20)"`
	Address        string        `json:"address" gorm:"type:text"`
	City           string        `json:"city" gorm:"type:varchar(100)"`

	// Идентификаторы в системе SmartIV
	SmartivID   *int64  `json:"smartiv_id"`
	SmartivCode *string `json:"smartiv_code" gorm:"uniqueIndex;type:varchar(64)"` // уникален, если указан

	// Цвета брендирования (#RRGGBB)
	BaseColor   *string `json:"base_color" gorm:"type:varchar(7)"`
	ActiveColor *string `json:"active_color" gorm:"type:varchar(7)"`

	// Набор включенных зон размещения
	EnabledSlots datatypes.JSONSlice[AdSlot] `json:"enabled_slots" gorm:"not null"`

	// Связи
	Screens   []Screen   `json:"screens,omitempty" gorm:"foreignKey:PropertyID;constraint:OnDelete:RESTRICT"`
	RateCards []RateCard `json:"rate_cards,omitempty" gorm:"foreignKey:PropertyID;constraint:OnDelete:CASCADE"`
}

// TableName задает имя таблицы для модели Property
func (Property) TableName() string {
	return "properties"
}

// HasSlot проверяет, включена ли зона для объекта
func (p *Property) HasSlot(slot AdSlot) bool {
	for _, s := range p.EnabledSlots {
		if s == slot {
			return true
		}
	}
	return false
}

// PropertyDetail карточка объекта. Список экранов выводится всегда, пустой как []
type PropertyDetail struct {
	Property
	Screens []Screen `json:"screens"`
}

// NewPropertyDetail собирает карточку из объекта с загруженными экранами
func NewPropertyDetail(p *Property) PropertyDetail {
	screens := p.Screens
	if screens == nil {
		screens = []Screen{}
	}
	return PropertyDetail{Property: *p, Screens: screens}
}

// PropertyListItem строка списка объектов с производным количеством экранов
type PropertyListItem struct {
	Property
	ScreenCount int64 `json:"screen_count"`
}
