package models

import "time"

// Screen представляет физический экран, принадлежащий ровно одному объекту
type Screen struct {
	ID        uint      `json:"id" gorm:"primarykey"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
	UpdatedAt time.Time `json:"updated_at"`

	// Владелец
	PropertyID uint      `json:"property_id" gorm:"not null;index"`
	Property   *Property `json:"property,omitempty" gorm:"foreignKey:PropertyID;constraint:OnDelete:RESTRICT"`

	// Основные поля экрана
	Name        string            `json:"name" gorm:"not null;type:varchar(150)"`
	Code        string            `json:"code" gorm:"uniqueIndex;not null;type:varchar(64)"` // MAC-адрес или код установки
	Resolution  string            `json:"resolution" gorm:"not null;default:'1920x1080';type:varchar(20)"`
	Orientation ScreenOrientation `json:"orientation" gorm:"not null;default:'LANDSCAPE';type:varchar(20)"`
	Status      ScreenStatus      `json:"status" gorm:"not null;default:'OFFLINE';type:varchar(20);index"`

	// Дополнительные поля
	IPAddress     *string       `json:"ip_address" gorm:"type:varchar(45)"`
	RoomCategory  *RoomCategory `json:"room_category" gorm:"type:varchar(32)"`
	LastPing      *time.Time    `json:"last_ping"`
	PriceOverride *int64        `json:"price_override"` // цена за день, перекрывает тариф объекта
}

// TableName задает имя таблицы для модели Screen
func (Screen) TableName() string {
	return "screens"
}

// ScreenListItem строка списка экранов с названием объекта-владельца
type ScreenListItem struct {
	Screen
	PropertyName string `json:"property_name"`
}
