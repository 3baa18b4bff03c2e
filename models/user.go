package models

import (
	"time"
)

// User представляет модель пользователя в системе
type User struct {
	ID        uint      `json:"id" gorm:"primarykey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Основные поля
	Email    string `json:"email" gorm:"uniqueIndex;not null;type:varchar(255)"`
	Password string `json:"-" gorm:"not null"` // Пароль не возвращается в JSON

	// Дополнительные поля
	Name     string `json:"name" gorm:"type:varchar(150)"`
	Phone    string `json:"phone" gorm:"type:varchar(32)"`
	Role     Role   `json:"role" gorm:"not null;default:'ADVERTISER';type:varchar(20)"`
	IsActive bool   `json:"is_active" gorm:"not null"`
}

// TableName задает имя таблицы для модели User
func (User) TableName() string {
	return "users"
}
