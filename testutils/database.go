package testutils

import (
	"fmt"
	"log"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"backend_smartiv/database"
	"backend_smartiv/models"
)

// SetupTestDB создает и настраивает тестовую базу данных в памяти.
// Каждый вызов получает свою базу; одно соединение, чтобы все запросы видели одни и те же таблицы.
func SetupTestDB() (*gorm.DB, error) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_fk=1", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := database.AutoMigrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// CleanupTestDB закрывает тестовую базу данных
func CleanupTestDB(db *gorm.DB) {
	if db != nil {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
	}
}

// CreateTestProperty создает тестовый объект с заданным кодом SmartIV (пустой код не задается)
func CreateTestProperty(db *gorm.DB, name, code string) *models.Property {
	property := &models.Property{
		Name:           name,
		Type:           models.PropertyTypeHotel,
		Classification: models.PropertyClassStandard,
		Address:        "Test street 1",
		City:           "Almaty",
		EnabledSlots:   datatypes.JSONSlice[models.AdSlot]{},
	}
	if code != "" {
		property.SmartivCode = &code
	}

	if err := db.Omit("Screens", "RateCards").Create(property).Error; err != nil {
		log.Printf("Failed to create test property: %v", err)
		return nil
	}

	return property
}

// CreateTestScreen создает тестовый экран на объекте
func CreateTestScreen(db *gorm.DB, propertyID uint, name, code string) *models.Screen {
	screen := &models.Screen{
		PropertyID:  propertyID,
		Name:        name,
		Code:        code,
		Resolution:  "1920x1080",
		Orientation: models.OrientationLandscape,
		Status:      models.ScreenStatusOffline,
	}

	if err := db.Omit("Property").Create(screen).Error; err != nil {
		log.Printf("Failed to create test screen: %v", err)
		return nil
	}

	return screen
}

// CreateTestRateCard создает активный тестовый тариф
func CreateTestRateCard(db *gorm.DB, propertyID uint, slot models.AdSlot, pricePerDay int64) *models.RateCard {
	card := &models.RateCard{
		PropertyID:  propertyID,
		PricePerDay: pricePerDay,
		TargetSlot:  slot,
		IsActive:    true,
	}

	if err := db.Create(card).Error; err != nil {
		log.Printf("Failed to create test rate card: %v", err)
		return nil
	}

	return card
}

// CreateTestUser создает тестового пользователя с уже захешированным паролем
func CreateTestUser(db *gorm.DB, email, passwordHash string, role models.Role) *models.User {
	user := &models.User{
		Email:    email,
		Password: passwordHash,
		Name:     "Test User",
		Role:     role,
		IsActive: true,
	}

	if err := db.Create(user).Error; err != nil {
		log.Printf("Failed to create test user: %v", err)
		return nil
	}

	return user
}
