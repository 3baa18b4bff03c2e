package services

import (
	"context"
	"database/sql"
	"time"

	"gorm.io/gorm"

	"backend_smartiv/database"
	"backend_smartiv/models"
)

// GormCatalogStore реализация CatalogStore поверх gorm (PostgreSQL в продакшене, SQLite в разработке и тестах)
type GormCatalogStore struct {
	DB *gorm.DB
}

// NewGormCatalogStore создает новый экземпляр GormCatalogStore
func NewGormCatalogStore(db *gorm.DB) *GormCatalogStore {
	return &GormCatalogStore{DB: db}
}

var (
	propertyListQuery = pageQuery{
		table:         "properties",
		searchColumns: []string{"name", "smartiv_code"},
	}
	screenListQuery = pageQuery{
		table:         "screens",
		searchColumns: []string{"name", "code"},
	}
)

// readTx выполняет fn в транзакции только для чтения. На PostgreSQL используется
// REPEATABLE READ, чтобы count и выборка видели один снимок.
func (s *GormCatalogStore) readTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	db := s.DB.WithContext(ctx)
	if database.IsPostgres(db) {
		return db.Transaction(fn, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	}
	return db.Transaction(fn)
}

// ---- Property ----

func (s *GormCatalogStore) FindProperty(ctx context.Context, id uint) (*models.Property, error) {
	var property models.Property
	if err := s.DB.WithContext(ctx).First(&property, id).Error; err != nil {
		return nil, s.propertyError(opRead, id, err)
	}
	return &property, nil
}

func (s *GormCatalogStore) FindPropertyWithScreens(ctx context.Context, id uint) (*models.Property, error) {
	var property models.Property
	err := s.DB.WithContext(ctx).
		Preload("Screens", func(db *gorm.DB) *gorm.DB {
			return db.Order("screens.created_at ASC").Order("screens.id ASC")
		}).
		First(&property, id).Error
	if err != nil {
		return nil, s.propertyError(opRead, id, err)
	}
	if property.Screens == nil {
		property.Screens = []models.Screen{}
	}
	return &property, nil
}

func (s *GormCatalogStore) PropertyCodeTaken(ctx context.Context, code string, excludeID uint) (bool, error) {
	var count int64
	err := s.DB.WithContext(ctx).Model(&models.Property{}).
		Where("smartiv_code = ? AND id <> ?", code, excludeID).
		Count(&count).Error
	if err != nil {
		return false, translateStoreError(opRead, EntityProperty, code, err)
	}
	return count > 0, nil
}

func (s *GormCatalogStore) CreateProperty(ctx context.Context, property *models.Property) error {
	err := s.DB.WithContext(ctx).Omit("Screens", "RateCards").Create(property).Error
	return translateStoreError(opCreate, EntityProperty, derefString(property.SmartivCode), err)
}

func (s *GormCatalogStore) UpdateProperty(ctx context.Context, id uint, changes map[string]any) (*models.Property, error) {
	if len(changes) > 0 {
		res := s.DB.WithContext(ctx).Model(&models.Property{}).Where("id = ?", id).Updates(changes)
		if res.Error != nil {
			return nil, translateStoreError(opUpdate, EntityProperty, changes["smartiv_code"], res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, notFound(EntityProperty, id)
		}
	}
	return s.FindProperty(ctx, id)
}

// DeleteProperty удаляет объект вместе с его тарифами. Объект с экранами не удаляется.
func (s *GormCatalogStore) DeleteProperty(ctx context.Context, id uint) error {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var screens int64
		if err := tx.Model(&models.Screen{}).Where("property_id = ?", id).Count(&screens).Error; err != nil {
			return err
		}
		if screens > 0 {
			return hasDependents(EntityProperty, id, "screens", screens)
		}

		if err := tx.Where("property_id = ?", id).Delete(&models.RateCard{}).Error; err != nil {
			return err
		}

		res := tx.Delete(&models.Property{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return notFound(EntityProperty, id)
		}
		return nil
	})
	return translateStoreError(opDelete, EntityProperty, id, err)
}

func (s *GormCatalogStore) ListProperties(ctx context.Context, opts PageOptions) (Page[models.PropertyListItem], error) {
	var page Page[models.PropertyListItem]
	err := s.readTx(ctx, func(tx *gorm.DB) error {
		var properties []models.Property
		total, err := fetchPage(tx, &models.Property{}, propertyListQuery, opts, &properties)
		if err != nil {
			return err
		}

		counts, err := screenCounts(tx, properties)
		if err != nil {
			return err
		}

		items := make([]models.PropertyListItem, 0, len(properties))
		for _, p := range properties {
			items = append(items, models.PropertyListItem{Property: p, ScreenCount: counts[p.ID]})
		}
		page = NewPage(items, total, opts)
		return nil
	})
	if err != nil {
		return Page[models.PropertyListItem]{}, translateStoreError(opList, EntityProperty, nil, err)
	}
	return page, nil
}

// screenCounts считает экраны для объектов страницы одним запросом
func screenCounts(tx *gorm.DB, properties []models.Property) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(properties))
	if len(properties) == 0 {
		return counts, nil
	}

	ids := make([]uint, 0, len(properties))
	for _, p := range properties {
		ids = append(ids, p.ID)
	}

	var rows []struct {
		PropertyID uint
		Count      int64
	}
	err := tx.Model(&models.Screen{}).
		Select("property_id, COUNT(*) AS count").
		Where("property_id IN ?", ids).
		Group("property_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		counts[row.PropertyID] = row.Count
	}
	return counts, nil
}

func (s *GormCatalogStore) propertyError(op string, id uint, err error) error {
	if err == gorm.ErrRecordNotFound {
		return notFound(EntityProperty, id)
	}
	return translateStoreError(op, EntityProperty, nil, err)
}

// ---- Screen ----

func (s *GormCatalogStore) FindScreen(ctx context.Context, id uint) (*models.Screen, error) {
	var screen models.Screen
	if err := s.DB.WithContext(ctx).Preload("Property").First(&screen, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, notFound(EntityScreen, id)
		}
		return nil, translateStoreError(opRead, EntityScreen, nil, err)
	}
	return &screen, nil
}

func (s *GormCatalogStore) FindScreenByCode(ctx context.Context, code string) (*models.Screen, error) {
	var screen models.Screen
	if err := s.DB.WithContext(ctx).Where("code = ?", code).First(&screen).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, &CatalogError{Kind: ErrNotFound, Entity: EntityScreen, Field: "code", Value: code}
		}
		return nil, translateStoreError(opRead, EntityScreen, nil, err)
	}
	return &screen, nil
}

func (s *GormCatalogStore) ScreenCodeTaken(ctx context.Context, code string, excludeID uint) (bool, error) {
	var count int64
	err := s.DB.WithContext(ctx).Model(&models.Screen{}).
		Where("code = ? AND id <> ?", code, excludeID).
		Count(&count).Error
	if err != nil {
		return false, translateStoreError(opRead, EntityScreen, code, err)
	}
	return count > 0, nil
}

func (s *GormCatalogStore) CreateScreen(ctx context.Context, screen *models.Screen) error {
	err := s.DB.WithContext(ctx).Omit("Property").Create(screen).Error
	return translateStoreError(opCreate, EntityScreen, screen.Code, err)
}

func (s *GormCatalogStore) UpdateScreen(ctx context.Context, id uint, changes map[string]any) (*models.Screen, error) {
	if len(changes) > 0 {
		res := s.DB.WithContext(ctx).Model(&models.Screen{}).Where("id = ?", id).Updates(changes)
		if res.Error != nil {
			return nil, translateStoreError(opUpdate, EntityScreen, changes["code"], res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, notFound(EntityScreen, id)
		}
	}
	return s.FindScreen(ctx, id)
}

func (s *GormCatalogStore) DeleteScreen(ctx context.Context, id uint) error {
	res := s.DB.WithContext(ctx).Delete(&models.Screen{}, id)
	if res.Error != nil {
		return translateStoreError(opDelete, EntityScreen, id, res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound(EntityScreen, id)
	}
	return nil
}

func (s *GormCatalogStore) ListScreens(ctx context.Context, opts PageOptions, filter ScreenFilter) (Page[models.ScreenListItem], error) {
	q := screenListQuery
	q.equals = map[string]any{}
	if filter.PropertyID != nil {
		q.equals["property_id"] = *filter.PropertyID
	}
	if filter.Status != nil {
		q.equals["status"] = *filter.Status
	}

	var page Page[models.ScreenListItem]
	err := s.readTx(ctx, func(tx *gorm.DB) error {
		var screens []models.Screen
		total, err := fetchPage(tx, &models.Screen{}, q, opts, &screens)
		if err != nil {
			return err
		}

		names, err := propertyNames(tx, screens)
		if err != nil {
			return err
		}

		items := make([]models.ScreenListItem, 0, len(screens))
		for _, sc := range screens {
			items = append(items, models.ScreenListItem{Screen: sc, PropertyName: names[sc.PropertyID]})
		}
		page = NewPage(items, total, opts)
		return nil
	})
	if err != nil {
		return Page[models.ScreenListItem]{}, translateStoreError(opList, EntityScreen, nil, err)
	}
	return page, nil
}

// propertyNames достает названия объектов-владельцев для экранов страницы
func propertyNames(tx *gorm.DB, screens []models.Screen) (map[uint]string, error) {
	names := make(map[uint]string)
	if len(screens) == 0 {
		return names, nil
	}

	ids := make([]uint, 0, len(screens))
	for _, sc := range screens {
		if _, ok := names[sc.PropertyID]; !ok {
			names[sc.PropertyID] = ""
			ids = append(ids, sc.PropertyID)
		}
	}

	var rows []struct {
		ID   uint
		Name string
	}
	if err := tx.Model(&models.Property{}).Select("id, name").Where("id IN ?", ids).Scan(&rows).Error; err != nil {
		return nil, err
	}

	for _, row := range rows {
		names[row.ID] = row.Name
	}
	return names, nil
}

// MarkScreensOffline переводит в OFFLINE экраны, которые не выходили на связь с момента lastPingBefore
func (s *GormCatalogStore) MarkScreensOffline(ctx context.Context, lastPingBefore time.Time) (int64, error) {
	res := s.DB.WithContext(ctx).Model(&models.Screen{}).
		Where("status = ?", models.ScreenStatusOnline).
		Where("last_ping IS NULL OR last_ping < ?", lastPingBefore).
		Update("status", models.ScreenStatusOffline)
	if res.Error != nil {
		return 0, translateStoreError(opUpdate, EntityScreen, nil, res.Error)
	}
	return res.RowsAffected, nil
}

// ---- RateCard ----

func (s *GormCatalogStore) FindRateCard(ctx context.Context, id uint) (*models.RateCard, error) {
	var card models.RateCard
	if err := s.DB.WithContext(ctx).First(&card, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, notFound(EntityRateCard, id)
		}
		return nil, translateStoreError(opRead, EntityRateCard, nil, err)
	}
	return &card, nil
}

func (s *GormCatalogStore) RateCardSlotTaken(ctx context.Context, propertyID uint, slot models.AdSlot, excludeID uint) (bool, error) {
	var count int64
	err := s.DB.WithContext(ctx).Model(&models.RateCard{}).
		Where("property_id = ? AND target_slot = ? AND id <> ?", propertyID, slot, excludeID).
		Count(&count).Error
	if err != nil {
		return false, translateStoreError(opRead, EntityRateCard, slot, err)
	}
	return count > 0, nil
}

func (s *GormCatalogStore) CreateRateCard(ctx context.Context, card *models.RateCard) error {
	err := s.DB.WithContext(ctx).Create(card).Error
	return translateStoreError(opCreate, EntityRateCard, card.TargetSlot, err)
}

func (s *GormCatalogStore) UpdateRateCard(ctx context.Context, id uint, changes map[string]any) (*models.RateCard, error) {
	if len(changes) > 0 {
		res := s.DB.WithContext(ctx).Model(&models.RateCard{}).Where("id = ?", id).Updates(changes)
		if res.Error != nil {
			return nil, translateStoreError(opUpdate, EntityRateCard, changes["target_slot"], res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, notFound(EntityRateCard, id)
		}
	}
	return s.FindRateCard(ctx, id)
}

func (s *GormCatalogStore) DeleteRateCard(ctx context.Context, id uint) error {
	res := s.DB.WithContext(ctx).Delete(&models.RateCard{}, id)
	if res.Error != nil {
		return translateStoreError(opDelete, EntityRateCard, id, res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound(EntityRateCard, id)
	}
	return nil
}

func (s *GormCatalogStore) ListRateCards(ctx context.Context, propertyID uint) ([]models.RateCard, error) {
	cards := []models.RateCard{}
	err := s.DB.WithContext(ctx).
		Where("property_id = ?", propertyID).
		Order("target_slot ASC").
		Find(&cards).Error
	if err != nil {
		return nil, translateStoreError(opList, EntityRateCard, nil, err)
	}
	return cards, nil
}

func derefString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
