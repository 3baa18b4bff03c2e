package database

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DatabaseIndex представляет индекс базы данных
type DatabaseIndex struct {
	Name    string
	Table   string
	Columns []string
	Unique  bool
	Type    string // btree, lower, trigram
}

// Поиск идет по LOWER(col) LIKE '%term%'. Btree по LOWER(col) обслуживает только точное
// сравнение и поиск по префиксу, для подстроки на PostgreSQL нужны trigram индексы (pg_trgm).
// На SQLite trigram индексы не создаются.

// SearchIndexes индексы для регистронезависимого поиска и постраничной выборки каталога
var SearchIndexes = []DatabaseIndex{
	// Поиск по объектам
	{
		Name:    "idx_properties_lower_name",
		Table:   "properties",
		Columns: []string{"name"},
		Type:    "lower",
	},
	{
		Name:    "idx_properties_lower_smartiv_code",
		Table:   "properties",
		Columns: []string{"smartiv_code"},
		Type:    "lower",
	},

	// Поиск и фильтрация экранов
	{
		Name:    "idx_screens_lower_name",
		Table:   "screens",
		Columns: []string{"name"},
		Type:    "lower",
	},
	{
		Name:    "idx_screens_lower_code",
		Table:   "screens",
		Columns: []string{"code"},
		Type:    "lower",
	},
	{
		Name:    "idx_screens_property_created",
		Table:   "screens",
		Columns: []string{"property_id", "created_at"},
		Type:    "btree",
	},
}

// TrigramIndexes индексы для поиска по подстроке, только PostgreSQL
var TrigramIndexes = []DatabaseIndex{
	{Name: "idx_properties_name_trgm", Table: "properties", Columns: []string{"name"}, Type: "trigram"},
	{Name: "idx_properties_smartiv_code_trgm", Table: "properties", Columns: []string{"smartiv_code"}, Type: "trigram"},
	{Name: "idx_screens_name_trgm", Table: "screens", Columns: []string{"name"}, Type: "trigram"},
	{Name: "idx_screens_code_trgm", Table: "screens", Columns: []string{"code"}, Type: "trigram"},
}

// CreateSearchIndexes создает дополнительные индексы, которые не описываются тегами gorm
func CreateSearchIndexes(db *gorm.DB, log *zap.Logger) {
	for _, index := range SearchIndexes {
		if err := CreateIndex(db, index); err != nil {
			// Продолжаем создание других индексов даже если один упал
			log.Warn("failed to create index", zap.String("index", index.Name), zap.Error(err))
			continue
		}
		log.Debug("index ensured", zap.String("index", index.Name))
	}

	if db.Dialector.Name() != "postgres" {
		return
	}
	// Расширение может требовать прав владельца БД
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS pg_trgm").Error; err != nil {
		log.Warn("pg_trgm unavailable, substring search runs without index", zap.Error(err))
		return
	}
	for _, index := range TrigramIndexes {
		if err := CreateIndex(db, index); err != nil {
			log.Warn("failed to create index", zap.String("index", index.Name), zap.Error(err))
		}
	}
}

// CreateIndex создает отдельный индекс
func CreateIndex(db *gorm.DB, index DatabaseIndex) error {
	return db.Exec(indexSQL(index)).Error
}

func indexSQL(index DatabaseIndex) string {
	columns := make([]string, len(index.Columns))
	for i, col := range index.Columns {
		switch index.Type {
		case "lower":
			columns[i] = fmt.Sprintf("LOWER(%s)", col)
		case "trigram":
			columns[i] = fmt.Sprintf("LOWER(%s) gin_trgm_ops", col)
		default:
			columns[i] = col
		}
	}

	uniqueStr := ""
	if index.Unique {
		uniqueStr = "UNIQUE "
	}
	using := ""
	if index.Type == "trigram" {
		using = "USING gin "
	}

	return fmt.Sprintf(
		"CREATE %sINDEX IF NOT EXISTS %s ON %s %s(%s)",
		uniqueStr, index.Name, index.Table, using, strings.Join(columns, ", "),
	)
}
