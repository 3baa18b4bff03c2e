package services

import (
	"math"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SortOrder направление сортировки по дате создания
type SortOrder string

const (
	OrderAsc  SortOrder = "ASC"
	OrderDesc SortOrder = "DESC"
)

const (
	DefaultPageTake = 10
	DefaultMaxTake  = 100
)

// PageOptions параметры постраничного запроса
type PageOptions struct {
	Take   int       `form:"take" json:"take"`
	Page   int       `form:"page" json:"page"`
	Order  SortOrder `form:"order" json:"order"`
	Search string    `form:"search" json:"search"`
}

// Normalize подставляет значения по умолчанию. После нее Take всегда положительный.
func (o PageOptions) Normalize(maxTake int) PageOptions {
	if maxTake <= 0 {
		maxTake = DefaultMaxTake
	}
	if o.Take <= 0 {
		o.Take = DefaultPageTake
	}
	if o.Take > maxTake {
		o.Take = maxTake
	}
	if o.Page <= 0 {
		o.Page = 1
	}
	switch SortOrder(strings.ToUpper(string(o.Order))) {
	case OrderAsc:
		o.Order = OrderAsc
	default:
		o.Order = OrderDesc
	}
	o.Search = strings.TrimSpace(o.Search)
	return o
}

// Skip смещение первой записи страницы. При переполнении возвращает math.MaxInt.
func (o PageOptions) Skip() int {
	if o.Page <= 1 || o.Take <= 0 {
		return 0
	}
	if o.Page-1 > math.MaxInt/o.Take {
		return math.MaxInt
	}
	return (o.Page - 1) * o.Take
}

// beyondLastPage страница за последней; сравниваются номера страниц, без умножения
func (o PageOptions) beyondLastPage(total int64) bool {
	if total <= 0 || o.Take <= 0 {
		return true
	}
	lastPage := (total + int64(o.Take) - 1) / int64(o.Take)
	return int64(o.Page) > lastPage
}

// PageMeta метаданные страницы
type PageMeta struct {
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	LastPage int   `json:"last_page"`
	Take     int   `json:"take"`
}

// Page страница результатов вместе с общим количеством по тому же фильтру
type Page[T any] struct {
	Data []T      `json:"data"`
	Meta PageMeta `json:"meta"`
}

// NewPage собирает страницу. Data никогда не nil.
func NewPage[T any](data []T, total int64, opts PageOptions) Page[T] {
	if data == nil {
		data = []T{}
	}
	lastPage := 0
	if opts.Take > 0 {
		lastPage = int((total + int64(opts.Take) - 1) / int64(opts.Take))
	}
	return Page[T]{
		Data: data,
		Meta: PageMeta{
			Total:    total,
			Page:     opts.Page,
			LastPage: lastPage,
			Take:     opts.Take,
		},
	}
}

// pageQuery описывает фильтр списка: поля поиска и фильтры по равенству
type pageQuery struct {
	table         string
	searchColumns []string
	equals        map[string]any
}

// scope применяет фильтры. Вызывается заново для count и для выборки,
// чтобы оба запроса видели один и тот же WHERE.
func (q pageQuery) scope(tx *gorm.DB, search string) *gorm.DB {
	for column, value := range q.equals {
		tx = tx.Where(clause.Eq{Column: clause.Column{Table: q.table, Name: column}, Value: value})
	}

	if search != "" && len(q.searchColumns) > 0 {
		pattern := "%" + escapeLike(search) + "%"
		conditions := make([]string, 0, len(q.searchColumns))
		args := make([]any, 0, len(q.searchColumns))
		for _, column := range q.searchColumns {
			conditions = append(conditions, "LOWER("+q.table+"."+column+") LIKE LOWER(?) ESCAPE '\\'")
			args = append(args, pattern)
		}
		tx = tx.Where("("+strings.Join(conditions, " OR ")+")", args...)
	}

	return tx
}

func (q pageQuery) order(tx *gorm.DB, order SortOrder) *gorm.DB {
	desc := order != OrderAsc
	return tx.
		Order(clause.OrderByColumn{Column: clause.Column{Table: q.table, Name: "created_at"}, Desc: desc}).
		Order(clause.OrderByColumn{Column: clause.Column{Table: q.table, Name: "id"}, Desc: desc})
}

// fetchPage считает записи и выбирает страницу в рамках переданной транзакции.
// dest указатель на срез моделей.
func fetchPage(tx *gorm.DB, model any, q pageQuery, opts PageOptions, dest any) (int64, error) {
	var total int64
	if err := q.scope(tx.Model(model), opts.Search).Count(&total).Error; err != nil {
		return 0, err
	}

	if opts.beyondLastPage(total) {
		return total, nil
	}

	err := q.order(q.scope(tx.Model(model), opts.Search), opts.Order).
		Limit(opts.Take).
		Offset(opts.Skip()).
		Find(dest).Error
	return total, err
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
