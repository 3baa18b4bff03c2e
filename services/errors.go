package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"backend_smartiv/database"
)

// Виды ошибок каталога. Сравнивать через errors.Is.
var (
	ErrNotFound           = errors.New("not found")
	ErrDuplicateCode      = errors.New("duplicate code")
	ErrValidation         = errors.New("validation failed")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrForbidden          = errors.New("forbidden")
	ErrHasDependents      = errors.New("has dependents")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
)

// Сущности каталога
const (
	EntityProperty = "property"
	EntityScreen   = "screen"
	EntityRateCard = "rate_card"
	EntityUser     = "user"
)

// CatalogError типизированная ошибка с контекстом: какая сущность, какое поле, какая операция
type CatalogError struct {
	Kind   error
	Entity string
	Field  string
	Value  any
	Op     string
	Err    error
}

func (e *CatalogError) Error() string {
	msg := e.Kind.Error()
	if e.Entity != "" {
		msg = e.Entity + " " + msg
	}
	if e.Field != "" {
		msg = fmt.Sprintf("%s: %s=%v", msg, e.Field, e.Value)
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	return msg
}

func (e *CatalogError) Unwrap() error {
	return e.Err
}

// Is сопоставляет ошибку с видом, а не с внутренней причиной
func (e *CatalogError) Is(target error) bool {
	return target == e.Kind
}

func notFound(entity string, id any) error {
	return &CatalogError{Kind: ErrNotFound, Entity: entity, Field: "id", Value: id}
}

func duplicateCode(entity, field string, value any) error {
	return &CatalogError{Kind: ErrDuplicateCode, Entity: entity, Field: field, Value: value}
}

func validationError(entity, field string, rule any) error {
	return &CatalogError{Kind: ErrValidation, Entity: entity, Field: field, Value: rule}
}

func forbidden(op string) error {
	return &CatalogError{Kind: ErrForbidden, Op: op}
}

func hasDependents(entity string, id uint, dependents string, count int64) error {
	return &CatalogError{
		Kind:   ErrHasDependents,
		Entity: entity,
		Field:  dependents,
		Value:  count,
		Op:     fmt.Sprintf("delete %s %d", entity, id),
	}
}

// uniqueFields поле, которое сообщаем при нарушении уникальности в таблице
var uniqueFields = map[string]string{
	EntityProperty: "smartiv_code",
	EntityScreen:   "code",
	EntityRateCard: "target_slot",
	EntityUser:     "email",
}

// translateStoreError приводит ошибку хранилища к таксономии каталога.
// value уходит в ошибку DuplicateCode, если нарушена уникальность.
func translateStoreError(op, entity string, value any, err error) error {
	if err == nil {
		return nil
	}

	var catalogErr *CatalogError
	if errors.As(err, &catalogErr) {
		return err
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &CatalogError{Kind: ErrNotFound, Entity: entity, Op: op}
	}

	if v, ok := database.ParseConstraintViolation(err); ok {
		switch v.Kind {
		case database.ViolationUnique:
			if entity == EntityUser {
				return &CatalogError{Kind: ErrEmailTaken, Entity: entity, Field: "email", Value: value, Op: op, Err: err}
			}
			field := uniqueFields[entity]
			if len(v.Columns) == 1 {
				field = v.Columns[0]
			}
			return &CatalogError{Kind: ErrDuplicateCode, Entity: entity, Field: field, Value: value, Op: op, Err: err}
		case database.ViolationForeignKey:
			if op == opDelete {
				return &CatalogError{Kind: ErrHasDependents, Entity: entity, Op: op, Err: err}
			}
			// Владелец исчез между проверкой и записью
			return &CatalogError{Kind: ErrNotFound, Entity: EntityProperty, Op: op, Err: err}
		}
	}

	if database.IsUnavailable(err) {
		return &CatalogError{Kind: ErrStorageUnavailable, Entity: entity, Op: op, Err: err}
	}

	return fmt.Errorf("%s %s: %w", op, entity, err)
}

// Имена операций хранилища
const (
	opCreate = "create"
	opRead   = "read"
	opList   = "list"
	opUpdate = "update"
	opDelete = "delete"
)

// isCatalogKind ожидаемая ошибка бизнес-логики, которую не нужно логировать как сбой
func isCatalogKind(err error) bool {
	var catalogErr *CatalogError
	return errors.As(err, &catalogErr) && catalogErr.Kind != ErrStorageUnavailable
}
