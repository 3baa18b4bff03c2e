package services

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"backend_smartiv/models"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// В ошибках используем имена полей из JSON
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	enums := map[string]func(string) bool{
		"ad_slot":            func(s string) bool { return models.AdSlot(s).IsValid() },
		"target_slot":        func(s string) bool { return s == "" || models.AdSlot(s).IsValid() },
		"property_type":      func(s string) bool { return models.PropertyType(s).IsValid() },
		"property_class":     func(s string) bool { return models.PropertyClass(s).IsValid() },
		"screen_orientation": func(s string) bool { return models.ScreenOrientation(s).IsValid() },
		"screen_status":      func(s string) bool { return models.ScreenStatus(s).IsValid() },
		"room_category":      func(s string) bool { return models.RoomCategory(s).IsValid() },
		"not_blank":          func(s string) bool { return strings.TrimSpace(s) != "" },
	}
	for tag, check := range enums {
		check := check
		if err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return check(fl.Field().String())
		}); err != nil {
			panic(err)
		}
	}

	return v
}

// validateInput проверяет входную структуру и возвращает ErrValidation по первому нарушению
func validateInput(entity string, input any) error {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return &CatalogError{Kind: ErrValidation, Entity: entity, Field: fe.Field(), Value: fe.Tag(), Err: err}
	}
	return &CatalogError{Kind: ErrValidation, Entity: entity, Err: err}
}
