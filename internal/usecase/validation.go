package usecase

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/pricescout/backend/internal/domain"
)

// NewValidator returns a validator that checks decimal.Decimal fields as numbers,
// so tags like min=0 work on prices. Errors name fields by their JSON name.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.InexactFloat64()
		}
		return nil
	}, decimal.Decimal{})
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validationError wraps validator errors so callers can match both
// domain.ErrInvalidRequest and validator.ValidationErrors.
func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %w", domain.ErrInvalidRequest, fieldErrs)
	}
	return fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err)
}

// ValidationDetails flattens validator errors into field -> rule messages
func ValidationDetails(err error) (map[string]string, bool) {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return nil, false
	}
	details := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		details[fe.Field()] = "failed on rule: " + fe.Tag()
	}
	return details, true
}
