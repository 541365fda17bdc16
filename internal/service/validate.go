package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/01moynul/fvcommerce-golang/internal/apperr"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their JSON name.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateStruct runs the `validate` tags of s and reports the first failure
// as a Validation error.
func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		return apperr.Validation(fieldMessage(fieldErrs[0]))
	}
	return apperr.Validation(err.Error())
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// maxPrice is the first value that no longer fits DECIMAL(10,2).
var maxPrice = decimal.New(1, 8)

func validatePrice(price decimal.Decimal) error {
	switch {
	case !price.IsPositive():
		return apperr.Validation("price must be greater than 0")
	case !price.Equal(price.Round(2)):
		return apperr.Validation("price must have at most 2 decimal places")
	case price.GreaterThanOrEqual(maxPrice):
		return apperr.Validation("price is too large")
	}
	return nil
}

// Page is an offset/limit window over a listing.
type Page struct {
	Offset int
	Limit  int
}

// normalize fills in the default page size and caps it at that size.
func (p Page) normalize(size int) (Page, error) {
	if p.Offset < 0 {
		return p, apperr.Validation("skip must not be negative")
	}
	if p.Limit < 0 {
		return p, apperr.Validation("limit must not be negative")
	}
	if p.Limit == 0 || p.Limit > size {
		p.Limit = size
	}
	return p, nil
}

// Default page sizes; a requested limit above them is clamped.
const (
	categoryPageSize   = 100
	productPageSize    = 50
	orderPageSize      = 50
	adminOrderPageSize = 100
	userPageSize       = 100
)

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}
