// Package validate checks request inputs with struct tags and reports the
// first failure as a domain validation error.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/joao-fontenele/storefront/internal/domain"
)

var v = newValidator()

func newValidator() *validator.Validate {
	val := validator.New(validator.WithRequiredStructEnabled())
	val.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return val
}

// Struct validates s against its `validate` tags.
func Struct(s any) error {
	if err := v.Struct(s); err != nil {
		return translate(err, "")
	}
	return nil
}

// ID checks that value is a UUID; field names it in the error message.
func ID(field, value string) error {
	if err := v.Var(value, "required,uuid"); err != nil {
		return translate(err, field)
	}
	return nil
}

func translate(err error, field string) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return domain.ValidationError("invalid input")
	}

	fe := verrs[0]
	name := fe.Field()
	if field != "" {
		name = field
	}

	switch fe.Tag() {
	case "required":
		return domain.ValidationError(fmt.Sprintf("%s is required", name))
	case "email":
		return domain.ValidationError(fmt.Sprintf("%s must be a valid e-mail", name))
	case "min":
		if fe.Kind() == reflect.String {
			return domain.ValidationError(fmt.Sprintf("%s must have at least %s characters", name, fe.Param()))
		}
		return domain.ValidationError(fmt.Sprintf("%s must be at least %s", name, fe.Param()))
	case "max":
		return domain.ValidationError(fmt.Sprintf("%s must have at most %s characters", name, fe.Param()))
	case "uuid":
		return domain.ValidationError(fmt.Sprintf("%s must be a valid id", name))
	default:
		return domain.ValidationError(fmt.Sprintf("%s is invalid", name))
	}
}
