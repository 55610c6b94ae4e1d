// Package validate holds the shared struct validator and maps its failures
// onto VALIDATION_ERROR responses.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	pkgerrors "github.com/angelmondragon/photoalbum-backend/pkg/errors"
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, key := range []string{"json", "form"} {
			tag := strings.SplitN(f.Tag.Get(key), ",", 2)[0]
			if tag == "-" {
				return ""
			}
			if tag != "" {
				return tag
			}
		}
		return f.Name
	})
	return v
}

// RegisterValidation adds a custom tag. It must be called during init.
func RegisterValidation(tag string, fn validator.Func) {
	if err := validate.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("registering validation %q: %v", tag, err))
	}
}

// Struct validates s and returns a typed VALIDATION_ERROR whose details map
// each failing field to a readable reason.
func Struct(s any) error {
	if err := validate.Struct(s); err != nil {
		return formatValidationErrors(err)
	}
	return nil
}

func formatValidationErrors(err error) *pkgerrors.Error {
	var errs validator.ValidationErrors
	if errors.As(err, &errs) {
		details := map[string]string{}
		var first string
		for _, fieldErr := range errs {
			msg := validationMessage(fieldErr)
			details[fieldErr.Field()] = msg
			if first == "" {
				first = fmt.Sprintf("%s %s", fieldErr.Field(), msg)
			}
		}
		return pkgerrors.New(pkgerrors.CodeValidation, first).WithDetails(details)
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "validation failed")
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min", "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max", "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "email":
		return "must be a valid email"
	case "uuid":
		return "must be a valid uuid"
	}
	return "is invalid"
}
