package validator

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"kasirbuku/backend/internal/domain"
	"kasirbuku/backend/internal/store"
)

type ErrorResponse struct {
	FailedField string `json:"failed_field"`
	Tag         string `json:"tag"`
	Value       string `json:"value"`
}

var validate = validator.New()

func init() {
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})

	// calendar date without a time part, e.g. 2026-10-16
	validate.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(domain.DateLayout, fl.Field().String())
		return err == nil
	})
}

func ValidateStruct(data interface{}) []*ErrorResponse {
	var failures []*ErrorResponse
	err := validate.Struct(data)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return []*ErrorResponse{{FailedField: "", Tag: "invalid", Value: err.Error()}}
	}
	for _, fieldErr := range validationErrors {
		failures = append(failures, &ErrorResponse{
			FailedField: fieldErr.Namespace(),
			Tag:         fieldErr.Tag(),
			Value:       fieldErr.Param(),
		})
	}
	return failures
}

// Check validates data and folds any failures into one error that matches
// store.ErrValidation.
func Check(data interface{}) error {
	failures := ValidateStruct(data)
	if len(failures) == 0 {
		return nil
	}
	parts := make([]string, 0, len(failures))
	for _, f := range failures {
		part := f.FailedField + " failed " + f.Tag
		if f.Value != "" {
			part += "=" + f.Value
		}
		parts = append(parts, part)
	}
	return store.Validationf("%s", strings.Join(parts, "; "))
}

// IsDate reports whether value is a YYYY-MM-DD calendar date.
func IsDate(value string) bool {
	_, err := time.Parse(domain.DateLayout, value)
	return err == nil
}
