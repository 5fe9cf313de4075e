package models

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their JSON names so errors line up with the payload
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slugPattern.MatchString(fl.Field().String())
	})
	return v
}

// ValidationErrors maps a request field to its problems
type ValidationErrors map[string][]string

// Add records a problem with field
func (v ValidationErrors) Add(field, message string) {
	v[field] = append(v[field], message)
}

// Has reports whether field has any problem recorded
func (v ValidationErrors) Has(field string) bool {
	return len(v[field]) > 0
}

// First returns the first message for the alphabetically first field
func (v ValidationErrors) First() string {
	if len(v) == 0 {
		return ""
	}
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	for _, f := range fields {
		if len(v[f]) > 0 {
			return f + " " + v[f][0]
		}
	}
	return ""
}

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return "validation failed"
	}
	return "validation failed: " + v.First()
}

// Is lets callers match validation failures against ErrInvalidInput
func (v ValidationErrors) Is(target error) bool {
	return target == ErrInvalidInput
}

// ValidateStruct runs the struct tag rules on s and converts any failures
// into ValidationErrors. It returns nil when s is valid.
func ValidateStruct(s interface{}) ValidationErrors {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return ValidationErrors{"_": {err.Error()}}
	}

	out := ValidationErrors{}
	for _, fe := range fieldErrs {
		out.Add(fe.Field(), describeFieldError(fe))
	}
	return out
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte", "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max", "lte":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "url":
		return "must be a valid URL"
	case "slug":
		return "may only contain lowercase letters, digits and single hyphens"
	}
	return fmt.Sprintf("failed the %q rule", fe.Tag())
}
