package models

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// ValidationErrors maps a field's JSON name to the reason it was rejected.
type ValidationErrors map[string]string

func (e ValidationErrors) Add(field, reason string) {
	if prev, ok := e[field]; ok {
		e[field] = prev + "; " + reason
		return
	}
	e[field] = reason
}

func (e ValidationErrors) Error() string {
	fields := make([]string, 0, len(e))
	for field := range e {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+e[field])
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// OrNil returns nil when nothing was recorded, so callers can return it
// straight from a Validate method.
func (e ValidationErrors) OrNil() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// checkStruct runs the `validate` tag rules of s and records each failure.
func checkStruct(s any, errs ValidationErrors) {
	var fieldErrs validator.ValidationErrors
	if err := validate.Struct(s); errors.As(err, &fieldErrs) {
		for _, fe := range fieldErrs {
			errs.Add(fe.Field(), describe(fe))
		}
	}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "email":
		return "must be a valid email address"
	case "number":
		return "must contain digits only"
	case "oneof":
		return "must be one of: " + fe.Param()
	}
	return fmt.Sprintf("failed on the '%s' rule", fe.Tag())
}

// minTrimmed records a failure when value, ignoring surrounding spaces, is
// shorter than n characters.
func minTrimmed(errs ValidationErrors, field, value string, n int) {
	if utf8.RuneCountInString(strings.TrimSpace(value)) < n {
		errs.Add(field, fmt.Sprintf("must be at least %d characters", n))
	}
}

// fresh gives hooks a clean statement that still shares the caller's
// connection, transaction and context.
func fresh(tx *gorm.DB) *gorm.DB {
	return tx.Session(&gorm.Session{NewDB: true})
}
