// Package validation wraps go-playground/validator with the field naming and error
// shape used across the ASTROX client. Field paths use JSON (wire) names so that an
// error points at the key the server sent, not at the Go field.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

// Validator wraps go-playground/validator with custom rules registered.
type Validator struct {
	validate *validator.Validate
}

var (
	defaultValidator *Validator
	defaultOnce      sync.Once
)

// New creates a Validator that reports JSON field names and knows the "utcg" rule.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		switch name {
		case "-":
			return ""
		case "":
			return fld.Name
		default:
			return name
		}
	})

	// Registration only fails for an empty tag or nil func.
	_ = v.RegisterValidation("utcg", validateUTCG)

	return &Validator{validate: v}
}

// Default returns a process-wide Validator. validator.Validate caches struct metadata,
// so sharing one instance is cheaper than building one per call.
func Default() *Validator {
	defaultOnce.Do(func() {
		defaultValidator = New()
	})
	return defaultValidator
}

// Struct validates s. Field violations are returned as *Error; anything else (for
// example a non-struct argument) is returned unchanged.
func (v *Validator) Struct(s any) error {
	if err := v.validate.Struct(s); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return NewError(validationErrors)
		}
		return err
	}
	return nil
}

// Error carries one FieldError per violated rule.
type Error struct {
	Fields []FieldError `json:"errors"`
}

// FieldError describes one invalid field.
type FieldError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag,omitempty"`
	Message string `json:"message"`
	Value   string `json:"value,omitempty"`
}

// NewError converts validator errors into an *Error.
func NewError(errs validator.ValidationErrors) *Error {
	fields := make([]FieldError, 0, len(errs))
	for _, fe := range errs {
		fields = append(fields, FieldError{
			Field:   fieldPath(fe),
			Tag:     fe.Tag(),
			Message: message(fe),
			Value:   fmt.Sprintf("%v", fe.Value()),
		})
	}
	return &Error{Fields: fields}
}

func (e *Error) Error() string {
	switch len(e.Fields) {
	case 0:
		return "validation failed"
	case 1:
		return "validation failed: " + e.Fields[0].Message
	default:
		return fmt.Sprintf("validation failed: %d errors", len(e.Fields))
	}
}

// fieldPath drops the root struct name from the namespace: "Result.Position.Epoch"
// becomes "Position.Epoch".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	field := fieldPath(fe)
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "len":
		return fmt.Sprintf("%s must have length %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	case "url":
		return field + " must be a valid URL"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "utcg":
		return field + " must be a UTC timestamp like 2024-01-01T00:00:00.000Z"
	default:
		return field + " failed validation"
	}
}

// validateUTCG accepts the ISO-8601 UTC timestamps the ASTROX API uses for epochs.
func validateUTCG(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return false
	}
	_, err := time.Parse(time.RFC3339Nano, value)
	return err == nil
}
