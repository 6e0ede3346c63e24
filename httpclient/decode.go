package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/gaborage/go-astrox/validation"
)

// PostAs sends payload with c and decodes the body into T.
func PostAs[T any](ctx context.Context, c Client, endpoint string, payload Payload) (*T, error) {
	resp, err := c.Do(ctx, endpoint, payload)
	if err != nil {
		return nil, err
	}
	return Decode[T](endpoint, resp.Body)
}

// Decode unmarshals body into T and validates it with the struct's validate tags.
// Type mismatches and rule violations are both reported as a ValidationError listing
// the offending fields by their JSON path.
func Decode[T any](endpoint string, body []byte) (*T, error) {
	var out T
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, NewValidationError(endpoint, "failed to decode response", decodeFieldErrors(err))
	}

	if target, ok := validationTarget(&out); ok {
		if err := validation.Default().Struct(target); err != nil {
			var verr *validation.Error
			if errors.As(err, &verr) {
				return nil, NewValidationError(endpoint, "failed to validate response", verr.Fields)
			}
			return nil, NewValidationError(endpoint, "failed to validate response",
				[]validation.FieldError{{Message: err.Error()}})
		}
	}
	return &out, nil
}

// validationTarget returns the struct pointer to validate for T = S or T = *S.
func validationTarget(out any) (any, bool) {
	v := reflect.ValueOf(out).Elem()
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil, false
		}
		v = v.Elem()
		out = v.Addr().Interface()
	}
	if v.Kind() != reflect.Struct || v.Type() == reflect.TypeOf(time.Time{}) {
		return nil, false
	}
	return out, true
}

func decodeFieldErrors(err error) []validation.FieldError {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		field := typeErr.Field
		if field == "" {
			field = "(root)"
		}
		return []validation.FieldError{{
			Field:   field,
			Tag:     "type",
			Message: fmt.Sprintf("%s must be %s, got %s", field, typeErr.Type, typeErr.Value),
			Value:   typeErr.Value,
		}}
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return []validation.FieldError{{
			Field:   "(root)",
			Tag:     "json",
			Message: fmt.Sprintf("invalid JSON at offset %d: %v", syntaxErr.Offset, syntaxErr),
		}}
	}

	return []validation.FieldError{{Field: "(root)", Tag: "json", Message: err.Error()}}
}
