// Package features turns loosely typed customer records into the inputs the
// churn classifier and the lifetime-value models expect.
package features

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/spf13/cast"
)

// Source is anything that can be read by field name: a stored customer row or
// a raw request payload.
type Source interface {
	Lookup(field string) (any, bool)
}

// Payload is a raw field map, typically a decoded JSON body.
type Payload map[string]any

func (p Payload) Lookup(field string) (any, bool) {
	if p == nil {
		return nil, false
	}
	v, ok := p[field]
	return v, ok
}

// ValidationError names the input field that could not be used.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Number reads field from src as a float64. A missing field yields def.
func Number(src Source, field string, def float64) (float64, error) {
	raw, ok := src.Lookup(field)
	if !ok {
		return def, nil
	}
	v, err := ToFloat(raw)
	if err != nil {
		return 0, &ValidationError{Field: field, Reason: err.Error()}
	}
	return v, nil
}

// String reads field from src as a trimmed string. A missing or empty field
// yields def.
func String(src Source, field string, def string) string {
	raw, ok := src.Lookup(field)
	if !ok || raw == nil {
		return def
	}
	s := strings.TrimSpace(cast.ToString(raw))
	if s == "" {
		return def
	}
	return s
}

// Label reads field from src verbatim. Only a missing field yields def; a
// present null or blank value is returned as is.
func Label(src Source, field string, def string) string {
	raw, ok := src.Lookup(field)
	if !ok {
		return def
	}
	return cast.ToString(raw)
}

// ToFloat coerces a decoded value into a float64. Strings are trimmed before
// parsing; null and blank strings are rejected.
func ToFloat(v any) (float64, error) {
	switch n := v.(type) {
	case nil:
		return 0, fmt.Errorf("must be a number, got null")
	case string:
		trimmed := strings.TrimSpace(n)
		if trimmed == "" {
			return 0, fmt.Errorf("must be a number, got an empty string")
		}
		v = trimmed
	case json.Number:
		if n == "" {
			return 0, fmt.Errorf("must be a number, got an empty string")
		}
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		if s, ok := v.(string); ok {
			return 0, fmt.Errorf("must be a number, got %q", s)
		}
		return 0, fmt.Errorf("must be a number, got %T", v)
	}
	return f, nil
}

// Finite rejects NaN and infinities for field.
func Finite(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return &ValidationError{Field: field, Reason: "must be a finite number"}
	}
	return nil
}
