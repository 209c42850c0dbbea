package domain

import (
	"fmt"
	"math"
	"strings"

	"github.com/smallbiznis/churnlens/internal/features"
	"github.com/smallbiznis/churnlens/internal/taxonomy"
	"gorm.io/datatypes"
)

// Row is one raw record from a table source, keyed by column name.
type Row map[string]any

// FromRow validates a raw record and converts it into a Customer. An empty
// segment defaults to New Customer; an empty risk is left for the caller to
// derive.
func FromRow(row Row) (Customer, error) {
	var c Customer

	rawID, ok := row[ColumnID]
	if !ok || isBlank(rawID) {
		return Customer{}, &RowError{Column: ColumnID, Reason: "is required"}
	}
	id, err := ParseID(normalize(rawID))
	if err != nil {
		return Customer{}, &RowError{Column: ColumnID, Reason: "must be a number"}
	}
	c.ID = id

	c.Segment = stringValue(row[ColumnSegment])
	if c.Segment == "" {
		c.Segment = taxonomy.SegmentNewCustomer
	}
	if !taxonomy.IsSegment(c.Segment) {
		return Customer{}, &RowError{Column: ColumnSegment, Reason: fmt.Sprintf("unknown segment %q", c.Segment)}
	}

	c.ChurnRisk = stringValue(row[ColumnChurnRisk])
	if c.ChurnRisk != "" && !taxonomy.IsRisk(c.ChurnRisk) {
		return Customer{}, &RowError{Column: ColumnChurnRisk, Reason: fmt.Sprintf("unknown risk %q", c.ChurnRisk)}
	}

	for _, col := range numericColumns {
		raw, ok := row[col.name]
		if !ok || isBlank(raw) {
			continue
		}
		v, err := features.ToFloat(normalize(raw))
		if err != nil {
			return Customer{}, &RowError{Column: col.name, Reason: err.Error()}
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Customer{}, &RowError{Column: col.name, Reason: "must be a finite number"}
		}
		*col.ptr(&c) = v
	}

	for name, raw := range row {
		if isKnownColumn(name) || isBlank(raw) {
			continue
		}
		if c.Extra == nil {
			c.Extra = datatypes.JSONMap{}
		}
		raw = normalize(raw)
		if v, err := features.ToFloat(raw); err == nil {
			c.Extra[name] = v
		} else {
			c.Extra[name] = raw
		}
	}

	return c, nil
}

// ParseID accepts any finite number and truncates it toward zero, so "12",
// "12.0" and "12.9" all name customer 12.
func ParseID(raw any) (int64, error) {
	v, err := features.ToFloat(raw)
	if err != nil {
		return 0, ErrInvalidID
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrInvalidID
	}
	v = math.Trunc(v)
	if v >= math.MaxInt64 || v < math.MinInt64 {
		return 0, ErrInvalidID
	}
	return int64(v), nil
}

// RowError reports a record the table cannot hold.
type RowError struct {
	Line   int
	Column string
	Reason string
}

func (e *RowError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("customer table record %d: %s %s", e.Line, e.Column, e.Reason)
	}
	return fmt.Sprintf("customer table: %s %s", e.Column, e.Reason)
}

func isKnownColumn(name string) bool {
	switch name {
	case ColumnID, ColumnSegment, ColumnChurnRisk:
		return true
	}
	for _, col := range numericColumns {
		if col.name == name {
			return true
		}
	}
	return false
}

func normalize(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

func isBlank(v any) bool {
	switch s := normalize(v).(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(s) == ""
	default:
		return false
	}
}

func stringValue(v any) string {
	switch s := normalize(v).(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(s)
	default:
		return strings.TrimSpace(fmt.Sprint(s))
	}
}
