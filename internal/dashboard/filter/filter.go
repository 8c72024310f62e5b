// Package filter holds the three free-text dashboard filters and the
// matching rule that derives the display set from the record buffer.
package filter

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"fridge_monitor"
)

// Field names one of the filter criteria. The values double as the
// query parameter names of the historical endpoint.
type Field string

const (
	FieldFridgeID       Field = "fridge_id"
	FieldInstrumentName Field = "instrument_name"
	FieldParameterName  Field = "parameter_name"
)

// ErrUnknownField is returned for names outside the three known fields.
var ErrUnknownField = errors.New("unknown filter field")

// ParseField maps text to a Field.
func ParseField(s string) (Field, error) {
	switch f := Field(strings.ToLower(strings.TrimSpace(s))); f {
	case FieldFridgeID, FieldInstrumentName, FieldParameterName:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownField, s)
	}
}

// Criteria is the current filter value. An empty string means no constraint.
type Criteria struct {
	FridgeID       string
	InstrumentName string
	ParameterName  string
}

// IsZero reports whether no criterion is set.
func (c Criteria) IsZero() bool {
	return c.FridgeID == "" && c.InstrumentName == "" && c.ParameterName == ""
}

// Matches applies the dashboard rule: the fridge id is matched as a substring
// of its decimal text, names as case-insensitive substrings, all ANDed.
func (c Criteria) Matches(r fridge_monitor.Record) bool {
	if c.FridgeID != "" && !strings.Contains(strconv.Itoa(r.FridgeID), c.FridgeID) {
		return false
	}
	if !containsFold(r.InstrumentName, c.InstrumentName) {
		return false
	}
	return containsFold(r.ParameterName, c.ParameterName)
}

func containsFold(s, sub string) bool {
	if sub == "" {
		return true
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

// Apply returns the records matching c, in their original order. The result
// never aliases records.
func Apply(records []fridge_monitor.Record, c Criteria) []fridge_monitor.Record {
	out := make([]fridge_monitor.Record, 0, len(records))
	for _, r := range records {
		if c.Matches(r) {
			out = append(out, r)
		}
	}
	return out
}

// Model is the mutable holder behind the filter inputs. It is not safe for
// concurrent use; the reconciler serialises access.
type Model struct {
	criteria Criteria
}

// Criteria returns the current value.
func (m *Model) Criteria() Criteria { return m.criteria }

// SetField replaces one criterion and reports whether the value changed.
func (m *Model) SetField(f Field, value string) (bool, error) {
	next := m.criteria
	switch f {
	case FieldFridgeID:
		next.FridgeID = value
	case FieldInstrumentName:
		next.InstrumentName = value
	case FieldParameterName:
		next.ParameterName = value
	default:
		return false, fmt.Errorf("%w: %q", ErrUnknownField, string(f))
	}
	changed := next != m.criteria
	m.criteria = next
	return changed, nil
}

// Clear resets every criterion and reports whether anything was set.
func (m *Model) Clear() bool {
	changed := !m.criteria.IsZero()
	m.criteria = Criteria{}
	return changed
}
