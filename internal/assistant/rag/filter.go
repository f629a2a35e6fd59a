package rag

import (
	"strconv"
	"strings"
)

// Filter is a structured predicate over document metadata: field name →
// constraint. The zero value (or an empty map) matches every document, which
// is the mandated degrade when filter extraction fails.
type Filter map[string]Constraint

// Constraint restricts one metadata field. Exactly one of the forms is
// normally set; when several are set they must all hold.
type Constraint struct {
	Equals any      // literal equality (string or number)
	AnyOf  []string // set membership
	Min    *float64 // inclusive lower bound
	Max    *float64 // inclusive upper bound
}

// Eq builds an equality constraint.
func Eq(v any) Constraint { return Constraint{Equals: v} }

// In builds a set-membership constraint.
func In(vals ...string) Constraint { return Constraint{AnyOf: vals} }

// Between builds an inclusive numeric range constraint; either bound may be nil.
func Between(min, max *float64) Constraint { return Constraint{Min: min, Max: max} }

// IsEmpty reports whether the filter matches everything.
func (f Filter) IsEmpty() bool { return len(f) == 0 }

// Matches reports whether the given metadata satisfies every field constraint.
// A field missing from the metadata fails its constraint.
func (f Filter) Matches(meta map[string]any) bool {
	for field, c := range f {
		v, ok := meta[field]
		if !ok {
			return false
		}
		if !c.matches(v) {
			return false
		}
	}
	return true
}

func (c Constraint) matches(v any) bool {
	if c.Equals != nil && !scalarEqual(v, c.Equals) {
		return false
	}
	if len(c.AnyOf) > 0 {
		found := false
		s := renderScalar(v)
		for _, want := range c.AnyOf {
			if strings.EqualFold(s, want) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if c.Min != nil || c.Max != nil {
		n, ok := toFloat(v)
		if !ok {
			return false
		}
		if c.Min != nil && n < *c.Min {
			return false
		}
		if c.Max != nil && n > *c.Max {
			return false
		}
	}
	return true
}

// scalarEqual compares metadata and filter values loosely: numbers compare
// numerically, everything else compares as case-insensitive strings. Model
// output casing is not trusted.
func scalarEqual(a, b any) bool {
	if na, aok := toFloat(a); aok {
		if nb, bok := toFloat(b); bok {
			return na == nb
		}
	}
	return strings.EqualFold(renderScalar(a), renderScalar(b))
}

func renderScalar(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return n, err == nil
	default:
		return 0, false
	}
}
