package engine

import (
	"encoding/json"
	"math"
	"reflect"
	"strconv"
	"strings"

	"salesops_backend/internal/automation/domain"
	"salesops_backend/platform/fieldpath"
)

// EvaluateConditions returns the logical AND across all conditions against
// the event payload. An empty list always passes. Evaluation short-circuits
// on the first failing condition.
func EvaluateConditions(conditions []domain.Condition, payload map[string]any) bool {
	for _, cond := range conditions {
		if !evaluateCondition(cond, payload) {
			return false
		}
	}
	return true
}

// evaluateCondition fails closed: any panic inside operator logic (malformed
// config, unexpected value shapes) counts as a failed condition.
func evaluateCondition(cond domain.Condition, payload map[string]any) (result bool) {
	defer func() {
		if recover() != nil {
			result = false
		}
	}()

	value, present := fieldpath.Path(cond.Field).Resolve(payload)

	switch cond.Operator {
	case domain.OpEquals:
		return present && looseEqual(value, cond.Value)
	case domain.OpNotEquals:
		// An absent field differs from any concrete value, but not from
		// an absent (nil) expectation.
		if !present {
			return cond.Value != nil
		}
		return !looseEqual(value, cond.Value)
	case domain.OpContains:
		if !present {
			return false
		}
		str, ok := value.(string)
		if !ok {
			return false
		}
		return strings.Contains(str, toString(cond.Value))
	case domain.OpGt:
		left, leftOK := toFloat(value)
		right, rightOK := toFloat(cond.Value)
		return present && leftOK && rightOK && left > right
	case domain.OpLt:
		left, leftOK := toFloat(value)
		right, rightOK := toFloat(cond.Value)
		return present && leftOK && rightOK && left < right
	case domain.OpIn:
		if !present {
			return false
		}
		return sequenceContains(cond.Value, value)
	default:
		return false
	}
}

// looseEqual compares payload values against condition values with numeric
// coercion, so 42 (int), 42.0 (float64 from JSON), and "42" never compare
// equal by accident of decode shape.
func looseEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	if af, aOK := numericValue(a); aOK {
		if bf, bOK := numericValue(b); bOK {
			return af == bf
		}
	}

	return reflect.DeepEqual(a, b)
}

// numericValue is like toFloat but does not coerce strings, so "1" stays
// distinct from 1 under equality while remaining comparable under gt/lt.
func numericValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// toFloat performs the numeric coercion used by gt/lt: numbers and numeric
// strings convert, everything else (including NaN) fails the comparison.
func toFloat(v any) (float64, bool) {
	if f, ok := numericValue(v); ok {
		return f, !math.IsNaN(f)
	}

	if s, ok := v.(string); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil || math.IsNaN(f) {
			return 0, false
		}
		return f, true
	}

	return 0, false
}

func toString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(data)
	}
}

// sequenceContains tests membership of needle in haystack, which must be a
// sequence ([]any or a typed slice). A non-sequence haystack never matches.
func sequenceContains(haystack any, needle any) bool {
	rv := reflect.ValueOf(haystack)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return false
	}

	for i := 0; i < rv.Len(); i++ {
		if looseEqual(rv.Index(i).Interface(), needle) {
			return true
		}
	}
	return false
}
