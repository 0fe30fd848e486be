package engine

import (
	"testing"

	"salesops_backend/internal/automation/domain"
)

func TestEvaluateConditionsEmptyListPasses(t *testing.T) {
	if !EvaluateConditions(nil, map[string]any{"status": "booked"}) {
		t.Fatal("expected empty condition list to pass")
	}
	if !EvaluateConditions([]domain.Condition{}, nil) {
		t.Fatal("expected empty condition list to pass against nil payload")
	}
}

func TestEvaluateConditionsAllMustPass(t *testing.T) {
	payload := map[string]any{
		"status": "booked",
		"amount": 150.0,
	}
	conditions := []domain.Condition{
		{Field: "status", Operator: domain.OpEquals, Value: "booked"},
		{Field: "amount", Operator: domain.OpGt, Value: 100},
	}
	if !EvaluateConditions(conditions, payload) {
		t.Fatal("expected both conditions to pass")
	}

	conditions[1].Value = 200
	if EvaluateConditions(conditions, payload) {
		t.Fatal("expected failing second condition to fail the set")
	}
}

func TestEqualsOperator(t *testing.T) {
	payload := map[string]any{
		"status": "booked",
		"count":  float64(3),
		"nested": map[string]any{"city": "Austin"},
		"gone":   nil,
	}

	cases := []struct {
		name string
		cond domain.Condition
		want bool
	}{
		{"string match", domain.Condition{Field: "status", Operator: domain.OpEquals, Value: "booked"}, true},
		{"string mismatch", domain.Condition{Field: "status", Operator: domain.OpEquals, Value: "done"}, false},
		{"int vs json float", domain.Condition{Field: "count", Operator: domain.OpEquals, Value: 3}, true},
		{"numeric string does not equal number", domain.Condition{Field: "count", Operator: domain.OpEquals, Value: "3"}, false},
		{"nested path", domain.Condition{Field: "nested.city", Operator: domain.OpEquals, Value: "Austin"}, true},
		{"absent field never equals", domain.Condition{Field: "missing", Operator: domain.OpEquals, Value: "x"}, false},
		{"absent field does not equal nil", domain.Condition{Field: "missing", Operator: domain.OpEquals, Value: nil}, false},
		{"present nil equals nil", domain.Condition{Field: "gone", Operator: domain.OpEquals, Value: nil}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := EvaluateConditions([]domain.Condition{tc.cond}, payload)
			if got != tc.want {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestNotEqualsOperator(t *testing.T) {
	payload := map[string]any{"status": "booked"}

	cases := []struct {
		name string
		cond domain.Condition
		want bool
	}{
		{"different value", domain.Condition{Field: "status", Operator: domain.OpNotEquals, Value: "done"}, true},
		{"same value", domain.Condition{Field: "status", Operator: domain.OpNotEquals, Value: "booked"}, false},
		{"absent field differs from concrete", domain.Condition{Field: "missing", Operator: domain.OpNotEquals, Value: "x"}, true},
		{"absent field matches nil expectation", domain.Condition{Field: "missing", Operator: domain.OpNotEquals, Value: nil}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := EvaluateConditions([]domain.Condition{tc.cond}, payload)
			if got != tc.want {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestContainsOperator(t *testing.T) {
	payload := map[string]any{
		"notes": "prefers afternoon slots",
		"count": float64(12),
	}

	cases := []struct {
		name string
		cond domain.Condition
		want bool
	}{
		{"substring present", domain.Condition{Field: "notes", Operator: domain.OpContains, Value: "afternoon"}, true},
		{"substring absent", domain.Condition{Field: "notes", Operator: domain.OpContains, Value: "morning"}, false},
		{"non-string field", domain.Condition{Field: "count", Operator: domain.OpContains, Value: "1"}, false},
		{"missing field", domain.Condition{Field: "missing", Operator: domain.OpContains, Value: "x"}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := EvaluateConditions([]domain.Condition{tc.cond}, payload)
			if got != tc.want {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestNumericComparisonOperators(t *testing.T) {
	payload := map[string]any{
		"amount":   float64(150),
		"asString": "42",
		"label":    "abc",
	}

	cases := []struct {
		name string
		cond domain.Condition
		want bool
	}{
		{"gt true", domain.Condition{Field: "amount", Operator: domain.OpGt, Value: 100}, true},
		{"gt false", domain.Condition{Field: "amount", Operator: domain.OpGt, Value: 150}, false},
		{"lt true", domain.Condition{Field: "amount", Operator: domain.OpLt, Value: 200}, true},
		{"lt false", domain.Condition{Field: "amount", Operator: domain.OpLt, Value: 150}, false},
		{"numeric string coerces", domain.Condition{Field: "asString", Operator: domain.OpGt, Value: 40}, true},
		{"string condition value coerces", domain.Condition{Field: "amount", Operator: domain.OpGt, Value: "100"}, true},
		{"non-numeric field fails", domain.Condition{Field: "label", Operator: domain.OpGt, Value: 1}, false},
		{"non-numeric condition fails", domain.Condition{Field: "amount", Operator: domain.OpLt, Value: "soon"}, false},
		{"missing field fails", domain.Condition{Field: "missing", Operator: domain.OpGt, Value: 1}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := EvaluateConditions([]domain.Condition{tc.cond}, payload)
			if got != tc.want {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestInOperator(t *testing.T) {
	payload := map[string]any{
		"status": "no_show",
		"count":  float64(2),
	}

	cases := []struct {
		name string
		cond domain.Condition
		want bool
	}{
		{"member", domain.Condition{Field: "status", Operator: domain.OpIn, Value: []any{"no_show", "cancelled"}}, true},
		{"not member", domain.Condition{Field: "status", Operator: domain.OpIn, Value: []any{"booked", "done"}}, false},
		{"numeric member across types", domain.Condition{Field: "count", Operator: domain.OpIn, Value: []any{1, 2, 3}}, true},
		{"typed string slice", domain.Condition{Field: "status", Operator: domain.OpIn, Value: []string{"no_show"}}, true},
		{"non-sequence value", domain.Condition{Field: "status", Operator: domain.OpIn, Value: "no_show"}, false},
		{"missing field", domain.Condition{Field: "missing", Operator: domain.OpIn, Value: []any{"x"}}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := EvaluateConditions([]domain.Condition{tc.cond}, payload)
			if got != tc.want {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestUnknownOperatorFails(t *testing.T) {
	cond := domain.Condition{Field: "status", Operator: "matches", Value: "booked"}
	if EvaluateConditions([]domain.Condition{cond}, map[string]any{"status": "booked"}) {
		t.Fatal("expected unknown operator to fail the condition")
	}
}
