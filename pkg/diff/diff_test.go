package diff

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
)

func TestCompareEqual(t *testing.T) {
	tests := []struct {
		name     string
		expected any
		actual   any
	}{
		{"int vs float", 5, 5.0},
		{"uint64 vs int64", uint64(3), int64(3)},
		{"json number", json.Number("1.5"), 1.5},
		{"nan", math.NaN(), math.NaN()},
		{"negative zero", 0.0, math.Copysign(0, -1)},
		{"string", "abc", "abc"},
		{"null", nil, nil},
		{"array", []any{1, 2, 3}, []any{1.0, 2.0, 3.0}},
		{"typed slice", []int{1, 2}, []any{int64(1), int64(2)}},
		{"key order", map[string]any{"a": 1, "b": 2}, map[string]any{"b": 2.0, "a": 1.0}},
		{"nested", []any{map[string]any{"x": []any{true}}}, []any{map[string]any{"x": []any{true}}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := Compare(tc.expected, tc.actual); err != nil {
				t.Fatalf("expected equal, got %v", err)
			}
		})
	}
}

func TestCompareDifferent(t *testing.T) {
	tests := []struct {
		name     string
		expected any
		actual   any
		msg      string
	}{
		{"shorter", []any{1, 2, 3}, []any{1, 2}, "expected length 3, actual length 2"},
		{"longer", []any{1, 2, 3}, []any{1, 2, 3, 4}, "expected length 3, actual length 4"},
		{"element", []any{1, 2, 3}, []any{1, 5, 3}, "at [1]"},
		{"missing key", map[string]any{"a": 1}, map[string]any{"b": 1}, `missing key "a"`},
		{"extra key", map[string]any{"a": 1}, map[string]any{"a": 1, "b": 2}, `unexpected key "b"`},
		{"type", "1", 1, "root"},
		{"nan vs number", math.NaN(), 1, "expected: NaN"},
		{"null vs zero", nil, 0, "expected: null"},
		{"nested path", map[string]any{"a": []any{map[string]any{"b": 1}}}, map[string]any{"a": []any{map[string]any{"b": 2}}}, "at a[0].b"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := Compare(tc.expected, tc.actual)
			if err == nil {
				t.Fatal("expected difference")
			}
			if !strings.Contains(err.Error(), tc.msg) {
				t.Fatalf("error %q does not contain %q", err.Error(), tc.msg)
			}
		})
	}
}

func TestFormat(t *testing.T) {
	got := Format(map[string]any{"b": []any{1, "x", nil}, "a": math.Inf(-1)})
	const want = `{"a":-Infinity,"b":[1,"x",null]}`
	if got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
	if s := FormatNumber(0.5); s != "0.5" {
		t.Fatalf("expected 0.5, got %s", s)
	}
}
