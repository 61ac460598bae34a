// Package diff provides function to compare a value produced by a snippet
// with the expected value and returns error information if they are different.
//
// Values are compared the way a script author expects: every numeric kind is
// a float64, NaN equals NaN, -0 equals +0, lists compare element-wise and
// maps compare key-wise regardless of key order.
package diff

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"sort"
	"strings"
)

// Compare compares actual with expected.
// if they are deeply equal, no error is returned
// otherwise the error describes the first difference
func Compare(expected, actual any) error {
	return compare("", Canonical(expected), Canonical(actual))
}

// Equal reports whether expected and actual are deeply equal
func Equal(expected, actual any) bool {
	return Compare(expected, actual) == nil
}

func compare(path string, exp, act any) error {
	switch e := exp.(type) {
	case nil:
		if act != nil {
			return newErr(path, exp, act)
		}
		return nil

	case float64:
		a, ok := act.(float64)
		if !ok {
			return newErr(path, exp, act)
		}
		if math.IsNaN(e) && math.IsNaN(a) {
			return nil
		}
		// -0 == +0 holds for float comparison
		if e != a {
			return newErr(path, exp, act)
		}
		return nil

	case []any:
		a, ok := act.([]any)
		if !ok {
			return newErr(path, exp, act)
		}
		if len(e) != len(a) {
			return fmt.Errorf("at %s, expected length %d, actual length %d", where(path), len(e), len(a))
		}
		for i := range e {
			if err := compare(fmt.Sprintf("%s[%d]", path, i), e[i], a[i]); err != nil {
				return err
			}
		}
		return nil

	case map[string]any:
		a, ok := act.(map[string]any)
		if !ok {
			return newErr(path, exp, act)
		}
		keys := sortedKeys(e)
		for _, k := range keys {
			av, ok := a[k]
			if !ok {
				return fmt.Errorf("at %s, missing key %q", where(path), k)
			}
			if err := compare(path+"."+k, e[k], av); err != nil {
				return err
			}
		}
		if len(a) != len(e) {
			for _, k := range sortedKeys(a) {
				if _, ok := e[k]; !ok {
					return fmt.Errorf("at %s, unexpected key %q", where(path), k)
				}
			}
		}
		return nil

	default:
		if !reflect.DeepEqual(exp, act) {
			return newErr(path, exp, act)
		}
		return nil
	}
}

func newErr(path string, exp, act any) error {
	return fmt.Errorf("at %s,\nexpected: %s\nactual: %s", where(path), Format(exp), Format(act))
}

func where(path string) string {
	if path == "" {
		return "root"
	}
	return strings.TrimPrefix(path, ".")
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Canonical converts v to the comparable form: nil, bool, string,
// float64, []any or map[string]any
func Canonical(v any) any {
	switch t := v.(type) {
	case nil, bool, string, float64:
		return t
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case uint64:
		return float64(t)
	case float32:
		return float64(t)
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return t.String()
		}
		return f
	case *big.Int:
		f, _ := new(big.Float).SetInt(t).Float64()
		return f
	case []any:
		rt := make([]any, len(t))
		for i, e := range t {
			rt[i] = Canonical(e)
		}
		return rt
	case map[string]any:
		rt := make(map[string]any, len(t))
		for k, e := range t {
			rt[k] = Canonical(e)
		}
		return rt
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return rv.Bool()
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return []any{}
		}
		rt := make([]any, rv.Len())
		for i := range rt {
			rt[i] = Canonical(rv.Index(i).Interface())
		}
		return rt
	case reflect.Map:
		rt := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			rt[fmt.Sprint(iter.Key().Interface())] = Canonical(iter.Value().Interface())
		}
		return rt
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil
		}
		return Canonical(rv.Elem().Interface())
	}
	return v
}

// Format prints v in a script-like notation
func Format(v any) string {
	var sb strings.Builder
	format(&sb, Canonical(v))
	return sb.String()
}

func format(sb *strings.Builder, v any) {
	switch t := v.(type) {
	case nil:
		sb.WriteString("null")
	case string:
		b, _ := json.Marshal(t)
		sb.Write(b)
	case float64:
		sb.WriteString(FormatNumber(t))
	case []any:
		sb.WriteByte('[')
		for i, e := range t {
			if i > 0 {
				sb.WriteByte(',')
			}
			format(sb, e)
		}
		sb.WriteByte(']')
	case map[string]any:
		sb.WriteByte('{')
		for i, k := range sortedKeys(t) {
			if i > 0 {
				sb.WriteByte(',')
			}
			b, _ := json.Marshal(k)
			sb.Write(b)
			sb.WriteByte(':')
			format(sb, t[k])
		}
		sb.WriteByte('}')
	default:
		fmt.Fprint(sb, t)
	}
}

// FormatNumber prints f the way a script engine converts numbers to strings
func FormatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	case f == math.Trunc(f) && math.Abs(f) < 1e21:
		return fmt.Sprintf("%.0f", f)
	}
	return fmt.Sprint(f)
}
