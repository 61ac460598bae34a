package runner

import (
	"bytes"
	"math"
	"sort"
	"strconv"

	"github.com/criyle/ts-judge/pkg/diff"
	"github.com/dop251/goja"
)

const (
	maxExportDepth  = 64
	maxExportLength = 1 << 20
)

// toValue converts a test case value into a fresh script value so that
// snippets mutating their arguments never change the test case
func toValue(vm *goja.Runtime, x any) goja.Value {
	switch t := x.(type) {
	case nil:
		return goja.Null()
	case goja.Value:
		return t
	case string, bool:
		return vm.ToValue(t)
	case float64:
		if t == math.Trunc(t) && math.Abs(t) < 1<<53 && !(t == 0 && math.Signbit(t)) {
			return vm.ToValue(int64(t))
		}
		return vm.ToValue(t)
	case []any:
		items := make([]any, len(t))
		for i, e := range t {
			items[i] = toValue(vm, e)
		}
		return vm.NewArray(items...)
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		obj := vm.NewObject()
		for _, k := range keys {
			obj.Set(k, toValue(vm, t[k]))
		}
		return obj
	}

	switch c := diff.Canonical(x).(type) {
	case nil, string, bool, float64, []any, map[string]any:
		return toValue(vm, c)
	}
	return vm.ToValue(x)
}

// exportValue converts a script value into plain Go values: nil, bool,
// string, int64, float64, []any and map[string]any. Dates export as their
// ISO string, maps as a list of [key, value] entries and sets as a list.
func exportValue(v goja.Value) any {
	return export(v, make(map[*goja.Object]bool), 0)
}

func export(v goja.Value, seen map[*goja.Object]bool, depth int) any {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil
	}
	obj, ok := v.(*goja.Object)
	if !ok {
		return v.Export()
	}
	if depth > maxExportDepth || seen[obj] {
		return "[Circular]"
	}
	seen[obj] = true
	defer delete(seen, obj)

	switch obj.ClassName() {
	case "Array":
		n := obj.Get("length").ToInteger()
		if n > maxExportLength {
			return "[Array(" + strconv.FormatInt(n, 10) + ")]"
		}
		rt := make([]any, n)
		for i := range rt {
			rt[i] = export(obj.Get(strconv.Itoa(i)), seen, depth+1)
		}
		return rt
	case "Object":
		keys := obj.Keys()
		rt := make(map[string]any, len(keys))
		for _, k := range keys {
			rt[k] = export(obj.Get(k), seen, depth+1)
		}
		return rt
	case "Function":
		return "[Function]"
	case "Error":
		return obj.String()
	case "Date":
		// the JSON form, null for an invalid date
		if v, ok := invoke(obj, "toJSON"); ok {
			return export(v, seen, depth+1)
		}
	case "Map":
		return exportIterator(obj, "entries", seen, depth)
	case "Set":
		return exportIterator(obj, "values", seen, depth)
	}
	return obj.Export()
}

// exportIterator exports the values produced by an iterator method as a list,
// entries of a map become [key, value] pairs
func exportIterator(obj *goja.Object, method string, seen map[*goja.Object]bool, depth int) any {
	it, ok := invoke(obj, method)
	if !ok {
		return obj.Export()
	}
	itObj, ok := it.(*goja.Object)
	if !ok {
		return obj.Export()
	}
	rt := []any{}
	for len(rt) < maxExportLength {
		r, ok := invoke(itObj, "next")
		if !ok {
			break
		}
		step, ok := r.(*goja.Object)
		if !ok || step.Get("done").ToBoolean() {
			break
		}
		rt = append(rt, export(step.Get("value"), seen, depth+1))
	}
	return rt
}

func invoke(obj *goja.Object, method string) (goja.Value, bool) {
	fn, ok := goja.AssertFunction(obj.Get(method))
	if !ok {
		return nil, false
	}
	v, err := fn(obj)
	if err != nil {
		return nil, false
	}
	return v, true
}

type console struct {
	buf       bytes.Buffer
	limit     int
	truncated bool
}

func newConsole(limit int) *console {
	return &console{limit: limit}
}

func (c *console) register(vm *goja.Runtime) error {
	obj := vm.NewObject()
	for _, name := range []string{"log", "info", "warn", "error", "debug"} {
		if err := obj.Set(name, func(call goja.FunctionCall) goja.Value {
			c.write(call.Arguments)
			return goja.Undefined()
		}); err != nil {
			return err
		}
	}
	return vm.Set("console", obj)
}

func (c *console) write(args []goja.Value) {
	if c.truncated {
		return
	}
	var line bytes.Buffer
	for i, a := range args {
		if i > 0 {
			line.WriteByte(' ')
		}
		if _, ok := a.(*goja.Object); ok {
			line.WriteString(diff.Format(exportValue(a)))
		} else {
			line.WriteString(a.String())
		}
	}
	line.WriteByte('\n')
	if c.limit > 0 && c.buf.Len()+line.Len() > c.limit {
		c.buf.Write(line.Bytes()[:max(c.limit-c.buf.Len(), 0)])
		c.truncated = true
		return
	}
	c.buf.Write(line.Bytes())
}

func (c *console) String() string {
	return c.buf.String()
}
