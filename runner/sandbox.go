package runner

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/criyle/ts-judge/language"
	"github.com/dop251/goja"
	"github.com/dop251/goja/ast"
	"github.com/dop251/goja/parser"
)

// Function is a top-level function declared by a snippet
type Function struct {
	Name string
	// Helper is true when another top-level function references it
	Helper bool
}

// Module is a loaded snippet. A module lives for one run and is shared by
// all test cases of that run.
type Module interface {
	// Functions returns the declared functions in declaration order
	Functions() []Function
	// Call invokes the named function with positional arguments
	Call(ctx context.Context, name string, args []any) (any, error)
	// Output returns console output collected so far
	Output() string
}

// Loader evaluates script text once in a fresh isolated environment
type Loader interface {
	Load(ctx context.Context, script string, param language.ExecParam) (Module, error)
}

var _ Loader = GojaLoader{}

// GojaLoader loads snippets into a new goja runtime per call
type GojaLoader struct{}

type gojaModule struct {
	vm        *goja.Runtime
	param     language.ExecParam
	functions []Function
	callables map[string]goja.Callable
	console   *console
}

type declaration struct {
	name       string
	start, end int
}

// Load implements Loader
func (GojaLoader) Load(ctx context.Context, script string, param language.ExecParam) (Module, error) {
	prog, err := parser.ParseFile(nil, param.SourceFileName, script, 0)
	if err != nil {
		return nil, parseError(err)
	}
	decls := topLevelFunctions(prog, script)
	compiled, err := goja.Compile(param.SourceFileName, script+exportEpilogue(decls), false)
	if err != nil {
		return nil, parseError(err)
	}

	vm := goja.New()
	if param.MaxCallStackSize > 0 {
		vm.SetMaxCallStackSize(param.MaxCallStackSize)
	}
	m := &gojaModule{
		vm:        vm,
		param:     param,
		callables: make(map[string]goja.Callable),
		console:   newConsole(param.OutputLimit),
	}
	if err := m.console.register(vm); err != nil {
		return nil, err
	}

	var exports goja.Value
	w := &waiter{timeLimit: param.EvalTimeLimit}
	w.guard(ctx, m.interrupt, func() {
		exports, err = vm.RunProgram(compiled)
	})
	vm.ClearInterrupt()
	if err != nil {
		return nil, &EvaluationError{Message: errorMessage(err)}
	}

	obj, ok := exports.(*goja.Object)
	if !ok {
		return nil, &EvaluationError{Message: "failed to collect declared functions"}
	}
	for _, d := range decls {
		fn, ok := goja.AssertFunction(obj.Get(d.name))
		if !ok {
			continue
		}
		m.callables[d.name] = fn
		m.functions = append(m.functions, Function{
			Name:   d.name,
			Helper: referencedByOthers(d, decls, script),
		})
	}
	return m, nil
}

func (m *gojaModule) Functions() []Function {
	return m.functions
}

func (m *gojaModule) Output() string {
	return m.console.String()
}

func (m *gojaModule) interrupt(err error) {
	m.vm.Interrupt(err)
}

// Call implements Module
func (m *gojaModule) Call(ctx context.Context, name string, args []any) (result any, err error) {
	fn, ok := m.callables[name]
	if !ok {
		return nil, fmt.Errorf("function %q is not declared", name)
	}

	w := &waiter{timeLimit: m.param.TimeLimit}
	w.guard(ctx, m.interrupt, func() {
		// conversions may run user getters
		defer func() {
			if r := recover(); r != nil {
				result, err = nil, &InvocationError{Message: panicMessage(r)}
			}
		}()
		values := make([]goja.Value, len(args))
		for i, a := range args {
			values[i] = toValue(m.vm, a)
		}
		ret, callErr := fn(goja.Undefined(), values...)
		if callErr != nil {
			err = &InvocationError{Message: errorMessage(callErr)}
			return
		}
		if ret, err = settle(ret); err != nil {
			return
		}
		result = exportValue(ret)
	})
	m.vm.ClearInterrupt()
	return result, err
}

// settle unwraps a promise returned by an async function. Jobs are run when
// the outermost call returns so the promise is settled unless it waits for
// something that never happens.
func settle(v goja.Value) (goja.Value, error) {
	// promises report the "Object" class name
	obj, ok := v.(*goja.Object)
	if !ok {
		return v, nil
	}
	p, ok := obj.Export().(*goja.Promise)
	if !ok {
		return v, nil
	}
	switch p.State() {
	case goja.PromiseStateFulfilled:
		return p.Result(), nil
	case goja.PromiseStateRejected:
		return nil, &InvocationError{Message: valueMessage(p.Result())}
	default:
		return nil, &InvocationError{Message: "returned promise never settled"}
	}
}

func topLevelFunctions(prog *ast.Program, src string) []declaration {
	var decls []declaration
	seen := make(map[string]bool)
	add := func(name string, n ast.Node) {
		// transpiler helpers
		if strings.HasPrefix(name, "__") || seen[name] {
			return
		}
		seen[name] = true
		start, end := int(n.Idx0())-1, int(n.Idx1())-1
		start, end = max(start, 0), min(end, len(src))
		decls = append(decls, declaration{name: name, start: start, end: max(start, end)})
	}
	bindings := func(list []*ast.Binding) {
		for _, b := range list {
			id, ok := b.Target.(*ast.Identifier)
			if !ok || b.Initializer == nil {
				continue
			}
			switch b.Initializer.(type) {
			case *ast.FunctionLiteral, *ast.ArrowFunctionLiteral:
				add(id.Name.String(), b.Initializer)
			}
		}
	}

	for _, st := range prog.Body {
		switch s := st.(type) {
		case *ast.FunctionDeclaration:
			if s.Function != nil && s.Function.Name != nil {
				add(s.Function.Name.Name.String(), s)
			}
		case *ast.VariableStatement:
			bindings(s.List)
		case *ast.LexicalDeclaration:
			bindings(s.List)
		}
	}
	return decls
}

// exportEpilogue makes the completion value of the script an object holding
// the declared functions, lexical declarations included
func exportEpilogue(decls []declaration) string {
	var sb strings.Builder
	sb.WriteString("\n;({")
	for i, d := range decls {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%q: typeof %s === \"function\" ? %s : undefined", d.name, d.name, d.name)
	}
	sb.WriteString("});\n")
	return sb.String()
}

func referencedByOthers(d declaration, decls []declaration, src string) bool {
	for _, o := range decls {
		if o.name == d.name {
			continue
		}
		if containsWord(src[o.start:o.end], d.name) {
			return true
		}
	}
	return false
}

func containsWord(text, word string) bool {
	for i := 0; ; {
		j := strings.Index(text[i:], word)
		if j < 0 {
			return false
		}
		start, end := i+j, i+j+len(word)
		before := start == 0 || !isIdentPart(text[start-1])
		after := end == len(text) || !isIdentPart(text[end])
		if before && after {
			return true
		}
		i = start + 1
	}
}

func parseError(err error) *CompileError {
	var el parser.ErrorList
	if errors.As(err, &el) && len(el) > 0 {
		return &CompileError{
			Line:    el[0].Position.Line,
			Column:  el[0].Position.Column,
			Message: sanitizeDiagnostic(el[0].Message),
		}
	}
	var pe *parser.Error
	if errors.As(err, &pe) {
		return &CompileError{
			Line:    pe.Position.Line,
			Column:  pe.Position.Column,
			Message: sanitizeDiagnostic(pe.Message),
		}
	}
	return &CompileError{Message: sanitizeDiagnostic(err.Error())}
}

// errorMessage extracts the message of a value thrown by the script
func errorMessage(err error) (msg string) {
	defer func() {
		if recover() != nil {
			msg = err.Error()
		}
	}()

	var so *goja.StackOverflowError
	if errors.As(err, &so) {
		return "maximum call stack size exceeded"
	}
	var ex *goja.Exception
	if errors.As(err, &ex) {
		return valueMessage(ex.Value())
	}
	var ie *goja.InterruptedError
	if errors.As(err, &ie) {
		if e, ok := ie.Value().(error); ok {
			return e.Error()
		}
		return fmt.Sprint(ie.Value())
	}
	return err.Error()
}

// valueMessage returns the message of an Error object or the value as string
func valueMessage(v goja.Value) string {
	if v == nil || goja.IsUndefined(v) {
		return "undefined"
	}
	if obj, ok := v.(*goja.Object); ok && obj.ClassName() == "Error" {
		if m := obj.Get("message"); m != nil && !goja.IsUndefined(m) {
			return m.String()
		}
	}
	return v.String()
}

func panicMessage(r any) string {
	switch t := r.(type) {
	case *goja.Exception:
		return valueMessage(t.Value())
	case *goja.InterruptedError:
		return errorMessage(t)
	case error:
		return t.Error()
	}
	return fmt.Sprint(r)
}
