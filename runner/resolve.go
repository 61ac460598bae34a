package runner

import (
	"strings"
	"unicode"
)

// Hint carries problem metadata the resolver may use to pick the function
type Hint struct {
	// EntryPoint names the function under test explicitly
	EntryPoint string
	// ProblemID is the catalog id, e.g. two-sum
	ProblemID string
}

// Resolver selects the function under test among the declared functions
type Resolver interface {
	Resolve(functions []Function, hint Hint) (string, error)
}

var (
	_ Resolver = DefaultResolver{}
	_ Resolver = LastDeclared{}
	_ Resolver = Named("")
)

// DefaultResolver picks, in order: the explicit entry point, the function
// named after the problem id in camel case, the only non-helper function and
// finally the first declared function
type DefaultResolver struct{}

// Resolve implements Resolver
func (DefaultResolver) Resolve(functions []Function, hint Hint) (string, error) {
	if len(functions) == 0 {
		return "", ErrNoFunctionFound
	}
	if f, ok := find(functions, hint.EntryPoint); ok {
		return f.Name, nil
	}
	if f, ok := find(functions, CamelCase(hint.ProblemID)); ok {
		return f.Name, nil
	}
	var candidates []Function
	for _, f := range functions {
		if !f.Helper {
			candidates = append(candidates, f)
		}
	}
	if len(candidates) == 1 {
		return candidates[0].Name, nil
	}
	return functions[0].Name, nil
}

// LastDeclared honors an explicit entry point and otherwise picks the last
// declared function
type LastDeclared struct{}

// Resolve implements Resolver
func (LastDeclared) Resolve(functions []Function, hint Hint) (string, error) {
	if len(functions) == 0 {
		return "", ErrNoFunctionFound
	}
	if f, ok := find(functions, hint.EntryPoint); ok {
		return f.Name, nil
	}
	return functions[len(functions)-1].Name, nil
}

// Named always resolves to the given name, no fallback
type Named string

// Resolve implements Resolver
func (n Named) Resolve(functions []Function, _ Hint) (string, error) {
	if f, ok := find(functions, string(n)); ok {
		return f.Name, nil
	}
	return "", ErrNoFunctionFound
}

func find(functions []Function, name string) (Function, bool) {
	if name == "" {
		return Function{}, false
	}
	for _, f := range functions {
		if f.Name == name {
			return f, true
		}
	}
	return Function{}, false
}

// CamelCase converts a problem id like "two-sum" or "valid_parentheses" into
// the conventional function name "twoSum" / "validParentheses"
func CamelCase(id string) string {
	parts := strings.FieldsFunc(id, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	var sb strings.Builder
	for i, p := range parts {
		r := []rune(strings.ToLower(p))
		if i > 0 {
			r[0] = unicode.ToUpper(r[0])
		}
		sb.WriteString(string(r))
	}
	s := sb.String()
	if s != "" && unicode.IsDigit(rune(s[0])) {
		return ""
	}
	return s
}
