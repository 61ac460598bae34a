package language

import "time"

// Language defines the way to run snippets of a dialect
type Language interface {
	Get(string) (ExecParam, bool) // Get execparam for specific language
}

// Dialect names the source syntax accepted by the transpiler
type Dialect string

// Supported dialects
const (
	DialectTypeScript Dialect = "ts"
	DialectJavaScript Dialect = "js"
)

// ExecParam defines specs to transpile / run snippet
type ExecParam struct {
	Dialect        Dialect
	SourceFileName string
	// Target is the ECMAScript version the transpiled code is lowered to
	Target string

	// limits
	TimeLimit        time.Duration // per test case invocation
	EvalTimeLimit    time.Duration // top-level evaluation
	MaxCallStackSize int
	OutputLimit      int // console output bytes kept
}
