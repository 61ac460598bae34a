package language

import (
	"strings"
	"time"
)

// Default limits
const (
	DefaultTimeLimit        = 2 * time.Second
	DefaultEvalTimeLimit    = 5 * time.Second
	DefaultMaxCallStackSize = 10000
	DefaultOutputLimit      = 64 << 10
	DefaultTarget           = "es2017"
)

// Typescript is the default language name
const Typescript = "typescript"

var _ Language = &Static{}

// Static is a fixed language table sharing a set of limits
type Static struct {
	Target           string
	TimeLimit        time.Duration
	EvalTimeLimit    time.Duration
	MaxCallStackSize int
	OutputLimit      int
}

// NewStatic creates language table with default limits
func NewStatic() *Static {
	return &Static{
		Target:           DefaultTarget,
		TimeLimit:        DefaultTimeLimit,
		EvalTimeLimit:    DefaultEvalTimeLimit,
		MaxCallStackSize: DefaultMaxCallStackSize,
		OutputLimit:      DefaultOutputLimit,
	}
}

// Get returns exec param for typescript / javascript, empty name means typescript
func (s *Static) Get(name string) (ExecParam, bool) {
	var p ExecParam
	switch strings.ToLower(name) {
	case "", Typescript, "ts":
		p.Dialect = DialectTypeScript
		p.SourceFileName = "solution.ts"
	case "javascript", "js":
		p.Dialect = DialectJavaScript
		p.SourceFileName = "solution.js"
	default:
		return p, false
	}
	p.Target = orDefault(s.Target, DefaultTarget)
	p.TimeLimit = orDefault(s.TimeLimit, DefaultTimeLimit)
	p.EvalTimeLimit = orDefault(s.EvalTimeLimit, DefaultEvalTimeLimit)
	p.MaxCallStackSize = orDefault(s.MaxCallStackSize, DefaultMaxCallStackSize)
	p.OutputLimit = orDefault(s.OutputLimit, DefaultOutputLimit)
	return p, true
}

func orDefault[T comparable](v, d T) T {
	var zero T
	if v == zero {
		return d
	}
	return v
}
