package runner

import (
	"errors"
	"fmt"
	"regexp"
)

// ErrEmptyInput is returned when no source code is supplied
var ErrEmptyInput = errors.New("No code to test. Please write a solution first.")

// ErrNoFunctionFound is returned when the snippet declares no callable function
var ErrNoFunctionFound = errors.New("no function found: declare the function to test at top level")

// ErrTimeLimitExceeded interrupts evaluation / invocation running over its budget
var ErrTimeLimitExceeded = errors.New("time limit exceeded")

// CompileError is returned when the snippet cannot be transpiled or parsed
type CompileError struct {
	Line    int // 1-based, 0 if unknown
	Column  int // 1-based, 0 if unknown
	Message string
}

func (e *CompileError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("compile error: line %d:%d: %s", e.Line, e.Column, e.Message)
	}
	return "compile error: " + e.Message
}

// EvaluationError is returned when the snippet throws while it is loaded
type EvaluationError struct {
	Message string
}

func (e *EvaluationError) Error() string {
	return "evaluation error: " + e.Message
}

// InvocationError is returned when the function under test throws for a test case
type InvocationError struct {
	Message string
}

func (e *InvocationError) Error() string {
	return e.Message
}

// the type checker diagnostic for enums in script files must never be
// reported: enum declarations are valid in the accepted dialect
var enumDiagnostic = regexp.MustCompile(`(?i)enum declarations can only be used in typescript files|\bTS8006\b`)

func sanitizeDiagnostic(msg string) string {
	if enumDiagnostic.MatchString(msg) {
		return "unsupported enum declaration"
	}
	return msg
}
