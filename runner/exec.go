package runner

import (
	"context"
	"time"

	"github.com/criyle/ts-judge/pkg/diff"
	"github.com/criyle/ts-judge/types"
)

// execCase invokes the function once and compares the return value with the
// expected output. Failures are recorded on the result only.
func execCase(ctx context.Context, m Module, name string, c types.TestCase) types.TestCaseResult {
	rt := types.TestCaseResult{
		Input:          c.Input,
		ExpectedOutput: c.ExpectedOutput,
	}

	start := time.Now()
	actual, err := m.Call(ctx, name, arguments(c.Input))
	rt.Time = time.Since(start)
	if err != nil {
		rt.Error = err.Error()
		return rt
	}
	rt.ActualOutput = actual
	rt.Passed = diff.Equal(c.ExpectedOutput, actual)
	return rt
}

// arguments spreads ordered sequences into positional arguments
func arguments(input any) []any {
	switch c := diff.Canonical(input).(type) {
	case []any:
		if in, ok := input.([]any); ok {
			return in
		}
		return c
	}
	return []any{input}
}
