package types

import "time"

// TestCaseResult contains result for single case
type TestCaseResult struct {
	Passed         bool `json:"passed"`
	Input          any  `json:"input"`
	ExpectedOutput any  `json:"expectedOutput"`
	// ActualOutput is nil when the invocation failed
	ActualOutput any    `json:"actualOutput"`
	Error        string `json:"error,omitempty"`

	// detail stats
	Time time.Duration `json:"time"`
}

// TestRunnerResult contains final result of a single run
type TestRunnerResult struct {
	AllPassed bool             `json:"allPassed"`
	Results   []TestCaseResult `json:"results"`
	// Error is set when the run failed before any test case was executed
	Error string `json:"error,omitempty"`
}

// ErrorResult creates the result of a run that failed before any case ran
func ErrorResult(msg string) *TestRunnerResult {
	return &TestRunnerResult{
		AllPassed: false,
		Results:   []TestCaseResult{},
		Error:     msg,
	}
}
