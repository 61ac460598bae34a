// Package model defines the JSON shapes of the HTTP and WebSocket API
package model

import (
	"math"
	"time"

	"github.com/criyle/ts-judge/pkg/diff"
	"github.com/criyle/ts-judge/runner"
	"github.com/criyle/ts-judge/types"
)

// RunRequest runs a snippet against ad-hoc test cases
type RunRequest struct {
	RequestID  string           `json:"requestId"`
	Code       string           `json:"code"`
	TestCases  []types.TestCase `json:"testCases"`
	EntryPoint string           `json:"entryPoint,omitempty"`
	Language   string           `json:"language,omitempty"`
}

// ProblemRunRequest runs a snippet against the test cases of a problem
type ProblemRunRequest struct {
	Code        string `json:"code"`
	UseSolution bool   `json:"useSolution,omitempty"`
}

// TestCaseResult is the JSON form of types.TestCaseResult
type TestCaseResult struct {
	Passed         bool   `json:"passed"`
	Input          any    `json:"input"`
	ExpectedOutput any    `json:"expectedOutput"`
	ActualOutput   any    `json:"actualOutput"`
	Error          string `json:"error,omitempty"`
	// Time in milliseconds
	Time float64 `json:"time"`
}

// Result is the JSON form of types.TestRunnerResult
type Result struct {
	RequestID string           `json:"requestId,omitempty"`
	AllPassed bool             `json:"allPassed"`
	Results   []TestCaseResult `json:"results"`
	Error     string           `json:"error,omitempty"`
}

// JudgeResult is the result of a problem run
type JudgeResult struct {
	ProblemID string `json:"problemId"`
	Result
	Solved bool `json:"solved"`
}

// Progress is a message streamed over WebSocket
type Progress struct {
	Type           types.ProgressType   `json:"type"`
	Status         types.ProgressStatus `json:"status,omitempty"`
	Message        string               `json:"message,omitempty"`
	TestCaseIndex  int                  `json:"testCaseIndex"`
	TestCaseResult *TestCaseResult      `json:"testCaseResult,omitempty"`
	Result         *JudgeResult         `json:"result,omitempty"`
}

// ProblemSummary is a problem in the list
type ProblemSummary struct {
	ID         string           `json:"id"`
	Title      string           `json:"title"`
	Difficulty types.Difficulty `json:"difficulty"`
	Category   string           `json:"category"`
	Solved     bool             `json:"solved"`
}

// ProblemDetail is a single problem with navigation
type ProblemDetail struct {
	types.Problem
	Prev   string `json:"prev,omitempty"`
	Next   string `json:"next,omitempty"`
	Solved bool   `json:"solved"`
}

// ConvertRunRequest converts a run request to runner request
func ConvertRunRequest(r *RunRequest) runner.Request {
	return runner.Request{
		Source:     r.Code,
		TestCases:  r.TestCases,
		Language:   r.Language,
		EntryPoint: r.EntryPoint,
	}
}

// ConvertResult converts the runner result into its JSON form
func ConvertResult(r *types.TestRunnerResult) Result {
	if r == nil {
		return Result{Results: []TestCaseResult{}}
	}
	ret := Result{
		AllPassed: r.AllPassed,
		Results:   make([]TestCaseResult, 0, len(r.Results)),
		Error:     r.Error,
	}
	for _, c := range r.Results {
		ret.Results = append(ret.Results, ConvertTestCaseResult(c))
	}
	return ret
}

// ConvertTestCaseResult converts a single case result into its JSON form
func ConvertTestCaseResult(c types.TestCaseResult) TestCaseResult {
	return TestCaseResult{
		Passed:         c.Passed,
		Input:          Value(c.Input),
		ExpectedOutput: Value(c.ExpectedOutput),
		ActualOutput:   Value(c.ActualOutput),
		Error:          c.Error,
		Time:           float64(c.Time) / float64(time.Millisecond),
	}
}

// ConvertJudgeResult converts the judger result into its JSON form
func ConvertJudgeResult(r *types.JudgeResult) *JudgeResult {
	if r == nil {
		return nil
	}
	return &JudgeResult{
		ProblemID: r.ProblemID,
		Result:    ConvertResult(r.TestRunnerResult),
		Solved:    r.Solved,
	}
}

// ConvertProgress converts the judger progress into its JSON form
func ConvertProgress(p types.JudgeProgress) Progress {
	ret := Progress{
		Type:          p.Type,
		Status:        p.Status,
		Message:       p.Message,
		TestCaseIndex: p.TestCaseIndex,
		Result:        ConvertJudgeResult(p.Result),
	}
	if p.TestCaseResult != nil {
		c := ConvertTestCaseResult(*p.TestCaseResult)
		ret.TestCaseResult = &c
	}
	return ret
}

// ConvertProblemSummary converts a problem into a list entry
func ConvertProblemSummary(p types.Problem, solved bool) ProblemSummary {
	return ProblemSummary{
		ID:         p.ID,
		Title:      p.Title,
		Difficulty: p.Difficulty,
		Category:   p.Category,
		Solved:     solved,
	}
}

// Value converts a test value to a JSON encodable value. Numbers that JSON
// cannot represent are written as strings: "NaN", "Infinity" and "-Infinity".
func Value(v any) any {
	switch t := diff.Canonical(v).(type) {
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return diff.FormatNumber(t)
		}
		return t
	case []any:
		for i, e := range t {
			t[i] = Value(e)
		}
		return t
	case map[string]any:
		for k, e := range t {
			t[k] = Value(e)
		}
		return t
	default:
		return t
	}
}

// ConvertProblemDetail converts a problem into its detail view, the canonical
// solution is only kept when withSolution is set
func ConvertProblemDetail(p types.Problem, prev, next string, solved, withSolution bool) ProblemDetail {
	if !withSolution {
		p.Solution = ""
	}
	cases := make([]types.TestCase, 0, len(p.TestCases))
	for _, c := range p.TestCases {
		cases = append(cases, types.TestCase{
			Input:          Value(c.Input),
			ExpectedOutput: Value(c.ExpectedOutput),
			Description:    c.Description,
		})
	}
	p.TestCases = cases
	return ProblemDetail{
		Problem: p,
		Prev:    prev,
		Next:    next,
		Solved:  solved,
	}
}
