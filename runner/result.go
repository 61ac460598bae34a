package runner

import "github.com/criyle/ts-judge/types"

// aggregate combines ordered case results into the run result
func aggregate(results []types.TestCaseResult) *types.TestRunnerResult {
	if results == nil {
		results = []types.TestCaseResult{}
	}
	allPassed := len(results) > 0
	for _, r := range results {
		if !r.Passed {
			allPassed = false
			break
		}
	}
	return &types.TestRunnerResult{
		AllPassed: allPassed,
		Results:   results,
	}
}
