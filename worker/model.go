package worker

import (
	"fmt"
	"time"

	"github.com/criyle/ts-judge/runner"
	"github.com/criyle/ts-judge/types"
)

// Request defines single worker request
type Request struct {
	RequestID string
	runner.Request
}

// Response defines worker response for single request
type Response struct {
	RequestID string
	Result    *types.TestRunnerResult
	// Time is the wall time of the run, waiting time excluded
	Time time.Duration
}

func (r Response) String() string {
	if r.Result == nil {
		return fmt.Sprintf("Response[%s]{no result}", r.RequestID)
	}
	passed := 0
	for _, c := range r.Result.Results {
		if c.Passed {
			passed++
		}
	}
	if r.Result.Error != "" {
		return fmt.Sprintf("Response[%s]{error=%q, time=%v}", r.RequestID, r.Result.Error, r.Time)
	}
	return fmt.Sprintf("Response[%s]{passed=%d/%d, time=%v}", r.RequestID, passed, len(r.Result.Results), r.Time)
}
