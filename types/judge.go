package types

// ProgressType defines type of progress message
type ProgressType string

// ProgressType defines type of progress messages
const (
	ProgressCompiled ProgressType = "compiled"
	ProgressProgress ProgressType = "progress"
	ProgressFinished ProgressType = "finished"
)

// ProgressStatus defines progress status
type ProgressStatus string

// Whether progress success / fail
const (
	ProgressSucceeded ProgressStatus = "succeeded"
	ProgressFailed    ProgressStatus = "failed"
)

// JudgeProgress is a progress message streamed while a problem is judged
type JudgeProgress struct {
	Type ProgressType `json:"type"`

	// compiled
	Status  ProgressStatus `json:"status,omitempty"`
	Message string         `json:"message,omitempty"`

	// progress: defines which test case finished
	TestCaseIndex  int             `json:"testCaseIndex,omitempty"`
	TestCaseResult *TestCaseResult `json:"testCaseResult,omitempty"`

	// finished
	Result *JudgeResult `json:"result,omitempty"`
}

// JudgeResult is the result of judging a snippet against a catalog problem
type JudgeResult struct {
	ProblemID string `json:"problemId"`
	*TestRunnerResult
	// Solved is true when this run marked the problem solved
	Solved bool `json:"solved"`
}
