// Package judger judges snippets against problems of the catalog and records
// solved problems in the progress store
package judger

import (
	"context"
	"errors"
	"fmt"

	"github.com/criyle/ts-judge/problem"
	"github.com/criyle/ts-judge/progress"
	"github.com/criyle/ts-judge/runner"
	"github.com/criyle/ts-judge/types"
	"github.com/criyle/ts-judge/worker"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrProblemNotFound is returned when the task names an unknown problem
var ErrProblemNotFound = errors.New("problem not found")

// Reporter receives progress messages of a task. Report may be called from
// another goroutine but never concurrently for one task.
type Reporter interface {
	Report(types.JudgeProgress)
}

// ReporterFunc adapts a function to Reporter
type ReporterFunc func(types.JudgeProgress)

// Report implements Reporter
func (f ReporterFunc) Report(p types.JudgeProgress) {
	f(p)
}

// Task defines a judge task
type Task struct {
	ProblemID string
	Code      string
	// UseSolution runs the canonical solution of the problem instead of Code,
	// the problem is not marked solved
	UseSolution bool
	Reporter    Reporter
}

// Judger receives task from client and translate to task for runner
type Judger struct {
	Catalog  problem.Catalog
	Worker   worker.Worker
	Progress progress.Store
	Logger   *zap.Logger
}

// Judge runs the task and reports progress until the finished message
func (j *Judger) Judge(ctx context.Context, t Task) (*types.JudgeResult, error) {
	p, ok := j.Catalog.Get(t.ProblemID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProblemNotFound, t.ProblemID)
	}
	code := t.Code
	if t.UseSolution {
		code = p.Solution
	}

	req := &worker.Request{
		RequestID: uuid.NewString(),
		Request: runner.Request{
			Source:     code,
			TestCases:  p.TestCases,
			Language:   p.Language,
			EntryPoint: p.EntryPoint,
			ProblemID:  p.ID,
		},
	}
	if t.Reporter != nil {
		req.Observer = &observer{reporter: t.Reporter}
	}
	rt := <-j.Worker.Submit(ctx, req)

	result := &types.JudgeResult{
		ProblemID:        p.ID,
		TestRunnerResult: rt.Result,
	}
	if rt.Result.AllPassed && !t.UseSolution && j.Progress != nil {
		if err := j.Progress.MarkSolved(ctx, p.ID); err != nil {
			j.logger().Warn("failed to mark solved", zap.String("problemId", p.ID), zap.Error(err))
		} else {
			result.Solved = true
		}
	}
	j.logger().Debug("judged",
		zap.String("requestId", req.RequestID),
		zap.String("problemId", p.ID),
		zap.Bool("allPassed", rt.Result.AllPassed),
		zap.Duration("time", rt.Time),
	)

	if t.Reporter != nil {
		t.Reporter.Report(types.JudgeProgress{
			Type:   types.ProgressFinished,
			Result: result,
		})
	}
	return result, nil
}

// Verify runs the canonical solution of every problem and returns the
// results in catalog order
func (j *Judger) Verify(ctx context.Context) ([]*types.JudgeResult, error) {
	problems := j.Catalog.All()
	results := make([]*types.JudgeResult, len(problems))
	g, ctx := errgroup.WithContext(ctx)
	for i, p := range problems {
		g.Go(func() error {
			rt, err := j.Judge(ctx, Task{ProblemID: p.ID, UseSolution: true})
			if err != nil {
				return err
			}
			results[i] = rt
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (j *Judger) logger() *zap.Logger {
	if j.Logger == nil {
		return zap.NewNop()
	}
	return j.Logger
}

// observer converts runner callbacks to progress messages
type observer struct {
	reporter Reporter
}

func (o *observer) Compiled(err error) {
	p := types.JudgeProgress{
		Type:   types.ProgressCompiled,
		Status: types.ProgressSucceeded,
	}
	if err != nil {
		p.Status = types.ProgressFailed
		p.Message = err.Error()
	}
	o.reporter.Report(p)
}

func (o *observer) Progressed(index int, result types.TestCaseResult) {
	o.reporter.Report(types.JudgeProgress{
		Type:           types.ProgressProgress,
		TestCaseIndex:  index,
		TestCaseResult: &result,
	})
}
