package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/criyle/ts-judge/judger"
	"github.com/criyle/ts-judge/pkg/diff"
	"github.com/criyle/ts-judge/types"
)

const (
	colorRed    = "\x1b[31m"
	colorGreen  = "\x1b[32m"
	colorYellow = "\x1b[33m"
	colorReset  = "\x1b[0m"
)

type printer struct {
	w     io.Writer
	color bool
}

func (p *printer) paint(color, s string) string {
	if !p.color {
		return s
	}
	return color + s + colorReset
}

func (p *printer) mark(passed bool) string {
	if passed {
		return p.paint(colorGreen, "PASS")
	}
	return p.paint(colorRed, "FAIL")
}

func (p *printer) list(ctx context.Context, j *judger.Judger) error {
	for _, pr := range j.Catalog.All() {
		solved, err := j.Progress.IsSolved(ctx, pr.ID)
		if err != nil {
			return err
		}
		s := " "
		if solved {
			s = p.paint(colorGreen, "*")
		}
		fmt.Fprintf(p.w, "%s %-24s %-7s %-16s %s\n", s, pr.ID, pr.Difficulty, pr.Category, pr.Title)
	}
	return nil
}

func (p *printer) problem(pr types.Problem) {
	fmt.Fprintf(p.w, "%s [%s / %s]\n\n", pr.Title, pr.Difficulty, pr.Category)
	fmt.Fprintln(p.w, strings.TrimSpace(pr.Description))
	for i, e := range pr.Examples {
		fmt.Fprintf(p.w, "\nExample %d:\n  Input:  %s\n  Output: %s\n", i+1, e.Input, e.Output)
		if e.Explanation != "" {
			fmt.Fprintf(p.w, "  %s\n", e.Explanation)
		}
	}
	for _, h := range pr.Hints {
		fmt.Fprintf(p.w, "\nHint: %s\n", h)
	}
	fmt.Fprintf(p.w, "\n%s\n", strings.TrimSpace(pr.StarterCode))
}

// progress prints a judge progress message
func (p *printer) progress(m types.JudgeProgress) {
	switch m.Type {
	case types.ProgressCompiled:
		if m.Status == types.ProgressFailed {
			fmt.Fprintf(p.w, "%s %s\n", p.paint(colorRed, "ERROR"), m.Message)
		}
	case types.ProgressProgress:
		p.testCase(m.TestCaseIndex, m.TestCaseResult)
	case types.ProgressFinished:
		p.summary(m.Result)
	}
}

func (p *printer) testCase(i int, r *types.TestCaseResult) {
	if r == nil {
		return
	}
	fmt.Fprintf(p.w, "%s #%d %s (%v)\n", p.mark(r.Passed), i+1, diff.Format(r.Input), r.Time.Round(time.Microsecond))
	if r.Passed {
		return
	}
	if r.Error != "" {
		fmt.Fprintf(p.w, "    error:    %s\n", r.Error)
		return
	}
	fmt.Fprintf(p.w, "    expected: %s\n    actual:   %s\n", diff.Format(r.ExpectedOutput), diff.Format(r.ActualOutput))
}

func (p *printer) summary(r *types.JudgeResult) {
	if r == nil || r.TestRunnerResult == nil {
		return
	}
	passed := 0
	for _, c := range r.Results {
		if c.Passed {
			passed++
		}
	}
	line := fmt.Sprintf("%s: %d/%d passed", r.ProblemID, passed, len(r.Results))
	switch {
	case r.AllPassed && r.Solved:
		line = p.paint(colorGreen, line+", solved")
	case r.AllPassed:
		line = p.paint(colorGreen, line)
	case r.Error != "":
		line = p.paint(colorRed, r.ProblemID+": "+r.Error)
	default:
		line = p.paint(colorYellow, line)
	}
	fmt.Fprintln(p.w, line)
}

// verify prints one line per problem and reports whether all passed
func (p *printer) verify(results []*types.JudgeResult) bool {
	ok := true
	for _, r := range results {
		fmt.Fprintf(p.w, "%s %s", p.mark(r.AllPassed), r.ProblemID)
		if !r.AllPassed {
			ok = false
			if r.Error != "" {
				fmt.Fprintf(p.w, ": %s", r.Error)
			}
		}
		fmt.Fprintln(p.w)
	}
	return ok
}
