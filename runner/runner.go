// Package runner compiles a TypeScript snippet, loads it into an isolated
// script runtime, picks the function under test and runs it against test
// cases one after another.
//
// Every failure is reported inside the returned result: stage failures
// (empty input, compile, evaluation, no function) as the top-level error with
// no case results, invocation failures on the case they happened in.
package runner

import (
	"context"
	"fmt"
	"strings"

	"github.com/criyle/ts-judge/language"
	"github.com/criyle/ts-judge/types"
	"go.uber.org/zap"
)

// Observer receives progress of a run. Methods are called synchronously from
// the goroutine executing the run.
type Observer interface {
	// Compiled is called once the snippet is loaded, err is the stage error
	Compiled(err error)
	// Progressed is called after each test case
	Progressed(index int, result types.TestCaseResult)
}

// Request defines a single run
type Request struct {
	Source    string
	TestCases []types.TestCase
	// Language defaults to typescript
	Language   string
	EntryPoint string
	ProblemID  string

	Observer Observer
}

// Runner runs snippets, zero values are replaced with defaults
type Runner struct {
	Language language.Language
	Loader   Loader
	Resolver Resolver
	Logger   *zap.Logger
}

// New creates a runner with the default language table, goja loader and
// resolver
func New(logger *zap.Logger) *Runner {
	return &Runner{
		Language: language.NewStatic(),
		Loader:   GojaLoader{},
		Resolver: DefaultResolver{},
		Logger:   logger,
	}
}

// Run executes the request and never panics
func (r *Runner) Run(ctx context.Context, req Request) (result *types.TestRunnerResult) {
	logger := r.logger()
	defer func() {
		if p := recover(); p != nil {
			logger.Error("runner panic", zap.Any("panic", p))
			result = types.ErrorResult(fmt.Sprintf("internal error: %v", p))
		}
	}()

	m, name, err := r.prepare(ctx, req)
	if req.Observer != nil {
		req.Observer.Compiled(err)
	}
	if err != nil {
		logger.Debug("run failed before test cases", zap.String("problemId", req.ProblemID), zap.Error(err))
		return types.ErrorResult(err.Error())
	}

	results := make([]types.TestCaseResult, 0, len(req.TestCases))
	for i, c := range req.TestCases {
		rt := execCase(ctx, m, name, c)
		results = append(results, rt)
		if req.Observer != nil {
			req.Observer.Progressed(i, rt)
		}
	}
	if out := m.Output(); out != "" {
		logger.Debug("snippet console output", zap.String("problemId", req.ProblemID), zap.String("output", out))
	}
	return aggregate(results)
}

// prepare runs the stages before test case execution and returns the loaded
// module with the resolved function name
func (r *Runner) prepare(ctx context.Context, req Request) (Module, string, error) {
	if strings.TrimSpace(req.Source) == "" {
		return nil, "", ErrEmptyInput
	}
	lang := r.Language
	if lang == nil {
		lang = language.NewStatic()
	}
	param, ok := lang.Get(req.Language)
	if !ok {
		return nil, "", fmt.Errorf("unsupported language: %q", req.Language)
	}

	source := req.Source
	if param.Dialect == language.DialectTypeScript {
		source = Normalize(source)
	}
	script, err := Transpile(source, param)
	if err != nil {
		return nil, "", err
	}

	loader := r.Loader
	if loader == nil {
		loader = GojaLoader{}
	}
	m, err := loader.Load(ctx, script, param)
	if err != nil {
		return nil, "", err
	}

	resolver := r.Resolver
	if resolver == nil {
		resolver = DefaultResolver{}
	}
	name, err := resolver.Resolve(m.Functions(), Hint{EntryPoint: req.EntryPoint, ProblemID: req.ProblemID})
	if err != nil {
		return nil, "", err
	}
	return m, name, nil
}

func (r *Runner) logger() *zap.Logger {
	if r.Logger == nil {
		return zap.NewNop()
	}
	return r.Logger
}
