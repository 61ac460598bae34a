package runner

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/criyle/ts-judge/language"
	"github.com/criyle/ts-judge/pkg/diff"
	"github.com/criyle/ts-judge/types"
	"go.uber.org/zap/zaptest"
)

func newTestRunner(t *testing.T) *Runner {
	return New(zaptest.NewLogger(t))
}

func run(t *testing.T, src string, cases []types.TestCase) *types.TestRunnerResult {
	t.Helper()
	rt := newTestRunner(t).Run(context.Background(), Request{Source: src, TestCases: cases})
	if rt == nil {
		t.Fatal("nil result")
	}
	return rt
}

func TestRunAdd(t *testing.T) {
	rt := run(t, `function add(a,b){return a+b;}`, []types.TestCase{
		{Input: []any{2, 3}, ExpectedOutput: 5},
		{Input: []any{0, 0}, ExpectedOutput: 0},
	})
	if rt.Error != "" {
		t.Fatalf("unexpected error: %s", rt.Error)
	}
	if !rt.AllPassed {
		t.Fatalf("expected all passed: %+v", rt.Results)
	}
	if len(rt.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(rt.Results))
	}
	for i, want := range []any{5, 0} {
		r := rt.Results[i]
		if !r.Passed || !diff.Equal(want, r.ActualOutput) {
			t.Errorf("case %d: passed=%v actual=%v want=%v", i, r.Passed, r.ActualOutput, want)
		}
	}
}

func TestRunThrow(t *testing.T) {
	rt := run(t, `function bad(){throw new Error('x');}`, []types.TestCase{
		{Input: []any{}, ExpectedOutput: 1},
	})
	if rt.AllPassed {
		t.Fatal("expected failure")
	}
	if len(rt.Results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(rt.Results))
	}
	r := rt.Results[0]
	if r.Passed || r.ActualOutput != nil {
		t.Errorf("unexpected result: %+v", r)
	}
	if !strings.Contains(r.Error, "x") {
		t.Errorf("error %q does not contain thrown message", r.Error)
	}
}

func TestRunThrowNonError(t *testing.T) {
	rt := run(t, `function bad(){ throw "plain"; }`, []types.TestCase{{Input: []any{}, ExpectedOutput: 1}})
	if len(rt.Results) != 1 || rt.Results[0].Error != "plain" {
		t.Fatalf("unexpected result: %+v", rt)
	}
}

func TestRunDeepEquality(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		expected any
		passed   bool
	}{
		{"nan", `function f(){ return NaN; }`, math.NaN(), true},
		{"negative zero", `function f(){ return -0; }`, 0, true},
		{"key order", `function f(){ return {a: 1, b: 2}; }`, map[string]any{"b": 2, "a": 1}, true},
		{"array", `function f(){ return [1, 2, 3]; }`, []any{1, 2, 3}, true},
		{"array shorter", `function f(){ return [1, 2, 3]; }`, []any{1, 2}, false},
		{"array longer", `function f(){ return [1, 2, 3]; }`, []any{1, 2, 3, 4}, false},
		{"nested", `function f(){ return {xs: [{k: "v"}], n: null}; }`, map[string]any{"n": nil, "xs": []any{map[string]any{"k": "v"}}}, true},
		{"undefined", `function f(){}`, nil, true},
		{"string vs number", `function f(){ return "1"; }`, 1, false},
		{"float", `function f(){ return 0.1 + 0.2; }`, 0.30000000000000004, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rt := run(t, tc.src, []types.TestCase{{Input: []any{}, ExpectedOutput: tc.expected}})
			if rt.Error != "" {
				t.Fatalf("unexpected error: %s", rt.Error)
			}
			if got := rt.Results[0].Passed; got != tc.passed {
				t.Errorf("passed = %v, want %v (actual %v)", got, tc.passed, rt.Results[0].ActualOutput)
			}
		})
	}
}

func TestRunCaseIsolation(t *testing.T) {
	src := `
function double(n: number): number {
	if (n === 2) {
		throw new Error("boom");
	}
	return n * 2;
}`
	rt := run(t, src, []types.TestCase{
		{Input: 1, ExpectedOutput: 2},
		{Input: 2, ExpectedOutput: 4},
		{Input: 3, ExpectedOutput: 7},
	})
	if rt.AllPassed {
		t.Fatal("expected failure")
	}
	if len(rt.Results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(rt.Results))
	}
	if !rt.Results[0].Passed {
		t.Errorf("case 0 should pass: %+v", rt.Results[0])
	}
	if rt.Results[1].Passed || !strings.Contains(rt.Results[1].Error, "boom") {
		t.Errorf("case 1 should fail with error: %+v", rt.Results[1])
	}
	if rt.Results[2].Passed || rt.Results[2].Error != "" || !diff.Equal(6, rt.Results[2].ActualOutput) {
		t.Errorf("case 2 should fail on its own output: %+v", rt.Results[2])
	}
}

func TestRunIdempotent(t *testing.T) {
	src := `function sort(xs: number[]): number[] { return [...xs].sort((a, b) => a - b); }`
	cases := []types.TestCase{
		{Input: []any{[]any{3, 1, 2}}, ExpectedOutput: []any{1, 2, 3}},
		{Input: []any{[]any{}}, ExpectedOutput: []any{1}},
	}
	a := run(t, src, cases)
	b := run(t, src, cases)
	if len(a.Results) != len(b.Results) {
		t.Fatalf("length differ: %d %d", len(a.Results), len(b.Results))
	}
	for i := range a.Results {
		if a.Results[i].Passed != b.Results[i].Passed || !diff.Equal(a.Results[i].ActualOutput, b.Results[i].ActualOutput) {
			t.Errorf("case %d differs: %+v %+v", i, a.Results[i], b.Results[i])
		}
	}
	if !a.Results[0].Passed || a.Results[1].Passed {
		t.Errorf("unexpected results: %+v", a.Results)
	}
}

func TestRunEmptySource(t *testing.T) {
	for _, src := range []string{"", "   ", "\n\t"} {
		rt := run(t, src, []types.TestCase{{Input: 1, ExpectedOutput: 1}})
		if rt.AllPassed || len(rt.Results) != 0 || rt.Error == "" {
			t.Errorf("source %q: unexpected result %+v", src, rt)
		}
		if rt.Results == nil {
			t.Errorf("source %q: results should be empty, not nil", src)
		}
	}
}

func TestRunEmptyCases(t *testing.T) {
	rt := run(t, `function f() { return 1; }`, nil)
	if rt.AllPassed || len(rt.Results) != 0 || rt.Error != "" {
		t.Errorf("unexpected result %+v", rt)
	}
}

func TestRunEnum(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		input any
		want  any
	}{
		{
			name: "numeric",
			src: `enum Color { Red, Green = 5, Blue }
function pick(n: number): string { return Color[n] + ":" + Color.Blue; }`,
			input: 5,
			want:  "Green:6",
		},
		{
			name: "const string",
			src: `const enum Dir { Up = "UP", Down = "DOWN" }
function pick(d: string): boolean { return d === Dir.Down; }`,
			input: "DOWN",
			want:  true,
		},
		{
			name: "exported computed",
			src: `export enum Flag { A = 1 << 0, B = 1 << 1, AB = A | B }
export function has(v: number): boolean { return (v & Flag.AB) === Flag.AB; }`,
			input: 3,
			want:  true,
		},
		{
			name: "light",
			src: `enum Light { Red = "RED", Yellow = "YELLOW", Green = "GREEN" }
function next(l: Light): Light {
	switch (l) {
		case Light.Red: return Light.Green;
		case Light.Green: return Light.Yellow;
		default: return Light.Red;
	}
}`,
			input: "GREEN",
			want:  "YELLOW",
		},
		{
			name: "merged",
			src: `enum E { A = 1 }
enum E { B = 2 }
function f(): number { return E.A + E.B; }`,
			input: []any{},
			want:  3,
		},
		{
			name: "merged computed",
			src: `enum M { A = 1 << 1 }
enum M { B = 8, C = B | 1 }
function f(): string { return M[M.A] + (M.A + M.B + M.C); }`,
			input: []any{},
			want:  "A19",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rt := run(t, tc.src, []types.TestCase{{Input: tc.input, ExpectedOutput: tc.want}})
			if strings.Contains(rt.Error, "8006") || strings.Contains(strings.ToLower(rt.Error), "enum declarations can only be used") {
				t.Fatalf("forbidden diagnostic: %s", rt.Error)
			}
			if !rt.AllPassed {
				t.Errorf("expected pass: %+v", rt)
			}
		})
	}
}

func TestRunCompileError(t *testing.T) {
	rt := run(t, `function f( { return 1; }`, []types.TestCase{{Input: 1, ExpectedOutput: 1}})
	if rt.AllPassed || len(rt.Results) != 0 {
		t.Fatalf("unexpected result %+v", rt)
	}
	if !strings.HasPrefix(rt.Error, "compile error") {
		t.Errorf("unexpected error %q", rt.Error)
	}
}

func TestRunCompileErrorKeepsMessage(t *testing.T) {
	rt := run(t, `function f() { return 8006 8006; }`, []types.TestCase{{Input: 1, ExpectedOutput: 1}})
	if !strings.HasPrefix(rt.Error, "compile error") || strings.Contains(rt.Error, "enum") {
		t.Errorf("unexpected error %q", rt.Error)
	}
}

func TestRunEvaluationError(t *testing.T) {
	rt := run(t, "throw new Error('top');\nfunction f() { return 1; }", []types.TestCase{{Input: 1, ExpectedOutput: 1}})
	if len(rt.Results) != 0 || !strings.Contains(rt.Error, "evaluation error") || !strings.Contains(rt.Error, "top") {
		t.Errorf("unexpected result %+v", rt)
	}
}

func TestRunNoFunction(t *testing.T) {
	rt := run(t, `const answer = 42;`, []types.TestCase{{Input: 1, ExpectedOutput: 1}})
	if rt.Error != ErrNoFunctionFound.Error() || len(rt.Results) != 0 {
		t.Errorf("unexpected result %+v", rt)
	}
}

func TestRunUnknownLanguage(t *testing.T) {
	rt := newTestRunner(t).Run(context.Background(), Request{
		Source:   `function f() {}`,
		Language: "cobol",
	})
	if !strings.Contains(rt.Error, "unsupported language") {
		t.Errorf("unexpected result %+v", rt)
	}
}

func TestRunJavaScript(t *testing.T) {
	rt := newTestRunner(t).Run(context.Background(), Request{
		Source:    `const inc = (x) => x + 1;`,
		Language:  "javascript",
		TestCases: []types.TestCase{{Input: 41, ExpectedOutput: 42}},
	})
	if !rt.AllPassed {
		t.Errorf("unexpected result %+v", rt)
	}
}

func TestRunTimeLimit(t *testing.T) {
	r := newTestRunner(t)
	r.Language = &language.Static{TimeLimit: 100 * time.Millisecond}
	rt := r.Run(context.Background(), Request{
		Source: `function spin(n: number): number { while (true) {} }`,
		TestCases: []types.TestCase{
			{Input: 1, ExpectedOutput: 1},
			{Input: 2, ExpectedOutput: 2},
		},
	})
	if len(rt.Results) != 2 {
		t.Fatalf("unexpected result %+v", rt)
	}
	for i, c := range rt.Results {
		if c.Passed || c.Error != ErrTimeLimitExceeded.Error() {
			t.Errorf("case %d: unexpected result %+v", i, c)
		}
	}
}

func TestRunEvaluationTimeLimit(t *testing.T) {
	r := newTestRunner(t)
	r.Language = &language.Static{EvalTimeLimit: 100 * time.Millisecond}
	rt := r.Run(context.Background(), Request{
		Source:    "for (;;) {}\nfunction f() { return 1; }",
		TestCases: []types.TestCase{{Input: 1, ExpectedOutput: 1}},
	})
	if len(rt.Results) != 0 || !strings.Contains(rt.Error, ErrTimeLimitExceeded.Error()) {
		t.Errorf("unexpected result %+v", rt)
	}
}

func TestRunCanceled(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	rt := newTestRunner(t).Run(ctx, Request{
		Source:    `function spin() { for (;;) {} }`,
		TestCases: []types.TestCase{{Input: []any{}, ExpectedOutput: 1}},
	})
	if len(rt.Results) != 1 || rt.Results[0].Passed || rt.Results[0].Error == "" {
		t.Errorf("unexpected result %+v", rt)
	}
}

func TestRunStackOverflow(t *testing.T) {
	rt := run(t, `function r(n: number): number { return r(n + 1); }`, []types.TestCase{{Input: 0, ExpectedOutput: 0}})
	if len(rt.Results) != 1 || rt.Results[0].Passed || rt.Results[0].Error == "" {
		t.Errorf("unexpected result %+v", rt)
	}
}

func TestRunAsync(t *testing.T) {
	src := `
async function inc(n: number): Promise<number> {
	const v = await Promise.resolve(n);
	return v + 1;
}
async function fail(): Promise<number> { throw new Error("rejected"); }
`
	r := newTestRunner(t)
	rt := r.Run(context.Background(), Request{Source: src, EntryPoint: "inc", TestCases: []types.TestCase{{Input: 1, ExpectedOutput: 2}}})
	if !rt.AllPassed {
		t.Errorf("unexpected result %+v", rt)
	}
	rt = r.Run(context.Background(), Request{Source: src, EntryPoint: "fail", TestCases: []types.TestCase{{Input: []any{}, ExpectedOutput: 1}}})
	if len(rt.Results) != 1 || !strings.Contains(rt.Results[0].Error, "rejected") {
		t.Errorf("unexpected result %+v", rt)
	}
}

func TestRunAsyncValues(t *testing.T) {
	src := `
async function pair(a: number, b: number): Promise<number[]> { return [a, await Promise.resolve(b)]; }
async function hang(): Promise<number> { await new Promise(() => {}); return 1; }
async function reject(): Promise<number> { return Promise.reject("plain"); }
`
	r := newTestRunner(t)
	rt := r.Run(context.Background(), Request{Source: src, EntryPoint: "pair", TestCases: []types.TestCase{
		{Input: []any{1, 2}, ExpectedOutput: []any{1, 2}},
		{Input: []any{3, 4}, ExpectedOutput: []any{3, 5}},
	}})
	if len(rt.Results) != 2 || !rt.Results[0].Passed || rt.Results[1].Passed || rt.Results[1].Error != "" {
		t.Errorf("unexpected result %+v", rt)
	}

	rt = r.Run(context.Background(), Request{Source: src, EntryPoint: "hang", TestCases: []types.TestCase{{Input: []any{}, ExpectedOutput: 1}}})
	if len(rt.Results) != 1 || rt.Results[0].Error != "returned promise never settled" {
		t.Errorf("unexpected result %+v", rt)
	}

	rt = r.Run(context.Background(), Request{Source: src, EntryPoint: "reject", TestCases: []types.TestCase{{Input: []any{}, ExpectedOutput: 1}}})
	if len(rt.Results) != 1 || rt.Results[0].Error != "plain" {
		t.Errorf("unexpected result %+v", rt)
	}
}

func TestRunSharedState(t *testing.T) {
	src := `let counter = 0;
function next(): number { counter++; return counter; }`
	cases := []types.TestCase{
		{Input: []any{}, ExpectedOutput: 1},
		{Input: []any{}, ExpectedOutput: 2},
		{Input: []any{}, ExpectedOutput: 3},
	}
	for i := 0; i < 2; i++ {
		if rt := run(t, src, cases); !rt.AllPassed {
			t.Errorf("run %d: state leaked or lost: %+v", i, rt.Results)
		}
	}
}

func TestRunSingleArgument(t *testing.T) {
	src := `
interface Point { x: number; y: number }
type Sum = number;
function sum(nums: number[]): Sum { return nums.reduce((a, b) => a + b, 0); }
function norm(p: Point): number { return Math.abs(p.x) + Math.abs(p.y); }
`
	r := newTestRunner(t)
	rt := r.Run(context.Background(), Request{Source: src, EntryPoint: "sum", TestCases: []types.TestCase{
		{Input: []any{[]any{1, 2, 3}}, ExpectedOutput: 6},
	}})
	if !rt.AllPassed {
		t.Errorf("sum: unexpected result %+v", rt)
	}
	rt = r.Run(context.Background(), Request{Source: src, EntryPoint: "norm", TestCases: []types.TestCase{
		{Input: map[string]any{"x": -3, "y": 4}, ExpectedOutput: 7},
	}})
	if !rt.AllPassed {
		t.Errorf("norm: unexpected result %+v", rt)
	}
}

func TestRunInputNotMutated(t *testing.T) {
	input := []any{3, 1, 2}
	rt := run(t, `function f(xs: number[]) { xs.sort(); xs.push(9); return xs.length; }`, []types.TestCase{
		{Input: []any{input}, ExpectedOutput: 4},
	})
	if !rt.AllPassed {
		t.Fatalf("unexpected result %+v", rt)
	}
	if !diff.Equal([]any{3, 1, 2}, input) {
		t.Errorf("input mutated: %v", input)
	}
}

func TestRunConsoleIgnored(t *testing.T) {
	rt := run(t, `console.log("loading", {a: 1});
function f(x: number) { console.error("x =", x); return x; }`, []types.TestCase{{Input: 1, ExpectedOutput: 1}})
	if !rt.AllPassed {
		t.Errorf("unexpected result %+v", rt)
	}
}

func TestRunProblemConvention(t *testing.T) {
	src := `function check(a: number) { return a > 0; }
function twoSum(nums: number[], target: number): number[] {
	const seen = new Map<number, number>();
	for (let i = 0; i < nums.length; i++) {
		const j = seen.get(target - nums[i]);
		if (j !== undefined) return [j, i];
		seen.set(nums[i], i);
	}
	return [];
}`
	rt := newTestRunner(t).Run(context.Background(), Request{
		Source:    src,
		ProblemID: "two-sum",
		TestCases: []types.TestCase{{Input: []any{[]any{2, 7, 11, 15}, 9}, ExpectedOutput: []any{0, 1}}},
	})
	if !rt.AllPassed {
		t.Errorf("unexpected result %+v", rt)
	}
}

type recordObserver struct {
	compiled   []error
	progressed []int
}

func (o *recordObserver) Compiled(err error) {
	o.compiled = append(o.compiled, err)
}

func (o *recordObserver) Progressed(index int, _ types.TestCaseResult) {
	o.progressed = append(o.progressed, index)
}

func TestRunObserver(t *testing.T) {
	o := &recordObserver{}
	newTestRunner(t).Run(context.Background(), Request{
		Source:    `function id(x: any) { return x; }`,
		TestCases: []types.TestCase{{Input: 1, ExpectedOutput: 1}, {Input: 2, ExpectedOutput: 2}},
		Observer:  o,
	})
	if len(o.compiled) != 1 || o.compiled[0] != nil {
		t.Errorf("unexpected compiled calls %v", o.compiled)
	}
	if len(o.progressed) != 2 || o.progressed[0] != 0 || o.progressed[1] != 1 {
		t.Errorf("unexpected progressed calls %v", o.progressed)
	}

	o = &recordObserver{}
	newTestRunner(t).Run(context.Background(), Request{Source: `function (`, Observer: o})
	var ce *CompileError
	if len(o.compiled) != 1 || !errors.As(o.compiled[0], &ce) {
		t.Errorf("expected compile error, got %v", o.compiled)
	}
	if len(o.progressed) != 0 {
		t.Errorf("unexpected progressed calls %v", o.progressed)
	}
}

type panicLoader struct{}

func (panicLoader) Load(context.Context, string, language.ExecParam) (Module, error) {
	panic("loader exploded")
}

func TestRunRecoversPanic(t *testing.T) {
	r := newTestRunner(t)
	r.Loader = panicLoader{}
	rt := r.Run(context.Background(), Request{Source: `function f() {}`})
	if !strings.Contains(rt.Error, "loader exploded") || rt.Results == nil {
		t.Errorf("unexpected result %+v", rt)
	}
}
