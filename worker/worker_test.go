package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/criyle/ts-judge/runner"
	"github.com/criyle/ts-judge/types"
	"go.uber.org/zap/zaptest"
)

// blockingRunner blocks every run until release is closed
type blockingRunner struct {
	running atomic.Int32
	peak    atomic.Int32
	release chan struct{}
}

func (r *blockingRunner) Run(ctx context.Context, req runner.Request) *types.TestRunnerResult {
	n := r.running.Add(1)
	defer r.running.Add(-1)
	for {
		p := r.peak.Load()
		if n <= p || r.peak.CompareAndSwap(p, n) {
			break
		}
	}
	select {
	case <-r.release:
	case <-ctx.Done():
	}
	return &types.TestRunnerResult{AllPassed: true, Results: []types.TestCaseResult{{Passed: true}}}
}

func TestWorkerRunsSnippet(t *testing.T) {
	var observed []Response
	var mu sync.Mutex
	w := New(Config{
		Runner:      runner.New(zaptest.NewLogger(t)),
		Parallelism: 2,
		ExecObserver: func(r Response) {
			mu.Lock()
			defer mu.Unlock()
			observed = append(observed, r)
		},
	})
	w.Start()
	defer w.Shutdown()

	rt := <-w.Submit(context.Background(), &Request{
		RequestID: "add",
		Request: runner.Request{
			Source:    `function add(a: number, b: number) { return a + b; }`,
			TestCases: []types.TestCase{{Input: []any{1, 2}, ExpectedOutput: 3}},
		},
	})
	if rt.RequestID != "add" || rt.Result == nil || !rt.Result.AllPassed {
		t.Fatalf("unexpected response %v", rt)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(observed) != 1 || observed[0].RequestID != "add" {
		t.Errorf("unexpected observed responses %v", observed)
	}
}

func TestWorkerParallelism(t *testing.T) {
	r := &blockingRunner{release: make(chan struct{})}
	w := New(Config{Runner: r, Parallelism: 2})
	w.Start()
	defer w.Shutdown()

	var chs []<-chan Response
	for range 5 {
		chs = append(chs, w.Submit(context.Background(), &Request{}))
	}
	time.Sleep(50 * time.Millisecond)
	if got := r.running.Load(); got != 2 {
		t.Errorf("running = %d, want 2", got)
	}
	close(r.release)
	for _, ch := range chs {
		if rt := <-ch; !rt.Result.AllPassed {
			t.Errorf("unexpected response %v", rt)
		}
	}
	if p := r.peak.Load(); p > 2 {
		t.Errorf("peak parallelism %d exceeds limit", p)
	}
}

func TestWorkerExecuteBypassesLimit(t *testing.T) {
	r := &blockingRunner{release: make(chan struct{})}
	w := New(Config{Runner: r, Parallelism: 1})
	w.Start()
	defer w.Shutdown()

	first := w.Submit(context.Background(), &Request{RequestID: "queued"})
	second := w.Execute(context.Background(), &Request{RequestID: "direct"})
	time.Sleep(50 * time.Millisecond)
	if got := r.running.Load(); got != 2 {
		t.Errorf("running = %d, want 2", got)
	}
	close(r.release)
	if rt := <-first; rt.RequestID != "queued" {
		t.Errorf("unexpected response %v", rt)
	}
	if rt := <-second; rt.RequestID != "direct" {
		t.Errorf("unexpected response %v", rt)
	}
}

func TestWorkerCanceledInQueue(t *testing.T) {
	r := &blockingRunner{release: make(chan struct{})}
	w := New(Config{Runner: r, Parallelism: 1})
	w.Start()
	defer w.Shutdown()

	busy := w.Submit(context.Background(), &Request{RequestID: "busy"})
	time.Sleep(20 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	queued := w.Submit(ctx, &Request{RequestID: "queued"})
	cancel()
	close(r.release)
	<-busy

	rt := <-queued
	if rt.Result == nil || rt.Result.Error == "" || len(rt.Result.Results) != 0 {
		t.Errorf("expected canceled result, got %v", rt)
	}
}

func TestWorkerShutdownAnswersQueued(t *testing.T) {
	r := &blockingRunner{release: make(chan struct{})}
	w := New(Config{Runner: r, Parallelism: 1})
	w.Start()

	first := w.Submit(context.Background(), &Request{RequestID: "first"})
	for r.running.Load() == 0 {
		time.Sleep(time.Millisecond)
	}
	second := w.Submit(context.Background(), &Request{RequestID: "second"})

	stopped := make(chan struct{})
	go func() {
		w.Shutdown()
		close(stopped)
	}()
	time.Sleep(10 * time.Millisecond)
	close(r.release)

	for _, ch := range []<-chan Response{first, second} {
		select {
		case rt := <-ch:
			if rt.Result == nil {
				t.Errorf("%s: no result", rt.RequestID)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("request never answered")
		}
	}
	<-stopped
}
