package worker

import (
	"context"
	"sync"
	"time"

	"github.com/criyle/ts-judge/runner"
	"github.com/criyle/ts-judge/types"
)

const maxWaiting = 512

// Runner runs a single snippet
type Runner interface {
	Run(context.Context, runner.Request) *types.TestRunnerResult
}

// Config defines worker configuration
type Config struct {
	Runner       Runner
	Parallelism  int
	ExecObserver func(Response)
}

// Worker defines interface for executor
type Worker interface {
	Start()
	Submit(context.Context, *Request) <-chan Response
	Execute(context.Context, *Request) <-chan Response
	Shutdown()
}

// worker defines executor worker
type worker struct {
	runner      Runner
	parallelism int

	execObserver func(Response)

	startOnce sync.Once
	stopOnce  sync.Once
	wg        sync.WaitGroup
	workCh    chan workRequest
	done      chan struct{}
}

type workRequest struct {
	*Request
	context.Context
	resultCh chan<- Response
}

// New creates new worker
func New(conf Config) Worker {
	return &worker{
		runner:       conf.Runner,
		parallelism:  max(conf.Parallelism, 1),
		execObserver: conf.ExecObserver,
		workCh:       make(chan workRequest, maxWaiting),
		done:         make(chan struct{}),
	}
}

// Start starts worker loops with given parallelism
func (w *worker) Start() {
	w.startOnce.Do(func() {
		w.wg.Add(w.parallelism)
		for i := 0; i < w.parallelism; i++ {
			go w.loop()
		}
	})
}

// Submit submits a single request, the request waits in queue when all loops
// are busy
func (w *worker) Submit(ctx context.Context, req *Request) <-chan Response {
	ch := make(chan Response, 1)
	select {
	case w.workCh <- workRequest{
		Request:  req,
		Context:  ctx,
		resultCh: ch,
	}:
	case <-ctx.Done():
		ch <- Response{RequestID: req.RequestID, Result: types.ErrorResult(ctx.Err().Error())}
	case <-w.done:
		ch <- Response{RequestID: req.RequestID, Result: types.ErrorResult("worker is shutting down")}
	}
	return ch
}

// Execute will execute the request in new goroutine (bypass the parallelism limit)
func (w *worker) Execute(ctx context.Context, req *Request) <-chan Response {
	ch := make(chan Response, 1)
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		wq := workRequest{
			Request:  req,
			Context:  ctx,
			resultCh: ch,
		}
		w.workDoRun(wq)
	}()
	return ch
}

// Shutdown waits all worker to finish
func (w *worker) Shutdown() {
	w.stopOnce.Do(func() {
		close(w.done)
		w.wg.Wait()
	})
}

func (w *worker) loop() {
	defer w.wg.Done()
	for {
		select {
		case req, ok := <-w.workCh:
			if !ok {
				return
			}
			w.workDoRun(req)
		case <-w.done:
			w.drain()
			return
		}
	}
}

// drain answers requests still waiting in queue after shutdown
func (w *worker) drain() {
	for {
		select {
		case req := <-w.workCh:
			req.resultCh <- Response{RequestID: req.RequestID, Result: types.ErrorResult("worker is shutting down")}
		default:
			return
		}
	}
}

func (w *worker) workDoRun(req workRequest) {
	rt := Response{RequestID: req.RequestID}
	if err := req.Context.Err(); err != nil {
		// canceled while waiting in queue
		rt.Result = types.ErrorResult(err.Error())
	} else {
		start := time.Now()
		rt.Result = w.runner.Run(req.Context, req.Request.Request)
		rt.Time = time.Since(start)
	}
	if w.execObserver != nil {
		w.execObserver(rt)
	}
	req.resultCh <- rt
}
