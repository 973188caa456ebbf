// Package workerpool is component E: a bounded task queue with optional
// stable-priority scheduling, per-task timeout, cooperative cancellation,
// and both single-future and streaming submission. Grounded on the
// teacher's internal/engine/engine.go, which hand-rolls the same shape
// three times (staged-diff scan, base-branch scan, history scan): an
// errgroup.WithContext bounded by g.SetLimit(threads) feeding a
// findingsCh/done fan-in. This package generalizes those three call
// sites into one reusable pool, replacing the hand-rolled errgroup
// wiring with github.com/sourcegraph/conc/pool for panic-safe bounded
// concurrency.
package workerpool

import (
	"container/heap"
	"context"
	"errors"
	"runtime"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"
)

// Errors the pool surfaces as typed failures (spec.md §4.E/§7).
var (
	ErrQueueFull   = errors.New("workerpool: queue full")
	ErrShutdown    = errors.New("workerpool: pool is shut down")
	ErrTaskTimeout = errors.New("workerpool: task timeout")
	ErrCancelled   = errors.New("workerpool: cancelled")
)

// Processor is the function every task is dispatched to.
type Processor func(ctx context.Context, input any) (any, error)

// Task is one unit of work (spec.md §3 "Worker Task").
type Task struct {
	ID         string
	Input      any
	Priority   int // higher runs first
	EnqueuedAt int64
	TimeoutMs  int64
}

// Result is what a Task resolves to.
type Result struct {
	TaskID string
	Output any
	Err    error
}

// Options configure a new Pool.
type Options struct {
	MaxWorkers      int   // default max(1, NumCPU-1)
	QueueCapacity   int   // default 1000
	PriorityEnabled bool  // FIFO when false
	DefaultTimeout  int64 // ms; used when a Task has TimeoutMs == 0
}

func (o Options) withDefaults() Options {
	if o.MaxWorkers <= 0 {
		o.MaxWorkers = runtime.NumCPU() - 1
		if o.MaxWorkers < 1 {
			o.MaxWorkers = 1
		}
	}
	if o.QueueCapacity <= 0 {
		o.QueueCapacity = 1000
	}
	return o
}

// Pool is a bounded worker pool over a single Processor.
type Pool struct {
	opts      Options
	processor Processor

	mu         sync.Mutex
	cond       *sync.Cond
	queue      *taskHeap // always used; FIFO order when PriorityEnabled == false (see push)
	seq        int64
	shutdown   bool
	clearing   bool
	activeJobs int

	conc *pool.ContextPool
	ctx  context.Context
	stop context.CancelFunc
}

// New builds a Pool bound to processor.
func New(processor Processor, opts Options) *Pool {
	opts = opts.withDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		opts:      opts,
		processor: processor,
		queue:     newTaskHeap(),
		conc:      pool.New().WithMaxGoroutines(opts.MaxWorkers).WithContext(ctx),
		ctx:       ctx,
		stop:      cancel,
	}
	p.cond = sync.NewCond(&p.mu)
	return p
}

// Submit enqueues task and returns a channel resolved exactly once with
// its Result. Fails fast with ErrQueueFull or ErrShutdown instead of
// blocking when the queue is saturated or the pool has been shut down.
func (p *Pool) Submit(task Task) (<-chan Result, error) {
	out := make(chan Result, 1)
	if err := p.enqueue(task, out); err != nil {
		return nil, err
	}
	return out, nil
}

// SubmitStream enqueues every task in tasks and returns a single channel
// that yields each Result the moment it completes — unordered, tagged
// by TaskID (a stable slot handle), never by submission/promise order.
func (p *Pool) SubmitStream(tasks []Task) (<-chan Result, error) {
	out := make(chan Result, len(tasks))
	var wg sync.WaitGroup
	for _, t := range tasks {
		t := t
		wg.Add(1)
		done, err := p.Submit(t)
		if err != nil {
			wg.Done()
			out <- Result{TaskID: t.ID, Err: err}
			continue
		}
		go func() {
			defer wg.Done()
			out <- <-done
		}()
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out, nil
}

func (p *Pool) enqueue(task Task, out chan Result) error {
	p.mu.Lock()
	if p.shutdown {
		p.mu.Unlock()
		return ErrShutdown
	}
	if p.queue.Len() >= p.opts.QueueCapacity {
		p.mu.Unlock()
		return ErrQueueFull
	}
	p.seq++
	item := &taskItem{task: task, out: out, seq: p.seq}
	if !p.opts.PriorityEnabled {
		item.task.Priority = 0 // stable FIFO: all equal priority, seq breaks ties
	}
	heap.Push(p.queue, item)
	p.activeJobs++
	p.cond.Signal()
	p.mu.Unlock()

	p.conc.Go(func(ctx context.Context) error {
		p.runOne(ctx)
		return nil
	})
	return nil
}

// runOne pops the highest-priority pending item (FIFO within equal
// priority) and executes it, bounded by its own timeout.
func (p *Pool) runOne(ctx context.Context) {
	p.mu.Lock()
	if p.queue.Len() == 0 {
		p.mu.Unlock()
		return
	}
	item := heap.Pop(p.queue).(*taskItem)
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.activeJobs--
		p.cond.Broadcast()
		p.mu.Unlock()
	}()

	if item.cancelled {
		item.out <- Result{TaskID: item.task.ID, Err: ErrCancelled}
		return
	}

	timeout := item.task.TimeoutMs
	if timeout <= 0 {
		timeout = p.opts.DefaultTimeout
	}

	taskCtx := ctx
	var cancel context.CancelFunc
	if timeout > 0 {
		taskCtx, cancel = context.WithTimeout(ctx, time.Duration(timeout)*time.Millisecond)
		defer cancel()
	}

	type outcome struct {
		out any
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		o, err := p.processor(taskCtx, item.task.Input)
		done <- outcome{o, err}
	}()

	select {
	case o := <-done:
		item.out <- Result{TaskID: item.task.ID, Output: o.out, Err: o.err}
	case <-taskCtx.Done():
		item.out <- Result{TaskID: item.task.ID, Err: ErrTaskTimeout}
	}
}

// Drain blocks until the queue is empty and no worker slot is busy.
func (p *Pool) Drain() {
	p.mu.Lock()
	for p.queue.Len() > 0 || p.activeJobs > 0 {
		p.cond.Wait()
	}
	p.mu.Unlock()
}

// Shutdown sets the shutdown flag (subsequent Submit calls fail with
// ErrShutdown), drains active tasks, and releases pool resources.
func (p *Pool) Shutdown() {
	p.mu.Lock()
	p.shutdown = true
	p.mu.Unlock()
	p.Drain()
	p.stop()
	p.conc.Wait()
}

// ClearQueue rejects every pending (not-yet-started) task with
// ErrCancelled and empties the queue. Each cleared item's activeJobs
// slot is released here, since the worker goroutine already scheduled
// for it will find nothing left to pop and no-op.
func (p *Pool) ClearQueue() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for p.queue.Len() > 0 {
		item := heap.Pop(p.queue).(*taskItem)
		item.out <- Result{TaskID: item.task.ID, Err: ErrCancelled}
		p.activeJobs--
	}
	p.cond.Broadcast()
}

// QueueLen reports the number of pending (not yet started) tasks.
func (p *Pool) QueueLen() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.queue.Len()
}
