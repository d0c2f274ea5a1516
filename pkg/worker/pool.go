package worker

import (
	"context"
	"log/slog"
	"sync"
)

// Handler processes one task.
type Handler[T any, R any] func(ctx context.Context, task T) R

// Pool runs tasks on a fixed number of workers
type Pool[T any, R any] struct {
	workerCount int
	poolName    string // For logging
	handle      Handler[T, R]

	jobChan    chan Job[T]
	resultChan chan Result[R]
}

// Job is a task tagged with its submission index.
type Job[T any] struct {
	Index int
	Task  T
}

// Result carries the handler output for the job with the same Index.
type Result[R any] struct {
	Index int
	Value R
}

// NewPool creates a new generic worker pool
func NewPool[T any, R any](workerCount int, poolName string, handle Handler[T, R]) *Pool[T, R] {
	if workerCount < 1 {
		workerCount = 1
	}
	return &Pool[T, R]{
		workerCount: workerCount,
		poolName:    poolName,
		handle:      handle,
		jobChan:     make(chan Job[T], 100),
		resultChan:  make(chan Result[R], 100),
	}
}

// Start begins the worker pool (call once)
func (p *Pool[T, R]) Start(ctx context.Context) {
	slog.Debug("Starting workers", "component", p.poolName, "count", p.workerCount)

	var wg sync.WaitGroup
	for i := 0; i < p.workerCount; i++ {
		wg.Add(1)
		go p.worker(ctx, i, &wg)
	}

	// Close results once every worker has returned
	go func() {
		wg.Wait()
		close(p.resultChan)
		slog.Debug("All workers stopped", "component", p.poolName)
	}()
}

// Submit queues a task unless ctx is done first.
func (p *Pool[T, R]) Submit(ctx context.Context, index int, task T) bool {
	select {
	case <-ctx.Done():
		return false
	case p.jobChan <- Job[T]{Index: index, Task: task}:
		return true
	}
}

// Close signals that no more tasks will be submitted.
func (p *Pool[T, R]) Close() {
	close(p.jobChan)
}

// Results returns the channel for receiving results
func (p *Pool[T, R]) Results() <-chan Result[R] {
	return p.resultChan
}

// worker processes jobs until the job channel closes or ctx is done
func (p *Pool[T, R]) worker(ctx context.Context, id int, wg *sync.WaitGroup) {
	defer wg.Done()

	for {
		select {
		case <-ctx.Done():
			slog.Debug("Worker stopping", "component", p.poolName, "worker", id)
			return

		case job, ok := <-p.jobChan:
			if !ok {
				return
			}
			p.resultChan <- Result[R]{Index: job.Index, Value: p.handle(ctx, job.Task)}
		}
	}
}

// Run processes tasks on workerCount workers and returns the results in task order.
func Run[T any, R any](ctx context.Context, workerCount int, poolName string, tasks []T, handle Handler[T, R]) []R {
	p := NewPool(workerCount, poolName, handle)
	p.Start(ctx)

	go func() {
		defer p.Close()
		for i, task := range tasks {
			if !p.Submit(ctx, i, task) {
				return
			}
		}
	}()

	results := make([]R, len(tasks))
	for r := range p.Results() {
		results[r.Index] = r.Value
	}
	return results
}
