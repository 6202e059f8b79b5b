// MIT License
//
// Copyright (c) 2022-2026 GoAkt Team
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// Package workerpool runs short tasks on a fixed set of goroutines.
// Actor mailboxes are drained through it.
package workerpool

import (
	"errors"
	"runtime"
	"sync"

	"go.uber.org/atomic"
)

// ErrPoolStopped is returned when submitting to a pool that is not running
var ErrPoolStopped = errors.New("worker pool is not running")

// WorkerPool executes submitted tasks in FIFO order on size goroutines.
// Submit never blocks: the task queue is unbounded.
type WorkerPool struct {
	size         int
	panicHandler func(any)

	mu      sync.Mutex
	cond    *sync.Cond
	tasks   []func()
	started bool
	stopped bool
	wg      sync.WaitGroup

	busy *atomic.Int64
}

// New creates a WorkerPool sized to GOMAXPROCS unless overridden
func New(opts ...Option) *WorkerPool {
	pool := &WorkerPool{
		size: runtime.GOMAXPROCS(0),
		busy: atomic.NewInt64(0),
	}
	for _, opt := range opts {
		opt.Apply(pool)
	}
	pool.cond = sync.NewCond(&pool.mu)
	return pool
}

// Start spawns the workers. Calling Start twice is a no-op.
func (wp *WorkerPool) Start() {
	wp.mu.Lock()
	defer wp.mu.Unlock()
	if wp.started {
		return
	}
	wp.started = true
	wp.wg.Add(wp.size)
	for range wp.size {
		go wp.work()
	}
}

// Stop rejects new tasks, runs the queued ones and waits for the workers to exit.
func (wp *WorkerPool) Stop() {
	wp.mu.Lock()
	if !wp.started || wp.stopped {
		wp.mu.Unlock()
		return
	}
	wp.stopped = true
	wp.cond.Broadcast()
	wp.mu.Unlock()
	wp.wg.Wait()
}

// Submit queues the task
func (wp *WorkerPool) Submit(task func()) error {
	wp.mu.Lock()
	defer wp.mu.Unlock()
	if !wp.started || wp.stopped {
		return ErrPoolStopped
	}
	wp.tasks = append(wp.tasks, task)
	wp.cond.Signal()
	return nil
}

// Size returns the number of workers
func (wp *WorkerPool) Size() int {
	return wp.size
}

// Pending returns the number of queued tasks not yet picked by a worker
func (wp *WorkerPool) Pending() int {
	wp.mu.Lock()
	defer wp.mu.Unlock()
	return len(wp.tasks)
}

// Busy returns the number of workers currently running a task
func (wp *WorkerPool) Busy() int {
	return int(wp.busy.Load())
}

func (wp *WorkerPool) work() {
	defer wp.wg.Done()
	for {
		wp.mu.Lock()
		for len(wp.tasks) == 0 && !wp.stopped {
			wp.cond.Wait()
		}
		if len(wp.tasks) == 0 {
			wp.mu.Unlock()
			return
		}
		task := wp.tasks[0]
		wp.tasks[0] = nil
		wp.tasks = wp.tasks[1:]
		wp.mu.Unlock()

		wp.run(task)
	}
}

func (wp *WorkerPool) run(task func()) {
	wp.busy.Inc()
	defer func() {
		wp.busy.Dec()
		if r := recover(); r != nil && wp.panicHandler != nil {
			wp.panicHandler(r)
		}
	}()
	task()
}
