package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// WorkerPool is a fork-join pool of goroutines for parallel command
// recording.
//
// The pool distributes work items across multiple workers, each with their
// own queue. Workers can steal work from other workers when their own queue
// is empty. This helps balance load when some passes are slower to record
// than others.
//
// The pool satisfies the frame graph's two-call scheduler contract:
// Dispatch submits a task, WaitForAll blocks until every dispatched task
// has finished. Dispatch and WaitForAll must not be called concurrently
// with each other; the frame graph only ever calls them from the single
// goroutine driving Execute.
type WorkerPool struct {
	// workers is the number of worker goroutines.
	workers int

	// workQueues holds per-worker work queues.
	// Each worker primarily pulls from its own queue but can steal from others.
	workQueues []chan func()

	// done signals workers to stop.
	done chan struct{}

	// wg waits for all workers to finish.
	wg sync.WaitGroup

	// pending tracks dispatched-but-unfinished tasks for WaitForAll.
	pending sync.WaitGroup

	// running indicates whether the pool is accepting work.
	running atomic.Bool

	// next is the round-robin cursor for queue selection.
	next atomic.Uint64

	// queueSize is the buffer size for each worker's queue.
	queueSize int
}

// NewWorkerPool creates a new worker pool with the specified number of workers.
// If workers is 0 or negative, GOMAXPROCS is used.
// The pool starts immediately and workers begin waiting for work.
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	// Buffer size: 2-4x workers helps hide latency
	queueSize := workers * 4
	if queueSize < 8 {
		queueSize = 8
	}

	p := &WorkerPool{
		workers:    workers,
		workQueues: make([]chan func(), workers),
		done:       make(chan struct{}),
		queueSize:  queueSize,
	}

	for i := 0; i < workers; i++ {
		p.workQueues[i] = make(chan func(), queueSize)
	}

	p.running.Store(true)

	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker(i)
	}

	return p
}

// worker is the main loop for each worker goroutine.
func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()

	myQueue := p.workQueues[id]

	for {
		select {
		case <-p.done:
			// Drain remaining work before exiting
			p.drainQueue(myQueue)
			return

		case work := <-myQueue:
			if work != nil {
				work()
			}

		default:
			// Try to steal work from another worker
			if stolen := p.steal(id); stolen != nil {
				stolen()
			} else {
				// No work available anywhere, block on own queue
				select {
				case <-p.done:
					p.drainQueue(myQueue)
					return
				case work := <-myQueue:
					if work != nil {
						work()
					}
				}
			}
		}
	}
}

// drainQueue executes all remaining work in a queue.
func (p *WorkerPool) drainQueue(queue chan func()) {
	for {
		select {
		case work := <-queue:
			if work != nil {
				work()
			}
		default:
			return
		}
	}
}

// steal attempts to take work from another worker's queue.
// Returns nil if no work is available.
func (p *WorkerPool) steal(myID int) func() {
	for i := 0; i < p.workers; i++ {
		if i == myID {
			continue
		}

		select {
		case work := <-p.workQueues[i]:
			return work
		default:
			// Queue is empty, try next
		}
	}
	return nil
}

// Dispatch submits a single task to the pool. The task runs on some
// worker goroutine; completion is observed via WaitForAll.
// If the pool is closed, the task runs inline on the caller so that no
// dispatched work is ever silently dropped.
func (p *WorkerPool) Dispatch(fn func()) {
	if fn == nil {
		return
	}
	if !p.running.Load() {
		fn()
		return
	}

	p.pending.Add(1)
	wrapped := func() {
		defer p.pending.Done()
		fn()
	}

	// Round-robin keeps sibling tasks on distinct workers; stealing
	// rebalances the rest.
	id := int(p.next.Add(1)-1) % p.workers

	select {
	case p.workQueues[id] <- wrapped:
	case <-p.done:
		// Pool closed mid-dispatch, run inline.
		wrapped()
	}
}

// WaitForAll blocks until every task dispatched so far has completed.
func (p *WorkerPool) WaitForAll() {
	p.pending.Wait()
}

// Close gracefully shuts down the pool.
// It stops accepting new work, waits for all queued work to complete,
// and then stops all workers.
// Close is safe to call multiple times.
func (p *WorkerPool) Close() {
	if !p.running.CompareAndSwap(true, false) {
		// Already closed
		return
	}

	close(p.done)
	p.wg.Wait()
}

// Workers returns the number of workers in the pool.
func (p *WorkerPool) Workers() int {
	return p.workers
}

// IsRunning returns true if the pool is still accepting work.
func (p *WorkerPool) IsRunning() bool {
	return p.running.Load()
}
