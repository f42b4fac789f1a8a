package parallel

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewWorkerPool(t *testing.T) {
	tests := []struct {
		name        string
		workers     int
		wantAtLeast int
	}{
		{name: "explicit count", workers: 4, wantAtLeast: 4},
		{name: "zero uses GOMAXPROCS", workers: 0, wantAtLeast: 1},
		{name: "negative uses GOMAXPROCS", workers: -1, wantAtLeast: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewWorkerPool(tt.workers)
			defer p.Close()

			if p.Workers() < tt.wantAtLeast {
				t.Errorf("Workers() = %d, want >= %d", p.Workers(), tt.wantAtLeast)
			}
			if !p.IsRunning() {
				t.Error("IsRunning() = false after creation")
			}
		})
	}
}

func TestWorkerPool_DispatchAndWait(t *testing.T) {
	p := NewWorkerPool(4)
	defer p.Close()

	var counter atomic.Int64
	const tasks = 100

	for i := 0; i < tasks; i++ {
		p.Dispatch(func() {
			counter.Add(1)
		})
	}
	p.WaitForAll()

	if got := counter.Load(); got != tasks {
		t.Errorf("completed tasks = %d, want %d", got, tasks)
	}
}

func TestWorkerPool_WaitForAllEmpty(t *testing.T) {
	p := NewWorkerPool(2)
	defer p.Close()

	// Must not block when nothing was dispatched.
	done := make(chan struct{})
	go func() {
		p.WaitForAll()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("WaitForAll blocked with no dispatched work")
	}
}

func TestWorkerPool_DispatchNil(t *testing.T) {
	p := NewWorkerPool(2)
	defer p.Close()

	p.Dispatch(nil) // must not panic or hang
	p.WaitForAll()
}

func TestWorkerPool_TasksRunConcurrently(t *testing.T) {
	p := NewWorkerPool(4)
	defer p.Close()

	var mu sync.Mutex
	inFlight := 0
	maxInFlight := 0

	var gate sync.WaitGroup
	gate.Add(4)

	for i := 0; i < 4; i++ {
		p.Dispatch(func() {
			mu.Lock()
			inFlight++
			if inFlight > maxInFlight {
				maxInFlight = inFlight
			}
			mu.Unlock()

			// Hold until all four tasks have started so overlap is forced.
			gate.Done()
			gate.Wait()

			mu.Lock()
			inFlight--
			mu.Unlock()
		})
	}
	p.WaitForAll()

	if maxInFlight != 4 {
		t.Errorf("max concurrent tasks = %d, want 4", maxInFlight)
	}
}

func TestWorkerPool_ReusedAcrossWaves(t *testing.T) {
	p := NewWorkerPool(3)
	defer p.Close()

	var counter atomic.Int64
	for wave := 0; wave < 5; wave++ {
		want := int64((wave + 1) * 10)
		for j := 0; j < 10; j++ {
			p.Dispatch(func() { counter.Add(1) })
		}
		p.WaitForAll()

		if got := counter.Load(); got != want {
			t.Fatalf("after wave %d: completed = %d, want %d", wave, got, want)
		}
	}
}

func TestWorkerPool_DispatchAfterClose(t *testing.T) {
	p := NewWorkerPool(2)
	p.Close()

	if p.IsRunning() {
		t.Error("IsRunning() = true after Close")
	}

	// Runs inline rather than being dropped.
	ran := false
	p.Dispatch(func() { ran = true })
	if !ran {
		t.Error("task dispatched after Close did not run inline")
	}
}

func TestWorkerPool_CloseIdempotent(t *testing.T) {
	p := NewWorkerPool(2)
	p.Close()
	p.Close() // must not panic
}
