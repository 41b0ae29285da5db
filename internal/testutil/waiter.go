package testutil

import (
	"sync/atomic"
	"time"
)

// Waiter blocks a test until an expected number of async callbacks have
// resumed it.
type Waiter struct {
	count atomic.Int32
	done  chan struct{}
}

func NewWaiter() *Waiter {
	return &Waiter{
		done: make(chan struct{}),
	}
}

// AwaitWithTimeout blocks until Resume has been called expectedResumes
// times, panicking if the timeout elapses first. Resumes that arrive
// before the await are counted.
func (w *Waiter) AwaitWithTimeout(expectedResumes int, timeout time.Duration) {
	if w.count.Add(int32(expectedResumes)) <= 0 {
		return
	}
	timer := time.NewTimer(timeout)
	select {
	case <-timer.C:
		panic("timed out while waiting for a resume")
	case <-w.done:
		timer.Stop()
	}
}

func (w *Waiter) Resume() {
	if w.count.Add(-1) == 0 {
		close(w.done)
	}
}
