// Package waiter lets poll requests suspend until their run has new data or a
// bounded timeout elapses.
package waiter

import (
	"context"
	"sync"
	"time"

	"github.com/xiaot623/gogo/debatebridge/internal/domain"
)

// ReadyFunc reports whether a wait should resolve without suspending.
type ReadyFunc func() bool

type waiter struct {
	ch chan struct{}
}

// Coordinator tracks suspended waiters per run id.
type Coordinator struct {
	mu      sync.Mutex
	waiters map[string][]*waiter
}

// NewCoordinator creates an empty coordinator.
func NewCoordinator() *Coordinator {
	return &Coordinator{
		waiters: make(map[string][]*waiter),
	}
}

// Wait suspends until runID is notified, timeout elapses or ctx is done,
// whichever happens first. If ready reports true the call returns at once.
//
// The waiter is registered before ready is consulted, so a notification that
// races with the check still wakes this call.
func (c *Coordinator) Wait(ctx context.Context, runID string, timeout time.Duration, ready ReadyFunc) domain.WaitOutcome {
	w := &waiter{ch: make(chan struct{})}
	c.register(runID, w)

	if ready == nil || ready() {
		c.remove(runID, w)
		return domain.WaitOutcomeImmediate
	}
	if timeout <= 0 {
		c.remove(runID, w)
		return domain.WaitOutcomeTimedOut
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-w.ch:
		return domain.WaitOutcomeNotified
	case <-timer.C:
		c.remove(runID, w)
		return domain.WaitOutcomeTimedOut
	case <-ctx.Done():
		c.remove(runID, w)
		return domain.WaitOutcomeCanceled
	}
}

// Notify wakes every waiter registered for runID. The registration list is
// detached before any waiter is released.
func (c *Coordinator) Notify(runID string) {
	c.mu.Lock()
	ws := c.waiters[runID]
	delete(c.waiters, runID)
	c.mu.Unlock()

	for _, w := range ws {
		close(w.ch)
	}
}

// Pending returns the number of waiters registered for runID.
func (c *Coordinator) Pending(runID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.waiters[runID])
}

func (c *Coordinator) register(runID string, w *waiter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.waiters[runID] = append(c.waiters[runID], w)
}

// remove deregisters w; it is a no-op if Notify already detached it.
func (c *Coordinator) remove(runID string, w *waiter) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ws := c.waiters[runID]
	for i, candidate := range ws {
		if candidate == w {
			ws = append(ws[:i:i], ws[i+1:]...)
			break
		}
	}
	if len(ws) == 0 {
		delete(c.waiters, runID)
	} else {
		c.waiters[runID] = ws
	}
}
