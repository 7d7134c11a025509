// Package wait implements a bounded wait on a predicate guarded by a mutex.
// It is the blocking primitive shared by the frame syncer, the device hub and
// the frame pool.
package wait

import (
	"errors"
	"sync"
	"time"
)

// Forever disables the deadline of WaitFor.
const Forever time.Duration = -1

var (
	// ErrTimeout is returned by WaitFor when the deadline expires first.
	ErrTimeout = errors.New("timeout")
	// ErrClosed is returned by WaitFor once Close has been called.
	ErrClosed = errors.New("closed")
)

// Cond is a mutex with a condition that can be waited on with a deadline.
// Unlike sync.Cond, waiters can give up after a timeout and are released for
// good by Close. The zero value is ready to use.
type Cond struct {
	mu     sync.Mutex
	wake   chan struct{} // closed and replaced on every Broadcast
	closed bool
}

func (c *Cond) Lock()         { c.mu.Lock() }
func (c *Cond) Unlock()       { c.mu.Unlock() }
func (c *Cond) TryLock() bool { return c.mu.TryLock() }

// Broadcast wakes every waiter so that it re-evaluates its predicate.
// The caller must hold the lock.
func (c *Cond) Broadcast() {
	if c.wake != nil {
		close(c.wake)
		c.wake = nil
	}
}

// Close releases every current and future waiter with ErrClosed, unless its
// predicate already holds. The caller must hold the lock.
func (c *Cond) Close() {
	c.closed = true
	c.Broadcast()
}

// Closed reports whether Close has been called. The caller must hold the lock.
func (c *Cond) Closed() bool {
	return c.closed
}

// WaitFor blocks until ready returns true, the timeout expires or the Cond is
// closed. ready is always evaluated with the lock held. The caller must hold
// the lock, which is held again when WaitFor returns. A negative timeout
// waits without deadline. Deadlines use the monotonic clock.
func (c *Cond) WaitFor(timeout time.Duration, ready func() bool) error {
	var deadline <-chan time.Time
	if timeout >= 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	for !ready() {
		if c.closed {
			return ErrClosed
		}

		if c.wake == nil {
			c.wake = make(chan struct{})
		}
		wake := c.wake

		c.mu.Unlock()
		select {
		case <-wake:
			c.mu.Lock()
		case <-deadline:
			c.mu.Lock()
			if ready() {
				return nil
			}
			if c.closed {
				return ErrClosed
			}
			return ErrTimeout
		}
	}

	return nil
}
