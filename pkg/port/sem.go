package port

import (
	"time"

	"github.com/emberos/ember/pkg/types"
)

// Semaphore is a binary semaphore with millisecond-timeout take. It is the
// only blocking primitive the kernel hands to a task: release never blocks
// and is safe from any goroutine, so the bus can wake recipients while it
// holds the kernel lock.
type Semaphore struct {
	ch chan struct{}
}

// NewSemaphore creates an empty binary semaphore.
func NewSemaphore() *Semaphore {
	return &Semaphore{ch: make(chan struct{}, 1)}
}

// Release makes the semaphore available. Releasing an already-available
// semaphore is a no-op; the count never exceeds one.
func (s *Semaphore) Release() {
	select {
	case s.ch <- struct{}{}:
	default:
	}
}

// Take blocks until the semaphore is released or timeoutMS milliseconds
// elapse. types.Forever blocks without timeout. Returns false on timeout.
func (s *Semaphore) Take(timeoutMS uint32) bool {
	if timeoutMS == types.Forever {
		<-s.ch
		return true
	}

	timer := time.NewTimer(time.Duration(timeoutMS) * time.Millisecond)
	defer timer.Stop()

	select {
	case <-s.ch:
		return true
	case <-timer.C:
		return false
	}
}

// TryTake takes the semaphore only if it is immediately available.
func (s *Semaphore) TryTake() bool {
	select {
	case <-s.ch:
		return true
	default:
		return false
	}
}
