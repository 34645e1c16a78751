package port

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/emberos/ember/pkg/types"
)

func TestSemaphoreReleaseThenTake(t *testing.T) {
	s := NewSemaphore()

	s.Release()
	assert.True(t, s.Take(10))
}

func TestSemaphoreTimeout(t *testing.T) {
	s := NewSemaphore()

	start := time.Now()
	assert.False(t, s.Take(20))
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestSemaphoreIsBinary(t *testing.T) {
	s := NewSemaphore()

	s.Release()
	s.Release()

	assert.True(t, s.TryTake())
	assert.False(t, s.TryTake(), "double release must not accumulate")
}

func TestSemaphoreForever(t *testing.T) {
	s := NewSemaphore()

	done := make(chan struct{})
	go func() {
		s.Take(types.Forever)
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	s.Release()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("forever take did not wake on release")
	}
}

func TestSemaphoreCrossGoroutineWake(t *testing.T) {
	s := NewSemaphore()

	go func() {
		time.Sleep(5 * time.Millisecond)
		s.Release()
	}()

	assert.True(t, s.Take(1000))
}

func TestMonotonicClock(t *testing.T) {
	c := NewMonotonicClock()

	a := c.Now()
	time.Sleep(5 * time.Millisecond)
	b := c.Now()
	assert.GreaterOrEqual(t, b, a)
}

func TestManualClock(t *testing.T) {
	c := NewManualClock()

	assert.Equal(t, uint32(0), c.Now())
	c.Advance(50)
	assert.Equal(t, uint32(50), c.Now())
	c.Set(1000)
	assert.Equal(t, uint32(1000), c.Now())
}
