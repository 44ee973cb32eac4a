package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStepClock_StartsAtStart(t *testing.T) {
	clock := NewStepClock(Epoch, time.Minute)
	assert.Equal(t, Epoch, clock.Now())
}

func TestStepClock_AdvancesByStep(t *testing.T) {
	clock := NewStepClock(Epoch, time.Minute)

	first := clock.Now()
	second := clock.Now()
	third := clock.Now()

	assert.Equal(t, time.Minute, second.Sub(first))
	assert.Equal(t, time.Minute, third.Sub(second))
	assert.Equal(t, Epoch.Add(3*time.Minute), clock.Peek())
}

func TestStepClock_ZeroStepFreezes(t *testing.T) {
	clock := NewStepClock(Epoch, 0)
	assert.Equal(t, clock.Now(), clock.Now())
}

func TestStepClock_Reset(t *testing.T) {
	clock := NewStepClock(Epoch, time.Second)
	clock.Now()
	clock.Now()

	clock.Reset()
	assert.Equal(t, Epoch, clock.Now())
}

func TestStepClock_ThreadSafe(t *testing.T) {
	clock := NewStepClock(Epoch, time.Second)
	const numGoroutines = 50
	const callsPerGoroutine = 20

	var wg sync.WaitGroup
	seen := make(chan time.Time, numGoroutines*callsPerGoroutine)
	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < callsPerGoroutine; j++ {
				seen <- clock.Now()
			}
		}()
	}
	wg.Wait()
	close(seen)

	unique := map[time.Time]bool{}
	for ts := range seen {
		unique[ts] = true
	}
	assert.Len(t, unique, numGoroutines*callsPerGoroutine, "every call returns a distinct time")
}
