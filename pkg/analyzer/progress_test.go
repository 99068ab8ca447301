package analyzer

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tick struct {
	current, total int
	path           string
}

func TestTracker_AddAndTick(t *testing.T) {
	var (
		mu    sync.Mutex
		calls []tick
	)
	tracker := NewTracker(func(current, total int, path string) {
		mu.Lock()
		calls = append(calls, tick{current, total, path})
		mu.Unlock()
	})

	tracker.Add(3)
	tracker.Tick("A.swift")
	tracker.Tick("B.swift")
	tracker.Tick("C.swift")

	assert.Equal(t, 3, tracker.Total())
	assert.Equal(t, 3, tracker.Current())
	require.Len(t, calls, 3)
	assert.Equal(t, tick{1, 3, "A.swift"}, calls[0])
	assert.Equal(t, tick{3, 3, "C.swift"}, calls[2])
}

func TestTracker_SetTotalAndReset(t *testing.T) {
	tracker := NewTracker(nil)
	tracker.Add(5)
	assert.Equal(t, 5, tracker.Total())

	tracker.SetTotal(10)
	tracker.Tick("x.swift")
	assert.Equal(t, 10, tracker.Total())
	assert.Equal(t, 1, tracker.Current())

	tracker.Reset()
	assert.Zero(t, tracker.Total())
	assert.Zero(t, tracker.Current())
}

func TestTracker_Concurrent(t *testing.T) {
	tracker := NewTracker(nil)
	tracker.Add(200)

	var wg sync.WaitGroup
	for range 200 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tracker.Tick("f.swift")
		}()
	}
	wg.Wait()

	assert.Equal(t, 200, tracker.Current())
}

func TestTrackerContext(t *testing.T) {
	assert.Nil(t, TrackerFromContext(context.Background()))

	tracker := NewTracker(nil)
	ctx := WithTracker(context.Background(), tracker)
	assert.Same(t, tracker, TrackerFromContext(ctx))
}
