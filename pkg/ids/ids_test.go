package ids_test

import (
	"sync"
	"testing"

	"github.com/aretw0/dataflow/pkg/ids"
	"github.com/stretchr/testify/assert"
)

func TestAllocator_Sequences(t *testing.T) {
	a := ids.New()

	assert.Equal(t, 0, a.NextID())
	assert.Equal(t, 1, a.NextID())
	assert.Equal(t, 0, a.NextEdgeID(), "edge counter is independent")
	assert.Equal(t, 2, a.NextID())
	assert.Equal(t, 1, a.NextEdgeID())

	id, edge := a.Peek()
	assert.Equal(t, 3, id)
	assert.Equal(t, 2, edge)
}

func TestAllocator_ResetAndRestore(t *testing.T) {
	a := ids.New()
	for i := 0; i < 5; i++ {
		a.NextID()
		a.NextEdgeID()
	}

	a.Reset()
	assert.Equal(t, 0, a.NextID())
	assert.Equal(t, 0, a.NextEdgeID())

	a.Restore(10)
	assert.Equal(t, 10, a.NextID())

	// Restore never rewinds.
	a.Restore(3)
	assert.Equal(t, 11, a.NextID())
}

func TestAllocator_Concurrent(t *testing.T) {
	a := ids.New()
	const workers, perWorker = 8, 250

	var mu sync.Mutex
	seen := make(map[int]bool)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			local := make([]int, 0, perWorker)
			for i := 0; i < perWorker; i++ {
				local = append(local, a.NextID())
			}
			mu.Lock()
			defer mu.Unlock()
			for _, id := range local {
				seen[id] = true
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, workers*perWorker, "every identity must be unique")
	next, _ := a.Peek()
	assert.Equal(t, workers*perWorker, next)
}
