package idgenerator

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNext(t *testing.T) {
	t.Run("starts at start+1 and increases", func(t *testing.T) {
		g := New(0)
		assert.Equal(t, uint32(1), g.Next())
		assert.Equal(t, uint32(2), g.Next())
		assert.Equal(t, uint32(3), g.Next())
	})

	t.Run("honors non-zero start", func(t *testing.T) {
		g := New(100)
		assert.Equal(t, uint32(101), g.Next())
	})
}

func TestNext_Concurrent(t *testing.T) {
	g := New(0)
	const n = 200

	ids := make(chan uint32, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids <- g.Next()
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[uint32]bool, n)
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
	assert.Len(t, seen, n)
}
