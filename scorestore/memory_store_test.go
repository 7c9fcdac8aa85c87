package scorestore

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_RecordScore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	t.Run("stores a new player", func(t *testing.T) {
		require.NoError(t, s.RecordScore(ctx, 7, "Alice", 0))

		scores, err := s.TopScores(ctx, 10)
		require.NoError(t, err)
		require.Len(t, scores, 1)
		assert.Equal(t, Score{PlayerID: 7, Name: "Alice", Score: 0}, scores[0])
	})

	t.Run("last write wins per player", func(t *testing.T) {
		require.NoError(t, s.RecordScore(ctx, 7, "Alice", 5))

		scores, err := s.TopScores(ctx, 10)
		require.NoError(t, err)
		require.Len(t, scores, 1)
		assert.Equal(t, 5, scores[0].Score)
	})

	t.Run("cancelled context is an error", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		assert.Error(t, s.RecordScore(cancelled, 1, "x", 1))
	})
}

func TestMemoryStore_TopScores(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.RecordScore(ctx, 1, "low", 1))
	require.NoError(t, s.RecordScore(ctx, 2, "high", 9))
	require.NoError(t, s.RecordScore(ctx, 3, "mid", 4))

	t.Run("sorted descending", func(t *testing.T) {
		scores, err := s.TopScores(ctx, 10)
		require.NoError(t, err)
		require.Len(t, scores, 3)
		assert.Equal(t, []string{"high", "mid", "low"},
			[]string{scores[0].Name, scores[1].Name, scores[2].Name})
	})

	t.Run("limit truncates", func(t *testing.T) {
		scores, err := s.TopScores(ctx, 2)
		require.NoError(t, err)
		require.Len(t, scores, 2)
		assert.Equal(t, "high", scores[0].Name)
	})

	t.Run("concurrent reads agree", func(t *testing.T) {
		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				scores, err := s.TopScores(ctx, 10)
				assert.NoError(t, err)
				assert.Len(t, scores, 3)
			}()
		}
		wg.Wait()
	})
}

func TestMemoryStore_RecordLeave(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	t.Run("unknown player is a no-op", func(t *testing.T) {
		assert.NoError(t, s.RecordLeave(ctx, 99, time.Now()))
	})

	t.Run("leave does not disturb the score", func(t *testing.T) {
		require.NoError(t, s.RecordScore(ctx, 7, "Alice", 3))
		require.NoError(t, s.RecordLeave(ctx, 7, time.Now()))

		scores, err := s.TopScores(ctx, 10)
		require.NoError(t, err)
		require.Len(t, scores, 1)
		assert.Equal(t, 3, scores[0].Score)
	})
}

func TestNop(t *testing.T) {
	ctx := context.Background()
	s := Nop()

	assert.NoError(t, s.RecordScore(ctx, 1, "x", 1))
	assert.NoError(t, s.RecordLeave(ctx, 1, time.Now()))

	scores, err := s.TopScores(ctx, 10)
	assert.NoError(t, err)
	assert.Empty(t, scores)
}
