package world

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetSize(t *testing.T) {
	s := NewState()

	t.Run("sets both dimensions", func(t *testing.T) {
		s.SetSize(40)
		w, h := s.Size()
		assert.Equal(t, 40, w)
		assert.Equal(t, 40, h)
	})

	t.Run("overrides prior values", func(t *testing.T) {
		s.SetSize(25)
		w, h := s.Size()
		assert.Equal(t, 25, w)
		assert.Equal(t, 25, h)
	})
}

func TestUpsertSnake(t *testing.T) {
	s := NewState()

	t.Run("keyed by its own id", func(t *testing.T) {
		s.UpsertSnake(Snake{SnakeId: 7, Name: "Alice", Score: 0})
		sn, ok := s.Snake(7)
		require.True(t, ok)
		assert.Equal(t, "Alice", sn.Name)
	})

	t.Run("last write wins", func(t *testing.T) {
		s.UpsertSnake(Snake{SnakeId: 7, Name: "Alice", Score: 3})
		sn, ok := s.Snake(7)
		require.True(t, ok)
		assert.Equal(t, 3, sn.Score)
	})

	t.Run("stored snake is isolated from caller mutation", func(t *testing.T) {
		body := []Position{{X: 1, Y: 1}}
		s.UpsertSnake(Snake{SnakeId: 8, Positions: body})
		body[0] = Position{X: 9, Y: 9}

		sn, ok := s.Snake(8)
		require.True(t, ok)
		assert.Equal(t, Position{X: 1, Y: 1}, sn.Positions[0])
	})
}

func TestRemoveSnake(t *testing.T) {
	s := NewState()
	s.UpsertSnake(Snake{SnakeId: 1})

	s.RemoveSnake(1)
	_, ok := s.Snake(1)
	assert.False(t, ok)

	// removing an absent id is a no-op
	s.RemoveSnake(99)
}

func TestApplyPowerUp(t *testing.T) {
	t.Run("inactive record upserts", func(t *testing.T) {
		s := NewState()
		s.ApplyPowerUp(PowerUp{PowerId: 3, Position: Position{X: 2, Y: 2}})

		p, ok := s.PowerUp(3)
		require.True(t, ok)
		assert.Equal(t, Position{X: 2, Y: 2}, p.Position)
	})

	t.Run("active means consumed and removes the entry", func(t *testing.T) {
		s := NewState()
		s.ApplyPowerUp(PowerUp{PowerId: 3})
		s.ApplyPowerUp(PowerUp{PowerId: 3, IsActive: true})

		_, ok := s.PowerUp(3)
		assert.False(t, ok)
	})

	t.Run("removal of an absent id is a no-op", func(t *testing.T) {
		s := NewState()
		s.ApplyPowerUp(PowerUp{PowerId: 5, IsActive: true})
		_, ok := s.PowerUp(5)
		assert.False(t, ok)
	})

	t.Run("unrelated ids are untouched", func(t *testing.T) {
		s := NewState()
		s.ApplyPowerUp(PowerUp{PowerId: 1})
		s.ApplyPowerUp(PowerUp{PowerId: 2})
		s.ApplyPowerUp(PowerUp{PowerId: 1, IsActive: true})

		_, ok := s.PowerUp(1)
		assert.False(t, ok)
		_, ok = s.PowerUp(2)
		assert.True(t, ok)
	})
}

func TestSnapshot(t *testing.T) {
	s := NewState()
	s.SetSize(20)
	s.UpsertSnake(Snake{SnakeId: 1, Positions: []Position{{X: 3, Y: 4}}})
	s.UpsertWall(Wall{WallId: 2, Positions: []Position{{X: 0, Y: 0}}})
	s.ApplyPowerUp(PowerUp{PowerId: 3})

	snap := s.Snapshot()
	assert.Equal(t, 20, snap.Width)
	assert.Equal(t, 20, snap.Height)
	require.Len(t, snap.Snakes, 1)
	require.Len(t, snap.Walls, 1)
	require.Len(t, snap.PowerUps, 1)

	// mutating the snapshot must not leak into the world
	snap.Snakes[0].Positions[0] = Position{X: 9, Y: 9}
	sn, _ := s.Snake(1)
	assert.Equal(t, Position{X: 3, Y: 4}, sn.Positions[0])
}

func TestState_Concurrent(t *testing.T) {
	s := NewState()
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			s.UpsertSnake(Snake{SnakeId: n})
			s.ApplyPowerUp(PowerUp{PowerId: n})
			s.SetSize(n + 1)
			_ = s.Snapshot()
		}(i)
	}
	wg.Wait()

	snap := s.Snapshot()
	assert.Len(t, snap.Snakes, 20)
}
