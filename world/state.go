// Package world holds the shared mutable game world. One State instance
// is written by the client's receive loop (or the server's engine) and
// read by whoever renders it; every access goes through the instance's
// single mutex.
package world

import "sync"

// State is the shared world aggregate: the square board dimensions plus
// all entities keyed by their own id field. All fields are guarded by one
// mutex per instance; there is no sub-field locking. The zero value is
// not usable, create instances with NewState.
type State struct {
	mu sync.Mutex

	width    int
	height   int
	snakes   map[int]Snake
	walls    map[int]Wall
	powerUps map[int]PowerUp
}

// NewState returns an empty world.
func NewState() *State {
	return &State{
		snakes:   make(map[int]Snake),
		walls:    make(map[int]Wall),
		powerUps: make(map[int]PowerUp),
	}
}

// SetSize sets both dimensions to n. The world is square; a single size
// announcement fixes width and height together.
func (s *State) SetSize(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.width = n
	s.height = n
}

// Size returns the current width and height.
func (s *State) Size() (width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width, s.height
}

// UpsertSnake inserts or replaces the snake keyed by its own SnakeId.
func (s *State) UpsertSnake(sn Snake) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snakes[sn.SnakeId] = sn.clone()
}

// RemoveSnake deletes the snake with the given id, if present.
func (s *State) RemoveSnake(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snakes, id)
}

// Snake returns the snake with the given id.
func (s *State) Snake(id int) (Snake, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sn, ok := s.snakes[id]
	if !ok {
		return Snake{}, false
	}
	return sn.clone(), true
}

// UpsertWall inserts or replaces the wall keyed by its own WallId.
func (s *State) UpsertWall(w Wall) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.walls[w.WallId] = w.clone()
}

// ApplyPowerUp folds one power-up record into the world. A record with
// IsActive set means the power-up was consumed: the entry under its
// PowerId is removed, not tombstoned. Otherwise the record is upserted.
func (s *State) ApplyPowerUp(p PowerUp) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.IsActive {
		delete(s.powerUps, p.PowerId)
		return
	}

	s.powerUps[p.PowerId] = p
}

// PowerUp returns the power-up with the given id.
func (s *State) PowerUp(id int) (PowerUp, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.powerUps[id]
	return p, ok
}

// Snapshot is a deep-copied, lock-free view of the world for rendering.
type Snapshot struct {
	Width    int
	Height   int
	Snakes   []Snake
	Walls    []Wall
	PowerUps []PowerUp
}

// Snapshot copies the world under a single short-lived lock acquisition.
// Renderers should call it once per frame instead of holding the world
// lock across a rendering pass.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Width:    s.width,
		Height:   s.height,
		Snakes:   make([]Snake, 0, len(s.snakes)),
		Walls:    make([]Wall, 0, len(s.walls)),
		PowerUps: make([]PowerUp, 0, len(s.powerUps)),
	}

	for _, sn := range s.snakes {
		snap.Snakes = append(snap.Snakes, sn.clone())
	}
	for _, w := range s.walls {
		snap.Walls = append(snap.Walls, w.clone())
	}
	for _, p := range s.powerUps {
		snap.PowerUps = append(snap.PowerUps, p)
	}

	return snap
}
