// Package game is the server-side authoritative game loop: it owns the
// real world state, advances snakes on a fixed tick, hands out power-ups
// and broadcasts every delta to the connected clients. It plugs into the
// connection layer as its server.Handler.
package game

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/KhangNguyen2005/SnakeGame/logger"
	"github.com/KhangNguyen2005/SnakeGame/protocol"
	"github.com/KhangNguyen2005/SnakeGame/scorestore"
	"github.com/KhangNguyen2005/SnakeGame/server"
	"github.com/KhangNguyen2005/SnakeGame/world"
)

// Broadcaster delivers one wire line to every connected client. The game
// server implements it.
type Broadcaster interface {
	Broadcast(line string)
}

// Config holds the engine's settings.
type Config struct {
	// Size is the square board's edge length in cells.
	Size int
	// TickInterval is the time between world advances.
	TickInterval time.Duration
	// PowerUps is how many power-ups are kept on the board.
	PowerUps int
}

// DefaultConfig returns a 40-cell board ticking every 200ms with three
// power-ups in play.
func DefaultConfig() Config {
	return Config{
		Size:         40,
		TickInterval: 200 * time.Millisecond,
		PowerUps:     3,
	}
}

// Engine runs the game. All engine state sits behind one mutex; wire
// lines are captured under the lock and broadcast after it is released,
// so a slow client write never stalls the simulation.
type Engine struct {
	cfg   Config
	log   logger.Logger
	store scorestore.Store

	mu          sync.Mutex
	broadcaster Broadcaster
	world       *world.State
	dirs        map[uint32]protocol.Direction
	nextPowerID int
	rng         *rand.Rand

	stop    chan struct{}
	wg      sync.WaitGroup
	started bool
}

// NewEngine creates a stopped engine. Attach the broadcaster and call Run
// before accepting players.
func NewEngine(cfg Config, store scorestore.Store, log logger.Logger) *Engine {
	if store == nil {
		store = scorestore.Nop()
	}
	if log == nil {
		log = logger.Nop()
	}

	e := &Engine{
		cfg:   cfg,
		log:   log,
		store: store,
		world: world.NewState(),
		dirs:  make(map[uint32]protocol.Direction),
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
		stop:  make(chan struct{}),
	}

	e.world.SetSize(cfg.Size)
	e.buildWalls()
	for i := 0; i < cfg.PowerUps; i++ {
		e.spawnPowerUpLocked()
	}

	return e
}

// AttachBroadcaster wires the engine to the connection layer. Must be
// called before Run; the server and engine reference each other, so they
// are constructed first and attached second.
func (e *Engine) AttachBroadcaster(b Broadcaster) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.broadcaster = b
}

// Run starts the tick loop. Stop ends it.
func (e *Engine) Run() {
	e.mu.Lock()
	if e.started {
		e.mu.Unlock()
		return
	}
	e.started = true
	e.mu.Unlock()

	e.wg.Add(1)
	go e.tickLoop()
}

// Stop ends the tick loop and waits for it.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.started {
		e.mu.Unlock()
		return
	}
	e.started = false
	e.mu.Unlock()

	close(e.stop)
	e.wg.Wait()
}

// World exposes the authoritative world, e.g. for a local scoreboard.
func (e *Engine) World() *world.State {
	return e.world
}

// PlayerJoined implements server.Handler. It spawns the new snake, replays
// the current world to the joining player, and announces the snake to
// everyone else.
func (e *Engine) PlayerJoined(p server.Player, name string) {
	e.mu.Lock()

	sn := world.Snake{
		SnakeId:   int(p.ID()),
		Name:      name,
		Score:     0,
		Direction: string(protocol.Right),
		Positions: []world.Position{e.randomFreeCellLocked()},
	}
	e.world.UpsertSnake(sn)
	e.dirs[p.ID()] = protocol.Right

	replay := e.replayLinesLocked()
	announce := e.snakeLinesLocked(sn.SnakeId)
	e.mu.Unlock()

	for _, line := range replay {
		if err := p.Send(line); err != nil {
			e.log.Debug("replay aborted", logger.Field{Key: "error", Value: err})
			return
		}
	}

	e.broadcast(announce)
	e.persistScore(sn)
}

// PlayerMoved implements server.Handler. The direction takes effect on
// the next tick.
func (e *Engine) PlayerMoved(id uint32, dir protocol.Direction) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.dirs[id]; !ok {
		return
	}

	e.dirs[id] = dir
}

// PlayerLeft implements server.Handler. The snake is dropped from the
// world and the leave time persisted; nothing is broadcast for a leave.
func (e *Engine) PlayerLeft(id uint32) {
	e.mu.Lock()
	sn, ok := e.world.Snake(int(id))
	e.world.RemoveSnake(int(id))
	delete(e.dirs, id)
	e.mu.Unlock()

	if !ok {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		if err := e.store.RecordScore(ctx, sn.SnakeId, sn.Name, sn.Score); err != nil {
			e.log.Debug("final score not persisted", logger.Field{Key: "error", Value: err})
		}
		if err := e.store.RecordLeave(ctx, sn.SnakeId, time.Now()); err != nil {
			e.log.Debug("leave not persisted", logger.Field{Key: "error", Value: err})
		}
	}()
}

func (e *Engine) tickLoop() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-e.stop:
			return
		case <-ticker.C:
			e.Tick()
		}
	}
}

// Tick advances every snake one cell and resolves power-up pickups. It is
// exported so tests can drive the simulation deterministically.
func (e *Engine) Tick() {
	e.mu.Lock()
	var lines []string

	snap := e.world.Snapshot()
	for _, sn := range snap.Snakes {
		dir, ok := e.dirs[uint32(sn.SnakeId)]
		if !ok || len(sn.Positions) == 0 {
			continue
		}

		next := e.step(sn.Positions[0], dir)
		if e.isWallLocked(next, snap.Walls) {
			continue
		}

		grew := false
		for _, p := range snap.PowerUps {
			if p.Position == next {
				grew = true
				sn.Score++

				consumed := p
				consumed.IsActive = true
				if line, err := protocol.EncodePowerUp(consumed); err == nil {
					lines = append(lines, line)
				}
				e.world.ApplyPowerUp(consumed)

				lines = append(lines, e.spawnPowerUpLocked()...)
				break
			}
		}

		body := append([]world.Position{next}, sn.Positions...)
		if !grew && len(body) > 1 {
			body = body[:len(body)-1]
		}
		sn.Positions = body
		sn.Direction = string(dir)
		e.world.UpsertSnake(sn)

		if line, err := protocol.EncodeSnake(sn); err == nil {
			lines = append(lines, line)
		}

		if grew {
			// launches its own goroutine, safe to call under e.mu
			e.persistScore(sn)
		}
	}
	e.mu.Unlock()

	e.broadcast(lines)
}

// step moves one cell in dir, wrapping at the board edges.
func (e *Engine) step(p world.Position, dir protocol.Direction) world.Position {
	switch dir {
	case protocol.Up:
		p.Y--
	case protocol.Down:
		p.Y++
	case protocol.Left:
		p.X--
	case protocol.Right:
		p.X++
	}

	p.X = (p.X + e.cfg.Size) % e.cfg.Size
	p.Y = (p.Y + e.cfg.Size) % e.cfg.Size
	return p
}

func (e *Engine) isWallLocked(p world.Position, walls []world.Wall) bool {
	for _, w := range walls {
		for _, cell := range w.Positions {
			if cell == p {
				return true
			}
		}
	}
	return false
}

// buildWalls places the border walls: one wall entity per board edge.
func (e *Engine) buildWalls() {
	n := e.cfg.Size
	top := world.Wall{WallId: 1}
	bottom := world.Wall{WallId: 2}
	left := world.Wall{WallId: 3}
	right := world.Wall{WallId: 4}

	for i := 0; i < n; i++ {
		top.Positions = append(top.Positions, world.Position{X: i, Y: 0})
		bottom.Positions = append(bottom.Positions, world.Position{X: i, Y: n - 1})
		left.Positions = append(left.Positions, world.Position{X: 0, Y: i})
		right.Positions = append(right.Positions, world.Position{X: n - 1, Y: i})
	}

	for _, w := range []world.Wall{top, bottom, left, right} {
		e.world.UpsertWall(w)
	}
}

// spawnPowerUpLocked places a fresh power-up on a free cell and returns
// its announcement line. Caller holds e.mu.
func (e *Engine) spawnPowerUpLocked() []string {
	e.nextPowerID++
	p := world.PowerUp{
		PowerId:  e.nextPowerID,
		Position: e.randomFreeCellLocked(),
	}
	e.world.ApplyPowerUp(p)

	line, err := protocol.EncodePowerUp(p)
	if err != nil {
		return nil
	}

	return []string{line}
}

// randomFreeCellLocked picks a random interior cell not covered by a wall
// or snake. Caller holds e.mu.
func (e *Engine) randomFreeCellLocked() world.Position {
	snap := e.world.Snapshot()

	for attempts := 0; attempts < 100; attempts++ {
		p := world.Position{
			X: 1 + e.rng.Intn(e.cfg.Size-2),
			Y: 1 + e.rng.Intn(e.cfg.Size-2),
		}

		if e.isWallLocked(p, snap.Walls) {
			continue
		}

		occupied := false
		for _, sn := range snap.Snakes {
			for _, cell := range sn.Positions {
				if cell == p {
					occupied = true
					break
				}
			}
		}

		if !occupied {
			return p
		}
	}

	return world.Position{X: e.cfg.Size / 2, Y: e.cfg.Size / 2}
}

// replayLinesLocked renders the full current world for a joining client:
// size first, then walls, power-ups and snakes. Caller holds e.mu.
func (e *Engine) replayLinesLocked() []string {
	snap := e.world.Snapshot()
	lines := []string{protocol.EncodeWorldSize(snap.Width)}

	for _, w := range snap.Walls {
		if line, err := protocol.EncodeWall(w); err == nil {
			lines = append(lines, line)
		}
	}
	for _, p := range snap.PowerUps {
		if line, err := protocol.EncodePowerUp(p); err == nil {
			lines = append(lines, line)
		}
	}
	for _, sn := range snap.Snakes {
		if line, err := protocol.EncodeSnake(sn); err == nil {
			lines = append(lines, line)
		}
	}

	return lines
}

// snakeLinesLocked renders one snake's current record. Caller holds e.mu.
func (e *Engine) snakeLinesLocked(id int) []string {
	sn, ok := e.world.Snake(id)
	if !ok {
		return nil
	}

	line, err := protocol.EncodeSnake(sn)
	if err != nil {
		return nil
	}

	return []string{line}
}

// broadcast ships captured lines outside the engine lock.
func (e *Engine) broadcast(lines []string) {
	e.mu.Lock()
	b := e.broadcaster
	e.mu.Unlock()

	if b == nil {
		return
	}

	for _, line := range lines {
		b.Broadcast(line)
	}
}

// persistScore records a snake's standing off the game loop, best-effort.
func (e *Engine) persistScore(sn world.Snake) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		if err := e.store.RecordScore(ctx, sn.SnakeId, sn.Name, sn.Score); err != nil {
			e.log.Debug("score not persisted", logger.Field{Key: "error", Value: err})
		}
	}()
}
