// Package server accepts TCP connections from game clients and dispatches
// each one to its own session goroutine. The server owns only the
// connection layer: handshake, command parsing, registry and broadcast;
// game rules live in the Handler it is given.
package server

import (
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"github.com/KhangNguyen2005/SnakeGame/idgenerator"
	"github.com/KhangNguyen2005/SnakeGame/lineconn"
	"github.com/KhangNguyen2005/SnakeGame/logger"
	"github.com/KhangNguyen2005/SnakeGame/protocol"
	"github.com/KhangNguyen2005/SnakeGame/safemap"
)

// Player is the handler's view of one connected client: its assigned id
// and a way to send it lines. *Session implements it.
type Player interface {
	ID() uint32
	Send(line string) error
}

// Handler receives the game-level events produced by client connections.
// Its methods are called from session goroutines and must be safe for
// concurrent use. PlayerJoined runs after the handshake, so the handler
// may immediately Send world state to the new player.
type Handler interface {
	PlayerJoined(p Player, name string)
	PlayerMoved(id uint32, dir protocol.Direction)
	PlayerLeft(id uint32)
}

// Config holds the server's settings, passed in at construction. There is
// no ambient global configuration.
type Config struct {
	// Addr is the "host:port" to listen on.
	Addr string
	// MaxConns caps concurrent connections; 0 means unlimited. Over-limit
	// accepts are closed immediately.
	MaxConns int
}

// GameServer binds a port, accepts clients in a loop, and runs one
// session goroutine per connection so a slow client can never block
// acceptance of the next one.
type GameServer struct {
	cfg     Config
	log     logger.Logger
	handler Handler

	listener net.Listener
	running  atomic.Bool
	sessions *safemap.SafeMap[uint32, *Session]
	ids      *idgenerator.IdGenerator
	wg       sync.WaitGroup
}

// New creates a stopped server. Call Start to begin accepting.
func New(cfg Config, handler Handler, log logger.Logger) *GameServer {
	if log == nil {
		log = logger.Nop()
	}

	return &GameServer{
		cfg:      cfg,
		log:      log,
		handler:  handler,
		sessions: safemap.New[uint32, *Session](),
		ids:      idgenerator.New(0),
	}
}

// Start binds the configured address and launches the accept loop in a
// goroutine. A bind failure is fatal and returned; the server stays
// stopped.
func (g *GameServer) Start() error {
	if g.running.Load() {
		return fmt.Errorf("server: already running")
	}

	ln, err := net.Listen("tcp", g.cfg.Addr)
	if err != nil {
		return fmt.Errorf("server: listen %s: %w", g.cfg.Addr, err)
	}

	g.listener = ln
	g.running.Store(true)

	g.log.Info("server started", logger.Field{Key: "addr", Value: ln.Addr().String()})
	go g.acceptLoop()

	return nil
}

// Addr returns the bound listen address, useful when Config.Addr asked
// for port 0.
func (g *GameServer) Addr() string {
	if g.listener == nil {
		return g.cfg.Addr
	}
	return g.listener.Addr().String()
}

// Stop closes the listener, ends every live session and waits for their
// goroutines to finish. Safe to call when not running.
func (g *GameServer) Stop() {
	if !g.running.CompareAndSwap(true, false) {
		return
	}

	if g.listener != nil {
		_ = g.listener.Close()
	}

	g.sessions.Range(func(_ uint32, s *Session) bool {
		_ = s.Close()
		return true
	})

	g.wg.Wait()
	g.log.Info("server stopped")
}

// SessionCount returns the number of live sessions.
func (g *GameServer) SessionCount() int {
	return g.sessions.Len()
}

// Session returns the live session with the given id.
func (g *GameServer) Session(id uint32) (*Session, bool) {
	return g.sessions.Get(id)
}

// Broadcast sends one line to every live session. A session whose send
// fails is closed and pruned; its read loop notices and runs the normal
// leave path. Broadcast never blocks on more than one session's write at
// a time and never fails the caller.
func (g *GameServer) Broadcast(line string) {
	g.sessions.Range(func(id uint32, s *Session) bool {
		if err := s.Send(line); err != nil {
			g.log.Debug("broadcast dropped dead session",
				logger.Field{Key: "sessionId", Value: id},
				logger.Field{Key: "error", Value: err})
			_ = s.Close()
			g.sessions.Delete(id)
		}
		return true
	})
}

// acceptLoop accepts until the server is stopped. Transient accept
// errors are logged and the loop continues; handler work always happens
// on the session goroutine, never here.
func (g *GameServer) acceptLoop() {
	for g.running.Load() {
		conn, err := g.listener.Accept()
		if err != nil {
			if !g.running.Load() {
				return
			}

			g.log.Error("accept failed", logger.Field{Key: "error", Value: err})
			continue
		}

		if g.cfg.MaxConns > 0 && g.sessions.Len() >= g.cfg.MaxConns {
			g.log.Warn("connection limit reached, rejecting",
				logger.Field{Key: "remote", Value: conn.RemoteAddr().String()},
				logger.Field{Key: "limit", Value: g.cfg.MaxConns})
			_ = conn.Close()
			continue
		}

		id := g.ids.Next()
		sess := newSession(id, lineconn.Adopt(conn), g.log)
		g.sessions.Set(id, sess)

		g.wg.Add(1)
		go func() {
			defer g.wg.Done()
			defer g.sessions.Delete(id)
			sess.handle(g.handler)
		}()
	}
}
