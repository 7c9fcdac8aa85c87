package server

import (
	"strconv"
	"sync"

	"github.com/KhangNguyen2005/SnakeGame/lineconn"
	"github.com/KhangNguyen2005/SnakeGame/logger"
	"github.com/KhangNguyen2005/SnakeGame/protocol"
)

// Session is one connected player from the server's point of view. The
// server runs handle on a dedicated goroutine; Send may be called from
// any goroutine (the engine broadcasts through it).
type Session struct {
	id   uint32
	conn *lineconn.Conn
	log  logger.Logger

	mu   sync.Mutex
	name string
}

func newSession(id uint32, conn *lineconn.Conn, log logger.Logger) *Session {
	return &Session{
		id:   id,
		conn: conn,
		log:  log.With(logger.Field{Key: "sessionId", Value: id}),
	}
}

// ID returns the server-assigned client id.
func (s *Session) ID() uint32 { return s.id }

// Name returns the player name captured during the handshake, or "" if
// the handshake has not completed.
func (s *Session) Name() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.name
}

// Send writes one line to this player. Sends on different sessions are
// independent; a slow player delays only its own writes.
func (s *Session) Send(line string) error {
	return s.conn.Send(line)
}

// Close tears the connection down, unblocking a pending read in handle.
// Idempotent.
func (s *Session) Close() error {
	return s.conn.Close()
}

// handle runs the session: handshake, then the command loop. All exit
// paths, including a handler panic, release the connection and notify the
// handler of the leave.
func (s *Session) handle(h Handler) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("session panicked", logger.Field{Key: "panic", Value: r})
		}
		_ = s.conn.Close()
	}()

	// Handshake: the client's first line is its display name; our first
	// line back is the assigned id.
	name, err := s.conn.ReadLine()
	if err != nil {
		s.log.Debug("client left before handshake", logger.Field{Key: "error", Value: err})
		return
	}

	s.mu.Lock()
	s.name = name
	s.mu.Unlock()

	if err := s.conn.Send(strconv.FormatUint(uint64(s.id), 10)); err != nil {
		s.log.Debug("handshake reply failed", logger.Field{Key: "error", Value: err})
		return
	}

	s.log.Info("player joined", logger.Field{Key: "name", Value: name})
	h.PlayerJoined(s, name)
	defer h.PlayerLeft(s.id)

	for s.conn.Connected() {
		line, err := s.conn.ReadLine()
		if err != nil {
			return
		}

		if line == "" {
			continue
		}

		dir, err := protocol.ParseMove(line)
		if err != nil {
			// one bad command never ends the session
			s.log.Debug("unparseable command", logger.Field{Key: "line", Value: line})
			continue
		}

		h.PlayerMoved(s.id, dir)
	}
}
