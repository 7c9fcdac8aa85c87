// Package client implements the game client's session: connect and
// handshake, then a receive loop that folds server messages into a shared
// world while direction commands go out concurrently.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/KhangNguyen2005/SnakeGame/lineconn"
	"github.com/KhangNguyen2005/SnakeGame/logger"
	"github.com/KhangNguyen2005/SnakeGame/protocol"
	"github.com/KhangNguyen2005/SnakeGame/scorestore"
	"github.com/KhangNguyen2005/SnakeGame/world"
)

// Config holds the settings for one client session.
type Config struct {
	// Host and Port locate the game server.
	Host string
	Port int
	// PlayerName is sent as the first line of the handshake.
	PlayerName string
	// DialTimeout bounds the connection attempt; 0 means no timeout.
	DialTimeout time.Duration
}

// Addr returns the "host:port" the session dials.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Session drives one connection to the game server through the states
// Idle, Connecting, Handshaking, Streaming and finally Disconnected. No
// transition skips a state, and Disconnected is terminal; a Session is
// not reusable after it ends.
type Session struct {
	cfg   Config
	log   logger.Logger
	store scorestore.Store

	state stateVar
	done  chan error

	mu       sync.Mutex
	conn     *lineconn.Conn
	clientID int
	hasID    bool
	started  bool
	closed   bool
}

// NewSession creates an idle session. Pass scorestore.Nop() when score
// persistence is not wanted; pass logger.Nop() to silence logging.
func NewSession(cfg Config, store scorestore.Store, log logger.Logger) *Session {
	if store == nil {
		store = scorestore.Nop()
	}
	if log == nil {
		log = logger.Nop()
	}

	return &Session{
		cfg:   cfg,
		log:   log.With(logger.Field{Key: "addr", Value: cfg.Addr()}),
		store: store,
		done:  make(chan error, 1),
	}
}

// Start connects, handshakes and runs the receive loop against w, all on
// a background goroutine so the caller is never blocked. The terminal
// result is delivered on Done. Starting twice is an error.
func (s *Session) Start(w *world.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return errors.New("client: session already started")
	}
	if s.closed {
		return errors.New("client: session closed")
	}
	if w == nil {
		return errors.New("client: nil world")
	}

	s.started = true
	go s.run(w)

	return nil
}

// Done delivers the session's terminal result exactly once: nil after a
// clean disconnect, or the error that ended the session. Connect failures
// arrive here too; they are never retried automatically.
func (s *Session) Done() <-chan error {
	return s.done
}

// State returns the session's current lifecycle state.
func (s *Session) State() State {
	return s.state.get()
}

// ClientID returns the server-assigned id and whether the handshake has
// delivered one. The id is set exactly once and never changes afterwards.
func (s *Session) ClientID() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clientID, s.hasID
}

// SendMove sends a direction command. It may be called from any goroutine
// while the session is streaming. Commands are best-effort: on a dead or
// not-yet-established connection it logs and returns nil instead of
// failing, since direction commands are frequent and individually
// disposable. An invalid direction is a caller bug and is returned.
func (s *Session) SendMove(dir protocol.Direction) error {
	line, err := protocol.EncodeMove(dir)
	if err != nil {
		return err
	}

	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()

	if conn == nil || !conn.Connected() {
		s.log.Debug("move dropped, not connected", logger.Field{Key: "direction", Value: string(dir)})
		return nil
	}

	if err := conn.Send(line); err != nil {
		s.log.Warn("move send failed", logger.Field{Key: "error", Value: err})
	}

	return nil
}

// Close ends the session with bounded latency: it closes the connection,
// which unblocks the receive loop's pending read. Idempotent and safe to
// call in any state.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	conn := s.conn
	started := s.started
	s.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}

	if !started {
		s.state.set(StateDisconnected)
		s.done <- nil
	}

	return nil
}

// run is the session goroutine: connect, handshake, stream, clean up.
func (s *Session) run(w *world.State) {
	err := s.connect()
	if err == nil {
		err = s.handshake()
	}

	if err == nil {
		s.state.set(StateStreaming)
		s.receiveLoop(w)
	}

	s.finish(err)
}

// connect transitions Idle -> Connecting and dials the server. A failed
// dial is reported upward; there is no automatic retry.
func (s *Session) connect() error {
	s.state.set(StateConnecting)

	conn := lineconn.New(lineconn.Config{
		Address:     s.cfg.Addr(),
		DialTimeout: s.cfg.DialTimeout,
	})

	if err := conn.Connect(); err != nil {
		return fmt.Errorf("client: could not connect to %s: %w", s.cfg.Addr(), err)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		_ = conn.Close()
		return errors.New("client: session closed during connect")
	}
	s.conn = conn
	s.mu.Unlock()

	return nil
}

// handshake sends the player name as the very first line on the wire,
// then performs exactly one blocking read for the assigned client id. A
// non-numeric id line is logged but does not abort the session; the
// server has already admitted us at that point.
func (s *Session) handshake() error {
	s.state.set(StateHandshaking)

	if err := s.conn.Send(s.cfg.PlayerName); err != nil {
		return fmt.Errorf("client: handshake send: %w", err)
	}

	line, err := s.conn.ReadLine()
	if err != nil {
		return fmt.Errorf("client: handshake read: %w", err)
	}

	id, convErr := strconv.Atoi(strings.TrimSpace(line))
	if convErr != nil {
		s.log.Warn("handshake id not numeric, continuing",
			logger.Field{Key: "line", Value: line})
		return nil
	}

	s.mu.Lock()
	s.clientID = id
	s.hasID = true
	s.mu.Unlock()

	s.log.Info("handshake complete", logger.Field{Key: "clientId", Value: id})
	return nil
}

// receiveLoop reads one line per iteration and folds it into the world.
// Per-message failures are logged and swallowed; only the connection
// dying ends the loop.
func (s *Session) receiveLoop(w *world.State) {
	for s.conn.Connected() {
		line, err := s.conn.ReadLine()
		if err != nil {
			var re *lineconn.ReadError
			if errors.As(err, &re) && errors.Is(re.Err, io.EOF) {
				s.log.Info("server closed the stream")
			} else {
				s.log.Warn("receive failed", logger.Field{Key: "error", Value: err})
			}
			return
		}

		if line == "" {
			continue
		}

		s.apply(line, w)
	}
}

// apply classifies one line and mutates the world accordingly. Each
// mutation is one acquisition of the world's mutex; unknown lines are
// ignored and malformed ones logged, never fatal.
func (s *Session) apply(line string, w *world.State) {
	msg, err := protocol.Classify(line)
	if err != nil {
		if errors.Is(err, protocol.ErrUnknownMessage) {
			return
		}

		s.log.Warn("malformed message", logger.Field{Key: "error", Value: err})
		return
	}

	switch m := msg.(type) {
	case protocol.WorldSize:
		w.SetSize(m.Size)
	case protocol.SnakeUpdate:
		w.UpsertSnake(m.Snake)
		s.recordScore(m.Snake)
	case protocol.WallUpdate:
		w.UpsertWall(m.Wall)
	case protocol.PowerUpUpdate:
		w.ApplyPowerUp(m.PowerUp)
	}
}

// recordScore hands the snake's standing to the score store off the
// receive loop. Persistence is fire-and-forget; failures are logged and
// never reach the loop.
func (s *Session) recordScore(sn world.Snake) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		if err := s.store.RecordScore(ctx, sn.SnakeId, sn.Name, sn.Score); err != nil {
			s.log.Debug("score not persisted", logger.Field{Key: "error", Value: err})
		}
	}()
}

// finish transitions to the terminal state, records the leave time,
// closes the connection and delivers the session result.
func (s *Session) finish(err error) {
	s.mu.Lock()
	conn := s.conn
	id := s.clientID
	hasID := s.hasID
	s.mu.Unlock()

	if hasID {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if storeErr := s.store.RecordLeave(ctx, id, time.Now()); storeErr != nil {
			s.log.Debug("leave not persisted", logger.Field{Key: "error", Value: storeErr})
		}
		cancel()
	}

	if conn != nil {
		_ = conn.Close()
	}

	s.state.set(StateDisconnected)
	s.done <- err

	if err != nil {
		s.log.Error("session ended", logger.Field{Key: "error", Value: err})
	} else {
		s.log.Info("session ended")
	}
}
