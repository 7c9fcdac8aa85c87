// Package lineconn wraps a TCP socket with line-oriented send and receive.
// Each logical message is one newline-terminated UTF-8 text line; there is
// no other framing. A Conn is safe for one concurrent reader plus any
// number of concurrent senders.
package lineconn

import (
	"bufio"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"
)

// Config holds the settings for an outbound connection.
type Config struct {
	// Address is the "host:port" to connect to.
	Address string
	// DialTimeout bounds the connection attempt; 0 means no timeout.
	DialTimeout time.Duration
}

// DefaultConfig returns a Config for the given address with a 10 second
// dial timeout.
func DefaultConfig(address string) Config {
	return Config{
		Address:     address,
		DialTimeout: 10 * time.Second,
	}
}

// Conn is a line-framed connection over one TCP socket. Create an
// outbound Conn with New followed by Connect, or adopt a server-accepted
// socket with Adopt.
//
// Within one Conn, sends are strictly ordered relative to each other and
// reads are strictly ordered relative to each other; the read and write
// paths run independently and may interleave on the wire.
type Conn struct {
	cfg Config

	mu        sync.Mutex // guards conn, r, w, connected
	conn      net.Conn
	r         *bufio.Reader
	w         *bufio.Writer
	connected bool

	readMu  sync.Mutex // serializes ReadLine calls
	writeMu sync.Mutex // serializes Send calls
}

// New returns an unconnected Conn for the given config. Call Connect to
// establish the connection.
func New(cfg Config) *Conn {
	return &Conn{cfg: cfg}
}

// Adopt wraps an already-open socket, typically one returned by a
// listener's Accept. The Conn starts connected.
func Adopt(nc net.Conn) *Conn {
	return &Conn{
		conn:      nc,
		r:         bufio.NewReader(nc),
		w:         bufio.NewWriter(nc),
		connected: true,
	}
}

// Connect dials the configured address. On failure the Conn remains
// unconnected, holds no resources, and the attempt is reported as a
// *ConnectError; Connect never retries.
func (c *Conn) Connect() error {
	c.mu.Lock()
	if c.connected {
		c.mu.Unlock()
		return ErrAlreadyConnected
	}
	c.mu.Unlock()

	dialer := net.Dialer{Timeout: c.cfg.DialTimeout}
	nc, err := dialer.Dial("tcp", c.cfg.Address)
	if err != nil {
		return &ConnectError{Address: c.cfg.Address, Err: err}
	}

	c.mu.Lock()
	c.conn = nc
	c.r = bufio.NewReader(nc)
	c.w = bufio.NewWriter(nc)
	c.connected = true
	c.mu.Unlock()

	return nil
}

// Connected reports whether the connection is established. It is the
// single source of truth consulted before every send and receive, and
// becomes false once the peer closes the stream or an I/O error occurs.
func (c *Conn) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// RemoteAddr returns the peer address, or "" when unconnected.
func (c *Conn) RemoteAddr() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return ""
	}

	return c.conn.RemoteAddr().String()
}

// Send writes line followed by exactly one newline and flushes before
// returning, so every call is one discrete, fully-delivered wire write.
// Sending on an unconnected Conn returns ErrNotConnected; a line with an
// embedded newline returns ErrEmbeddedNewline and writes nothing.
func (c *Conn) Send(line string) error {
	if strings.ContainsRune(line, '\n') {
		return ErrEmbeddedNewline
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.mu.Lock()
	if !c.connected {
		c.mu.Unlock()
		return ErrNotConnected
	}
	w := c.w
	c.mu.Unlock()

	if _, err := w.WriteString(line + "\n"); err != nil {
		c.markDisconnected()
		return fmt.Errorf("lineconn: write: %w", err)
	}

	if err := w.Flush(); err != nil {
		c.markDisconnected()
		return fmt.Errorf("lineconn: flush: %w", err)
	}

	return nil
}

// ReadLine blocks until a full line is available and returns it without
// its terminator. An empty line is returned as ("", nil) and means "no
// message this cycle". End of stream or any other I/O failure marks the
// Conn disconnected and returns a *ReadError, fatal for this connection.
func (c *Conn) ReadLine() (string, error) {
	c.readMu.Lock()
	defer c.readMu.Unlock()

	c.mu.Lock()
	if !c.connected {
		c.mu.Unlock()
		return "", ErrNotConnected
	}
	r := c.r
	c.mu.Unlock()

	line, err := r.ReadString('\n')
	if err != nil {
		c.markDisconnected()
		return "", &ReadError{Err: err}
	}

	return strings.TrimRight(line, "\r\n"), nil
}

// Close releases the socket. It is idempotent and safe to call on a Conn
// that never connected; close-time failures are returned, never panicked.
// Send flushes every line, so there is nothing buffered to lose at close
// time.
func (c *Conn) Close() error {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.r = nil
	c.w = nil
	c.connected = false
	c.mu.Unlock()

	if conn == nil {
		return nil
	}

	return conn.Close()
}

// markDisconnected flips the connected flag after a fatal I/O error so
// the next Connected() check reports the dead stream.
func (c *Conn) markDisconnected() {
	c.mu.Lock()
	c.connected = false
	c.mu.Unlock()
}
