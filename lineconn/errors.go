package lineconn

import (
	"errors"
	"fmt"
)

// ErrNotConnected is returned by Send and ReadLine when the connection is
// not established. Callers can distinguish "nothing sent because
// disconnected" from a wire failure.
var ErrNotConnected = errors.New("lineconn: not connected")

// ErrAlreadyConnected is returned by Connect when the connection is
// already established.
var ErrAlreadyConnected = errors.New("lineconn: already connected")

// ErrEmbeddedNewline is returned by Send when the line contains a newline
// character. The receiver treats each line as one message, so multi-line
// payloads are forbidden.
var ErrEmbeddedNewline = errors.New("lineconn: line contains embedded newline")

// ConnectError reports a failed connection attempt. The attempt is not
// retried; the connection stays unconnected.
type ConnectError struct {
	Address string
	Err     error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("lineconn: connect %s: %v", e.Address, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// ReadError reports an I/O failure while reading from an established
// connection. It is fatal for that connection; callers must not retry on
// the same socket. The wrapped error is io.EOF when the peer closed the
// stream.
type ReadError struct {
	Err error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("lineconn: read: %v", e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }
