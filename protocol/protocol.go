// Package protocol defines the line-level wire messages exchanged between
// the game server and its clients, and the classification of incoming
// lines into a closed set of typed variants. Classification is pure; it
// never touches a socket.
//
// Server to client, each on its own line: a bare decimal integer
// announcing the (square) world size, or a JSON object carrying exactly
// one of the discriminating keys "snake", "wall" or "power". Client to
// server: {"moving":"<direction>"}.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/KhangNguyen2005/SnakeGame/world"
)

// ErrUnknownMessage is returned by Classify for a line that matches no
// message kind. Receivers ignore such lines; this is not a failure.
var ErrUnknownMessage = errors.New("protocol: unknown message")

// ParseError reports a line that matched a message kind but could not be
// decoded. A single malformed message never terminates a session; callers
// log it and continue with the next line.
type ParseError struct {
	Line string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("protocol: parse %q: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Message is one server-to-client wire message. The concrete types form a
// closed set: WorldSize, SnakeUpdate, WallUpdate, PowerUpUpdate.
type Message interface {
	isMessage()
}

// WorldSize announces the board dimensions. The world is square, so one
// value fixes both width and height.
type WorldSize struct {
	Size int
}

// SnakeUpdate carries the full current record of one snake.
type SnakeUpdate struct {
	Snake world.Snake
}

// WallUpdate carries the full current record of one wall.
type WallUpdate struct {
	Wall world.Wall
}

// PowerUpUpdate carries one power-up record. See world.PowerUp for the
// inverted meaning of its IsActive flag.
type PowerUpUpdate struct {
	PowerUp world.PowerUp
}

func (WorldSize) isMessage()     {}
func (SnakeUpdate) isMessage()   {}
func (WallUpdate) isMessage()    {}
func (PowerUpUpdate) isMessage() {}

// envelope mirrors the discriminating top-level keys of the JSON payloads.
type envelope struct {
	Snake *world.Snake   `json:"snake,omitempty"`
	Wall  *world.Wall    `json:"wall,omitempty"`
	Power *world.PowerUp `json:"power,omitempty"`
}

// Classify decodes one received line into a Message. The kinds are tried
// in a fixed priority order: bare integer, then snake, wall and power
// keys. A line that matches no kind yields ErrUnknownMessage; a matching
// line with a broken payload yields a *ParseError.
func Classify(line string) (Message, error) {
	trimmed := strings.TrimSpace(line)

	if n, err := strconv.Atoi(trimmed); err == nil {
		return WorldSize{Size: n}, nil
	}

	if !strings.HasPrefix(trimmed, "{") {
		return nil, ErrUnknownMessage
	}

	var env envelope
	if err := json.Unmarshal([]byte(trimmed), &env); err != nil {
		return nil, &ParseError{Line: line, Err: err}
	}

	switch {
	case env.Snake != nil:
		return SnakeUpdate{Snake: *env.Snake}, nil
	case env.Wall != nil:
		return WallUpdate{Wall: *env.Wall}, nil
	case env.Power != nil:
		return PowerUpUpdate{PowerUp: *env.Power}, nil
	default:
		return nil, ErrUnknownMessage
	}
}

// EncodeWorldSize renders the world-size announcement line.
func EncodeWorldSize(size int) string {
	return strconv.Itoa(size)
}

// EncodeSnake renders one snake record as its wire line.
func EncodeSnake(s world.Snake) (string, error) {
	return encodeTagged(envelope{Snake: &s})
}

// EncodeWall renders one wall record as its wire line.
func EncodeWall(w world.Wall) (string, error) {
	return encodeTagged(envelope{Wall: &w})
}

// EncodePowerUp renders one power-up record as its wire line.
func EncodePowerUp(p world.PowerUp) (string, error) {
	return encodeTagged(envelope{Power: &p})
}

func encodeTagged(env envelope) (string, error) {
	b, err := json.Marshal(env)
	if err != nil {
		return "", fmt.Errorf("protocol: encode: %w", err)
	}

	return string(b), nil
}
