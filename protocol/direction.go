package protocol

import (
	"encoding/json"
	"fmt"
)

// Direction is a movement command value.
type Direction string

const (
	Up    Direction = "up"
	Down  Direction = "down"
	Left  Direction = "left"
	Right Direction = "right"
)

// Valid reports whether d is one of the four movement directions.
func (d Direction) Valid() bool {
	switch d {
	case Up, Down, Left, Right:
		return true
	}
	return false
}

// moveCommand is the client-to-server command payload.
type moveCommand struct {
	Moving Direction `json:"moving"`
}

// EncodeMove renders a direction command as its wire line.
func EncodeMove(d Direction) (string, error) {
	if !d.Valid() {
		return "", fmt.Errorf("protocol: invalid direction %q", d)
	}

	b, err := json.Marshal(moveCommand{Moving: d})
	if err != nil {
		return "", fmt.Errorf("protocol: encode move: %w", err)
	}

	return string(b), nil
}

// ParseMove decodes a client command line into its direction.
func ParseMove(line string) (Direction, error) {
	var cmd moveCommand
	if err := json.Unmarshal([]byte(line), &cmd); err != nil {
		return "", &ParseError{Line: line, Err: err}
	}

	if !cmd.Moving.Valid() {
		return "", fmt.Errorf("protocol: invalid direction %q", cmd.Moving)
	}

	return cmd.Moving, nil
}
