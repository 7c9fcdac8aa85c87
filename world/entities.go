package world

// Position is one cell on the game grid.
type Position struct {
	X int `json:"X"`
	Y int `json:"Y"`
}

// Snake is one player's snake as carried on the wire. SnakeId doubles as
// the player's client id.
type Snake struct {
	SnakeId   int        `json:"SnakeId"`
	Name      string     `json:"Name"`
	Score     int        `json:"Score"`
	Direction string     `json:"Direction"`
	Positions []Position `json:"Positions"`
}

// Wall is an impassable segment of cells.
type Wall struct {
	WallId    int        `json:"WallId"`
	Positions []Position `json:"Positions"`
}

// PowerUp is a collectible cell. IsActive carries inverted meaning on the
// wire: true means the power-up has been consumed and must be removed
// from the world, false means it is present and collectible. Preserved
// as-is for wire compatibility.
type PowerUp struct {
	PowerId  int      `json:"PowerId"`
	Position Position `json:"Position"`
	IsActive bool     `json:"IsActive"`
}

// clone returns a deep copy of the snake, including its body cells.
func (s Snake) clone() Snake {
	c := s
	c.Positions = append([]Position(nil), s.Positions...)
	return c
}

// clone returns a deep copy of the wall.
func (w Wall) clone() Wall {
	c := w
	c.Positions = append([]Position(nil), w.Positions...)
	return c
}
