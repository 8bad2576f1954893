package engine

import (
	"encoding/json"
	"fmt"
	"strconv"
)

const (
	// Board dimensions
	Rows          = 6
	Columns       = 7
	ConnectLength = 4

	// NoWinner is reported as the winner of a drawn game.
	NoWinner = "No_one"
)

// Cell is a single grid position. It holds either Empty or the index
// (0 or 1) of the player whose chip occupies it.
type Cell int8

// Empty marks an unoccupied cell.
const Empty Cell = -1

// MarshalJSON encodes an empty cell as null and an occupied cell as the
// owning player's index.
func (c Cell) MarshalJSON() ([]byte, error) {
	if c == Empty {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(int(c))), nil
}

// UnmarshalJSON accepts null, 0 or 1.
func (c *Cell) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*c = Empty
		return nil
	}

	var v int
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("cell: %w", err)
	}
	if v != 0 && v != 1 {
		return fmt.Errorf("cell: invalid player index %d", v)
	}
	*c = Cell(v)
	return nil
}

// Grid is the board, indexed [row][column] with row 0 at the bottom.
type Grid [Rows][Columns]Cell

// NewGrid returns a grid with every cell empty.
func NewGrid() Grid {
	var g Grid
	for r := range g {
		for c := range g[r] {
			g[r][c] = Empty
		}
	}
	return g
}

// Status is the lifecycle state of a game
type Status int

const (
	InProgress Status = iota
	Won
	Draw
)

func (s Status) String() string {
	switch s {
	case InProgress:
		return "in_progress"
	case Won:
		return "won"
	case Draw:
		return "draw"
	default:
		return "unknown"
	}
}

// Move is an accepted chip drop
type Move struct {
	Player string `json:"player"`
	Column int    `json:"column"`
	Row    int    `json:"row"`
}

// History is the move log of a game
type History struct {
	Status   string `json:"status"`
	Moves    []Move `json:"moves"`
	LastMove *Move  `json:"last_move"`
}

// Snapshot is an immutable point-in-time read of a game.
type Snapshot struct {
	Grid            Grid     `json:"grid"`
	CurrentPlayer   *string  `json:"current_player"` // nil once the game is over
	CurrentPlayerID int      `json:"current_player_id"`
	GameOver        bool     `json:"game_over"`
	Winner          *string  `json:"winner"` // nil while in progress, NoWinner on a draw
	Players         []string `json:"players"`
}
