package engine

import (
	"errors"
	"math/rand/v2"
	"slices"
)

var (
	ErrGameOver         = errors.New("game is over")
	ErrNotYourTurn      = errors.New("not this player's turn")
	ErrNotPlayer        = errors.New("user is not a player in this game")
	ErrColumnOutOfRange = errors.New("column out of range")
	ErrColumnFull       = errors.New("column is full")
	ErrInvalidPlayers   = errors.New("a game needs exactly two distinct players")
)

// Game is the authoritative state of one Connect-Four match
type Game struct {
	players [2]string
	grid    Grid
	current int
	status  Status
	winner  string
	moves   []Move
}

// NewGame creates a game for two players in random order. The player at
// index 0 moves first.
func NewGame(players []string) (*Game, error) {
	shuffled := slices.Clone(players)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return NewGameOrdered(shuffled)
}

// NewGameOrdered creates a game keeping the given player order.
func NewGameOrdered(players []string) (*Game, error) {
	if len(players) != 2 || players[0] == "" || players[1] == "" || players[0] == players[1] {
		return nil, ErrInvalidPlayers
	}

	return &Game{
		players: [2]string{players[0], players[1]},
		grid:    NewGrid(),
		status:  InProgress,
	}, nil
}

// AttemptMove drops a chip for username into column and returns the row it
// landed in. A rejected move leaves the game untouched.
func (g *Game) AttemptMove(username string, column int) (int, error) {
	if g.status != InProgress {
		return -1, ErrGameOver
	}
	if !g.HasPlayer(username) {
		return -1, ErrNotPlayer
	}
	if g.players[g.current] != username {
		return -1, ErrNotYourTurn
	}
	if column < 0 || column >= Columns {
		return -1, ErrColumnOutOfRange
	}

	row := g.grid.dropRow(column)
	if row < 0 {
		return -1, ErrColumnFull
	}

	id := Cell(g.current)
	g.grid[row][column] = id
	g.moves = append(g.moves, Move{Player: username, Column: column, Row: row})

	switch {
	case g.grid.hasConnect(id):
		g.status = Won
		g.winner = username
	case g.grid.isFull():
		g.status = Draw
		g.winner = NoWinner
	default:
		g.current = (g.current + 1) % 2
	}

	return row, nil
}

// Forfeit ends an in-progress game with the opponent of username as winner.
func (g *Game) Forfeit(username string) (string, error) {
	if g.status != InProgress {
		return "", ErrGameOver
	}
	opponent, ok := g.Opponent(username)
	if !ok {
		return "", ErrNotPlayer
	}

	g.status = Won
	g.winner = opponent
	return opponent, nil
}

// Status returns the lifecycle state
func (g *Game) Status() Status {
	return g.status
}

// IsOver reports whether the game reached Won or Draw
func (g *Game) IsOver() bool {
	return g.status != InProgress
}

// Winner returns the winning username, NoWinner on a draw, or "" while the
// game is in progress.
func (g *Game) Winner() string {
	return g.winner
}

// Players returns the two players in turn order
func (g *Game) Players() []string {
	return []string{g.players[0], g.players[1]}
}

// CurrentPlayer returns the username whose turn it is, or "" once the game
// is over.
func (g *Game) CurrentPlayer() string {
	if g.IsOver() {
		return ""
	}
	return g.players[g.current]
}

// CurrentPlayerID returns the index of the player whose turn it is
func (g *Game) CurrentPlayerID() int {
	return g.current
}

// HasPlayer reports whether username plays in this game
func (g *Game) HasPlayer(username string) bool {
	return username != "" && (g.players[0] == username || g.players[1] == username)
}

// Opponent returns the other player of username
func (g *Game) Opponent(username string) (string, bool) {
	switch username {
	case "":
		return "", false
	case g.players[0]:
		return g.players[1], true
	case g.players[1]:
		return g.players[0], true
	}
	return "", false
}

// Grid returns a copy of the board
func (g *Game) Grid() Grid {
	return g.grid
}

// Moves returns the accepted moves in order
func (g *Game) Moves() []Move {
	return slices.Clone(g.moves)
}

// LastMove returns the last accepted move, or nil if no moves
func (g *Game) LastMove() *Move {
	if len(g.moves) == 0 {
		return nil
	}
	m := g.moves[len(g.moves)-1]
	return &m
}

// History returns the accepted moves with the game's status
func (g *Game) History() History {
	moves := g.Moves()
	if moves == nil {
		moves = []Move{}
	}
	return History{
		Status:   g.Status().String(),
		Moves:    moves,
		LastMove: g.LastMove(),
	}
}

// ValidColumns returns the columns that still accept a chip
func (g *Game) ValidColumns() []int {
	if g.IsOver() {
		return nil
	}
	var cols []int
	for c := 0; c < Columns; c++ {
		if g.grid.dropRow(c) >= 0 {
			cols = append(cols, c)
		}
	}
	return cols
}

// Snapshot returns an immutable copy of the current state
func (g *Game) Snapshot() Snapshot {
	s := Snapshot{
		Grid:            g.grid,
		CurrentPlayerID: g.current,
		GameOver:        g.IsOver(),
		Players:         g.Players(),
	}
	if !s.GameOver {
		current := g.players[g.current]
		s.CurrentPlayer = &current
	}
	if g.winner != "" {
		winner := g.winner
		s.Winner = &winner
	}
	return s
}
