package bot

import "github.com/wricardo/connect4-rooms/game/engine"

// columnOrder tries the center first, where most lines pass.
var columnOrder = [engine.Columns]int{3, 2, 4, 1, 5, 0, 6}

// Strategy picks the column to play for player me
type Strategy interface {
	Choose(grid engine.Grid, me engine.Cell) int
}

// StrategyFunc adapts a function to Strategy
type StrategyFunc func(grid engine.Grid, me engine.Cell) int

func (f StrategyFunc) Choose(grid engine.Grid, me engine.Cell) int {
	return f(grid, me)
}

// Greedy looks one move ahead: it wins when it can, blocks an immediate
// threat, and avoids moves that hand the opponent a win. Otherwise it
// prefers central columns. It returns -1 on a full board.
type Greedy struct{}

func (Greedy) Choose(grid engine.Grid, me engine.Cell) int {
	opp := 1 - me

	for _, col := range columnOrder {
		if next, ok := grid.Drop(col, me); ok && next.HasConnect(me) {
			return col
		}
	}
	for _, col := range columnOrder {
		if next, ok := grid.Drop(col, opp); ok && next.HasConnect(opp) {
			return col
		}
	}

	fallback := -1
	for _, col := range columnOrder {
		next, ok := grid.Drop(col, me)
		if !ok {
			continue
		}
		if fallback < 0 {
			fallback = col
		}
		if !givesWin(next, opp) {
			return col
		}
	}
	return fallback
}

// givesWin reports whether opp can connect on its next move
func givesWin(grid engine.Grid, opp engine.Cell) bool {
	for col := 0; col < engine.Columns; col++ {
		if next, ok := grid.Drop(col, opp); ok && next.HasConnect(opp) {
			return true
		}
	}
	return false
}

// FirstFree plays the leftmost open column
var FirstFree = StrategyFunc(func(grid engine.Grid, me engine.Cell) int {
	for col := 0; col < engine.Columns; col++ {
		if _, ok := grid.Drop(col, me); ok {
			return col
		}
	}
	return -1
})
