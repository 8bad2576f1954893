package engine

// directions scanned by win detection: horizontal, vertical, diagonal up-right, diagonal down-right
var directions = [4][2]int{
	{0, 1},
	{1, 0},
	{1, 1},
	{-1, 1},
}

// dropRow returns the lowest empty row in column, or -1 if the column is full
func (g *Grid) dropRow(column int) int {
	for row := 0; row < Rows; row++ {
		if g[row][column] == Empty {
			return row
		}
	}
	return -1
}

// hasConnect scans the whole grid for ConnectLength cells of id in a line
func (g *Grid) hasConnect(id Cell) bool {
	for row := 0; row < Rows; row++ {
		for col := 0; col < Columns; col++ {
			if g[row][col] != id {
				continue
			}
			for _, d := range directions {
				if g.runFrom(row, col, d[0], d[1], id) {
					return true
				}
			}
		}
	}
	return false
}

func (g *Grid) runFrom(row, col, dr, dc int, id Cell) bool {
	for i := 1; i < ConnectLength; i++ {
		r, c := row+dr*i, col+dc*i
		if r < 0 || r >= Rows || c < 0 || c >= Columns {
			return false
		}
		if g[r][c] != id {
			return false
		}
	}
	return true
}

// isFull reports whether every column's top row is occupied
func (g *Grid) isFull() bool {
	for col := 0; col < Columns; col++ {
		if g[Rows-1][col] == Empty {
			return false
		}
	}
	return true
}

// CountChips returns the number of occupied cells
func (g *Grid) CountChips() int {
	count := 0
	for _, row := range g {
		for _, cell := range row {
			if cell != Empty {
				count++
			}
		}
	}
	return count
}

// Drop returns a copy of g with a chip for player id in column. It reports
// false when the column is out of range or full.
func (g Grid) Drop(column int, id Cell) (Grid, bool) {
	if column < 0 || column >= Columns {
		return g, false
	}
	row := g.dropRow(column)
	if row < 0 {
		return g, false
	}
	g[row][column] = id
	return g, true
}

// HasConnect reports whether player id has ConnectLength chips in a line
func (g Grid) HasConnect(id Cell) bool {
	return g.hasConnect(id)
}
