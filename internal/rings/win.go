package rings

import (
	"github.com/rocketscienceinc/rings-p2p/internal/entity"
)

type position struct {
	row, col int
}

type line [entity.BoardSize]position

// linesThrough returns the row, the column and whichever diagonals pass through (row, col), in that order.
func linesThrough(row, col int) []line {
	lines := make([]line, 0, 4)

	var horizontal, vertical line
	for i := 0; i < entity.BoardSize; i++ {
		horizontal[i] = position{row, i}
		vertical[i] = position{i, col}
	}
	lines = append(lines, horizontal, vertical)

	if row == col {
		var diagonal line
		for i := 0; i < entity.BoardSize; i++ {
			diagonal[i] = position{i, i}
		}
		lines = append(lines, diagonal)
	}

	if row+col == entity.BoardSize-1 {
		var anti line
		for i := 0; i < entity.BoardSize; i++ {
			anti[i] = position{i, entity.BoardSize - 1 - i}
		}
		lines = append(lines, anti)
	}

	return lines
}

// checkWinConditions evaluates only what the ring placed at (row, col) could have completed.
func checkWinConditions(game *entity.Game, row, col int) (*entity.Player, []string) {
	cell, ok := game.Board.CellAt(row, col)
	if !ok {
		return nil, nil
	}

	if color, ok := tripleStack(cell); ok {
		return winnerFor(game, color, []string{cell.ID})
	}

	lines := linesThrough(row, col)

	for _, l := range lines {
		if color, cells, ok := sizeOrderedLine(&game.Board, l); ok {
			return winnerFor(game, color, cells)
		}
	}

	for _, l := range lines {
		if color, cells, ok := sameSizeLine(&game.Board, l); ok {
			return winnerFor(game, color, cells)
		}
	}

	return nil, nil
}

func tripleStack(cell *entity.Cell) (entity.Color, bool) {
	if !cell.IsFull() {
		return "", false
	}

	color := cell.Rings[0].Color
	for _, ring := range cell.Rings[1:] {
		if ring.Color != color {
			return "", false
		}
	}

	return color, true
}

// sizeOrderedLine looks for a color with exactly one ring in each cell of the
// line and no other ring on it, whose sizes strictly rise or fall in line order.
func sizeOrderedLine(board *entity.Board, l line) (entity.Color, []string, bool) {
	for _, color := range entity.Colors {
		if !onePerCell(board, l, color) {
			continue
		}

		ranks := make([]int, 0, len(l))
		for _, pos := range l {
			cell, _ := board.CellAt(pos.row, pos.col)
			for _, ring := range cell.Rings {
				if ring.Color == color {
					ranks = append(ranks, ring.Size.Rank())
				}
			}
		}

		if isStrictlyMonotonic(ranks) {
			return color, cellIDs(board, l), true
		}
	}

	return "", nil, false
}

func onePerCell(board *entity.Board, l line, color entity.Color) bool {
	for _, pos := range l {
		cell, _ := board.CellAt(pos.row, pos.col)

		count := 0
		for _, ring := range cell.Rings {
			if ring.Color == color {
				count++
			}
		}

		if count != 1 {
			return false
		}
	}

	return true
}

func isStrictlyMonotonic(ranks []int) bool {
	increasing, decreasing := true, true

	for i := 1; i < len(ranks); i++ {
		if ranks[i] <= ranks[i-1] {
			increasing = false
		}
		if ranks[i] >= ranks[i-1] {
			decreasing = false
		}
	}

	return increasing || decreasing
}

// sameSizeLine looks for one (size, color) pair present in every cell of the line.
func sameSizeLine(board *entity.Board, l line) (entity.Color, []string, bool) {
	for _, size := range entity.Sizes {
		for _, color := range entity.Colors {
			if lineHolds(board, l, size, color) {
				return color, cellIDs(board, l), true
			}
		}
	}

	return "", nil, false
}

func lineHolds(board *entity.Board, l line, size entity.Size, color entity.Color) bool {
	for _, pos := range l {
		cell, _ := board.CellAt(pos.row, pos.col)

		found := false
		for _, ring := range cell.Rings {
			if ring.Size == size && ring.Color == color {
				found = true
				break
			}
		}

		if !found {
			return false
		}
	}

	return true
}

func cellIDs(board *entity.Board, l line) []string {
	ids := make([]string, 0, len(l))
	for _, pos := range l {
		cell, _ := board.CellAt(pos.row, pos.col)
		ids = append(ids, cell.ID)
	}

	return ids
}

func winnerFor(game *entity.Game, color entity.Color, cells []string) (*entity.Player, []string) {
	player, ok := game.PlayerByColor(color)
	if !ok {
		return nil, nil
	}

	winner := *player

	return &winner, cells
}
