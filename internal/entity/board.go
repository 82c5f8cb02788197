package entity

import (
	"errors"
	"fmt"
	"sort"

	"github.com/rocketscienceinc/rings-p2p/internal/apperror"
)

const BoardSize = 3

var ErrInvalidCellID = errors.New("invalid cell id")

// Cell is one square of the board. Rings keep their insertion order.
type Cell struct {
	ID    string `json:"id"`
	Row   int    `json:"row"`
	Col   int    `json:"col"`
	Rings []Ring `json:"rings"`
}

func CellID(row, col int) string {
	return fmt.Sprintf("cell-%d-%d", row, col)
}

// ParseCellID is the inverse of CellID.
func ParseCellID(id string) (int, int, error) {
	var row, col int
	if _, err := fmt.Sscanf(id, "cell-%d-%d", &row, &col); err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidCellID, id)
	}

	if !inBounds(row, col) || CellID(row, col) != id {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidCellID, id)
	}

	return row, col, nil
}

func (that *Cell) HasSize(size Size) bool {
	for _, ring := range that.Rings {
		if ring.Size == size {
			return true
		}
	}

	return false
}

// Place appends the ring unless the cell already holds one of the same size.
func (that *Cell) Place(ring Ring) error {
	if that.HasSize(ring.Size) {
		return fmt.Errorf("%w: %s in %s", apperror.ErrOccupiedSize, ring.Size, that.ID)
	}

	that.Rings = append(that.Rings, ring)

	return nil
}

// RingsBySize returns a copy of the rings ordered largest to smallest.
func (that *Cell) RingsBySize() []Ring {
	rings := make([]Ring, len(that.Rings))
	copy(rings, that.Rings)

	sort.SliceStable(rings, func(i, j int) bool {
		return rings[i].Size.Rank() > rings[j].Size.Rank()
	})

	return rings
}

func (that *Cell) IsFull() bool {
	return len(that.Rings) == len(Sizes)
}

type Board [BoardSize][BoardSize]Cell

func NewBoard() Board {
	var board Board

	for row := 0; row < BoardSize; row++ {
		for col := 0; col < BoardSize; col++ {
			board[row][col] = Cell{
				ID:    CellID(row, col),
				Row:   row,
				Col:   col,
				Rings: []Ring{},
			}
		}
	}

	return board
}

func (that *Board) CellAt(row, col int) (*Cell, bool) {
	if !inBounds(row, col) {
		return nil, false
	}

	return &that[row][col], true
}

func (that *Board) FindCell(id string) (*Cell, bool) {
	row, col, err := ParseCellID(id)
	if err != nil {
		return nil, false
	}

	return that.CellAt(row, col)
}

// PiecesAt returns the rings at (row, col) largest first, or nil for a position off the board.
func (that *Board) PiecesAt(row, col int) []Ring {
	cell, ok := that.CellAt(row, col)
	if !ok {
		return nil
	}

	return cell.RingsBySize()
}

func (that *Board) Place(cellID string, ring Ring) error {
	cell, ok := that.FindCell(cellID)
	if !ok {
		return fmt.Errorf("%w: %q", ErrInvalidCellID, cellID)
	}

	return cell.Place(ring)
}

// Clone copies every cell's ring slice so the result shares no memory with the receiver.
func (that *Board) Clone() Board {
	board := *that

	for row := 0; row < BoardSize; row++ {
		for col := 0; col < BoardSize; col++ {
			rings := make([]Ring, len(that[row][col].Rings))
			copy(rings, that[row][col].Rings)
			board[row][col].Rings = rings
		}
	}

	return board
}

func inBounds(row, col int) bool {
	return row >= 0 && row < BoardSize && col >= 0 && col < BoardSize
}
