package entity

import (
	"testing"

	"github.com/rocketscienceinc/rings-p2p/internal/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBoard(t *testing.T) {
	// When: a new board is created
	board := NewBoard()

	// Then: every cell is empty and carries its own id and position
	for row := 0; row < BoardSize; row++ {
		for col := 0; col < BoardSize; col++ {
			cell, ok := board.CellAt(row, col)
			require.True(t, ok)
			assert.Equal(t, CellID(row, col), cell.ID)
			assert.Equal(t, row, cell.Row)
			assert.Equal(t, col, cell.Col)
			assert.Empty(t, cell.Rings)
		}
	}
}

func TestParseCellID(t *testing.T) {
	t.Run("Round trips with CellID", func(t *testing.T) {
		row, col, err := ParseCellID(CellID(2, 1))

		require.NoError(t, err)
		assert.Equal(t, 2, row)
		assert.Equal(t, 1, col)
	})

	t.Run("Rejects ids outside the board", func(t *testing.T) {
		for _, id := range []string{"cell-3-0", "cell-0--1", "cell-01-1", "cell", "", "1-1"} {
			_, _, err := ParseCellID(id)
			assert.ErrorIs(t, err, ErrInvalidCellID, id)
		}
	})
}

func TestBoard_CellAt(t *testing.T) {
	board := NewBoard()

	// When: asking for positions off the board
	_, okNegative := board.CellAt(-1, 0)
	_, okTooBig := board.CellAt(0, 3)

	// Then: no cell is returned
	assert.False(t, okNegative)
	assert.False(t, okTooBig)
}

func TestBoard_Place(t *testing.T) {
	t.Run("Places one ring per size", func(t *testing.T) {
		// Given: an empty board
		board := NewBoard()

		// When: three different sizes go to the same cell
		require.NoError(t, board.Place(CellID(1, 1), NewRing(SizeSmall, ColorRed)))
		require.NoError(t, board.Place(CellID(1, 1), NewRing(SizeLarge, ColorBlue)))
		require.NoError(t, board.Place(CellID(1, 1), NewRing(SizeMedium, ColorRed)))

		// Then: the cell is full and keeps insertion order
		cell, _ := board.CellAt(1, 1)
		require.Len(t, cell.Rings, 3)
		assert.True(t, cell.IsFull())
		assert.Equal(t, []Size{SizeSmall, SizeLarge, SizeMedium}, sizesOf(cell.Rings))
	})

	t.Run("Error on occupied size", func(t *testing.T) {
		// Given: a cell already holding a medium ring
		board := NewBoard()
		require.NoError(t, board.Place(CellID(0, 2), NewRing(SizeMedium, ColorRed)))

		// When: another medium ring is placed there
		err := board.Place(CellID(0, 2), NewRing(SizeMedium, ColorGreen))

		// Then: ErrOccupiedSize is returned and the cell is unchanged
		require.ErrorIs(t, err, apperror.ErrOccupiedSize)
		cell, _ := board.CellAt(0, 2)
		require.Len(t, cell.Rings, 1)
		assert.Equal(t, ColorRed, cell.Rings[0].Color)
	})

	t.Run("Error on unknown cell", func(t *testing.T) {
		board := NewBoard()

		err := board.Place("cell-9-9", NewRing(SizeSmall, ColorRed))

		assert.ErrorIs(t, err, ErrInvalidCellID)
	})
}

func TestBoard_PiecesAt(t *testing.T) {
	// Given: a cell filled small, large, medium
	board := NewBoard()
	require.NoError(t, board.Place(CellID(2, 0), NewRing(SizeSmall, ColorRed)))
	require.NoError(t, board.Place(CellID(2, 0), NewRing(SizeLarge, ColorBlue)))
	require.NoError(t, board.Place(CellID(2, 0), NewRing(SizeMedium, ColorGreen)))

	// When: reading the pieces for display
	pieces := board.PiecesAt(2, 0)

	// Then: they come largest to smallest and the cell itself is untouched
	assert.Equal(t, []Size{SizeLarge, SizeMedium, SizeSmall}, sizesOf(pieces))
	cell, _ := board.CellAt(2, 0)
	assert.Equal(t, []Size{SizeSmall, SizeLarge, SizeMedium}, sizesOf(cell.Rings))
	assert.Nil(t, board.PiecesAt(5, 5))
}

func TestBoard_Clone(t *testing.T) {
	// Given: a board with one ring
	board := NewBoard()
	require.NoError(t, board.Place(CellID(0, 0), NewRing(SizeSmall, ColorRed)))

	// When: the clone is modified
	clone := board.Clone()
	require.NoError(t, clone.Place(CellID(0, 0), NewRing(SizeLarge, ColorRed)))

	// Then: the original keeps a single ring
	cell, _ := board.CellAt(0, 0)
	assert.Len(t, cell.Rings, 1)
}

func sizesOf(rings []Ring) []Size {
	sizes := make([]Size, 0, len(rings))
	for _, ring := range rings {
		sizes = append(sizes, ring.Size)
	}

	return sizes
}
