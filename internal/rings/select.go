package rings

import (
	"github.com/rocketscienceinc/rings-p2p/internal/entity"
)

// Move is one legal placement.
type Move struct {
	CellID string
	Size   entity.Size
}

// SelectRingSize records the size the current player is about to place. Only
// the current player may select, and only a size still in inventory.
func SelectRingSize(game *entity.Game, playerID string, size entity.Size) (*entity.Game, Result) {
	if game == nil || !game.IsPlaying() {
		return game, ResultNotPlaying
	}

	if !size.IsValid() {
		return game, ResultInvalidSize
	}

	player := game.CurrentPlayer()
	if player == nil || player.ID != playerID {
		return game, ResultNotYourTurn
	}

	if player.CountRemaining(size) <= 0 {
		return game, ResultNoRingsLeft
	}

	next := game.Clone()
	next.SelectedRingSize = size

	return next, ResultSelected
}

// LegalMoves lists every placement open to the current player, cells in
// row-major order and sizes small to large.
func LegalMoves(game *entity.Game) []Move {
	if game == nil || !game.IsPlaying() {
		return nil
	}

	player := game.CurrentPlayer()
	if player == nil {
		return nil
	}

	var moves []Move
	for row := 0; row < entity.BoardSize; row++ {
		for col := 0; col < entity.BoardSize; col++ {
			cell := &game.Board[row][col]
			for _, size := range entity.Sizes {
				if player.CountRemaining(size) > 0 && !cell.HasSize(size) {
					moves = append(moves, Move{CellID: cell.ID, Size: size})
				}
			}
		}
	}

	return moves
}

func hasLegalMove(board *entity.Board, player *entity.Player) bool {
	for _, size := range entity.Sizes {
		if player.CountRemaining(size) <= 0 {
			continue
		}

		for row := 0; row < entity.BoardSize; row++ {
			for col := 0; col < entity.BoardSize; col++ {
				if !board[row][col].HasSize(size) {
					return true
				}
			}
		}
	}

	return false
}
