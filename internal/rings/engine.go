package rings

import (
	"github.com/rocketscienceinc/rings-p2p/internal/entity"
)

// Result reports what ApplyMove did with a requested placement.
type Result string

const (
	ResultPlaced       Result = "placed"
	ResultSelected     Result = "selected"
	ResultPassed       Result = "passed"
	ResultWon          Result = "won"
	ResultDraw         Result = "draw"
	ResultNotPlaying   Result = "not_playing"
	ResultInvalidSize  Result = "invalid_size"
	ResultNoRingsLeft  Result = "no_rings_left"
	ResultUnknownCell  Result = "unknown_cell"
	ResultSizeOccupied Result = "size_occupied"
	ResultNotYourTurn  Result = "not_your_turn"
	ResultCanStillMove Result = "can_still_move"
)

// Accepted reports whether the move changed the game.
func (that Result) Accepted() bool {
	return that == ResultPlaced || that == ResultWon || that == ResultDraw || that == ResultSelected || that == ResultPassed
}

// ApplyMove places a ring of the given size for the current player.
//
// A rejected move returns the very same game pointer untouched together with
// the reason. An accepted move returns a new game; the input is never modified.
func ApplyMove(game *entity.Game, cellID string, size entity.Size) (*entity.Game, Result) {
	if result := validateMove(game, cellID, size); result != "" {
		return game, result
	}

	next := game.Clone()
	player := next.CurrentPlayer()

	// validateMove guarantees the cell exists and the size is free.
	cell, _ := next.Board.FindCell(cellID)
	_ = cell.Place(entity.NewRing(size, player.Color))
	_ = player.Rings.Take(size)

	if winner, cells := checkWinConditions(next, cell.Row, cell.Col); winner != nil {
		next.Winner = winner
		next.WinningCells = cells
		next.Status = entity.StatusFinished

		return next, ResultWon
	}

	if !anyLegalMove(next) {
		next.Status = entity.StatusFinished
		next.SelectedRingSize = ""

		return next, ResultDraw
	}

	advanceTurn(next)

	return next, ResultPlaced
}

func validateMove(game *entity.Game, cellID string, size entity.Size) Result {
	if game == nil || !game.IsPlaying() {
		return ResultNotPlaying
	}

	if !size.IsValid() {
		return ResultInvalidSize
	}

	player := game.CurrentPlayer()
	if player == nil {
		return ResultNotPlaying
	}

	if player.CountRemaining(size) <= 0 {
		return ResultNoRingsLeft
	}

	cell, ok := game.Board.FindCell(cellID)
	if !ok {
		return ResultUnknownCell
	}

	if cell.HasSize(size) {
		return ResultSizeOccupied
	}

	return ""
}

// advanceTurn hands the turn to the next player in order and clears the size selection.
func advanceTurn(game *entity.Game) {
	game.SelectedRingSize = ""
	game.CurrentPlayerIndex = (game.CurrentPlayerIndex + 1) % len(game.Players)
}

func anyLegalMove(game *entity.Game) bool {
	for i := range game.Players {
		if hasLegalMove(&game.Board, &game.Players[i]) {
			return true
		}
	}

	return false
}

// PassTurn gives up the turn of playerID. Only a current player with no legal
// placement may pass; the game goes on because someone else still can move.
func PassTurn(game *entity.Game, playerID string) (*entity.Game, Result) {
	if game == nil || !game.IsPlaying() {
		return game, ResultNotPlaying
	}

	player := game.CurrentPlayer()
	if player == nil || player.ID != playerID {
		return game, ResultNotYourTurn
	}

	if hasLegalMove(&game.Board, player) {
		return game, ResultCanStillMove
	}

	next := game.Clone()
	advanceTurn(next)

	return next, ResultPassed
}
