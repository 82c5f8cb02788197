package entity

import (
	"errors"
	"fmt"

	"github.com/rocketscienceinc/rings-p2p/internal/apperror"
)

const (
	StatusWaiting  = "waiting"
	StatusPlaying  = "playing"
	StatusFinished = "finished"
)

var ErrUnknownGameStatus = errors.New("unknown game status")

// Game is the full replicated state. The host owns the canonical copy; guests
// hold a mirror that is replaced wholesale on every broadcast.
type Game struct {
	Board              Board    `json:"board"`
	Players            []Player `json:"players"`
	CurrentPlayerIndex int      `json:"currentPlayerIndex"`
	Status             string   `json:"gameStatus"`
	Winner             *Player  `json:"winner"`
	WinningCells       []string `json:"winningCells"`
	SelectedRingSize   Size     `json:"selectedRingSize,omitempty"`
}

// CurrentPlayer returns the player whose turn it is, or nil when the index is out of range.
func (that *Game) CurrentPlayer() *Player {
	if that.CurrentPlayerIndex < 0 || that.CurrentPlayerIndex >= len(that.Players) {
		return nil
	}

	return &that.Players[that.CurrentPlayerIndex]
}

func (that *Game) PlayerByID(id string) (*Player, bool) {
	for i := range that.Players {
		if that.Players[i].ID == id {
			return &that.Players[i], true
		}
	}

	return nil, false
}

func (that *Game) PlayerByColor(color Color) (*Player, bool) {
	for i := range that.Players {
		if that.Players[i].Color == color {
			return &that.Players[i], true
		}
	}

	return nil, false
}

func (that *Game) IsWaiting() bool {
	return that.Status == StatusWaiting
}

func (that *Game) IsPlaying() bool {
	return that.Status == StatusPlaying
}

func (that *Game) IsFinished() bool {
	return that.Status == StatusFinished
}

func (that *Game) ConfirmPlayingState() error {
	switch {
	case that.IsWaiting():
		return apperror.ErrGameIsNotStarted
	case that.IsFinished():
		return apperror.ErrGameFinished
	case that.IsPlaying():
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnknownGameStatus, that.Status)
	}
}

// Clone returns a deep copy.
func (that *Game) Clone() *Game {
	if that == nil {
		return nil
	}

	game := *that
	game.Board = that.Board.Clone()

	game.Players = make([]Player, len(that.Players))
	copy(game.Players, that.Players)

	if that.Winner != nil {
		winner := *that.Winner
		game.Winner = &winner
	}

	if that.WinningCells != nil {
		game.WinningCells = make([]string, len(that.WinningCells))
		copy(game.WinningCells, that.WinningCells)
	}

	return &game
}
