package service

import (
	"errors"
	"math/rand"

	"github.com/rocketscienceinc/rings-p2p/internal/entity"
	"github.com/rocketscienceinc/rings-p2p/internal/rings"
)

var (
	ErrGameNotRunning   = errors.New("game is not running")
	ErrNotBotsTurn      = errors.New("it's not the bot's turn")
	ErrNoAvailableMoves = errors.New("no available moves")
)

type BotService interface {
	ChooseMove(game *entity.Game, playerID string) (rings.Move, error)
}

type botService struct{}

func NewBotService() BotService {
	return &botService{}
}

// ChooseMove picks a uniformly random legal placement for playerID when it is
// that player's turn. ErrNoAvailableMoves means the bot has to pass.
func (that *botService) ChooseMove(game *entity.Game, playerID string) (rings.Move, error) {
	if game == nil || !game.IsPlaying() {
		return rings.Move{}, ErrGameNotRunning
	}

	current := game.CurrentPlayer()
	if current == nil || current.ID != playerID {
		return rings.Move{}, ErrNotBotsTurn
	}

	moves := rings.LegalMoves(game)
	if len(moves) == 0 {
		return rings.Move{}, ErrNoAvailableMoves
	}

	return moves[rand.Intn(len(moves))], nil //nolint: gosec // it's ok
}
