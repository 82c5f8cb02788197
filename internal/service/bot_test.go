package service

import (
	"errors"
	"testing"

	"github.com/rocketscienceinc/rings-p2p/internal/entity"
	"github.com/rocketscienceinc/rings-p2p/internal/rings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type keepOrder struct{}

func (keepOrder) Shuffle(int, func(i, j int)) {}

func newGame(t *testing.T) *entity.Game {
	t.Helper()

	room := entity.NewRoom("123456", entity.NewPlayer("red", entity.ColorRed))
	require.NoError(t, room.Join(entity.NewPlayer("blue", entity.ColorBlue)))

	game, err := rings.StartGame(room, keepOrder{})
	require.NoError(t, err)

	return game
}

func TestBotService_ChooseMove(t *testing.T) {
	bot := NewBotService()

	t.Run("Picks a legal move on its turn", func(t *testing.T) {
		// Given: a fresh game where red moves first
		game := newGame(t)
		red := game.CurrentPlayer().ID

		// When: the bot plays many times for red
		for n_ := 0; n_ < 50; n_++ {
			move, err := bot.ChooseMove(game, red)

			// Then: every choice is accepted by the engine
			require.NoError(t, err)
			_, result := rings.ApplyMove(game, move.CellID, move.Size)
			assert.True(t, result.Accepted(), "move %v got %s", move, result)
		}
	})

	t.Run("Not its turn", func(t *testing.T) {
		game := newGame(t)

		_, err := bot.ChooseMove(game, game.Players[1].ID)

		require.ErrorIs(t, err, ErrNotBotsTurn)
	})

	t.Run("Game is not playing", func(t *testing.T) {
		game := newGame(t)
		game.Status = entity.StatusFinished

		_, err := bot.ChooseMove(game, game.Players[0].ID)

		require.ErrorIs(t, err, ErrGameNotRunning)
	})

	t.Run("Nothing left to place", func(t *testing.T) {
		game := newGame(t)
		game.Players[0].Rings = entity.Inventory{}

		_, err := bot.ChooseMove(game, game.Players[0].ID)

		require.ErrorIs(t, err, ErrNoAvailableMoves)
	})

	t.Run("Plays a whole game", func(t *testing.T) {
		// Given: two bots sharing a game
		game := newGame(t)

		// When: they alternate until the game ends
		for game.IsPlaying() {
			move, err := bot.ChooseMove(game, game.CurrentPlayer().ID)

			var result rings.Result
			if errors.Is(err, ErrNoAvailableMoves) {
				game, result = rings.PassTurn(game, game.CurrentPlayer().ID)
			} else {
				require.NoError(t, err)
				game, result = rings.ApplyMove(game, move.CellID, move.Size)
			}
			require.True(t, result.Accepted())
		}

		// Then: it finishes with a winner or a draw
		assert.True(t, game.IsFinished())
	})
}
