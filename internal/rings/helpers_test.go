package rings

import (
	"testing"

	"github.com/rocketscienceinc/rings-p2p/internal/entity"
	"github.com/stretchr/testify/require"
)

var keepOrder = ShuffleFunc(func(int, func(i, j int)) {})

// newTestGame starts a game whose turn order follows the given colors.
func newTestGame(colors ...entity.Color) *entity.Game {
	players := make([]entity.Player, 0, len(colors))
	for _, color := range colors {
		players = append(players, entity.NewPlayer(string(color), color))
	}

	return NewGame(players, keepOrder)
}

type step struct {
	row, col int
	size     entity.Size
}

// play applies the steps in order and fails the test on the first rejected one.
func play(t *testing.T, game *entity.Game, steps ...step) (*entity.Game, Result) {
	t.Helper()

	var result Result
	for _, s := range steps {
		game, result = ApplyMove(game, entity.CellID(s.row, s.col), s.size)
		require.True(t, result.Accepted(), "move %+v rejected: %s", s, result)
	}

	return game, result
}
