package rings

import (
	"fmt"
	"math/rand"

	"github.com/rocketscienceinc/rings-p2p/internal/apperror"
	"github.com/rocketscienceinc/rings-p2p/internal/entity"
)

// Shuffler permutes n elements through swap. *rand.Rand satisfies it.
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

type ShuffleFunc func(n int, swap func(i, j int))

func (that ShuffleFunc) Shuffle(n int, swap func(i, j int)) {
	that(n, swap)
}

// RandomShuffle draws from the auto-seeded global source.
var RandomShuffle Shuffler = ShuffleFunc(rand.Shuffle)

// NewGame deals a fresh game: the players in shuffled order, each with a full
// inventory and no transport bookkeeping, an empty board and the first shuffled
// player to move.
func NewGame(players []entity.Player, shuffler Shuffler) *entity.Game {
	if shuffler == nil {
		shuffler = RandomShuffle
	}

	order := make([]entity.Player, len(players))
	copy(order, players)

	for i := range order {
		order[i].Rings = entity.FullInventory()
		order[i].PeerID = ""
	}

	shuffler.Shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})

	return &entity.Game{
		Board:              entity.NewBoard(),
		Players:            order,
		CurrentPlayerIndex: 0,
		Status:             entity.StatusPlaying,
	}
}

// StartGame creates the room's game from its roster.
func StartGame(room *entity.Room, shuffler Shuffler) (*entity.Game, error) {
	if room.Game != nil {
		return nil, apperror.ErrGameAlreadyStarted
	}

	if len(room.Players) < entity.MinPlayers {
		return nil, fmt.Errorf("%w: %d of %d", apperror.ErrInsufficientPlayers, len(room.Players), entity.MinPlayers)
	}

	room.Game = NewGame(room.Players, shuffler)

	return room.Game, nil
}
