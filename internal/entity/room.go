package entity

import (
	"fmt"

	"github.com/rocketscienceinc/rings-p2p/internal/apperror"
)

const (
	MaxPlayers = 4
	MinPlayers = 2
)

// Room is one session: the host, the roster in join order and, once started, the game.
type Room struct {
	ID         string   `json:"id"`
	HostID     string   `json:"hostId"`
	Players    []Player `json:"players"`
	Game       *Game    `json:"gameState"`
	MaxPlayers int      `json:"maxPlayers"`
}

func NewRoom(id string, host Player) *Room {
	return &Room{
		ID:         id,
		HostID:     host.ID,
		Players:    []Player{host},
		MaxPlayers: MaxPlayers,
	}
}

// Phase is waiting until the game exists, then follows the game status.
func (that *Room) Phase() string {
	if that.Game == nil {
		return StatusWaiting
	}

	return that.Game.Status
}

func (that *Room) HasPlayer(id string) bool {
	_, ok := that.PlayerByID(id)
	return ok
}

func (that *Room) PlayerByID(id string) (*Player, bool) {
	for i := range that.Players {
		if that.Players[i].ID == id {
			return &that.Players[i], true
		}
	}

	return nil, false
}

func (that *Room) PlayerByPeer(peerID string) (*Player, bool) {
	if peerID == "" {
		return nil, false
	}

	for i := range that.Players {
		if that.Players[i].PeerID == peerID {
			return &that.Players[i], true
		}
	}

	return nil, false
}

func (that *Room) UsedColors() []Color {
	colors := make([]Color, 0, len(that.Players))
	for _, player := range that.Players {
		colors = append(colors, player.Color)
	}

	return colors
}

func (that *Room) AvailableColors() []Color {
	return AvailableColors(that.UsedColors())
}

// Join appends the player to the roster. Joining twice with the same id is a no-op.
func (that *Room) Join(player Player) error {
	if that.HasPlayer(player.ID) {
		return nil
	}

	if len(that.Players) >= that.capacity() {
		return fmt.Errorf("%w: %d players", apperror.ErrRoomFull, len(that.Players))
	}

	if !player.Color.IsValid() {
		return fmt.Errorf("%w: %q", apperror.ErrInvalidColor, player.Color)
	}

	for _, existing := range that.Players {
		if existing.Color == player.Color {
			return fmt.Errorf("%w: %s", apperror.ErrColorTaken, player.Color)
		}
	}

	that.Players = append(that.Players, player)

	return nil
}

// Remove drops the player from the roster and reports whether it was there.
func (that *Room) Remove(playerID string) bool {
	for i := range that.Players {
		if that.Players[i].ID == playerID {
			that.Players = append(that.Players[:i:i], that.Players[i+1:]...)
			return true
		}
	}

	return false
}

func (that *Room) CanStartGame() bool {
	return that.Game == nil && len(that.Players) >= MinPlayers
}

// Clone returns a deep copy.
func (that *Room) Clone() *Room {
	if that == nil {
		return nil
	}

	room := *that
	room.Players = make([]Player, len(that.Players))
	copy(room.Players, that.Players)
	room.Game = that.Game.Clone()

	return &room
}

func (that *Room) capacity() int {
	if that.MaxPlayers <= 0 || that.MaxPlayers > MaxPlayers {
		return MaxPlayers
	}

	return that.MaxPlayers
}
