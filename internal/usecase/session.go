package usecase

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/rocketscienceinc/rings-p2p/internal/apperror"
	"github.com/rocketscienceinc/rings-p2p/internal/entity"
	"github.com/rocketscienceinc/rings-p2p/internal/rings"
)

var (
	ErrNoRoom        = errors.New("not in a room")
	ErrAlreadyInRoom = errors.New("already in a room")
)

type Role string

const (
	RoleHost  Role = "host"
	RoleGuest Role = "guest"
)

// Session is one process's view of one room. It is not safe for concurrent
// use; the replication peer serializes every call.
type Session struct {
	logger   *slog.Logger
	shuffler rings.Shuffler

	role    Role
	localID string
	room    *entity.Room
}

func NewSession(logger *slog.Logger, shuffler rings.Shuffler) *Session {
	return &Session{
		logger:   logger.With("component", "session"),
		shuffler: shuffler,
	}
}

// CreateRoom opens a room with host as its only player and makes this session the host.
func (that *Session) CreateRoom(roomID string, host entity.Player) (*entity.Room, error) {
	if that.room != nil {
		return nil, ErrAlreadyInRoom
	}

	that.role = RoleHost
	that.localID = host.ID
	that.room = entity.NewRoom(roomID, host)

	that.logger.Info("room created", "room", roomID, "host", host.ID, "color", host.Color)

	return that.room.Clone(), nil
}

// EnterRoom prepares a guest mirror of roomID. The roster stays empty until the host replays it.
func (that *Session) EnterRoom(roomID string, local entity.Player) error {
	if that.room != nil {
		return ErrAlreadyInRoom
	}

	that.role = RoleGuest
	that.localID = local.ID
	that.room = &entity.Room{
		ID:         roomID,
		Players:    []entity.Player{},
		MaxPlayers: entity.MaxPlayers,
	}

	return nil
}

// Join adds a player to the roster. The first player a guest learns about is the host.
func (that *Session) Join(player entity.Player) error {
	log := that.logger.With("method", "Join")

	if that.room == nil {
		return ErrNoRoom
	}

	if that.room.Game != nil {
		return apperror.ErrGameAlreadyStarted
	}

	if err := that.room.Join(player); err != nil {
		log.Debug("join refused", "player", player.ID, "color", player.Color, "error", err)
		return fmt.Errorf("failed to join room %s: %w", that.room.ID, err)
	}

	if that.room.HostID == "" {
		that.room.HostID = player.ID
	}

	log.Info("player joined", "player", player.ID, "name", player.Name, "color", player.Color, "players", len(that.room.Players))

	return nil
}

// Leave drops a player from the roster while the room is still waiting.
// Once a game is running the player stays in the turn order.
func (that *Session) Leave(playerID string) bool {
	if that.room == nil || that.room.Game != nil {
		return false
	}

	if !that.room.Remove(playerID) {
		return false
	}

	that.logger.Info("player left", "player", playerID, "players", len(that.room.Players))

	return true
}

// StartGame deals the game from the current roster. Host only.
func (that *Session) StartGame() (*entity.Game, error) {
	if that.room == nil {
		return nil, ErrNoRoom
	}

	if that.role != RoleHost {
		return nil, apperror.ErrNotHost
	}

	game, err := rings.StartGame(that.room, that.shuffler)
	if err != nil {
		return nil, fmt.Errorf("failed to start game: %w", err)
	}

	that.logger.Info("game started", "room", that.room.ID, "first", game.CurrentPlayer().ID)

	return game.Clone(), nil
}

// ApplyRemoteMove is the host applying a placement on behalf of playerID.
// Only the current player may place; anyone else, including a submitter
// missing from the roster, sent a stale or foreign request and is ignored.
func (that *Session) ApplyRemoteMove(playerID, cellID string, size entity.Size) rings.Result {
	log := that.logger.With("method", "ApplyRemoteMove")

	game, result := that.turnOf(log, playerID)
	if game == nil {
		return result
	}

	next, result := rings.ApplyMove(game, cellID, size)
	if !result.Accepted() {
		log.Debug("move rejected", "player", playerID, "cell", cellID, "size", size, "result", result)
		return result
	}

	that.room.Game = next
	log.Info("move applied", "player", playerID, "cell", cellID, "size", size, "result", result)

	return result
}

// ApplyLocalMove places a ring for the local player. Only the host applies moves itself.
func (that *Session) ApplyLocalMove(cellID string, size entity.Size) rings.Result {
	return that.ApplyRemoteMove(that.localID, cellID, size)
}

// PassTurn is the host letting playerID skip a turn it cannot play.
func (that *Session) PassTurn(playerID string) rings.Result {
	log := that.logger.With("method", "PassTurn")

	game, result := that.turnOf(log, playerID)
	if game == nil {
		return result
	}

	next, result := rings.PassTurn(game, playerID)
	if !result.Accepted() {
		log.Debug("pass rejected", "player", playerID, "result", result)
		return result
	}

	that.room.Game = next
	log.Info("turn passed", "player", playerID)

	return result
}

// PassLocalTurn passes for the local player. Host only, like ApplyLocalMove.
func (that *Session) PassLocalTurn() rings.Result {
	return that.PassTurn(that.localID)
}

// turnOf returns the running game when playerID is the host's current player.
func (that *Session) turnOf(log *slog.Logger, playerID string) (*entity.Game, rings.Result) {
	if that.room == nil || that.role != RoleHost || that.room.Game == nil {
		return nil, rings.ResultNotPlaying
	}

	game := that.room.Game
	if err := game.ConfirmPlayingState(); err != nil {
		log.Debug("game is not running", "player", playerID, "error", err)
		return nil, rings.ResultNotPlaying
	}

	if current := game.CurrentPlayer(); current == nil || current.ID != playerID {
		log.Debug("not the current player", "player", playerID)
		return nil, rings.ResultNotYourTurn
	}

	return game, ""
}

// SelectRingSize records the local player's pending size choice.
func (that *Session) SelectRingSize(size entity.Size) rings.Result {
	if that.room == nil || that.room.Game == nil {
		return rings.ResultNotPlaying
	}

	next, result := rings.SelectRingSize(that.room.Game, that.localID, size)
	if result.Accepted() {
		that.room.Game = next
	}

	return result
}

// ReplaceGame swaps the guest's mirror for a copy of the host's snapshot.
func (that *Session) ReplaceGame(game *entity.Game) error {
	if that.room == nil {
		return ErrNoRoom
	}

	if game == nil {
		return apperror.ErrGameIsNotStarted
	}

	that.room.Game = game.Clone()

	return nil
}

// Phase is waiting while no game exists, then the game's status.
func (that *Session) Phase() string {
	if that.room == nil {
		return entity.StatusWaiting
	}

	return that.room.Phase()
}

func (that *Session) Role() Role {
	return that.role
}

func (that *Session) IsHost() bool {
	return that.role == RoleHost
}

func (that *Session) LocalPlayerID() string {
	return that.localID
}

func (that *Session) RoomID() string {
	if that.room == nil {
		return ""
	}

	return that.room.ID
}

// PlayerByPeer finds the roster entry registered for a transport peer.
func (that *Session) PlayerByPeer(peerID string) (entity.Player, bool) {
	if that.room == nil {
		return entity.Player{}, false
	}

	player, ok := that.room.PlayerByPeer(peerID)
	if !ok {
		return entity.Player{}, false
	}

	return *player, true
}

// Snapshot returns a deep copy of the room, or nil before a room exists.
func (that *Session) Snapshot() *entity.Room {
	return that.room.Clone()
}
