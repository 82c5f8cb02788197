package replication

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/rocketscienceinc/rings-p2p/internal/apperror"
	"github.com/rocketscienceinc/rings-p2p/internal/entity"
	"github.com/rocketscienceinc/rings-p2p/internal/network"
	"github.com/rocketscienceinc/rings-p2p/internal/protocol"
	"github.com/rocketscienceinc/rings-p2p/internal/rings"
)

var ErrPeerClosed = errors.New("peer is closed")

// ResultForwarded is what a guest gets back for a placement it sent to the host.
const ResultForwarded rings.Result = "forwarded"

type session interface {
	CreateRoom(roomID string, host entity.Player) (*entity.Room, error)
	EnterRoom(roomID string, local entity.Player) error
	Join(player entity.Player) error
	Leave(playerID string) bool
	StartGame() (*entity.Game, error)
	ApplyRemoteMove(playerID, cellID string, size entity.Size) rings.Result
	ApplyLocalMove(cellID string, size entity.Size) rings.Result
	PassTurn(playerID string) rings.Result
	PassLocalTurn() rings.Result
	SelectRingSize(size entity.Size) rings.Result
	ReplaceGame(game *entity.Game) error
	IsHost() bool
	PlayerByPeer(peerID string) (entity.Player, bool)
	Snapshot() *entity.Room
}

type metrics interface {
	MessageReceived(msgType string)
	MessageSent(msgType string)
	MoveHandled(result string)
	ConnectAttempt(ok bool)
	SetConnectedPeers(count int)
}

type handlerFunc func(link network.Link, msg *protocol.Message) error

// Peer wires one session to a transport. Every transition, whether it comes
// from a link or from a local call, runs under one lock.
type Peer struct {
	logger    *slog.Logger
	transport network.Transport
	session   session
	metrics   metrics
	connect   ConnectConfig

	mu        sync.Mutex
	peerID    string
	handlers  map[string]handlerFunc
	links     map[string]network.Link
	hostLink  network.Link
	rejected  bool
	closed    bool
	observers []func(Event)
	pending   []Event
	closing   []network.Link
}

func NewPeer(logger *slog.Logger, transport network.Transport, session session, metrics metrics, connect ConnectConfig) *Peer {
	if metrics == nil {
		metrics = nopMetrics{}
	}

	return &Peer{
		logger:    logger.With("component", "peer"),
		transport: transport,
		session:   session,
		metrics:   metrics,
		connect:   connect,

		handlers: map[string]handlerFunc{},
		links:    map[string]network.Link{},
	}
}

func (that *Peer) PeerID() string {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.peerID
}

// Snapshot returns a copy of the local view of the room.
func (that *Peer) Snapshot() *entity.Room {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.session.Snapshot()
}

// StartGame deals the game, broadcasts it and updates the local view without a round trip. Host only.
func (that *Peer) StartGame() error {
	that.mu.Lock()
	defer that.unlock()

	if that.closed {
		return ErrPeerClosed
	}

	game, err := that.session.StartGame()
	if err != nil {
		return fmt.Errorf("could not start game: %w", err)
	}

	that.broadcast(protocol.TypeGameStart, protocol.GamePayload{GameState: game})
	that.emit(EventGameChanged, "")

	return nil
}

// SelectRingSize records the local player's size choice. The host shares it with everyone.
func (that *Peer) SelectRingSize(size entity.Size) rings.Result {
	that.mu.Lock()
	defer that.unlock()

	if that.closed {
		return rings.ResultNotPlaying
	}

	result := that.session.SelectRingSize(size)
	if !result.Accepted() {
		return result
	}

	if that.session.IsHost() {
		that.broadcastGame(protocol.TypeGameState)
	}

	that.emit(EventGameChanged, "")

	return result
}

// ClickCell places the selected size on cellID.
func (that *Peer) ClickCell(cellID string) (rings.Result, error) {
	that.mu.Lock()
	defer that.unlock()

	room := that.session.Snapshot()
	if room == nil || room.Game == nil {
		return rings.ResultNotPlaying, nil
	}

	if room.Game.SelectedRingSize == "" {
		return rings.ResultInvalidSize, nil
	}

	return that.placeRing(cellID, room.Game.SelectedRingSize)
}

// PlaceRing applies the placement on the host, or forwards it to the host from a guest.
func (that *Peer) PlaceRing(cellID string, size entity.Size) (rings.Result, error) {
	that.mu.Lock()
	defer that.unlock()

	return that.placeRing(cellID, size)
}

func (that *Peer) placeRing(cellID string, size entity.Size) (rings.Result, error) {
	if that.closed {
		return rings.ResultNotPlaying, ErrPeerClosed
	}

	if !that.session.IsHost() {
		if that.hostLink == nil {
			return "", apperror.ErrNotConnected
		}

		if err := that.send(that.hostLink, protocol.TypePlaceRing, protocol.PlacePayload{CellID: cellID, RingSize: size}); err != nil {
			return "", err
		}

		return ResultForwarded, nil
	}

	result := that.session.ApplyLocalMove(cellID, size)
	that.metrics.MoveHandled(string(result))

	if result.Accepted() {
		that.broadcastGame(protocol.TypeGameState)
		that.emit(EventGameChanged, "")
	}

	return result, nil
}

// PassTurn gives up the local player's turn when it has no legal placement.
// A guest asks the host and gets ResultForwarded back.
func (that *Peer) PassTurn() (rings.Result, error) {
	that.mu.Lock()
	defer that.unlock()

	if that.closed {
		return rings.ResultNotPlaying, ErrPeerClosed
	}

	if !that.session.IsHost() {
		if that.hostLink == nil {
			return "", apperror.ErrNotConnected
		}

		if err := that.send(that.hostLink, protocol.TypePassTurn, struct{}{}); err != nil {
			return "", err
		}

		return ResultForwarded, nil
	}

	result := that.session.PassLocalTurn()
	that.metrics.MoveHandled(string(result))

	if result.Accepted() {
		that.broadcastGame(protocol.TypeGameState)
		that.emit(EventGameChanged, "")
	}

	return result, nil
}

// Close tears down every link and the transport. Callbacks that arrive afterwards are dropped.
func (that *Peer) Close() error {
	that.mu.Lock()
	if that.closed {
		that.mu.Unlock()
		return nil
	}

	that.closed = true
	for _, link := range that.links {
		that.closing = append(that.closing, link)
	}
	that.links = map[string]network.Link{}
	that.hostLink = nil
	that.pending = nil
	that.metrics.SetConnectedPeers(0)
	that.unlock()

	if err := that.transport.Close(); err != nil {
		return fmt.Errorf("failed to close transport: %w", err)
	}

	that.logger.Info("peer closed")

	return nil
}

// serve starts delivering a link's traffic into the peer.
func (that *Peer) serve(link network.Link) {
	link.Serve(
		func(msg *protocol.Message) {
			that.metrics.MessageReceived(msg.Type)
			that.dispatch(link, msg)
		},
		func() {
			that.linkClosed(link)
		},
	)
}

// linkClosed turns the end of a link into a local LEAVE_ROOM.
func (that *Peer) linkClosed(link network.Link) {
	msg, err := protocol.New(protocol.TypeLeaveRoom, link.PeerID(), protocol.LeavePayload{PeerID: link.PeerID()})
	if err != nil {
		that.logger.Error("failed to build leave message", "error", err)
		return
	}

	that.dispatch(link, msg)
}

func (that *Peer) dispatch(link network.Link, msg *protocol.Message) {
	log := that.logger.With("method", "dispatch")

	that.mu.Lock()
	defer that.unlock()

	if that.closed {
		return
	}

	handler, ok := that.handlers[msg.Type]
	if !ok {
		log.Warn("no handler for message", "type", msg.Type, "from", link.PeerID())
		return
	}

	if err := handler(link, msg); err != nil {
		log.Error("failed to handle message", "type", msg.Type, "from", link.PeerID(), "error", err)
	}
}

func (that *Peer) send(link network.Link, msgType string, payload any) error {
	msg, err := protocol.New(msgType, that.peerID, payload)
	if err != nil {
		return err
	}

	if err = link.Send(msg); err != nil {
		return fmt.Errorf("failed to send %s to %s: %w", msgType, link.PeerID(), err)
	}

	that.metrics.MessageSent(msgType)

	return nil
}

// broadcast sends to every linked peer that is in the roster. Peers still
// waiting for admission only hear from handleJoinRoom.
func (that *Peer) broadcast(msgType string, payload any) {
	for peerID, link := range that.links {
		if _, joined := that.session.PlayerByPeer(peerID); !joined {
			continue
		}

		if err := that.send(link, msgType, payload); err != nil {
			that.logger.Warn("broadcast failed", "type", msgType, "peer", link.PeerID(), "error", err)
		}
	}
}

func (that *Peer) broadcastGame(msgType string) {
	room := that.session.Snapshot()
	if room == nil || room.Game == nil {
		return
	}

	that.broadcast(msgType, protocol.GamePayload{GameState: room.Game})
}

type nopMetrics struct{}

func (nopMetrics) MessageReceived(string) {}
func (nopMetrics) MessageSent(string)     {}
func (nopMetrics) MoveHandled(string)     {}
func (nopMetrics) ConnectAttempt(bool)    {}
func (nopMetrics) SetConnectedPeers(int)  {}
