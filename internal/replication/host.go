package replication

import (
	"context"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/rings-p2p/internal/apperror"
	"github.com/rocketscienceinc/rings-p2p/internal/entity"
	"github.com/rocketscienceinc/rings-p2p/internal/network"
	"github.com/rocketscienceinc/rings-p2p/internal/protocol"
)

// HostRoom opens the transport and creates a room whose id is this peer's id.
func (that *Peer) HostRoom(ctx context.Context, host entity.Player) (*entity.Room, error) {
	peerID, err := that.transport.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open transport: %w", err)
	}

	that.mu.Lock()

	if that.closed {
		that.unlock()
		return nil, ErrPeerClosed
	}

	room, err := that.session.CreateRoom(peerID, host)
	if err != nil {
		that.unlock()
		return nil, fmt.Errorf("failed to create room: %w", err)
	}

	that.peerID = peerID
	that.handlers = map[string]handlerFunc{
		protocol.TypeJoinRoom:  that.handleJoinRoom,
		protocol.TypePlaceRing: that.handlePlaceRing,
		protocol.TypePassTurn:  that.handlePassTurn,
		protocol.TypeLeaveRoom: that.handleGuestLeft,
	}
	that.emit(EventRosterChanged, "")
	that.unlock()

	that.transport.Accept(that.accept)

	that.logger.Info("hosting room", "room", room.ID)

	return room, nil
}

func (that *Peer) accept(link network.Link) {
	that.mu.Lock()

	if that.closed {
		that.closing = append(that.closing, link)
		that.unlock()
		return
	}

	that.links[link.PeerID()] = link
	that.metrics.SetConnectedPeers(len(that.links))
	that.unlock()

	that.logger.Debug("link accepted", "peer", link.PeerID())

	that.serve(link)
}

// handleJoinRoom admits a guest, replays the roster to it and announces it to everyone.
func (that *Peer) handleJoinRoom(link network.Link, msg *protocol.Message) error {
	log := that.logger.With("method", "handleJoinRoom")

	var payload protocol.PlayerPayload
	if err := msg.Decode(&payload); err != nil {
		return err
	}

	player := payload.Player
	player.PeerID = link.PeerID()

	if err := that.session.Join(player); err != nil {
		log.Info("join rejected", "player", player.ID, "color", player.Color, "error", err)

		sendErr := that.send(link, protocol.TypeJoinRejected, protocol.RejectPayload{Reason: rejectReason(err)})
		that.dropLink(link)

		return sendErr
	}

	room := that.session.Snapshot()
	for _, existing := range room.Players {
		if existing.ID == player.ID {
			continue
		}

		if err := that.send(link, protocol.TypePlayerJoined, protocol.PlayerPayload{Player: public(existing)}); err != nil {
			return err
		}
	}

	that.broadcast(protocol.TypePlayerJoined, protocol.PlayerPayload{Player: public(player)})
	that.emit(EventRosterChanged, "")

	return nil
}

// handlePlaceRing applies a guest's placement and shares the new state when it was accepted.
func (that *Peer) handlePlaceRing(link network.Link, msg *protocol.Message) error {
	log := that.logger.With("method", "handlePlaceRing")

	var payload protocol.PlacePayload
	if err := msg.Decode(&payload); err != nil {
		return err
	}

	var playerID string
	if player, ok := that.session.PlayerByPeer(link.PeerID()); ok {
		playerID = player.ID
	}

	result := that.session.ApplyRemoteMove(playerID, payload.CellID, payload.RingSize)
	that.metrics.MoveHandled(string(result))

	if !result.Accepted() {
		log.Debug("placement dropped", "peer", link.PeerID(), "cell", payload.CellID, "size", payload.RingSize, "result", result)
		return nil
	}

	that.broadcastGame(protocol.TypeGameState)
	that.emit(EventGameChanged, "")

	return nil
}

// handlePassTurn lets the guest whose turn it is skip a turn it cannot play.
func (that *Peer) handlePassTurn(link network.Link, _ *protocol.Message) error {
	player, ok := that.session.PlayerByPeer(link.PeerID())
	if !ok {
		that.logger.Debug("pass from a peer outside the roster", "peer", link.PeerID())
		return nil
	}

	result := that.session.PassTurn(player.ID)
	that.metrics.MoveHandled(string(result))

	if !result.Accepted() {
		return nil
	}

	that.broadcastGame(protocol.TypeGameState)
	that.emit(EventGameChanged, "")

	return nil
}

// dropLink forgets a link and closes it once the lock is released.
func (that *Peer) dropLink(link network.Link) {
	if that.links[link.PeerID()] == link {
		delete(that.links, link.PeerID())
		that.metrics.SetConnectedPeers(len(that.links))
	}

	that.closing = append(that.closing, link)
}

// handleGuestLeft forgets a closed link. While the room waits, the guest's seat is freed and everyone is told.
func (that *Peer) handleGuestLeft(link network.Link, msg *protocol.Message) error {
	var payload protocol.LeavePayload
	if err := msg.Decode(&payload); err != nil {
		return err
	}

	if payload.PeerID != link.PeerID() {
		return nil
	}

	if that.links[link.PeerID()] == link {
		delete(that.links, link.PeerID())
		that.metrics.SetConnectedPeers(len(that.links))
	}

	player, ok := that.session.PlayerByPeer(link.PeerID())
	if !ok || !that.session.Leave(player.ID) {
		return nil
	}

	that.broadcast(protocol.TypeLeaveRoom, protocol.LeavePayload{PeerID: link.PeerID(), PlayerID: player.ID})
	that.emit(EventRosterChanged, "")

	return nil
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, apperror.ErrRoomFull):
		return apperror.ErrRoomFull.Error()
	case errors.Is(err, apperror.ErrColorTaken):
		return apperror.ErrColorTaken.Error()
	case errors.Is(err, apperror.ErrInvalidColor):
		return apperror.ErrInvalidColor.Error()
	case errors.Is(err, apperror.ErrGameAlreadyStarted):
		return apperror.ErrGameAlreadyStarted.Error()
	default:
		return err.Error()
	}
}

// public strips transport bookkeeping before a player goes on the wire.
func public(player entity.Player) entity.Player {
	player.PeerID = ""
	return player
}
