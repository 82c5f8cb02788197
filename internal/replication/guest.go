package replication

import (
	"context"
	"fmt"

	"github.com/rocketscienceinc/rings-p2p/internal/entity"
	"github.com/rocketscienceinc/rings-p2p/internal/network"
	"github.com/rocketscienceinc/rings-p2p/internal/protocol"
)

// JoinRoom links to the host of roomID and asks to join as player. Admission
// arrives later as roster events, or as EventJoinRejected.
func (that *Peer) JoinRoom(ctx context.Context, roomID string, player entity.Player) error {
	peerID, err := that.transport.Open(ctx)
	if err != nil {
		return fmt.Errorf("failed to open transport: %w", err)
	}

	link, err := that.dial(ctx, roomID)
	if err != nil {
		return err
	}

	that.mu.Lock()

	if that.closed {
		that.closing = append(that.closing, link)
		that.unlock()
		return ErrPeerClosed
	}

	if err = that.session.EnterRoom(roomID, player); err != nil {
		that.closing = append(that.closing, link)
		that.unlock()
		return fmt.Errorf("failed to enter room: %w", err)
	}

	that.peerID = peerID
	that.hostLink = link
	that.links[link.PeerID()] = link
	that.metrics.SetConnectedPeers(len(that.links))
	that.handlers = map[string]handlerFunc{
		protocol.TypePlayerJoined: that.handlePlayerJoined,
		protocol.TypeGameStart:    that.handleGameState,
		protocol.TypeGameState:    that.handleGameState,
		protocol.TypeLeaveRoom:    that.handleLeaveRoom,
		protocol.TypeJoinRejected: that.handleJoinRejected,
	}
	that.unlock()

	that.serve(link)

	that.mu.Lock()
	err = that.send(link, protocol.TypeJoinRoom, protocol.PlayerPayload{Player: player})
	that.unlock()

	if err != nil {
		return fmt.Errorf("failed to request join: %w", err)
	}

	that.logger.Info("join requested", "room", roomID, "player", player.ID, "color", player.Color)

	return nil
}

func (that *Peer) handlePlayerJoined(_ network.Link, msg *protocol.Message) error {
	var payload protocol.PlayerPayload
	if err := msg.Decode(&payload); err != nil {
		return err
	}

	if err := that.session.Join(payload.Player); err != nil {
		return fmt.Errorf("failed to mirror player %s: %w", payload.Player.ID, err)
	}

	that.emit(EventRosterChanged, "")

	return nil
}

// handleGameState replaces the mirror with the host's snapshot.
func (that *Peer) handleGameState(_ network.Link, msg *protocol.Message) error {
	var payload protocol.GamePayload
	if err := msg.Decode(&payload); err != nil {
		return err
	}

	if err := that.session.ReplaceGame(payload.GameState); err != nil {
		return fmt.Errorf("failed to replace game: %w", err)
	}

	that.emit(EventGameChanged, "")

	return nil
}

// handleLeaveRoom covers both a guest the host reports gone and the end of our own link to the host.
func (that *Peer) handleLeaveRoom(link network.Link, msg *protocol.Message) error {
	var payload protocol.LeavePayload
	if err := msg.Decode(&payload); err != nil {
		return err
	}

	if payload.PeerID != link.PeerID() {
		if that.session.Leave(payload.PlayerID) {
			that.emit(EventRosterChanged, "")
		}

		return nil
	}

	delete(that.links, link.PeerID())
	that.metrics.SetConnectedPeers(len(that.links))

	if link != that.hostLink {
		return nil
	}

	that.hostLink = nil

	if !that.rejected {
		that.logger.Warn("lost link to host", "host", link.PeerID())
		that.emit(EventHostLost, "host disconnected")
	}

	return nil
}

func (that *Peer) handleJoinRejected(link network.Link, msg *protocol.Message) error {
	var payload protocol.RejectPayload
	if err := msg.Decode(&payload); err != nil {
		return err
	}

	that.rejected = true
	that.closing = append(that.closing, link)
	that.emit(EventJoinRejected, payload.Reason)

	that.logger.Info("join rejected by host", "reason", payload.Reason)

	return nil
}
