package redis

import (
	"context"
	"fmt"
	"sync"

	"github.com/rocketscienceinc/rings-p2p/internal/apperror"
	"github.com/rocketscienceinc/rings-p2p/internal/network"
	"github.com/rocketscienceinc/rings-p2p/internal/protocol"
)

type Link struct {
	transport *Transport
	peerID    string
	inbox     *network.Inbox
	closeOnce sync.Once
}

func newLink(transport *Transport, peerID string) *Link {
	return &Link{
		transport: transport,
		peerID:    peerID,
		inbox:     network.NewInbox(),
	}
}

func (that *Link) PeerID() string {
	return that.peerID
}

// Send publishes msg on the remote peer's channel. Nobody listening there means the peer is gone.
func (that *Link) Send(msg *protocol.Message) error {
	if that.inbox.IsClosed() {
		return fmt.Errorf("%w: %s", apperror.ErrNotConnected, that.peerID)
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	receivers, err := that.transport.publish(ctx, that.peerID, frame{Kind: frameData, From: that.transport.id, Message: msg})
	if err != nil {
		return err
	}

	if receivers == 0 {
		_ = that.Close()
		return fmt.Errorf("%w: %s", apperror.ErrPeerUnavailable, that.peerID)
	}

	return nil
}

func (that *Link) Serve(onMessage func(*protocol.Message), onClose func()) {
	that.inbox.Serve(onMessage, onClose)
}

// Close says bye to the remote peer and ends the local side.
func (that *Link) Close() error {
	var err error

	that.closeOnce.Do(func() {
		that.transport.forget(that)
		that.inbox.Close()

		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()

		_, err = that.transport.publish(ctx, that.peerID, frame{Kind: frameBye, From: that.transport.id})
	})

	return err
}
