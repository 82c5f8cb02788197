package network

import (
	"context"

	"github.com/rocketscienceinc/rings-p2p/internal/protocol"
)

// Transport opens this process to other peers and links it to them.
type Transport interface {
	// Open registers the local endpoint and returns its peer id.
	Open(ctx context.Context) (string, error)
	// Connect links to the peer registered under remote.
	Connect(ctx context.Context, remote string) (Link, error)
	// Accept installs the callback for links other peers open to us.
	Accept(handler func(Link))
	Close() error
}

// Link is a bidirectional message channel to one remote peer.
type Link interface {
	PeerID() string
	Send(msg *protocol.Message) error
	// Serve delivers inbound messages in order and calls onClose once when the link ends.
	// Messages that arrive before Serve is called are buffered.
	Serve(onMessage func(*protocol.Message), onClose func())
	Close() error
}
