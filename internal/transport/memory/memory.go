package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/rocketscienceinc/rings-p2p/internal/apperror"
	"github.com/rocketscienceinc/rings-p2p/internal/network"
	"github.com/rocketscienceinc/rings-p2p/internal/protocol"
)

var ErrAddressInUse = errors.New("peer id already registered")

// Network is an in-process switchboard: transports created from the same
// Network can reach each other by peer id.
type Network struct {
	mu        sync.Mutex
	endpoints map[string]*Transport
}

func NewNetwork() *Network {
	return &Network{endpoints: map[string]*Transport{}}
}

// NewTransport returns a transport that registers as id on Open. An empty id gets a random one.
func (that *Network) NewTransport(id string) *Transport {
	if id == "" {
		id = uuid.NewString()
	}

	return &Transport{network: that, id: id}
}

func (that *Network) register(transport *Transport) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if existing, ok := that.endpoints[transport.id]; ok && existing != transport {
		return fmt.Errorf("%w: %s", ErrAddressInUse, transport.id)
	}

	that.endpoints[transport.id] = transport

	return nil
}

func (that *Network) unregister(transport *Transport) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.endpoints[transport.id] == transport {
		delete(that.endpoints, transport.id)
	}
}

func (that *Network) lookup(id string) (*Transport, bool) {
	that.mu.Lock()
	defer that.mu.Unlock()

	transport, ok := that.endpoints[id]

	return transport, ok
}

type Transport struct {
	network *Network
	id      string

	mu      sync.Mutex
	open    bool
	closed  bool
	accept  func(network.Link)
	backlog []network.Link
	links   []*Link
}

func (that *Transport) Open(_ context.Context) (string, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.closed {
		return "", apperror.ErrNotConnected
	}

	if err := that.network.register(that); err != nil {
		return "", err
	}

	that.open = true

	return that.id, nil
}

func (that *Transport) Connect(ctx context.Context, remote string) (network.Link, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	that.mu.Lock()
	if !that.open || that.closed {
		that.mu.Unlock()
		return nil, apperror.ErrNotConnected
	}
	that.mu.Unlock()

	target, ok := that.network.lookup(remote)
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperror.ErrPeerUnavailable, remote)
	}

	local, far := newPair(that.id, remote)

	if !target.deliver(far) {
		return nil, fmt.Errorf("%w: %s", apperror.ErrPeerUnavailable, remote)
	}

	that.track(local)

	return local, nil
}

func (that *Transport) Accept(handler func(network.Link)) {
	that.mu.Lock()
	that.accept = handler
	backlog := that.backlog
	that.backlog = nil
	that.mu.Unlock()

	for _, link := range backlog {
		go handler(link)
	}
}

func (that *Transport) Close() error {
	that.mu.Lock()
	if that.closed {
		that.mu.Unlock()
		return nil
	}

	that.closed = true
	links := that.links
	that.links = nil
	that.mu.Unlock()

	that.network.unregister(that)

	for _, link := range links {
		_ = link.Close()
	}

	return nil
}

// deliver hands an inbound link to the accept callback, or parks it until one is installed.
func (that *Transport) deliver(link *Link) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.closed {
		return false
	}

	that.links = append(that.links, link)

	if that.accept == nil {
		that.backlog = append(that.backlog, link)
		return true
	}

	go that.accept(link)

	return true
}

func (that *Transport) track(link *Link) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.links = append(that.links, link)
}

// Link is one end of an in-memory pair. Messages go through the wire encoding
// so each side gets its own copy.
type Link struct {
	peerID string
	remote *Link
	inbox  *network.Inbox
}

func newPair(localID, remoteID string) (*Link, *Link) {
	near := &Link{peerID: remoteID, inbox: network.NewInbox()}
	far := &Link{peerID: localID, inbox: network.NewInbox()}
	near.remote = far
	far.remote = near

	return near, far
}

func (that *Link) PeerID() string {
	return that.peerID
}

func (that *Link) Send(msg *protocol.Message) error {
	raw, err := protocol.Marshal(msg)
	if err != nil {
		return err
	}

	decoded, err := protocol.Unmarshal(raw)
	if err != nil {
		return err
	}

	if that.inbox.IsClosed() || !that.remote.inbox.Push(decoded) {
		return fmt.Errorf("%w: %s", apperror.ErrNotConnected, that.peerID)
	}

	return nil
}

func (that *Link) Serve(onMessage func(*protocol.Message), onClose func()) {
	that.inbox.Serve(onMessage, onClose)
}

// Close ends both sides. Messages already queued are still delivered before onClose.
func (that *Link) Close() error {
	that.inbox.Close()
	that.remote.inbox.Close()

	return nil
}
