package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/rings-p2p/internal/apperror"
	"github.com/rocketscienceinc/rings-p2p/internal/network"
	"github.com/rocketscienceinc/rings-p2p/internal/protocol"
)

const (
	channelPrefix  = "rings:peer:"
	publishTimeout = 5 * time.Second
)

const (
	frameHello   = "hello"
	frameWelcome = "welcome"
	frameBye     = "bye"
	frameData    = "data"
)

var ErrAddressInUse = errors.New("peer id already subscribed")

// frame is what travels on a peer's channel.
type frame struct {
	Kind    string            `json:"kind"`
	From    string            `json:"from"`
	Message *protocol.Message `json:"message,omitempty"`
}

// NewClient - connects to Redis and checks the connection.
func NewClient(ctx context.Context, addr string) (*redis.Client, error) {
	conn := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	if _, err := conn.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return conn, nil
}

// Transport links peers through Redis pub/sub. Every peer listens on its own
// channel; a link is a hello/welcome handshake between two channels.
type Transport struct {
	logger *slog.Logger
	client *redis.Client
	id     string

	mu      sync.Mutex
	pubsub  *redis.PubSub
	accept  func(network.Link)
	backlog []network.Link
	links   map[string]*Link
	waiting map[string]chan *Link
	closed  bool
}

// New returns a transport for peerID; an empty id gets a random one. The client stays owned by the caller.
func New(logger *slog.Logger, client *redis.Client, peerID string) *Transport {
	if peerID == "" {
		peerID = uuid.NewString()
	}

	return &Transport{
		logger:  logger.With("component", "redis"),
		client:  client,
		id:      peerID,
		links:   map[string]*Link{},
		waiting: map[string]chan *Link{},
	}
}

func channel(peerID string) string {
	return channelPrefix + peerID
}

func (that *Transport) Open(ctx context.Context) (string, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.closed {
		return "", apperror.ErrNotConnected
	}

	if that.pubsub != nil {
		return that.id, nil
	}

	subscribers, err := that.client.PubSubNumSub(ctx, channel(that.id)).Result()
	if err != nil {
		return "", fmt.Errorf("failed to check channel %s: %w", channel(that.id), err)
	}

	if subscribers[channel(that.id)] > 0 {
		return "", fmt.Errorf("%w: %s", ErrAddressInUse, that.id)
	}

	pubsub := that.client.Subscribe(ctx, channel(that.id))
	if _, err = pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return "", fmt.Errorf("failed to subscribe to %s: %w", channel(that.id), err)
	}

	that.pubsub = pubsub
	go that.listen(pubsub.Channel())

	that.logger.Info("listening", "channel", channel(that.id))

	return that.id, nil
}

// Connect says hello on remote's channel and waits for the welcome.
func (that *Transport) Connect(ctx context.Context, remote string) (network.Link, error) {
	that.mu.Lock()
	if that.pubsub == nil || that.closed {
		that.mu.Unlock()
		return nil, apperror.ErrNotConnected
	}

	welcome := make(chan *Link, 1)
	that.waiting[remote] = welcome
	that.mu.Unlock()

	defer func() {
		that.mu.Lock()
		if that.waiting[remote] == welcome {
			delete(that.waiting, remote)
		}
		that.mu.Unlock()
	}()

	receivers, err := that.publish(ctx, remote, frame{Kind: frameHello, From: that.id})
	if err != nil {
		return nil, err
	}

	if receivers == 0 {
		return nil, fmt.Errorf("%w: %s", apperror.ErrPeerUnavailable, remote)
	}

	select {
	case link := <-welcome:
		return link, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %s: %w", apperror.ErrPeerUnavailable, remote, ctx.Err())
	}
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

// Close says bye on every link and unsubscribes. The Redis client is left open.
func (that *Transport) Close() error {
	that.mu.Lock()
	if that.closed {
		that.mu.Unlock()
		return nil
	}

	that.closed = true
	links := make([]*Link, 0, len(that.links))
	for _, link := range that.links {
		links = append(links, link)
	}
	pubsub := that.pubsub
	that.mu.Unlock()

	for _, link := range links {
		_ = link.Close()
	}

	if pubsub == nil {
		return nil
	}

	if err := pubsub.Close(); err != nil {
		return fmt.Errorf("failed to unsubscribe: %w", err)
	}

	return nil
}

func (that *Transport) listen(messages <-chan *redis.Message) {
	log := that.logger.With("method", "listen")

	for raw := range messages {
		var f frame
		if err := json.Unmarshal([]byte(raw.Payload), &f); err != nil {
			log.Warn("dropping malformed frame", "error", err)
			continue
		}

		switch f.Kind {
		case frameHello:
			that.handleHello(f.From)
		case frameWelcome:
			that.handleWelcome(f.From)
		case frameBye:
			that.handleBye(f.From)
		case frameData:
			that.handleData(f)
		default:
			log.Warn("unknown frame kind", "kind", f.Kind, "from", f.From)
		}
	}
}

func (that *Transport) handleHello(from string) {
	that.mu.Lock()

	if that.closed {
		that.mu.Unlock()
		return
	}

	if stale, ok := that.links[from]; ok {
		stale.inbox.Close()
	}

	link := newLink(that, from)
	that.links[from] = link

	accept := that.accept
	if accept == nil {
		that.backlog = append(that.backlog, link)
	}
	that.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	if _, err := that.publish(ctx, from, frame{Kind: frameWelcome, From: that.id}); err != nil {
		that.logger.Warn("failed to welcome peer", "peer", from, "error", err)
	}

	if accept != nil {
		go accept(link)
	}
}

func (that *Transport) handleWelcome(from string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	welcome, ok := that.waiting[from]
	if !ok {
		return
	}

	delete(that.waiting, from)

	link := newLink(that, from)
	that.links[from] = link
	welcome <- link
}

func (that *Transport) handleBye(from string) {
	that.mu.Lock()
	link, ok := that.links[from]
	if ok {
		delete(that.links, from)
	}
	that.mu.Unlock()

	if ok {
		link.inbox.Close()
	}
}

func (that *Transport) handleData(f frame) {
	if f.Message == nil {
		return
	}

	that.mu.Lock()
	link, ok := that.links[f.From]
	that.mu.Unlock()

	if !ok {
		that.logger.Debug("data from unlinked peer", "peer", f.From, "type", f.Message.Type)
		return
	}

	link.inbox.Push(f.Message)
}

func (that *Transport) forget(link *Link) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.links[link.peerID] == link {
		delete(that.links, link.peerID)
	}
}

func (that *Transport) publish(ctx context.Context, peerID string, f frame) (int64, error) {
	raw, err := json.Marshal(f)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal frame: %w", err)
	}

	receivers, err := that.client.Publish(ctx, channel(peerID), raw).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to publish to %s: %w", channel(peerID), err)
	}

	return receivers, nil
}
