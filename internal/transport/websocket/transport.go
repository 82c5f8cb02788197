package websocket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/rings-p2p/internal/apperror"
	"github.com/rocketscienceinc/rings-p2p/internal/network"
)

// PeerIDHeader carries the dialing peer's id on the upgrade request.
const PeerIDHeader = "X-Peer-Id"

var ErrNoHostAddr = errors.New("host address is empty")

type Config struct {
	// ListenAddr makes this peer accept links, e.g. ":7070". Guests leave it empty.
	ListenAddr string
	// HostAddr is where guests dial, e.g. "ws://10.0.0.5:7070" or "10.0.0.5:7070".
	HostAddr string
	// PeerID is the local id; the host uses its room id. Empty gets a random one.
	PeerID string
}

type Transport struct {
	logger   *slog.Logger
	conf     Config
	id       string
	upgrader websocket.Upgrader
	dialer   *websocket.Dialer

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
	accept   func(network.Link)
	backlog  []network.Link
	links    []*Link
	closed   bool
}

func New(logger *slog.Logger, conf Config) *Transport {
	id := conf.PeerID
	if id == "" {
		id = uuid.NewString()
	}

	return &Transport{
		logger: logger.With("component", "websocket"),
		conf:   conf,
		id:     id,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		dialer: &websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
		},
	}
}

// Open starts listening when ListenAddr is set.
func (that *Transport) Open(_ context.Context) (string, error) {
	log := that.logger.With("method", "Open")

	that.mu.Lock()
	defer that.mu.Unlock()

	if that.closed {
		return "", apperror.ErrNotConnected
	}

	if that.conf.ListenAddr == "" || that.listener != nil {
		return that.id, nil
	}

	listener, err := net.Listen("tcp", that.conf.ListenAddr)
	if err != nil {
		return "", fmt.Errorf("failed to listen on %s: %w", that.conf.ListenAddr, err)
	}

	router := mux.NewRouter()
	router.HandleFunc("/rooms/{roomID}/ws", that.handleUpgrade)

	that.listener = listener
	that.server = &http.Server{
		Handler:     router,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 30 * time.Second,
	}

	go func() {
		if serveErr := that.server.Serve(listener); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			log.Error("websocket server stopped", "error", serveErr)
		}
	}()

	log.Info("Starting WebSocket server", "addr", listener.Addr().String(), "room", that.id)

	return that.id, nil
}

// Addr is the address the host listens on, or "" before Open.
func (that *Transport) Addr() string {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.listener == nil {
		return ""
	}

	return that.listener.Addr().String()
}

func (that *Transport) Connect(ctx context.Context, remote string) (network.Link, error) {
	if that.conf.HostAddr == "" {
		return nil, ErrNoHostAddr
	}

	header := http.Header{}
	header.Set(PeerIDHeader, that.id)

	conn, resp, err := that.dialer.DialContext(ctx, roomURL(that.conf.HostAddr, remote), header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}

	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", apperror.ErrPeerUnavailable, remote, err)
	}

	link := newLink(that.logger, conn, remote)

	that.mu.Lock()
	defer that.mu.Unlock()

	if that.closed {
		_ = link.Close()
		return nil, apperror.ErrNotConnected
	}

	that.links = append(that.links, link)

	return link, nil
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
	server := that.server
	that.links = nil
	that.mu.Unlock()

	for _, link := range links {
		_ = link.Close()
	}

	if server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down websocket server: %w", err)
	}

	return nil
}

// handleUpgrade - upgrades a guest's request for this room to a link.
func (that *Transport) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "handleUpgrade")

	if mux.Vars(r)["roomID"] != that.id {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}

	peerID := r.Header.Get(PeerIDHeader)
	if peerID == "" {
		http.Error(w, "peer id is required", http.StatusBadRequest)
		return
	}

	conn, err := that.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	link := newLink(that.logger, conn, peerID)

	that.mu.Lock()
	defer that.mu.Unlock()

	if that.closed {
		_ = link.Close()
		return
	}

	that.links = append(that.links, link)

	if that.accept == nil {
		that.backlog = append(that.backlog, link)
		return
	}

	go that.accept(link)
}

func roomURL(hostAddr, roomID string) string {
	base := strings.TrimSuffix(hostAddr, "/")
	if !strings.HasPrefix(base, "ws://") && !strings.HasPrefix(base, "wss://") {
		base = "ws://" + base
	}

	return fmt.Sprintf("%s/rooms/%s/ws", base, roomID)
}
