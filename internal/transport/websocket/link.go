package websocket

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/rings-p2p/internal/protocol"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Link is a peer link over one websocket connection carrying JSON text frames.
type Link struct {
	logger *slog.Logger
	conn   *websocket.Conn
	peerID string

	writeMu   sync.Mutex
	serveOnce sync.Once
	closeOnce sync.Once
	done      chan struct{}
}

func newLink(logger *slog.Logger, conn *websocket.Conn, peerID string) *Link {
	return &Link{
		logger: logger.With("peer", peerID),
		conn:   conn,
		peerID: peerID,
		done:   make(chan struct{}),
	}
}

func (that *Link) PeerID() string {
	return that.peerID
}

func (that *Link) Send(msg *protocol.Message) error {
	raw, err := protocol.Marshal(msg)
	if err != nil {
		return err
	}

	if err = that.write(websocket.TextMessage, raw); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	return nil
}

// Serve reads frames until the connection fails. Unread frames wait in the socket until then.
func (that *Link) Serve(onMessage func(*protocol.Message), onClose func()) {
	that.serveOnce.Do(func() {
		go that.readLoop(onMessage, onClose)
		go that.pingLoop()
	})
}

func (that *Link) Close() error {
	var err error

	that.closeOnce.Do(func() {
		close(that.done)

		_ = that.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		err = that.conn.Close()
	})

	return err
}

func (that *Link) readLoop(onMessage func(*protocol.Message), onClose func()) {
	defer onClose()
	defer func() { _ = that.Close() }()

	_ = that.conn.SetReadDeadline(time.Now().Add(pongWait))
	that.conn.SetPongHandler(func(string) error {
		return that.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := that.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				that.logger.Warn("link read failed", "error", err)
			}

			return
		}

		msg, err := protocol.Unmarshal(data)
		if err != nil {
			that.logger.Warn("dropping malformed frame", "error", err)
			continue
		}

		onMessage(msg)
	}
}

func (that *Link) pingLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-that.done:
			return
		case <-ticker.C:
			if err := that.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (that *Link) write(messageType int, data []byte) error {
	that.writeMu.Lock()
	defer that.writeMu.Unlock()

	_ = that.conn.SetWriteDeadline(time.Now().Add(writeWait))

	return that.conn.WriteMessage(messageType, data)
}
