package websocket

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/rocketscienceinc/rings-p2p/internal/apperror"
	"github.com/rocketscienceinc/rings-p2p/internal/entity"
	"github.com/rocketscienceinc/rings-p2p/internal/network"
	"github.com/rocketscienceinc/rings-p2p/internal/protocol"
	"github.com/rocketscienceinc/rings-p2p/internal/replication"
	"github.com/rocketscienceinc/rings-p2p/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	waitFor = 3 * time.Second
	roomID  = "424242"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func openHost(t *testing.T) *Transport {
	t.Helper()

	host := New(discardLogger(), Config{ListenAddr: "127.0.0.1:0", PeerID: roomID})
	id, err := host.Open(context.Background())
	require.NoError(t, err)
	require.Equal(t, roomID, id)
	t.Cleanup(func() { _ = host.Close() })

	return host
}

func TestTransport_Exchange(t *testing.T) {
	ctx := context.Background()

	// Given: a listening host and a guest pointed at it
	host := openHost(t)
	accepted := make(chan network.Link, 1)
	host.Accept(func(link network.Link) { accepted <- link })

	guest := New(discardLogger(), Config{HostAddr: host.Addr()})
	guestID, err := guest.Open(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = guest.Close() })

	// When: the guest links to the room and sends a message
	link, err := guest.Connect(ctx, roomID)
	require.NoError(t, err)
	assert.Equal(t, roomID, link.PeerID())

	msg, err := protocol.New(protocol.TypeJoinRoom, guestID, protocol.PlayerPayload{Player: entity.NewPlayer("g", entity.ColorBlue)})
	require.NoError(t, err)
	require.NoError(t, link.Send(msg))

	// Then: the host accepts a link named after the guest and reads the message
	var inbound network.Link
	select {
	case inbound = <-accepted:
	case <-time.After(waitFor):
		t.Fatal("link was not accepted")
	}
	assert.Equal(t, guestID, inbound.PeerID())

	received := make(chan *protocol.Message, 1)
	closed := make(chan struct{})
	inbound.Serve(func(m *protocol.Message) { received <- m }, func() { close(closed) })

	select {
	case got := <-received:
		assert.Equal(t, protocol.TypeJoinRoom, got.Type)
		assert.Equal(t, guestID, got.SenderID)
	case <-time.After(waitFor):
		t.Fatal("message was not delivered")
	}

	// When: the guest hangs up
	require.NoError(t, link.Close())

	// Then: the host side reports the close
	select {
	case <-closed:
	case <-time.After(waitFor):
		t.Fatal("close was not reported")
	}
}

func TestTransport_ConnectErrors(t *testing.T) {
	ctx := context.Background()
	host := openHost(t)

	t.Run("Wrong room", func(t *testing.T) {
		guest := New(discardLogger(), Config{HostAddr: "ws://" + host.Addr()})

		_, err := guest.Connect(ctx, "000000")

		require.ErrorIs(t, err, apperror.ErrPeerUnavailable)
	})

	t.Run("No host address", func(t *testing.T) {
		_, err := New(discardLogger(), Config{}).Connect(ctx, roomID)

		require.ErrorIs(t, err, ErrNoHostAddr)
	})
}

func TestRoomURL(t *testing.T) {
	assert.Equal(t, "ws://localhost:7070/rooms/123456/ws", roomURL("localhost:7070", "123456"))
	assert.Equal(t, "wss://example.org/rooms/123456/ws", roomURL("wss://example.org/", "123456"))
}

func TestTransport_Replication(t *testing.T) {
	ctx := context.Background()
	logger := discardLogger()
	conf := replication.ConnectConfig{Attempts: 2, Step: 10 * time.Millisecond, AttemptTimeout: time.Second}

	// Given: a host peer listening on a websocket
	hostTransport := New(logger, Config{ListenAddr: "127.0.0.1:0", PeerID: roomID})
	host := replication.NewPeer(logger, hostTransport, usecase.NewSession(logger, nil), nil, conf)
	t.Cleanup(func() { _ = host.Close() })

	_, err := host.HostRoom(ctx, entity.NewPlayer("host", entity.ColorRed))
	require.NoError(t, err)

	// When: a guest joins over the network
	guest := replication.NewPeer(logger, New(logger, Config{HostAddr: hostTransport.Addr()}), usecase.NewSession(logger, nil), nil, conf)
	t.Cleanup(func() { _ = guest.Close() })
	require.NoError(t, guest.JoinRoom(ctx, roomID, entity.NewPlayer("guest", entity.ColorYellow)))

	// Then: both sides agree on the roster
	require.Eventually(t, func() bool {
		room := guest.Snapshot()
		return room != nil && len(room.Players) == 2
	}, waitFor, 10*time.Millisecond)
	assert.Len(t, host.Snapshot().Players, 2)

	// When: the host starts the game
	require.NoError(t, host.StartGame())

	// Then: the guest mirrors the host's game
	require.Eventually(t, func() bool {
		room := guest.Snapshot()
		return room.Game != nil && room.Game.IsPlaying()
	}, waitFor, 10*time.Millisecond)
	assert.Equal(t, host.Snapshot().Game, guest.Snapshot().Game)
}
