package memory

import (
	"context"
	"testing"
	"time"

	"github.com/rocketscienceinc/rings-p2p/internal/apperror"
	"github.com/rocketscienceinc/rings-p2p/internal/network"
	"github.com/rocketscienceinc/rings-p2p/internal/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const waitFor = 2 * time.Second

func TestTransport_Exchange(t *testing.T) {
	ctx := context.Background()
	net := NewNetwork()

	// Given: a host registered as the room id and a guest
	host := net.NewTransport("123456")
	hostID, err := host.Open(ctx)
	require.NoError(t, err)
	assert.Equal(t, "123456", hostID)

	guest := net.NewTransport("")
	guestID, err := guest.Open(ctx)
	require.NoError(t, err)

	// When: the guest connects and sends before the host accepts
	link, err := guest.Connect(ctx, hostID)
	require.NoError(t, err)
	assert.Equal(t, hostID, link.PeerID())

	msg, err := protocol.New(protocol.TypePlaceRing, guestID, protocol.PlacePayload{CellID: "cell-0-0"})
	require.NoError(t, err)
	require.NoError(t, link.Send(msg))

	accepted := make(chan network.Link, 1)
	host.Accept(func(l network.Link) { accepted <- l })

	// Then: the host gets the link and the buffered message
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
		assert.Equal(t, protocol.TypePlaceRing, got.Type)
		assert.Equal(t, guestID, got.SenderID)
	case <-time.After(waitFor):
		t.Fatal("message was not delivered")
	}

	// When: the guest closes its side
	require.NoError(t, link.Close())

	// Then: the host side is told and further sends fail
	select {
	case <-closed:
	case <-time.After(waitFor):
		t.Fatal("close was not reported")
	}
	require.ErrorIs(t, inbound.Send(msg), apperror.ErrNotConnected)
}

func TestTransport_Errors(t *testing.T) {
	ctx := context.Background()
	net := NewNetwork()

	t.Run("Unknown peer", func(t *testing.T) {
		guest := net.NewTransport("")
		_, err := guest.Open(ctx)
		require.NoError(t, err)

		_, err = guest.Connect(ctx, "999999")

		require.ErrorIs(t, err, apperror.ErrPeerUnavailable)
	})

	t.Run("Id already taken", func(t *testing.T) {
		_, err := net.NewTransport("111111").Open(ctx)
		require.NoError(t, err)

		_, err = net.NewTransport("111111").Open(ctx)

		require.ErrorIs(t, err, ErrAddressInUse)
	})

	t.Run("Closed host is unreachable", func(t *testing.T) {
		host := net.NewTransport("222222")
		_, err := host.Open(ctx)
		require.NoError(t, err)
		require.NoError(t, host.Close())

		guest := net.NewTransport("")
		_, err = guest.Open(ctx)
		require.NoError(t, err)

		_, err = guest.Connect(ctx, "222222")

		require.ErrorIs(t, err, apperror.ErrPeerUnavailable)
	})

	t.Run("Connect before open", func(t *testing.T) {
		_, err := net.NewTransport("").Connect(ctx, "111111")

		require.ErrorIs(t, err, apperror.ErrNotConnected)
	})
}
