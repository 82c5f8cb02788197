package console

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rocketscienceinc/rings-p2p/internal/apperror"
	"github.com/rocketscienceinc/rings-p2p/internal/entity"
	"github.com/rocketscienceinc/rings-p2p/internal/replication"
	"github.com/rocketscienceinc/rings-p2p/internal/rings"
	"github.com/rocketscienceinc/rings-p2p/internal/service"
	"github.com/rocketscienceinc/rings-p2p/internal/transport/memory"
	"github.com/rocketscienceinc/rings-p2p/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const waitFor = 5 * time.Second

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (that *syncBuffer) Write(p []byte) (int, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.buf.Write(p)
}

func (that *syncBuffer) String() string {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.buf.String()
}

type mockPeer struct {
	mock.Mock

	room     *entity.Room
	observer func(replication.Event)
}

func (that *mockPeer) Snapshot() *entity.Room { return that.room }

func (that *mockPeer) StartGame() error {
	return that.Called().Error(0)
}

func (that *mockPeer) SelectRingSize(size entity.Size) rings.Result {
	return that.Called(size).Get(0).(rings.Result)
}

func (that *mockPeer) ClickCell(cellID string) (rings.Result, error) {
	args := that.Called(cellID)
	return args.Get(0).(rings.Result), args.Error(1)
}

func (that *mockPeer) PlaceRing(cellID string, size entity.Size) (rings.Result, error) {
	args := that.Called(cellID, size)
	return args.Get(0).(rings.Result), args.Error(1)
}

func (that *mockPeer) PassTurn() (rings.Result, error) {
	args := that.Called()
	return args.Get(0).(rings.Result), args.Error(1)
}

func (that *mockPeer) Subscribe(observer func(replication.Event)) {
	that.observer = observer
}

func newConsole() (*Console, *mockPeer, *syncBuffer) {
	peer := &mockPeer{room: entity.NewRoom("123456", entity.NewPlayer("ann", entity.ColorRed))}
	out := &syncBuffer{}

	return New(discardLogger(), peer, service.NewBotService(), "", out), peer, out
}

func TestConsole_Execute(t *testing.T) {
	t.Run("Start and select", func(t *testing.T) {
		console, peer, _ := newConsole()
		peer.On("StartGame").Return(nil).Once()
		peer.On("SelectRingSize", entity.SizeMedium).Return(rings.ResultSelected).Once()

		_, err := console.Execute("start")
		require.NoError(t, err)
		_, err = console.Execute("select Medium")
		require.NoError(t, err)

		peer.AssertExpectations(t)
	})

	t.Run("Start refused", func(t *testing.T) {
		console, peer, _ := newConsole()
		peer.On("StartGame").Return(apperror.ErrInsufficientPlayers)

		_, err := console.Execute("start")

		require.ErrorIs(t, err, apperror.ErrInsufficientPlayers)
	})

	t.Run("Place forms", func(t *testing.T) {
		// Given: a console over a mocked peer
		console, peer, out := newConsole()
		peer.On("ClickCell", "cell-1-2").Return(rings.ResultPlaced, nil).Once()
		peer.On("ClickCell", "cell-0-0").Return(rings.ResultSizeOccupied, nil).Once()
		peer.On("PlaceRing", "cell-2-2", entity.SizeLarge).Return(rings.ResultPlaced, nil).Once()
		peer.On("PlaceRing", "cell-2-1", entity.SizeSmall).Return(replication.ResultForwarded, nil).Once()

		// When: the user places with and without a size
		for _, line := range []string{"place 1 2", "place cell-0-0", "place 2 2 large", "place cell-2-1 small"} {
			_, err := console.Execute(line)
			require.NoError(t, err, line)
		}

		// Then: sized placements go straight through, the rest use the selected size, and only the rejection is reported
		peer.AssertExpectations(t)
		assert.Equal(t, 1, strings.Count(out.String(), "rejected:"))
		assert.Contains(t, out.String(), "rejected: size_occupied")
	})

	t.Run("Bad input", func(t *testing.T) {
		console, peer, _ := newConsole()

		cases := map[string]error{
			"dance":             ErrUnknownCommand,
			"place":             ErrUsage,
			"place 1":           ErrUsage,
			"place x 1":         ErrUsage,
			"place cell-3-3":    entity.ErrInvalidCellID,
			"place 1 1 huge":    apperror.ErrInvalidSize,
			"place 1 1 small 2": ErrUsage,
			"select":            ErrUsage,
			"select tiny":       apperror.ErrInvalidSize,
			"bot maybe":         ErrUsage,
		}

		for line, want := range cases {
			_, err := console.Execute(line)
			require.ErrorIs(t, err, want, line)
		}

		peer.AssertNotCalled(t, "ClickCell", mock.Anything)
		peer.AssertNotCalled(t, "PlaceRing", mock.Anything, mock.Anything)
	})

	t.Run("Pass", func(t *testing.T) {
		console, peer, out := newConsole()
		peer.On("PassTurn").Return(rings.ResultCanStillMove, nil).Once()

		_, err := console.Execute("pass")

		require.NoError(t, err)
		peer.AssertExpectations(t)
		assert.Contains(t, out.String(), "rejected: can_still_move")
	})

	t.Run("Quit", func(t *testing.T) {
		console, _, _ := newConsole()

		quit, err := console.Execute("quit")

		require.NoError(t, err)
		assert.True(t, quit)
	})

	t.Run("Events are printed", func(t *testing.T) {
		_, peer, out := newConsole()

		peer.observer(replication.Event{Kind: replication.EventJoinRejected, Reason: "room is full"})
		peer.observer(replication.Event{Kind: replication.EventRosterChanged, Room: peer.room})
		peer.observer(replication.Event{Kind: replication.EventHostLost})

		assert.Contains(t, out.String(), "join rejected: room is full")
		assert.Contains(t, out.String(), "room 123456 (waiting)")
		assert.Contains(t, out.String(), "lost the host")
	})
}

func TestConsole_RunUntilEOF(t *testing.T) {
	console, peer, out := newConsole()
	peer.On("StartGame").Return(nil).Once()

	err := console.Run(context.Background(), bytes.NewBufferString("start\nstate\n"))

	require.NoError(t, err)
	peer.AssertExpectations(t)
	assert.Contains(t, out.String(), "room 123456")
}

func TestConsole_BotsPlayAGame(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	logger := discardLogger()
	network := memory.NewNetwork()
	conf := replication.ConnectConfig{Attempts: 2, Step: time.Millisecond, AttemptTimeout: time.Second}

	newPeer := func(id string) *replication.Peer {
		peer := replication.NewPeer(logger, network.NewTransport(id), usecase.NewSession(logger, nil), nil, conf)
		t.Cleanup(func() { _ = peer.Close() })
		return peer
	}

	runBot := func(peer *replication.Peer, playerID string) {
		console := New(logger, peer, service.NewBotService(), playerID, io.Discard)
		console.SetBot(true)

		in, _ := io.Pipe()
		go func() { _ = console.Run(ctx, in) }()
	}

	// Given: a host and a guest, both handed to bots
	hostPlayer := entity.NewPlayer("host", entity.ColorRed)
	host := newPeer("654321")
	_, err := host.HostRoom(ctx, hostPlayer)
	require.NoError(t, err)
	runBot(host, hostPlayer.ID)

	guestPlayer := entity.NewPlayer("guest", entity.ColorGreen)
	guest := newPeer("")
	runBot(guest, guestPlayer.ID)
	require.NoError(t, guest.JoinRoom(ctx, "654321", guestPlayer))

	require.Eventually(t, func() bool { return len(host.Snapshot().Players) == 2 }, waitFor, 10*time.Millisecond)

	// When: the host starts the game
	require.NoError(t, host.StartGame())

	// Then: the bots play it to the end and the guest mirror agrees
	require.Eventually(t, func() bool {
		room := guest.Snapshot()
		return room.Game != nil && room.Game.IsFinished()
	}, waitFor, 10*time.Millisecond)
	assert.Equal(t, host.Snapshot().Game, guest.Snapshot().Game)
}

func TestRender(t *testing.T) {
	t.Run("No room", func(t *testing.T) {
		assert.Equal(t, "not in a room\n", Render(nil))
	})

	t.Run("Board", func(t *testing.T) {
		// Given: a started game with two rings in the centre
		room := entity.NewRoom("123456", entity.NewPlayer("ann", entity.ColorRed))
		require.NoError(t, room.Join(entity.NewPlayer("bob", entity.ColorBlue)))
		room.Game = rings.NewGame(room.Players, rings.ShuffleFunc(func(int, func(i, j int)) {}))
		require.NoError(t, room.Game.Board.Place("cell-1-1", entity.NewRing(entity.SizeSmall, entity.ColorRed)))
		require.NoError(t, room.Game.Board.Place("cell-1-1", entity.NewRing(entity.SizeLarge, entity.ColorBlue)))

		// When: it is rendered
		text := Render(room)

		// Then: the centre shows both owners in their size slots
		assert.Contains(t, text, "room 123456 (playing)")
		assert.Contains(t, text, "[r.b]")
		assert.Contains(t, text, "turn: ann (red) left S3 M3 L3")
	})
}

func TestRenderCell(t *testing.T) {
	// Given: a snapshot cell holding a ring of a size nobody knows
	pieces := []entity.Ring{
		{Size: entity.SizeLarge, Color: entity.ColorGreen},
		{Size: "huge", Color: entity.ColorRed},
		{Size: entity.SizeSmall, Color: entity.ColorYellow},
	}

	// When: it is rendered
	var text string
	require.NotPanics(t, func() { text = renderCell(pieces) })

	// Then: the unknown ring is left out
	assert.Equal(t, "[y.g]", text)
}
