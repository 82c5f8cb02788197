package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/rocketscienceinc/rings-p2p/internal/config"
	"github.com/rocketscienceinc/rings-p2p/internal/console"
	"github.com/rocketscienceinc/rings-p2p/internal/entity"
	"github.com/rocketscienceinc/rings-p2p/internal/monitor"
	"github.com/rocketscienceinc/rings-p2p/internal/network"
	"github.com/rocketscienceinc/rings-p2p/internal/pkg"
	"github.com/rocketscienceinc/rings-p2p/internal/replication"
	"github.com/rocketscienceinc/rings-p2p/internal/rings"
	"github.com/rocketscienceinc/rings-p2p/internal/service"
	"github.com/rocketscienceinc/rings-p2p/internal/transport/redis"
	"github.com/rocketscienceinc/rings-p2p/internal/transport/websocket"
	"github.com/rocketscienceinc/rings-p2p/internal/usecase"
)

var ErrAddrNotFound = errors.New("redis address string is empty")

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	roomID := conf.RoomID
	if conf.Role == config.RoleHost && roomID == "" {
		id, err := pkg.GenerateRoomID()
		if err != nil {
			return fmt.Errorf("could not generate room id: %w", err)
		}
		roomID = id
	}

	localID := ""
	if conf.Role == config.RoleHost {
		localID = roomID
	}

	transport, closeTransport, err := newTransport(ctx, logger, conf, localID)
	if err != nil {
		return err
	}
	defer closeTransport()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := monitor.NewMetrics(registry)

	// run metrics server
	metricsErrCh := make(chan error, 1)
	if conf.Metrics.Addr != "" {
		go func() {
			log.Info("Starting metrics server", "addr", conf.Metrics.Addr)
			if metricsErr := monitor.Start(ctx, logger, conf.Metrics.Addr, registry); metricsErr != nil {
				log.Error("metrics server error", "error", metricsErr)
				metricsErrCh <- metricsErr
			}
		}()
	}

	session := usecase.NewSession(logger, rings.RandomShuffle)
	peer := replication.NewPeer(logger, transport, session, metrics, replication.ConnectConfig{
		Attempts:       conf.Connect.Attempts,
		Step:           conf.Connect.BackoffStep,
		AttemptTimeout: conf.Connect.AttemptTimeout,
	})

	defer func() {
		if closeErr := peer.Close(); closeErr != nil {
			log.Error("could not close peer", "error", closeErr)
		}
	}()

	player := entity.NewPlayer(conf.Player.Name, entity.Color(conf.Player.Color))

	// the console subscribes before the room exists so it sees the first roster
	driver := console.New(logger, peer, service.NewBotService(), player.ID, os.Stdout)
	driver.SetBot(conf.Player.Bot)

	switch conf.Role {
	case config.RoleHost:
		if _, err = peer.HostRoom(ctx, player); err != nil {
			return fmt.Errorf("could not host room: %w", err)
		}
		log.Info("Hosting room", "room", roomID, "transport", conf.Transport.Kind)
	default:
		if err = peer.JoinRoom(ctx, roomID, player); err != nil {
			return fmt.Errorf("could not join room %s: %w", roomID, err)
		}
		log.Info("Joined room", "room", roomID, "transport", conf.Transport.Kind)
	}

	consoleErrCh := make(chan error, 1)
	go func() {
		consoleErrCh <- driver.Run(ctx, os.Stdin)
	}()

	select {
	case err = <-metricsErrCh:
		return fmt.Errorf("metrics server error: %w", err)
	case err = <-consoleErrCh:
		return err
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
		return nil
	}
}

// newTransport builds the configured transport and a func releasing whatever it holds.
func newTransport(ctx context.Context, logger *slog.Logger, conf *config.Config, peerID string) (network.Transport, func(), error) {
	log := logger.With("component", "app", "method", "newTransport")

	switch conf.Transport.Kind {
	case config.TransportWebsocket:
		// guests only dial out
		listenAddr := ""
		if conf.Role == config.RoleHost {
			listenAddr = conf.Transport.ListenAddr
		}

		return websocket.New(logger, websocket.Config{
			ListenAddr: listenAddr,
			HostAddr:   conf.Transport.HostAddr,
			PeerID:     peerID,
		}), func() {}, nil

	case config.TransportRedis:
		redisAddrString := conf.Redis.GetRedisAddr()
		if redisAddrString == "" {
			return nil, nil, ErrAddrNotFound
		}

		client, err := redis.NewClient(ctx, redisAddrString)
		if err != nil {
			return nil, nil, fmt.Errorf("could not connect to redis: %w", err)
		}

		return redis.New(logger, client, peerID), func() {
			if err = client.Close(); err != nil {
				log.Error("could not close redis client", "error", err)
			}
		}, nil
	}

	return nil, nil, fmt.Errorf("%w: %q", config.ErrUnknownTransport, conf.Transport.Kind)
}
