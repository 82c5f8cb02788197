package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"github.com/rocketscienceinc/rings-p2p/internal/pkg"
)

const (
	RoleHost  = "host"
	RoleGuest = "guest"
)

const (
	TransportWebsocket = "websocket"
	TransportRedis     = "redis"
)

var (
	ErrUnknownRole      = errors.New("unknown role")
	ErrUnknownTransport = errors.New("unknown transport kind")
	ErrRoomIDRequired   = errors.New("guest needs a room id")
	ErrInvalidRoomID    = errors.New("room id must be six digits")
)

type Config struct {
	LogLevel  string    `yaml:"log-level" env:"RINGS_LOG_LEVEL" env-default:"info"`
	Role      string    `yaml:"role" env:"RINGS_ROLE" env-default:"host"`
	RoomID    string    `yaml:"room-id" env:"RINGS_ROOM_ID"`
	Player    Player    `yaml:"player"`
	Transport Transport `yaml:"transport"`
	Redis     Redis     `yaml:"redis"`
	Connect   Connect   `yaml:"connect"`
	Metrics   Metrics   `yaml:"metrics"`
}

type Player struct {
	Name  string `yaml:"name" env:"RINGS_PLAYER_NAME" env-default:"player"`
	Color string `yaml:"color" env:"RINGS_PLAYER_COLOR" env-default:"red"`
	Bot   bool   `yaml:"bot" env:"RINGS_PLAYER_BOT" env-default:"false"`
}

type Transport struct {
	Kind       string `yaml:"kind" env:"RINGS_TRANSPORT" env-default:"websocket"`
	ListenAddr string `yaml:"listen-addr" env:"RINGS_LISTEN_ADDR" env-default:":7070"`
	HostAddr   string `yaml:"host-addr" env:"RINGS_HOST_ADDR" env-default:"localhost:7070"`
}

type Redis struct {
	Host string `yaml:"host" env:"RINGS_REDIS_HOST" env-default:"localhost"`
	Port string `yaml:"port" env:"RINGS_REDIS_PORT" env-default:"6379"`
}

type Connect struct {
	Attempts       int           `yaml:"attempts" env:"RINGS_CONNECT_ATTEMPTS" env-default:"3"`
	BackoffStep    time.Duration `yaml:"backoff-step" env:"RINGS_CONNECT_BACKOFF_STEP" env-default:"1s"`
	AttemptTimeout time.Duration `yaml:"attempt-timeout" env:"RINGS_CONNECT_ATTEMPT_TIMEOUT" env-default:"5s"`
}

type Metrics struct {
	Addr string `yaml:"addr" env:"RINGS_METRICS_ADDR" env-default:":9090"`
}

// MustLoad - load all configurations in config.yml file, with .env and environment overrides.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(err)
	}

	return config
}

func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("unable to load .env file: %w", err)
	}

	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		return nil, fmt.Errorf("unable to load config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks the values cleanenv cannot. Peers in one process share
// nothing, so only network transports are offered here.
func (that *Config) Validate() error {
	switch that.Role {
	case RoleHost:
	case RoleGuest:
		if that.RoomID == "" {
			return ErrRoomIDRequired
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownRole, that.Role)
	}

	if that.RoomID != "" && !pkg.IsRoomID(that.RoomID) {
		return fmt.Errorf("%w: %q", ErrInvalidRoomID, that.RoomID)
	}

	switch that.Transport.Kind {
	case TransportWebsocket, TransportRedis:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownTransport, that.Transport.Kind)
	}

	return nil
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
