package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/rings-p2p/internal/entity"
)

var (
	ErrUnknownType  = errors.New("unknown message type")
	ErrEmptyPayload = errors.New("message has no data")
)

const (
	TypeJoinRoom     = "JOIN_ROOM"
	TypePlayerJoined = "PLAYER_JOINED"
	TypeGameStart    = "GAME_START"
	TypeGameState    = "GAME_STATE"
	TypePlaceRing    = "PLACE_RING"
	TypePassTurn     = "PASS_TURN"
	TypeLeaveRoom    = "LEAVE_ROOM"
	TypeJoinRejected = "JOIN_REJECTED"
)

// Types lists every message kind peers exchange.
var Types = []string{
	TypeJoinRoom,
	TypePlayerJoined,
	TypeGameStart,
	TypeGameState,
	TypePlaceRing,
	TypePassTurn,
	TypeLeaveRoom,
	TypeJoinRejected,
}

// Message is the envelope of every frame on a peer link.
type Message struct {
	Type     string          `json:"type"`
	Data     json.RawMessage `json:"data,omitempty"`
	SenderID string          `json:"senderId"`
}

type PlayerPayload struct {
	Player entity.Player `json:"player"`
}

type GamePayload struct {
	GameState *entity.Game `json:"gameState"`
}

type PlacePayload struct {
	CellID   string      `json:"cellId"`
	RingSize entity.Size `json:"ringSize"`
}

type LeavePayload struct {
	PeerID   string `json:"peerId"`
	PlayerID string `json:"playerId,omitempty"`
}

type RejectPayload struct {
	Reason string `json:"reason"`
}

// New wraps payload into a message of the given type.
func New(msgType, senderID string, payload any) (*Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", msgType, err)
	}

	return &Message{
		Type:     msgType,
		Data:     data,
		SenderID: senderID,
	}, nil
}

// Decode unmarshals the message data into v.
func (that *Message) Decode(v any) error {
	if len(that.Data) == 0 {
		return fmt.Errorf("%w: %s", ErrEmptyPayload, that.Type)
	}

	if err := json.Unmarshal(that.Data, v); err != nil {
		return fmt.Errorf("failed to unmarshal %s payload: %w", that.Type, err)
	}

	return nil
}

func Marshal(msg *Message) ([]byte, error) {
	raw, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}

	return raw, nil
}

// Unmarshal parses a frame and rejects types no peer understands.
func Unmarshal(raw []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal message: %w", err)
	}

	if !IsKnownType(msg.Type) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, msg.Type)
	}

	return &msg, nil
}

func IsKnownType(msgType string) bool {
	for _, known := range Types {
		if known == msgType {
			return true
		}
	}

	return false
}
