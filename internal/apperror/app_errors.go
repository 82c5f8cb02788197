package apperror

import "errors"

var (
	ErrRoomFull            = errors.New("room is full")
	ErrColorTaken          = errors.New("color is already taken")
	ErrInvalidColor        = errors.New("invalid color")
	ErrInsufficientPlayers = errors.New("not enough players to start the game")
	ErrGameAlreadyStarted  = errors.New("game is already started")
	ErrGameIsNotStarted    = errors.New("game is not started")
	ErrGameFinished        = errors.New("game is already finished")
	ErrNotHost             = errors.New("only the host can do that")
	ErrOccupiedSize        = errors.New("cell already holds a ring of that size")
	ErrNoRingsLeft         = errors.New("no rings of that size left")
	ErrInvalidSize         = errors.New("invalid ring size")
	ErrConnectionFailed    = errors.New("connection failed")
	ErrPeerUnavailable     = errors.New("peer is unavailable")
	ErrNotConnected        = errors.New("not connected")
)
