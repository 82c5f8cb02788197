package entity

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/rocketscienceinc/rings-p2p/internal/apperror"
)

// RingsPerSize is how many rings of each size a player starts with.
const RingsPerSize = 3

// Inventory counts the rings a player has not placed yet.
type Inventory struct {
	Small  int `json:"small"`
	Medium int `json:"medium"`
	Large  int `json:"large"`
}

func FullInventory() Inventory {
	return Inventory{
		Small:  RingsPerSize,
		Medium: RingsPerSize,
		Large:  RingsPerSize,
	}
}

func (that Inventory) Remaining(size Size) int {
	switch size {
	case SizeSmall:
		return that.Small
	case SizeMedium:
		return that.Medium
	case SizeLarge:
		return that.Large
	default:
		return 0
	}
}

func (that Inventory) Total() int {
	return that.Small + that.Medium + that.Large
}

// Take removes one ring of the given size. The count never goes below zero.
func (that *Inventory) Take(size Size) error {
	if !size.IsValid() {
		return fmt.Errorf("%w: %q", apperror.ErrInvalidSize, size)
	}

	if that.Remaining(size) <= 0 {
		return fmt.Errorf("%w: %s", apperror.ErrNoRingsLeft, size)
	}

	switch size {
	case SizeSmall:
		that.Small--
	case SizeMedium:
		that.Medium--
	case SizeLarge:
		that.Large--
	}

	return nil
}

type Player struct {
	ID     string    `json:"id"`
	Name   string    `json:"name"`
	Color  Color     `json:"color"`
	Rings  Inventory `json:"rings"`
	PeerID string    `json:"peerId,omitempty"`
}

func NewPlayer(name string, color Color) Player {
	return Player{
		ID:    uuid.NewString(),
		Name:  name,
		Color: color,
		Rings: FullInventory(),
	}
}

func (that *Player) CountRemaining(size Size) int {
	return that.Rings.Remaining(size)
}

// CountPlaced is the number of rings of the given size already on the board.
func (that *Player) CountPlaced(size Size) int {
	if !size.IsValid() {
		return 0
	}

	return RingsPerSize - that.Rings.Remaining(size)
}
