package entity

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/rocketscienceinc/rings-p2p/internal/apperror"
)

// Size is the size of a ring: small < medium < large.
type Size string

const (
	SizeSmall  Size = "small"
	SizeMedium Size = "medium"
	SizeLarge  Size = "large"
)

// Sizes lists every ring size from the smallest to the largest.
var Sizes = []Size{SizeSmall, SizeMedium, SizeLarge}

// Rank returns 0 for small, 1 for medium, 2 for large and -1 for anything else.
func (that Size) Rank() int {
	for i, size := range Sizes {
		if size == that {
			return i
		}
	}

	return -1
}

func (that Size) IsValid() bool {
	return that.Rank() >= 0
}

func ParseSize(raw string) (Size, error) {
	size := Size(raw)
	if !size.IsValid() {
		return "", fmt.Errorf("%w: %q", apperror.ErrInvalidSize, raw)
	}

	return size, nil
}

// Color identifies a player and every ring that player places.
type Color string

const (
	ColorRed    Color = "red"
	ColorBlue   Color = "blue"
	ColorGreen  Color = "green"
	ColorYellow Color = "yellow"
)

// Colors is the fixed palette, also used as the tie-break order during win checks.
var Colors = []Color{ColorRed, ColorBlue, ColorGreen, ColorYellow}

func (that Color) IsValid() bool {
	for _, color := range Colors {
		if color == that {
			return true
		}
	}

	return false
}

// AvailableColors returns the palette colors not present in used, in palette order.
func AvailableColors(used []Color) []Color {
	available := make([]Color, 0, len(Colors))

	for _, color := range Colors {
		taken := false
		for _, u := range used {
			if u == color {
				taken = true
				break
			}
		}

		if !taken {
			available = append(available, color)
		}
	}

	return available
}

// Ring is a placed piece. It never changes after placement.
type Ring struct {
	ID    string `json:"id"`
	Size  Size   `json:"size"`
	Color Color  `json:"color"`
}

func NewRing(size Size, color Color) Ring {
	return Ring{
		ID:    uuid.NewString(),
		Size:  size,
		Color: color,
	}
}
