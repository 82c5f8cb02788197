package console

import (
	"fmt"
	"strings"

	"github.com/rocketscienceinc/rings-p2p/internal/entity"
)

// Render prints the room as text. A cell shows one slot per size, small to
// large, holding the owner's initial or a dot.
func Render(room *entity.Room) string {
	if room == nil {
		return "not in a room\n"
	}

	var b strings.Builder

	fmt.Fprintf(&b, "room %s (%s)\n", room.ID, room.Phase())

	for _, player := range room.Players {
		marker := " "
		if player.ID == room.HostID {
			marker = "*"
		}
		fmt.Fprintf(&b, " %s %-6s %s\n", marker, player.Color, player.Name)
	}

	game := room.Game
	if game == nil {
		return b.String()
	}

	b.WriteString("     0     1     2\n")
	for row := 0; row < entity.BoardSize; row++ {
		fmt.Fprintf(&b, "%d ", row)
		for col := 0; col < entity.BoardSize; col++ {
			b.WriteString(" " + renderCell(game.Board.PiecesAt(row, col)))
		}
		b.WriteString("\n")
	}

	switch {
	case game.IsPlaying():
		current := game.CurrentPlayer()
		fmt.Fprintf(&b, "turn: %s (%s) left S%d M%d L%d",
			current.Name, current.Color,
			current.CountRemaining(entity.SizeSmall),
			current.CountRemaining(entity.SizeMedium),
			current.CountRemaining(entity.SizeLarge))
		if game.SelectedRingSize != "" {
			fmt.Fprintf(&b, " selected %s", game.SelectedRingSize)
		}
		b.WriteString("\n")
	case game.Winner != nil:
		fmt.Fprintf(&b, "winner: %s (%s) on %s\n", game.Winner.Name, game.Winner.Color, strings.Join(game.WinningCells, " "))
	case game.IsFinished():
		b.WriteString("draw\n")
	}

	return b.String()
}

func renderCell(pieces []entity.Ring) string {
	slots := []byte("...")
	for _, ring := range pieces {
		rank := ring.Size.Rank()
		if rank < 0 || ring.Color == "" {
			continue
		}
		slots[rank] = string(ring.Color)[0]
	}

	return "[" + string(slots) + "]"
}
