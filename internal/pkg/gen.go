package pkg

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	roomIDMin = 100000
	roomIDMax = 999999
)

// GenerateRoomID - generates a six digit room identifier.
func GenerateRoomID() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(roomIDMax-roomIDMin+1))
	if err != nil {
		return "", fmt.Errorf("failed to generate room id: %w", err)
	}

	return fmt.Sprintf("%d", roomIDMin+n.Int64()), nil
}

// IsRoomID reports whether id looks like something GenerateRoomID returns.
func IsRoomID(id string) bool {
	if len(id) != 6 {
		return false
	}

	for _, r := range id {
		if r < '0' || r > '9' {
			return false
		}
	}

	return id[0] != '0'
}
