package pkg

import (
	"crypto/rand"
	"math/big"
)

// GenerateGameID - generates a unique identifier for a game.
func GenerateGameID() string {
	n, err := rand.Int(rand.Reader, big.NewInt(99999999))
	if err != nil {
		return ""
	}
	return n.String()
}
