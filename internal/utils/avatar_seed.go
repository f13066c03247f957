package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// GenerateAvatarSeed generates a random seed string used to derive a
// user's avatar on the client side.
func GenerateAvatarSeed() (string, error) {
	bytes := make([]byte, 6)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	return hex.EncodeToString(bytes), nil
}
