package commands

import (
	"math/rand/v2"
	"strconv"
)

// GenerateToken returns a random 6-digit order token.
func GenerateToken() string {
	return strconv.Itoa(100000 + rand.IntN(900000))
}
