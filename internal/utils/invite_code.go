package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/yukikurage/ensemble/internal/constants"
)

// inviteAlphabet leaves out characters that are easy to misread (0/O, 1/l/I, i, o).
const inviteAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghjkmnpqrstuvwxyz23456789"

// GenerateInviteCode generates a random household invite code
func GenerateInviteCode() (string, error) {
	code := make([]byte, constants.InviteCodeLength)
	limit := big.NewInt(int64(len(inviteAlphabet)))
	for i := range code {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("failed to generate random index: %w", err)
		}
		code[i] = inviteAlphabet[n.Int64()]
	}
	return string(code), nil
}
