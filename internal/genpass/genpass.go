// Package genpass generates random passwords from crypto/rand.
package genpass

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
)

const (
	Charset      = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	SpecialChars = "!@#$%^&*()_+-=[]{}|;:,.<>?"

	DefaultLength = 16
	MaxLength     = 255
)

var ErrInvalidLength = errors.New("invalid password length")

// Generate returns a password of length characters. With special set,
// each position is a special character with probability 1/4.
func Generate(length int, special bool) (string, error) {
	if length < 1 || length > MaxLength {
		return "", fmt.Errorf("%w: %d (want 1..%d)", ErrInvalidLength, length, MaxLength)
	}

	out := make([]byte, length)
	for i := range out {
		set := Charset
		if special {
			n, err := randInt(4)
			if err != nil {
				return "", err
			}
			if n == 0 {
				set = SpecialChars
			}
		}
		idx, err := randInt(len(set))
		if err != nil {
			return "", err
		}
		out[i] = set[idx]
	}
	return string(out), nil
}

func randInt(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, fmt.Errorf("failed to read random: %w", err)
	}
	return int(v.Int64()), nil
}
