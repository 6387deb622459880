package internal

import (
	"crypto/rand"
	"errors"
	"math/big"
)

const (
	// MinPasswordLength is the floor for generated passwords.
	MinPasswordLength = 12

	lowerChars  = "abcdefghijklmnopqrstuvwxyz"
	upperChars  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digitChars  = "0123456789"
	symbolChars = "!@#$%^&*-_=+"
	allChars    = lowerChars + upperChars + digitChars + symbolChars
	classCount  = 4
)

// NewPassword generates a cryptographically random printable password of
// the given length with at least one character from each class (lower,
// upper, digit, symbol). Lengths below MinPasswordLength are rejected.
func NewPassword(length int) (string, error) {
	if length < MinPasswordLength {
		return "", errors.New("password length below minimum")
	}

	out := make([]byte, length)

	// One guaranteed pick per class, the rest from the full alphabet.
	classes := []string{lowerChars, upperChars, digitChars, symbolChars}
	for i, class := range classes {
		c, err := pick(class)
		if err != nil {
			return "", err
		}
		out[i] = c
	}
	for i := classCount; i < length; i++ {
		c, err := pick(allChars)
		if err != nil {
			return "", err
		}
		out[i] = c
	}

	if err := shuffle(out); err != nil {
		return "", err
	}

	return string(out), nil
}

func pick(alphabet string) (byte, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
	if err != nil {
		return 0, err
	}
	return alphabet[n.Int64()], nil
}

func shuffle(b []byte) error {
	for i := len(b) - 1; i > 0; i-- {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return err
		}
		j := n.Int64()
		b[i], b[j] = b[j], b[i]
	}
	return nil
}
