package password

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// ErrHashFormat is returned by [Hasher.Verify] and [Hasher.NeedsRehash]
// when the stored value is not a recognizable bcrypt encoding.
var ErrHashFormat = errors.New("unrecognized password hash format")

// Config holds the bcrypt cost parameter.
type Config struct {
	Cost int
}

// Hasher hashes and verifies passwords with bcrypt. Instances are
// immutable and safe for concurrent use.
type Hasher struct {
	config Config
}

// NewHasher validates cfg and returns a ready Hasher. A zero cost is
// replaced with bcrypt.DefaultCost.
func NewHasher(cfg Config) (*Hasher, error) {
	if cfg.Cost == 0 {
		cfg.Cost = bcrypt.DefaultCost
	}
	if cfg.Cost < bcrypt.MinCost || cfg.Cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}

	return &Hasher{config: cfg}, nil
}

// Hash returns the bcrypt encoding of password under the configured
// cost with a fresh random salt.
func (h *Hasher) Hash(password string) (string, error) {
	if password == "" {
		return "", errors.New("password must not be empty")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.config.Cost)
	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// Verify reports whether password matches encodedHash. The comparison
// is constant-time over the derived key. A clean mismatch returns
// (false, nil); a hash that cannot be decoded returns ErrHashFormat.
func (h *Hasher) Verify(password string, encodedHash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(encodedHash), []byte(password))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}

	return false, errors.Join(ErrHashFormat, err)
}

// NeedsRehash reports whether encodedHash was produced with a cost
// below the configured cost.
func (h *Hasher) NeedsRehash(encodedHash string) (bool, error) {
	cost, err := bcrypt.Cost([]byte(encodedHash))
	if err != nil {
		return false, errors.Join(ErrHashFormat, err)
	}

	return cost < h.config.Cost, nil
}
