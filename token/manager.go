package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrMalformed is returned when a token string does not decode as a
	// signed claims bundle at all.
	ErrMalformed = errors.New("malformed session token")
	// ErrSignatureInvalid is returned when the signature does not match
	// a byte-exact recomputation over header and payload.
	ErrSignatureInvalid = errors.New("session token signature invalid")
	// ErrExpired is returned when the token's expiry is not in the future.
	ErrExpired = errors.New("session token expired")
)

// Config holds the signing key and issuance parameters.
type Config struct {
	// Key is the server-held HMAC secret. Required.
	Key []byte
	// TTL is the default token lifetime used by [Manager.Issue] when the
	// caller passes a non-positive ttl.
	TTL time.Duration
	// Leeway tolerated when validating expiry. Optional.
	Leeway time.Duration
	// Issuer is set as the iss claim when non-empty and required on
	// verification.
	Issuer string
}

// Claims is the verified identity carried by a session token.
type Claims struct {
	Subject     string
	DisplayName string
	ExpiresAt   time.Time
}

type sessionClaims struct {
	Name string `json:"name"`
	jwt.RegisteredClaims
}

// Manager issues and verifies signed session tokens. Issuance and
// verification are pure computations over the configured key and are
// safe to call concurrently.
type Manager struct {
	config Config
}

// NewManager validates cfg and returns a ready Manager.
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.Key) == 0 {
		return nil, errors.New("signing key required")
	}
	if cfg.TTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}

	return &Manager{config: cfg}, nil
}

// Issue signs a claims bundle {sub, name, exp} for subject and returns
// the encoded token string. The expiry is now+ttl; a non-positive ttl
// falls back to the configured default.
func (m *Manager) Issue(subject, displayName string, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", errors.New("subject required")
	}
	if ttl <= 0 {
		ttl = m.config.TTL
	}

	now := time.Now()
	claims := sessionClaims{
		Name: displayName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}
	if m.config.Issuer != "" {
		claims.Issuer = m.config.Issuer
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.config.Key)
}

// Verify parses and validates tokenStr and returns its claims. Failures
// are one of ErrMalformed, ErrSignatureInvalid, or ErrExpired.
func (m *Manager) Verify(tokenStr string) (Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if m.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(m.config.Leeway))
	}
	if m.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.config.Issuer))
	}

	parser := jwt.NewParser(options...)
	parsed, err := parser.ParseWithClaims(tokenStr, &sessionClaims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
		}
		return m.config.Key, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return Claims{}, ErrSignatureInvalid
		case errors.Is(err, jwt.ErrTokenExpired):
			return Claims{}, ErrExpired
		default:
			return Claims{}, ErrMalformed
		}
	}

	claims, ok := parsed.Claims.(*sessionClaims)
	if !ok || !parsed.Valid {
		return Claims{}, ErrMalformed
	}
	if claims.Subject == "" || claims.ExpiresAt == nil {
		return Claims{}, ErrMalformed
	}

	return Claims{
		Subject:     claims.Subject,
		DisplayName: claims.Name,
		ExpiresAt:   claims.ExpiresAt.Time,
	}, nil
}
