package authkit

import (
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/nrednav/authkit/internal"
)

// Config carries every tunable of the engine. Zero values are filled in
// by defaults where a safe default exists; Validate rejects the rest.
type Config struct {
	Cookie       CookieConfig
	Password     PasswordConfig
	Registration RegistrationConfig
	Security     SecurityConfig
	Metrics      MetricsConfig
}

/*
====================================
COOKIE / TOKEN CONFIG
====================================
*/

// CookieConfig controls the re-authentication cookie and the session
// tokens stored in it.
type CookieConfig struct {
	// Name is the cookie name handed to the CookieTransport.
	Name string
	// Key is the server-held secret that signs session tokens.
	Key []byte
	// TTL bounds both token validity and cookie expiry.
	TTL time.Duration
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig controls hashing cost and generated passwords.
type PasswordConfig struct {
	// Cost is the bcrypt cost; 0 selects bcrypt.DefaultCost.
	Cost int
	// RehashOnLogin re-hashes a stored password after a successful
	// login when its cost is below Cost. Best effort.
	RehashOnLogin bool
	// GeneratedLength is the length of passwords produced by the
	// forgot-password flow; 0 selects the minimum (12).
	GeneratedLength int
}

/*
====================================
REGISTRATION CONFIG
====================================
*/

// RegistrationConfig controls self-registration gating.
type RegistrationConfig struct {
	// RequirePreauthorization restricts Engine.Register to emails on
	// the preauthorized list. Each entry is consumed on first use.
	RequirePreauthorization bool
}

/*
====================================
SECURITY CONFIG
====================================
*/

// SecurityConfig holds optional hardening switches.
type SecurityConfig struct {
	// CollapseCredentialErrors reports ErrInvalidCredentials for
	// unknown usernames on credential checks, resisting username
	// enumeration. Off by default: callers that want to render
	// "username unknown" distinctly rely on ErrUserNotFound.
	CollapseCredentialErrors bool
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig controls the in-process counters.
type MetricsConfig struct {
	Enabled bool
}

func defaultConfig() Config {
	return Config{
		Cookie: CookieConfig{
			Name: "authkit_session",
			TTL:  30 * 24 * time.Hour,
		},
		Password: PasswordConfig{
			Cost:            bcrypt.DefaultCost,
			RehashOnLogin:   true,
			GeneratedLength: internal.MinPasswordLength,
		},
		Metrics: MetricsConfig{Enabled: true},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Cookie.Key = cloneBytes(cfg.Cookie.Key)
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// Validate reports the first configuration error, if any.
func (c Config) Validate() error {
	if c.Cookie.Name == "" {
		return errors.New("cookie name required")
	}
	if len(c.Cookie.Key) == 0 {
		return errors.New("cookie signing key required")
	}
	if c.Cookie.TTL <= 0 {
		return errors.New("cookie TTL must be positive")
	}
	if c.Password.Cost != 0 && (c.Password.Cost < bcrypt.MinCost || c.Password.Cost > bcrypt.MaxCost) {
		return errors.New("bcrypt cost out of range")
	}
	if c.Password.GeneratedLength != 0 && c.Password.GeneratedLength < internal.MinPasswordLength {
		return errors.New("generated password length below minimum")
	}
	return nil
}
