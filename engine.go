package authkit

import (
	"log"

	"github.com/nrednav/authkit/password"
	"github.com/nrednav/authkit/token"
)

// Engine is the credential and session authentication engine. It owns
// the credential store, the password hasher, and the session-token
// manager; callers obtain one [Session] per end user through
// [Engine.NewSession]. Engine methods are safe for concurrent use after
// [Builder.Build].
type Engine struct {
	config      Config
	credentials *Credentials
	hasher      *password.Hasher
	tokens      *token.Manager
	metrics     *Metrics
}

// Credentials exposes the engine's credential store for direct lookups
// and guarded mutations.
func (e *Engine) Credentials() *Credentials {
	return e.credentials
}

// MetricsSnapshot returns a point-in-time copy of the engine's counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// NewSession starts the authentication state machine for one caller.
// The transport carries that caller's re-authentication cookie.
func (e *Engine) NewSession(transport CookieTransport) *Session {
	return &Session{
		engine:  e,
		cookies: transport,
		status:  StatusUnauthenticated,
	}
}

func (e *Engine) ready() bool {
	return e != nil && e.credentials != nil && e.hasher != nil && e.tokens != nil
}

// Register validates and inserts a new user, honoring the configured
// preauthorization requirement.
func (e *Engine) Register(username, name, email, plaintext string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	err := e.credentials.Register(username, name, email, plaintext, e.config.Registration.RequirePreauthorization)
	if err != nil {
		e.metricInc(MetricRegisterFailure)
		return err
	}
	e.metricInc(MetricRegisterSuccess)
	return nil
}

// ResetPassword replaces username's password after verifying the old one.
func (e *Engine) ResetPassword(username, oldPlaintext, newPlaintext string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	err := e.credentials.ResetPassword(username, oldPlaintext, newPlaintext)
	if err != nil {
		e.metricInc(MetricPasswordResetFailure)
		return err
	}
	e.metricInc(MetricPasswordResetSuccess)
	return nil
}

// ForgotPassword sets a fresh random password for username and returns
// it alongside the record's email for delivery. An unknown username is
// reported through Found=false, not an error, so callers can
// distinguish "not submitted" from "submitted but not found".
func (e *Engine) ForgotPassword(username string) (ForgotPasswordResult, error) {
	if !e.ready() {
		return ForgotPasswordResult{}, ErrEngineNotReady
	}
	if username == "" {
		return ForgotPasswordResult{}, ErrUsernameEmpty
	}

	rec, ok := e.credentials.Lookup(username)
	if !ok {
		return ForgotPasswordResult{Found: false}, nil
	}

	plaintext, err := e.credentials.SetRandomPassword(rec.Username)
	if err != nil {
		return ForgotPasswordResult{}, err
	}

	e.metricInc(MetricForgotPassword)
	return ForgotPasswordResult{
		Found:       true,
		Username:    rec.Username,
		Email:       rec.Email,
		NewPassword: plaintext,
	}, nil
}

// ForgotUsername resolves the username registered under email; found is
// false when no record matches.
func (e *Engine) ForgotUsername(email string) (username string, found bool, err error) {
	if !e.ready() {
		return "", false, ErrEngineNotReady
	}
	if email == "" {
		return "", false, ErrEmailEmpty
	}

	e.metricInc(MetricForgotUsername)
	username, found = e.credentials.UsernameByEmail(email)
	return username, found, nil
}

// checkCredentials verifies an explicit username/password submission
// and returns the matched record. Unknown usernames surface
// ErrUserNotFound unless credential-error collapsing is configured.
func (e *Engine) checkCredentials(username, plaintext string) (UserRecord, error) {
	rec, ok := e.credentials.Lookup(username)
	if !ok {
		if e.config.Security.CollapseCredentialErrors {
			return UserRecord{}, ErrInvalidCredentials
		}
		return UserRecord{}, ErrUserNotFound
	}

	ok, err := e.hasher.Verify(plaintext, rec.PasswordHash)
	if err != nil {
		// Malformed stored hash: this record's check fails, the store
		// stays usable.
		return UserRecord{}, err
	}
	if !ok {
		return UserRecord{}, ErrInvalidCredentials
	}

	e.maybeRehash(rec.Username, plaintext, rec.PasswordHash)
	return rec, nil
}

// maybeRehash upgrades a below-cost stored hash after a successful
// verification. Best effort: failure must never block the login.
func (e *Engine) maybeRehash(username, plaintext, storedHash string) {
	if !e.config.Password.RehashOnLogin {
		return
	}
	needs, err := e.hasher.NeedsRehash(storedHash)
	if err != nil || !needs {
		return
	}
	upgraded, err := e.hasher.Hash(plaintext)
	if err != nil {
		log.Print("authkit: password rehash generation failed")
		return
	}
	if err := e.credentials.replacePasswordHash(username, upgraded); err != nil {
		log.Print("authkit: password rehash update failed")
	}
}
