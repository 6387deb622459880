package authkit

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/nrednav/authkit/internal"
	"github.com/nrednav/authkit/password"
)

// Credentials is the in-memory credential store: every registered user
// record plus the preauthorized-email allow list. Keys are lowercase
// usernames; a record's username always equals its key.
//
// All mutations run behind a single writer lock. When a StateSaver is
// configured it is invoked inside the same critical section after each
// successful mutation; if the save fails, the in-memory change is
// rolled back and the mutation reports ErrStateSaveFailed, so memory
// and durable state never diverge.
type Credentials struct {
	mu            sync.RWMutex
	users         map[string]UserRecord
	preauthorized map[string]struct{}

	hasher          *password.Hasher
	validator       Validator
	saver           StateSaver
	generatedLength int
}

func newCredentials(state State, hasher *password.Hasher, validator Validator, saver StateSaver, generatedLength int) (*Credentials, error) {
	c := &Credentials{
		users:           make(map[string]UserRecord, len(state.Users)),
		preauthorized:   make(map[string]struct{}, len(state.PreauthorizedEmails)),
		hasher:          hasher,
		validator:       validator,
		saver:           saver,
		generatedLength: generatedLength,
	}

	for _, rec := range state.Users {
		key := normalizeUsername(rec.Username)
		if key == "" {
			return nil, errors.New("state contains record with empty username")
		}
		if _, exists := c.users[key]; exists {
			return nil, fmt.Errorf("state contains duplicate username %q", key)
		}
		rec.Username = key
		c.users[key] = rec
	}
	for _, email := range state.PreauthorizedEmails {
		c.preauthorized[email] = struct{}{}
	}

	return c, nil
}

func normalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// Lookup returns the record for username, case-insensitively.
func (c *Credentials) Lookup(username string) (UserRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	rec, ok := c.users[normalizeUsername(username)]
	return rec, ok
}

// UsernameByEmail returns the username whose record carries email. The
// scan is linear; stores are human-administered rosters, not indexed
// datasets.
func (c *Credentials) UsernameByEmail(email string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for key, rec := range c.users {
		if rec.Email == email {
			return key, true
		}
	}
	return "", false
}

// VerifyPassword reports whether plaintext matches the stored hash for
// username. An unknown username fails closed with (false, nil). A
// malformed stored hash fails that record's check with an error rather
// than a silent false.
func (c *Credentials) VerifyPassword(username, plaintext string) (bool, error) {
	rec, ok := c.Lookup(username)
	if !ok {
		return false, nil
	}
	return c.hasher.Verify(plaintext, rec.PasswordHash)
}

// Register validates and inserts a new user record. With
// requirePreauthorization set, the email must be on the preauthorized
// list and its entry is consumed on success (single use).
func (c *Credentials) Register(username, name, email, plaintext string, requirePreauthorization bool) error {
	key := normalizeUsername(username)
	if !c.validator.ValidateUsername(key) {
		return ErrUsernameInvalid
	}
	if !c.validator.ValidateName(name) {
		return ErrNameInvalid
	}
	if !c.validator.ValidateEmail(email) {
		return ErrEmailInvalid
	}
	if plaintext == "" {
		return ErrPasswordEmpty
	}

	// Hashing is slow by design; keep it outside the critical section.
	hash, err := c.hasher.Hash(plaintext)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, taken := c.users[key]; taken {
		return ErrUsernameTaken
	}
	if requirePreauthorization {
		if _, ok := c.preauthorized[email]; !ok {
			return ErrNotPreauthorized
		}
		delete(c.preauthorized, email)
	}

	c.users[key] = UserRecord{
		Username:     key,
		Name:         name,
		Email:        email,
		PasswordHash: hash,
	}

	if err := c.persistLocked(); err != nil {
		delete(c.users, key)
		if requirePreauthorization {
			c.preauthorized[email] = struct{}{}
		}
		return err
	}
	return nil
}

// ResetPassword replaces username's password after verifying the old
// one. The new password must be non-empty and different from the old.
func (c *Credentials) ResetPassword(username, oldPlaintext, newPlaintext string) error {
	ok, err := c.VerifyPassword(username, oldPlaintext)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidCredentials
	}
	if newPlaintext == oldPlaintext {
		return ErrPasswordUnchanged
	}
	if newPlaintext == "" {
		return ErrPasswordEmpty
	}

	hash, err := c.hasher.Hash(newPlaintext)
	if err != nil {
		return err
	}

	return c.replacePasswordHash(username, hash)
}

// SetRandomPassword stores a fresh cryptographically random password
// for username and returns the plaintext. The caller owns secure
// delivery; the engine neither logs nor persists the plaintext.
func (c *Credentials) SetRandomPassword(username string) (string, error) {
	if _, ok := c.Lookup(username); !ok {
		return "", ErrUserNotFound
	}

	plaintext, err := internal.NewPassword(c.generatedLength)
	if err != nil {
		return "", err
	}
	hash, err := c.hasher.Hash(plaintext)
	if err != nil {
		return "", err
	}

	if err := c.replacePasswordHash(username, hash); err != nil {
		return "", err
	}
	return plaintext, nil
}

func (c *Credentials) replacePasswordHash(username, hash string) error {
	key := normalizeUsername(username)

	c.mu.Lock()
	defer c.mu.Unlock()

	rec, ok := c.users[key]
	if !ok {
		return ErrUserNotFound
	}
	previous := rec.PasswordHash
	rec.PasswordHash = hash
	c.users[key] = rec

	if err := c.persistLocked(); err != nil {
		rec.PasswordHash = previous
		c.users[key] = rec
		return err
	}
	return nil
}

// UpdateField overwrites one mutable detail (name or email) of
// username's record after validation.
func (c *Credentials) UpdateField(username string, field Field, value string) error {
	key := normalizeUsername(username)

	if value == "" {
		return ErrValueEmpty
	}
	switch field {
	case FieldName:
		if !c.validator.ValidateName(value) {
			return ErrNameInvalid
		}
	case FieldEmail:
		if !c.validator.ValidateEmail(value) {
			return ErrEmailInvalid
		}
	default:
		return ErrUnknownField
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	rec, ok := c.users[key]
	if !ok {
		return ErrUserNotFound
	}

	var previous string
	switch field {
	case FieldName:
		previous = rec.Name
		if value == previous {
			return ErrValueUnchanged
		}
		rec.Name = value
	case FieldEmail:
		previous = rec.Email
		if value == previous {
			return ErrValueUnchanged
		}
		rec.Email = value
	}
	c.users[key] = rec

	if err := c.persistLocked(); err != nil {
		switch field {
		case FieldName:
			rec.Name = previous
		case FieldEmail:
			rec.Email = previous
		}
		c.users[key] = rec
		return err
	}
	return nil
}

// Snapshot returns a deep copy of the store's state with users sorted
// by username.
func (c *Credentials) Snapshot() State {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.snapshotLocked()
}

func (c *Credentials) snapshotLocked() State {
	state := State{
		Users:               make([]UserRecord, 0, len(c.users)),
		PreauthorizedEmails: make([]string, 0, len(c.preauthorized)),
	}
	for _, rec := range c.users {
		state.Users = append(state.Users, rec)
	}
	sort.Slice(state.Users, func(i, j int) bool {
		return state.Users[i].Username < state.Users[j].Username
	})
	for email := range c.preauthorized {
		state.PreauthorizedEmails = append(state.PreauthorizedEmails, email)
	}
	sort.Strings(state.PreauthorizedEmails)
	return state
}

func (c *Credentials) persistLocked() error {
	if c.saver == nil {
		return nil
	}
	if err := c.saver.Save(c.snapshotLocked()); err != nil {
		return errors.Join(ErrStateSaveFailed, err)
	}
	return nil
}

// IsPreauthorized reports whether email is currently on the
// preauthorized list.
func (c *Credentials) IsPreauthorized(email string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	_, ok := c.preauthorized[email]
	return ok
}
