package authkit

import (
	"net/mail"
	"regexp"
	"unicode"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,20}$`)

// DefaultValidator enforces the engine's stock field grammar: usernames
// are 1-20 characters of alphanumerics, hyphen, and underscore; names
// are 1-50 characters of letters, spaces, and hyphens; emails must
// parse as a bare RFC 5322 address of at most 320 bytes.
type DefaultValidator struct{}

// ValidateUsername reports whether username matches the stock grammar.
func (DefaultValidator) ValidateUsername(username string) bool {
	return usernamePattern.MatchString(username)
}

// ValidateName reports whether name is 1-50 characters of letters,
// spaces, and hyphens.
func (DefaultValidator) ValidateName(name string) bool {
	runes := []rune(name)
	if len(runes) < 1 || len(runes) > 50 {
		return false
	}
	for _, r := range runes {
		if !unicode.IsLetter(r) && r != ' ' && r != '-' {
			return false
		}
	}
	return true
}

// ValidateEmail reports whether email is a bare, well-formed address.
func (DefaultValidator) ValidateEmail(email string) bool {
	if len(email) < 3 || len(email) > 320 {
		return false
	}
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return false
	}
	// Reject display-name forms like "Name <a@b.c>"; only the bare
	// address is a valid stored value.
	return addr.Address == email
}
