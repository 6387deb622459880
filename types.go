package authkit

import "time"

// Status is the tri-state authentication signal for one caller session.
type Status uint8

const (
	// StatusUnauthenticated means no attempt has been made yet, or the
	// caller has logged out.
	StatusUnauthenticated Status = iota
	// StatusAuthenticated means an identity is bound to the session.
	StatusAuthenticated
	// StatusRejected means an explicit attempt was made and failed.
	StatusRejected
)

// String returns the lowercase name of the status.
func (s Status) String() string {
	switch s {
	case StatusAuthenticated:
		return "authenticated"
	case StatusRejected:
		return "rejected"
	default:
		return "unauthenticated"
	}
}

// Field names a mutable user detail accepted by update flows.
type Field string

const (
	// FieldName is the user's display name.
	FieldName Field = "name"
	// FieldEmail is the user's email address.
	FieldEmail Field = "email"
)

// UserRecord is a single registered user. The username is the unique,
// case-insensitive key and is immutable once created. PasswordHash is
// opaque; plaintext is never stored.
type UserRecord struct {
	Username     string `yaml:"username" json:"username"`
	Name         string `yaml:"name" json:"name"`
	Email        string `yaml:"email" json:"email"`
	PasswordHash string `yaml:"password_hash" json:"password_hash"`
}

// State is the persistable snapshot of the credential store: all user
// records plus the preauthorized-email allow list. Collaborators only
// need to round-trip it faithfully; its layout on disk or wire is their
// concern.
type State struct {
	Users               []UserRecord `yaml:"users" json:"users"`
	PreauthorizedEmails []string     `yaml:"preauthorized_emails" json:"preauthorized_emails"`
}

// StateLoader supplies the initial credential store state, typically
// from durable storage.
type StateLoader interface {
	Load() (State, error)
}

// StateSaver receives the credential store state after every successful
// mutation. Save is invoked while the store's writer lock is held, so
// implementations see mutations in order and must not call back into
// the store.
type StateSaver interface {
	Save(State) error
}

// CookieTransport carries the opaque session token to and from the
// caller's browser. The engine never inspects transported values beyond
// token verification.
type CookieTransport interface {
	Get(name string) (value string, ok bool)
	Set(name, value string, expiresAt time.Time)
	Delete(name string)
}

// Validator checks the format of user-supplied identity fields. Supply
// a custom implementation through [Builder.WithValidator] to change the
// accepted grammar.
type Validator interface {
	ValidateUsername(username string) bool
	ValidateName(name string) bool
	ValidateEmail(email string) bool
}

// ForgotPasswordResult is returned by [Engine.ForgotPassword]. Found
// distinguishes "username unknown" from a successful reset; NewPassword
// is the generated plaintext the caller must deliver securely.
type ForgotPasswordResult struct {
	Found       bool
	Username    string
	Email       string
	NewPassword string
}
