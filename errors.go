package authkit

import "errors"

var (
	// ErrInvalidCredentials rejects a wrong password, or any failed
	// credential check when credential-error collapsing is enabled.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserNotFound rejects an operation on an unknown username.
	ErrUserNotFound = errors.New("user not found")
	// ErrUsernameTaken rejects registration of an already-registered username.
	ErrUsernameTaken = errors.New("username already taken")
	// ErrNotPreauthorized rejects gated registration when the email is not
	// on the preauthorized list (or the entry was already consumed).
	ErrNotPreauthorized = errors.New("email not preauthorized to register")
	// ErrUsernameInvalid rejects a username that fails format validation.
	ErrUsernameInvalid = errors.New("invalid username")
	// ErrNameInvalid rejects a display name that fails format validation.
	ErrNameInvalid = errors.New("invalid name")
	// ErrEmailInvalid rejects an email address that fails format validation.
	ErrEmailInvalid = errors.New("invalid email")
	// ErrUsernameEmpty rejects a flow submitted without a username.
	ErrUsernameEmpty = errors.New("username not provided")
	// ErrEmailEmpty rejects a flow submitted without an email.
	ErrEmailEmpty = errors.New("email not provided")
	// ErrPasswordEmpty rejects an empty password where one is required.
	ErrPasswordEmpty = errors.New("password not provided")
	// ErrPasswordUnchanged rejects a password reset to the current password.
	ErrPasswordUnchanged = errors.New("new password must be different from current password")
	// ErrValueEmpty rejects a detail update with an empty new value.
	ErrValueEmpty = errors.New("new value not provided")
	// ErrValueUnchanged rejects a detail update equal to the current value.
	ErrValueUnchanged = errors.New("new value equals current value")
	// ErrUnknownField rejects a detail update naming a field the engine
	// does not manage.
	ErrUnknownField = errors.New("unknown update field")
	// ErrNotAuthenticated rejects a session-bound operation when no
	// identity is bound.
	ErrNotAuthenticated = errors.New("session not authenticated")
	// ErrStateSaveFailed wraps a persistence collaborator failure. The
	// in-memory mutation is rolled back before this is returned.
	ErrStateSaveFailed = errors.New("credential state save failed")
	// ErrEngineNotReady rejects use of an engine that was not built.
	ErrEngineNotReady = errors.New("engine not initialized")
)
