package authkit

import (
	"time"
)

// Session is the authentication state machine for one caller: one
// human, one browser tab. It cycles between the three [Status] values
// for the life of the caller session and is not safe for concurrent
// use.
type Session struct {
	engine  *Engine
	cookies CookieTransport

	status   Status
	username string
	name     string
}

// Status returns the session's current authentication status.
func (s *Session) Status() Status {
	return s.status
}

// Username returns the bound username, or "" when not authenticated.
func (s *Session) Username() string {
	return s.username
}

// DisplayName returns the bound display name, or "" when not
// authenticated.
func (s *Session) DisplayName() string {
	return s.name
}

// Reauthenticate attempts silent re-authentication from the transported
// cookie token. Any token failure — absent, malformed, badly signed, or
// expired — degrades to "still unauthenticated"; it is never an error.
// A rejected session stays rejected until a fresh explicit submission.
func (s *Session) Reauthenticate() bool {
	if s.status == StatusAuthenticated {
		return true
	}
	if s.status == StatusRejected {
		return false
	}

	value, ok := s.cookies.Get(s.engine.config.Cookie.Name)
	if !ok {
		return false
	}
	claims, err := s.engine.tokens.Verify(value)
	if err != nil {
		return false
	}

	s.bind(claims.Subject, claims.DisplayName)
	s.engine.metricInc(MetricReauthSuccess)
	return true
}

// Login authenticates the caller. A still-valid cookie token wins
// without touching the credential store; otherwise the submitted
// credentials are verified and, on success, a fresh token is issued and
// handed to the cookie transport. Failed submissions move the session
// to StatusRejected and return the typed failure.
func (s *Session) Login(username, plaintext string) error {
	if s.status == StatusAuthenticated {
		return nil
	}
	if s.status == StatusUnauthenticated && s.Reauthenticate() {
		return nil
	}

	if username == "" {
		s.reject()
		return ErrUsernameEmpty
	}
	if plaintext == "" {
		s.reject()
		return ErrPasswordEmpty
	}

	rec, err := s.engine.checkCredentials(username, plaintext)
	if err != nil {
		s.reject()
		return err
	}

	if err := s.issueCookie(rec.Username, rec.Name); err != nil {
		s.reject()
		return err
	}

	s.bind(rec.Username, rec.Name)
	s.engine.metricInc(MetricLoginSuccess)
	return nil
}

// Logout clears the bound identity and instructs the transport to
// delete the cookie. The machine returns to StatusUnauthenticated.
func (s *Session) Logout() {
	s.cookies.Delete(s.engine.config.Cookie.Name)
	s.status = StatusUnauthenticated
	s.username = ""
	s.name = ""
	s.engine.metricInc(MetricLogout)
}

// UpdateDetails overwrites one mutable detail of the authenticated
// user's record. A display-name change re-issues the cookie token so
// the transported claims do not go stale until natural expiry.
func (s *Session) UpdateDetails(field Field, value string) error {
	if s.status != StatusAuthenticated {
		return ErrNotAuthenticated
	}

	if err := s.engine.credentials.UpdateField(s.username, field, value); err != nil {
		return err
	}
	s.engine.metricInc(MetricDetailsUpdated)

	if field == FieldName {
		s.name = value
		if err := s.issueCookie(s.username, s.name); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) bind(username, name string) {
	s.status = StatusAuthenticated
	s.username = username
	s.name = name
}

func (s *Session) reject() {
	s.status = StatusRejected
	s.username = ""
	s.name = ""
	s.engine.metricInc(MetricLoginFailure)
}

func (s *Session) issueCookie(username, name string) error {
	ttl := s.engine.config.Cookie.TTL
	value, err := s.engine.tokens.Issue(username, name, ttl)
	if err != nil {
		return err
	}
	s.cookies.Set(s.engine.config.Cookie.Name, value, time.Now().Add(ttl))
	return nil
}
