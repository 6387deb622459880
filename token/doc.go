// Package token issues and verifies the signed, expiring session tokens
// that back passwordless re-authentication, using HMAC-SHA-256 signed
// claims and strict validation semantics.
package token
