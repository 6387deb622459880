// Package authkit authenticates end users against a local credential
// store and maintains passwordless re-authentication through a signed,
// expiring session token carried as a cookie.
//
// The package is a library, not a server: rendering, cookie transport,
// and persistence of the credential store are consumed through narrow
// collaborator interfaces ([CookieTransport], [StateLoader],
// [StateSaver]) supplied by the host application.
//
// # Architecture boundaries
//
// authkit is the public surface. It exposes [Engine], [Session],
// [Builder], [Config], [Credentials], and value types. Hashing lives in
// password/, token signing in token/, and helpers under internal/.
//
// # Concurrency
//
// One [Engine] may serve many caller sessions. The credential store
// serializes all mutations behind a single writer lock, including the
// persistence hand-off, so concurrent registrations of the same
// username or double consumption of a preauthorized email cannot both
// succeed. A [Session] models one caller (one human, one browser tab)
// and is not safe for concurrent use.
//
// # What this package must NOT do
//
//   - Store, log, or return plaintext passwords except where a flow's
//     contract requires handing a fresh password to the caller.
//   - Perform I/O beyond synchronous calls into the configured
//     collaborators.
//   - Format user-facing message text.
package authkit
