// Package password implements one-way password hashing and verification
// on top of bcrypt.
//
// # Output format
//
// Hashes use bcrypt's modular crypt encoding:
//
//	$2a$<cost>$<22-char salt><31-char hash>
//
// The salt is generated per call, so hashing the same plaintext twice
// yields different encodings. [Hasher.NeedsRehash] reports whether a
// stored hash was produced with a lower cost than currently configured,
// so the caller can re-hash on the next successful verification.
//
// # Architecture boundaries
//
// This package owns hashing and verification only. Password policy
// (non-empty, change-on-reset) is enforced by the engine.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords — callers supply plaintext and receive hashes.
//   - Import any other authkit package.
//   - Log plaintexts or hashes at runtime.
package password
