// Package stores ships ready-made persistence collaborators for the
// engine's credential state: a YAML file store and a Redis store. Both
// implement authkit.StateLoader and authkit.StateSaver and guarantee
// round-trip fidelity of user records and preauthorized emails.
//
// Save is called by the credential store while its writer lock is held,
// so implementations here never call back into authkit.
package stores
