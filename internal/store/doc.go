// Package store provides file-based persistence for veilchat's client state.
//
// It contains concrete implementations of the domain storage interfaces,
// serialising data as JSON on disk. All methods are concurrency-safe via
// internal locking and writes go through a temp-file-then-rename so a crash
// never leaves a half-written file. Stored files live under the user's
// configured home directory.
//
// The package includes stores for:
//   - The local identity, encrypted at rest under the local passphrase
//     (IdentityFileStore)
//   - The current relay session token (SessionFileStore)
package store
