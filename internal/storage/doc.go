// Package storage implements editer's versioned local store.
//
// # Overview
//
// Everything editer keeps on the local machine (the temporary document and
// the user's settings) goes through a Store. A Store wraps each value in an
// Envelope tagged with a schema version and upgrades older envelopes on read
// by replaying registered migrations.
//
// # Envelopes
//
// On the backend an envelope is a flat JSON object:
//
//	{"content": "hello", "isTemporaryDocument": true, "version": "1.0.0"}
//
// Load behaves as follows:
//
//  1. Nothing stored: ok is false.
//  2. No version tag: treated as the current version, Migrated is false.
//  3. Older version: every migration whose target version is greater than
//     the stored version and not greater than the current one runs in
//     ascending semantic-version order, each receiving the whole envelope.
//     The result carries the current version.
//
// Save always stamps the current version before writing.
//
// # Failure Policy
//
// Storage problems never stop editing. Load returns whatever it could read
// plus an advisory error (corrupt JSON yields nothing, a panicking migration
// yields the raw envelope). Save falls back to writing the un-versioned fields
// and still returns an advisory error. Callers show the error as a caution and
// carry on in memory.
//
// # Backends
//
//   - FileBackend: one JSON file per key in a directory (default).
//   - RedisBackend: keys in Redis, for stores shared between machines.
//   - MemoryBackend: process memory, used by tests and throwaway sessions.
//
// All three implement Notifier so a Store can Subscribe to writes made by
// other editer processes. This is the terminal equivalent of the browser
// "storage" event: payloads are the full serialized envelope and are parsed
// with Store.Parse.
package storage
