// Package store persists jobs, notes, videos, and the mutation queue in
// SQLite and is the only writer of those tables.
//
// Every mutating repository call is a single durable transaction that writes
// the entity row and enqueues a replay payload together, so the queue never
// references state that was lost before commit. Entity rows are keyed by a
// client-generated local id; server ids arrive later via SetXServerID (push
// acknowledgment, clears dirty) or BackfillXServerID (pull discovery, leaves
// dirty alone).
//
// Treat this package as the single source of truth for queue semantics; when
// you add new actions or entity fields, update schema.sql and bump
// schemaVersion.
package store
