// Package api implements the HTTP client for the remote job service.
//
// Every failure is tagged with one of the sentinel errors in errors.go so the
// sync engine can classify without inspecting status codes. Create calls carry
// a client-generated idempotency id; the server is expected to treat a
// duplicate as "already created" and return the existing record. The engine
// does not implement deduplication itself.
package api
