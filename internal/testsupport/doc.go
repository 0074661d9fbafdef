// Package testsupport provides shared helpers for tests: temp-directory
// configs, store construction, and an in-memory fake of the remote API.
package testsupport
