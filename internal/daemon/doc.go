// Package daemon wires the network observer and a periodic poll into the
// sync engine and enforces single-instance execution via a file lock.
package daemon
