// Package engine drains the mutation queue against the remote API and
// reconciles pulled server state into the local store.
//
// A run is push phase then pull phase, guarded by a single exclusion flag:
// overlapping triggers coalesce into the active run. Queue items are
// processed strictly sequentially; per-item failures are retried under a
// bounded policy within the run and left queued across runs, so delivery is
// at-least-once with idempotent server semantics assumed. A run is not
// cancellable mid-item; each remote call carries its own request timeout.
package engine
