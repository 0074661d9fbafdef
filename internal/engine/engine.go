package engine

import (
	"context"
	"log/slog"
	"sync/atomic"

	"jobsync/internal/api"
	"jobsync/internal/config"
	"jobsync/internal/logging"
	"jobsync/internal/network"
	"jobsync/internal/store"
)

// Engine orchestrates sync runs: drain the mutation queue against the remote
// API, then pull authoritative state and reconcile it locally.
type Engine struct {
	store    *store.Store
	client   api.Client
	online   func() bool
	logger   *slog.Logger
	policy   RetryPolicy
	videoCap int

	// Exclusion flag, not a queue: a trigger arriving mid-run is dropped.
	// Triggers are frequent and idempotent, so the next one re-covers it.
	running atomic.Bool
}

// New constructs a sync engine. online reports current connectivity; a nil
// online func is treated as always connected.
func New(cfg *config.Config, st *store.Store, client api.Client, online func() bool, logger *slog.Logger) *Engine {
	if online == nil {
		online = func() bool { return true }
	}
	return &Engine{
		store:    st,
		client:   client,
		online:   online,
		logger:   logging.NewComponentLogger(logger, "sync-engine"),
		policy:   RetryPolicyFromConfig(cfg),
		videoCap: cfg.Sync.VideoRetryCap,
	}
}

// NewWithObserver wires the engine's connectivity check to an observer.
func NewWithObserver(cfg *config.Config, st *store.Store, client api.Client, obs *network.Observer, logger *slog.Logger) *Engine {
	return New(cfg, st, client, obs.Online, logger)
}

// Sync performs one full run: push phase, then pull phase. A trigger that
// arrives while a run is active is coalesced into a no-op. Preconditions
// (connectivity) are checked after the run lock is taken so a stale trigger
// cannot race a state change into a second run.
func (e *Engine) Sync(ctx context.Context, trigger network.Trigger) error {
	if !e.running.CompareAndSwap(false, true) {
		e.logger.Debug("sync already running; trigger dropped",
			logging.String(logging.FieldTrigger, string(trigger)))
		return nil
	}
	defer e.running.Store(false)

	if !e.online() {
		e.logger.Debug("offline; sync skipped",
			logging.String(logging.FieldTrigger, string(trigger)))
		return nil
	}

	e.logger.Info("sync run started", logging.String(logging.FieldTrigger, string(trigger)))

	pushErr := e.push(ctx)
	if pushErr != nil {
		e.logger.Error("push phase failed", logging.Error(pushErr))
	}

	// Pull always runs after push, regardless of push outcomes.
	pullErr := e.pull(ctx)
	if pullErr != nil {
		e.logger.Error("pull phase failed", logging.Error(pullErr))
	}

	if pushErr != nil {
		return pushErr
	}
	return pullErr
}

// Running reports whether a sync run is currently in flight.
func (e *Engine) Running() bool {
	return e.running.Load()
}
