package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"jobsync/internal/config"
	"jobsync/internal/engine"
	"jobsync/internal/logging"
	"jobsync/internal/network"
	"jobsync/internal/store"
)

// Daemon runs the sync engine in the background and enforces single-instance
// execution. Observer events and a periodic poll both feed the same trigger
// channel; the engine coalesces whatever arrives while a run is active.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *store.Store
	engine   *engine.Engine
	observer *network.Observer

	lockPath string
	lock     *flock.Flock

	triggers chan network.Trigger
	running  atomic.Bool
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, st *store.Store, eng *engine.Engine, obs *network.Observer, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || st == nil || eng == nil || obs == nil {
		return nil, errors.New("daemon requires config, store, engine, and observer")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	lockPath := filepath.Join(cfg.Paths.DataDir, "jobsyncd.lock")
	return &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    st,
		engine:   eng,
		observer: obs,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
		triggers: make(chan network.Trigger, 1),
	}, nil
}

// Start acquires the instance lock, subscribes to sync triggers, and launches
// the background loop.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another jobsyncd instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.running.Store(true)

	d.observer.Subscribe(d.enqueueTrigger)

	d.wg.Add(1)
	go d.run(runCtx)

	d.logger.Info("jobsync daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop terminates the background loop and releases the instance lock. An
// in-flight sync run completes before the loop exits.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.wg.Wait()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("jobsync daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// enqueueTrigger forwards an observer event into the trigger channel without
// blocking the reporting goroutine. A full channel means a trigger is already
// pending, which covers this one.
func (d *Daemon) enqueueTrigger(trigger network.Trigger) {
	select {
	case d.triggers <- trigger:
	default:
	}
}

func (d *Daemon) run(ctx context.Context) {
	defer d.wg.Done()

	interval := time.Duration(d.cfg.Sync.PollInterval) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		var trigger network.Trigger
		select {
		case <-ctx.Done():
			return
		case trigger = <-d.triggers:
		case <-ticker.C:
			trigger = network.TriggerPoll
		}

		if err := d.engine.Sync(ctx, trigger); err != nil {
			d.logger.Warn("sync run finished with errors",
				logging.String(logging.FieldTrigger, string(trigger)),
				logging.Error(err),
			)
		}
	}
}
