package daemon_test

import (
	"context"
	"testing"
	"time"

	"jobsync/internal/config"
	"jobsync/internal/daemon"
	"jobsync/internal/engine"
	"jobsync/internal/logging"
	"jobsync/internal/network"
	"jobsync/internal/store"
	"jobsync/internal/testsupport"
)

func newDaemon(t *testing.T, cfg *config.Config, st *store.Store, client *testsupport.FakeClient, obs *network.Observer) *daemon.Daemon {
	t.Helper()
	eng := engine.NewWithObserver(cfg, st, client, obs, logging.NewNop())
	d, err := daemon.New(cfg, st, eng, obs, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New failed: %v", err)
	}
	return d
}

func TestDaemonSyncsOnTrigger(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	client := testsupport.NewFakeClient()
	observer := network.NewObserver()

	testsupport.MustCreateJob(t, st, "Triggered job")

	d := newDaemon(t, cfg, st, client, observer)
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer d.Stop()

	observer.Foreground()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if client.JobCount() == 1 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("expected queued job to sync after foreground trigger")
}

func TestDaemonEnforcesSingleInstance(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	client := testsupport.NewFakeClient()
	observer := network.NewObserver()

	first := newDaemon(t, cfg, st, client, observer)
	if err := first.Start(context.Background()); err != nil {
		t.Fatalf("first Start failed: %v", err)
	}
	defer first.Stop()

	second := newDaemon(t, cfg, st, client, observer)
	if err := second.Start(context.Background()); err == nil {
		second.Stop()
		t.Fatal("expected second instance to fail acquiring the lock")
	}
}

func TestDaemonStopIsIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	client := testsupport.NewFakeClient()
	observer := network.NewObserver()

	d := newDaemon(t, cfg, st, client, observer)
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	d.Stop()
	d.Stop()
}
