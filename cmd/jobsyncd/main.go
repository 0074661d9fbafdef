// Command jobsyncd runs the background sync daemon: it watches for
// connectivity and foreground triggers, polls on an interval, and drains the
// mutation queue against the remote job service.
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"jobsync/internal/api"
	"jobsync/internal/config"
	"jobsync/internal/daemon"
	"jobsync/internal/engine"
	"jobsync/internal/logging"
	"jobsync/internal/network"
	"jobsync/internal/store"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("ensure directories: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	st, err := store.Open(cfg)
	if err != nil {
		logger.Error("open store", logging.Error(err))
		return
	}

	observer := network.NewObserver()
	client := api.NewFromConfig(cfg)
	eng := engine.NewWithObserver(cfg, st, client, observer, logger)

	d, err := daemon.New(cfg, st, eng, observer, logger)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		st.Close()
		return
	}
	defer d.Close()

	if err := d.Start(ctx); err != nil {
		logger.Error("daemon start", logging.Error(err))
		return
	}

	// Run one sync at startup so queued offline work drains without waiting
	// for the first poll tick.
	observer.Foreground()

	<-ctx.Done()
	logger.Info("jobsyncd shutting down")
}
