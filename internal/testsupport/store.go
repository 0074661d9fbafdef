package testsupport

import (
	"context"
	"testing"

	"jobsync/internal/config"
	"jobsync/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// MustCreateJob creates a job for tests using the provided store.
func MustCreateJob(t testing.TB, st *store.Store, title string) *store.Job {
	t.Helper()

	job, err := st.CreateJob(context.Background(), store.NewJob{
		Title:    title,
		Location: "Test Site",
		Budget:   1500,
		UserID:   "user-1",
	})
	if err != nil {
		t.Fatalf("store.CreateJob: %v", err)
	}
	return job
}
