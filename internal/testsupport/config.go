package testsupport

import (
	"path/filepath"
	"testing"

	"jobsync/internal/config"
)

// NewConfig returns a validated config rooted in a temp directory.
func NewConfig(t testing.TB) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.MediaDir = filepath.Join(base, "media")
	cfg.API.BaseURL = "https://jobs.test.invalid"
	cfg.API.Token = "test-token"
	// Keep retries fast: tests exercise the policy shape, not wall-clock delays.
	cfg.Sync.RetryDelaySeconds = 0

	if err := cfg.Validate(); err != nil {
		t.Fatalf("test config invalid: %v", err)
	}
	return &cfg
}
