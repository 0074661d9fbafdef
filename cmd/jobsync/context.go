package main

import (
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"jobsync/internal/api"
	"jobsync/internal/config"
	"jobsync/internal/engine"
	"jobsync/internal/logging"
	"jobsync/internal/store"
)

type commandContext struct {
	configFlag  *string
	verboseFlag *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string, verboseFlag *bool) *commandContext {
	return &commandContext{
		configFlag:  configFlag,
		verboseFlag: verboseFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// withStore opens the local store for the duration of fn.
func (c *commandContext) withStore(fn func(*config.Config, *store.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	st, err := store.Open(cfg)
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(cfg, st)
}

// withEngine opens the store and constructs a sync engine over the remote
// client. CLI invocations are assumed online; the daemon is what gates runs on
// connectivity.
func (c *commandContext) withEngine(errOut io.Writer, fn func(*store.Store, *engine.Engine) error) error {
	return c.withStore(func(cfg *config.Config, st *store.Store) error {
		logger, err := c.buildLogger(cfg, errOut)
		if err != nil {
			return err
		}
		client := api.NewFromConfig(cfg)
		eng := engine.New(cfg, st, client, nil, logger)
		return fn(st, eng)
	})
}

func (c *commandContext) buildLogger(cfg *config.Config, errOut io.Writer) (*slog.Logger, error) {
	if c.verboseFlag == nil || !*c.verboseFlag {
		return logging.NewNop(), nil
	}
	return logging.New(logging.Options{
		Level:  "debug",
		Format: cfg.Logging.Format,
		Output: errOut,
	})
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
