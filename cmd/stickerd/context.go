package main

import (
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"stickerd/internal/config"
	"stickerd/internal/imaging"
	"stickerd/internal/logging"
	"stickerd/internal/packstore"
	"stickerd/internal/provider"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
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

// withStore opens the pack store for one command invocation and closes it
// afterwards. CLI invocations stay quiet; serve builds its own logger.
func (c *commandContext) withStore(fn func(*packstore.Store, *config.Config) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := packstore.New(cfg, imaging.Native{}, logging.NewNop())
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store, cfg)
}

func (c *commandContext) service() (*provider.Service, *config.Config, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	return provider.NewService(cfg, logging.NewNop()), cfg, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
