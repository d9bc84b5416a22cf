package main

import (
	"context"
	"strings"
	"sync"

	"freight-tracker/internal/app"
	"freight-tracker/internal/core/config"
	"freight-tracker/internal/core/logger"
)

type trackerFactory func(ctx context.Context, cfg *config.AppConfig, ov app.Overrides) (*app.Tracker, error)

type commandContext struct {
	configDir  *string
	newTracker trackerFactory

	configOnce sync.Once
	config     *config.AppConfig
	configErr  error
}

func newCommandContext(configDir *string, factory trackerFactory) *commandContext {
	return &commandContext{
		configDir:  configDir,
		newTracker: factory,
	}
}

// ensureConfig loads configuration once and initializes the logger on stderr.
func (c *commandContext) ensureConfig() (*config.AppConfig, error) {
	c.configOnce.Do(func() {
		dir := "."
		if c.configDir != nil && strings.TrimSpace(*c.configDir) != "" {
			dir = strings.TrimSpace(*c.configDir)
		}
		cfg, err := config.Load(dir)
		if err != nil {
			c.configErr = err
			return
		}
		if err := logger.Init(cfg.Environment, cfg.LogLevel); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}
