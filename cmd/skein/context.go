package main

import (
	"log/slog"

	"skein/internal/config"
	"skein/internal/logging"
)

// commandContext lazily loads configuration and the logger so that every
// subcommand shares one resolved view of both.
type commandContext struct {
	configFlag *string

	cfg       *config.Config
	cfgPath   string
	cfgExists bool
	logger    *slog.Logger
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}

	path := ""
	if c.configFlag != nil {
		path = *c.configFlag
	}
	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	c.cfg = cfg
	c.cfgPath = resolved
	c.cfgExists = exists
	return cfg, nil
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	if c.logger != nil {
		return c.logger, nil
	}

	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		return nil, err
	}
	c.logger = logger
	return logger, nil
}
