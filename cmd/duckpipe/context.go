// SPDX-License-Identifier: EPL-2.0

package main

import (
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/ik5/duckpipe"
	"github.com/ik5/duckpipe/audio"
	"github.com/ik5/duckpipe/internal/config"
	"github.com/ik5/duckpipe/internal/logging"
)

type globalFlags struct {
	config    string
	logLevel  string
	logFormat string
}

type commandContext struct {
	flags *globalFlags

	configOnce sync.Once
	config     *config.Config
	configErr  error

	registryOnce sync.Once
	registry     *audio.Registry
}

func newCommandContext(flags *globalFlags) *commandContext {
	return &commandContext{flags: flags}
}

// ensureConfig loads the configuration once, applying the logging flags
// over the file.
func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, err := config.Load(strings.TrimSpace(c.flags.config))
		if err != nil {
			c.configErr = err
			return
		}

		if v := strings.TrimSpace(c.flags.logLevel); v != "" {
			cfg.Logging.Level = strings.ToLower(v)
		}
		if v := strings.TrimSpace(c.flags.logFormat); v != "" {
			cfg.Logging.Format = strings.ToLower(v)
		}
		if err := cfg.Validate(); err != nil {
			c.configErr = err
			return
		}

		c.config = cfg
	})

	return c.config, c.configErr
}

func (c *commandContext) logger(w io.Writer) (*log.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}

	return logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: w,
	})
}

func (c *commandContext) codecs() *audio.Registry {
	c.registryOnce.Do(func() {
		c.registry = duckpipe.NewRegistry()
	})

	return c.registry
}
