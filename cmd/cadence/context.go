package main

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/tejashwikalptaru/cadence/internal/app"
	"github.com/tejashwikalptaru/cadence/internal/config"
	"github.com/tejashwikalptaru/cadence/internal/logger"
)

type commandContext struct {
	configFlag  *string
	profileFlag *string
	mockAudio   *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag, profileFlag *string, mockAudio *bool) *commandContext {
	return &commandContext{
		configFlag:  configFlag,
		profileFlag: profileFlag,
		mockAudio:   mockAudio,
	}
}

// ensureConfig loads the configuration once and applies the global flags.
func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.profileFlag != nil && strings.TrimSpace(*c.profileFlag) != "" {
			cfg.Profile = strings.TrimSpace(*c.profileFlag)
		}
		if c.mockAudio != nil && *c.mockAudio {
			cfg.Audio.Mock = true
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// withCore opens the library with a silent engine, activates the profile and
// closes everything after fn returns.
func (c *commandContext) withCore(cmd *cobra.Command, fn func(*app.Core) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	headless := *cfg
	headless.Audio.Mock = true

	log := logger.NewLogger(logger.Config{
		Level:  logger.ParseLevel(headless.Logging.Level, slog.LevelInfo),
		Format: headless.Logging.Format,
		Output: cmd.ErrOrStderr(),
	})

	ctx := cmd.Context()
	core, err := app.NewCore(ctx, &headless, log, nil)
	if err != nil {
		return err
	}
	defer core.Close()

	if err := core.Start(ctx, headless.Profile); err != nil {
		return err
	}
	return fn(core)
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
