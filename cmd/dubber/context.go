package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"dubber/internal/config"
	"dubber/internal/jobs"
	"dubber/internal/logging"
	"dubber/internal/mediastore"
	"dubber/internal/pipeline"
)

// processorFactory builds the job processor used by run and start. Tests
// replace it to avoid invoking the external engines.
var processorFactory = func(cfg *config.Config, store *jobs.Store, media *mediastore.Store, logger *slog.Logger) jobs.Processor {
	settings := func() pipeline.Settings { return pipeline.SettingsFromConfig(cfg) }
	return jobs.NewRunner(store, media, settings, logger, jobs.WithWorkDir(cfg.Paths.WorkDir))
}

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

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

// logger writes to the command's stderr so stdout stays parseable.
func (c *commandContext) logger(cmd *cobra.Command) *slog.Logger {
	if c.verboseFlag == nil || !*c.verboseFlag {
		return logging.NewNop()
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return logging.NewNop()
	}
	logger, err := logging.New(logging.Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stderr"},
	})
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warn: unable to initialize logger: %v\n", err)
		return logging.NewNop()
	}
	return logger
}

// withStores opens the job database and media directory for one command.
func (c *commandContext) withStores(fn func(*config.Config, *jobs.Store, *mediastore.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := jobs.Open(cfg)
	if err != nil {
		return fmt.Errorf("open job database: %w", err)
	}
	defer store.Close()
	media, err := mediastore.New(cfg.Paths.MediaDir)
	if err != nil {
		return fmt.Errorf("open media store: %w", err)
	}
	return fn(cfg, store, media)
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
