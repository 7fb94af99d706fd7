// Package cli implements the mtlxport command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/mtlxport/pkg/buildinfo"
	"github.com/matzehuels/mtlxport/pkg/cache"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "mtlxport"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	config     *Config
}

// New creates a CLI that logs to w at level.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "mtlxport translates shading node graphs into MaterialX documents",
		Long: `mtlxport translates procedural shading node graphs into MaterialX material
documents, synthesizing definitions for nodes without a direct equivalent and
validating the result.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}
	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/mtlxport/config.toml)")

	root.AddCommand(c.translateCommand())
	root.AddCommand(c.validateCommand())
	root.AddCommand(c.catalogCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig reads the configuration once per process.
func (c *CLI) loadConfig() (Config, error) {
	if c.config != nil {
		return *c.config, nil
	}
	path := c.configPath
	if path == "" {
		p, err := configPath()
		if err != nil {
			return defaultConfig(), nil
		}
		path = p
	}
	cfg, err := loadConfig(path)
	if err != nil {
		return cfg, err
	}
	c.Logger.Debug("loaded config", "path", path, "cache", cfg.Cache.Backend)
	c.config = &cfg
	return cfg, nil
}

// =============================================================================
// Cache Factory
// =============================================================================

// newCache opens the configured backend. noCache forces the null cache.
// A non-empty scope prefixes every key.
func (c *CLI) newCache(ctx context.Context, cfg Config, noCache bool) (cache.Cache, cache.Keyer, error) {
	keyer := cache.NewDefaultKeyer()
	if cfg.Cache.Scope != "" {
		keyer = cache.NewScopedKeyer(keyer, cfg.Cache.Scope)
	}
	if noCache || cfg.Cache.Backend == backendNone {
		return cache.NewNullCache(), keyer, nil
	}
	if cfg.Cache.Backend == backendRedis {
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{URL: cfg.Cache.RedisURL, Namespace: cfg.Cache.Namespace})
		if err != nil {
			return nil, nil, fmt.Errorf("open redis cache: %w", err)
		}
		c.Logger.Debug("using redis cache", "namespace", cfg.Cache.Namespace)
		return rc, keyer, nil
	}
	dir, err := cacheDir()
	if err != nil {
		c.Logger.Warn("no cache directory, caching disabled", "err", err)
		return cache.NewNullCache(), keyer, nil
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		return nil, nil, err
	}
	return fc, keyer, nil
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/mtlxport/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
