package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/mtlxport/pkg/cache"
	"github.com/matzehuels/mtlxport/pkg/catalog"
	"github.com/matzehuels/mtlxport/pkg/mapper"
	"github.com/matzehuels/mtlxport/pkg/pipeline"
	"github.com/matzehuels/mtlxport/pkg/translate"
	"github.com/matzehuels/mtlxport/pkg/validate"
)

// Cache backends.
const (
	backendFile  = "file"
	backendRedis = "redis"
	backendNone  = "none"
)

// Config is the user configuration file. Flags override its values.
type Config struct {
	Strict   bool     `toml:"strict"`
	Formats  []string `toml:"formats"`
	Workers  int      `toml:"workers"`
	Catalogs []string `toml:"catalogs"` // extra definition catalogs (TOML)
	Schemas  []string `toml:"schemas"`  // extra mapper schemas (YAML)

	Cache    CacheConfig    `toml:"cache"`
	Validate ValidateConfig `toml:"validate"`
}

// CacheConfig selects the cache backend.
type CacheConfig struct {
	Backend   string `toml:"backend"`
	RedisURL  string `toml:"redis_url"`
	Namespace string `toml:"namespace"`
	Scope     string `toml:"scope"` // key prefix separating projects in one cache
}

// ValidateConfig sets validator severities.
type ValidateConfig struct {
	MissingMaterial string `toml:"missing_material"`
	MissingShader   string `toml:"missing_shader"`
	MissingGraph    string `toml:"missing_graph"`
}

func defaultConfig() Config {
	return Config{
		Formats: []string{pipeline.FormatMTLX},
		Cache:   CacheConfig{Backend: backendFile, Namespace: appName + ":"},
	}
}

// configPath returns the config file location using XDG standard
// (~/.config/mtlxport/config.toml).
func configPath() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// loadConfig reads path over the defaults. A missing file yields the
// defaults; relative catalog and schema paths resolve against the file's
// directory.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	for i, p := range cfg.Catalogs {
		cfg.Catalogs[i] = resolvePath(dir, p)
	}
	for i, p := range cfg.Schemas {
		cfg.Schemas[i] = resolvePath(dir, p)
	}
	return cfg, cfg.check()
}

func resolvePath(dir, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

// check validates enumerated values.
func (c Config) check() error {
	switch c.Cache.Backend {
	case backendFile, backendRedis, backendNone:
	default:
		return fmt.Errorf("invalid cache backend %q (want file, redis or none)", c.Cache.Backend)
	}
	if c.Cache.Backend == backendRedis && c.Cache.RedisURL == "" {
		return fmt.Errorf("cache backend redis needs redis_url")
	}
	if err := pipeline.ValidateFormats(c.Formats); err != nil {
		return err
	}
	_, err := c.validateOptions()
	return err
}

// validateOptions converts the [validate] section.
func (c Config) validateOptions() (validate.Options, error) {
	var opts validate.Options
	for _, f := range []struct {
		raw string
		dst *validate.Severity
	}{
		{c.Validate.MissingMaterial, &opts.MissingMaterial},
		{c.Validate.MissingShader, &opts.MissingShader},
		{c.Validate.MissingGraph, &opts.MissingGraph},
	} {
		if f.raw == "" {
			continue
		}
		sev, err := validate.ParseSeverity(f.raw)
		if err != nil {
			return opts, err
		}
		*f.dst = sev
	}
	return opts, nil
}

// translatorSetup is a translator plus the content hashes of the extra
// files it was built from.
type translatorSetup struct {
	Translator *translate.Translator
	Catalog    *catalog.Catalog
	Catalogs   []string
	Schemas    []string
}

// newTranslator builds a translator from c, loading extra catalogs and
// schemas.
func (c Config) newTranslator(strict bool, logger *log.Logger) (*translatorSetup, error) {
	setup := &translatorSetup{Catalog: catalog.Default()}
	for _, path := range c.Catalogs {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read catalog: %w", err)
		}
		extra, err := catalog.Load(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("catalog %s: %w", path, err)
		}
		setup.Catalog = setup.Catalog.Merge(extra)
		setup.Catalogs = append(setup.Catalogs, cache.Hash(data))
		logger.Debug("loaded catalog", "path", path, "defs", len(extra.Defs()))
	}

	registry, err := mapper.Default()
	if err != nil {
		return nil, err
	}
	for _, path := range c.Schemas {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read schemas: %w", err)
		}
		n, err := registry.LoadSchemas(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("schemas %s: %w", path, err)
		}
		setup.Schemas = append(setup.Schemas, cache.Hash(data))
		logger.Debug("loaded schemas", "path", path, "count", n)
	}

	vopts, err := c.validateOptions()
	if err != nil {
		return nil, err
	}
	setup.Translator, err = translate.New(translate.Options{
		Strict:   strict,
		Registry: registry,
		Catalog:  setup.Catalog,
		Logger:   logger,
		Validate: vopts,
	})
	if err != nil {
		return nil, err
	}
	return setup, nil
}
