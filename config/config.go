// Package config loads generator settings from autoplugin.yaml or
// autoplugin.toml.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// FileNames are the config file names looked up in every directory, in
// order of preference.
var FileNames = []string{"autoplugin.yaml", "autoplugin.yml", "autoplugin.toml"}

// Lint levels for the missing-plugin check.
const (
	LintOff   = "off"
	LintWarn  = "warn"
	LintError = "error"
)

// Config is the generator configuration.
type Config struct {
	Runtime RuntimeConfig `yaml:"runtime" toml:"runtime"`
	// Lenient skips directives whose source file cannot be determined.
	Lenient bool         `yaml:"lenient" toml:"lenient"`
	Lint    LintConfig   `yaml:"lint" toml:"lint"`
	Output  OutputConfig `yaml:"output" toml:"output"`
	// Jobs bounds the number of files expanded concurrently. Zero means
	// GOMAXPROCS.
	Jobs  int         `yaml:"jobs" toml:"jobs"`
	Cache CacheConfig `yaml:"cache" toml:"cache"`
	Log   LogConfig   `yaml:"log" toml:"log"`

	// Path is the file the configuration was read from; empty for defaults.
	Path string `yaml:"-" toml:"-"`
}

// RuntimeConfig selects the builder runtime generated code targets.
type RuntimeConfig struct {
	Import  string `yaml:"import" toml:"import"`
	Name    string `yaml:"name" toml:"name"`
	Builder string `yaml:"builder" toml:"builder"`
}

// LintConfig configures post-expansion checks.
type LintConfig struct {
	// MissingPlugin is off, warn or error.
	MissingPlugin string `yaml:"missing_plugin" toml:"missing_plugin"`
}

// OutputConfig configures generated files.
type OutputConfig struct {
	// PackageFile is the file written for package-scoped plugins.
	PackageFile string `yaml:"package_file" toml:"package_file"`
}

// CacheConfig configures the per-file output cache.
type CacheConfig struct {
	Enabled *bool  `yaml:"enabled" toml:"enabled"`
	Dir     string `yaml:"dir" toml:"dir"`
}

// On reports whether the cache is enabled; it is unless disabled explicitly.
func (c CacheConfig) On() bool { return c.Enabled == nil || *c.Enabled }

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// Default returns the configuration used when no file is found.
func Default() Config {
	var c Config
	applyDefaults(&c)
	return c
}

// WithDefaults returns c with every unset field defaulted.
func (c Config) WithDefaults() Config {
	applyDefaults(&c)
	return c
}

func applyDefaults(c *Config) {
	if strings.TrimSpace(c.Runtime.Import) == "" {
		c.Runtime.Import = "github.com/sghaida/autoplugin/app"
	}
	if strings.TrimSpace(c.Runtime.Name) == "" {
		c.Runtime.Name = c.Runtime.Import[strings.LastIndex(c.Runtime.Import, "/")+1:]
	}
	if strings.TrimSpace(c.Runtime.Builder) == "" {
		c.Runtime.Builder = "App"
	}
	if c.Lint.MissingPlugin == "" {
		c.Lint.MissingPlugin = LintWarn
	}
	if c.Output.PackageFile == "" {
		c.Output.PackageFile = "autoplugin_gen.go"
	}
	if c.Jobs <= 0 {
		c.Jobs = runtime.GOMAXPROCS(0)
	}
	if c.Cache.Dir == "" {
		dir, err := os.UserCacheDir()
		if err != nil {
			dir = os.TempDir()
		}
		c.Cache.Dir = filepath.Join(dir, "autoplugin")
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate reports settings that cannot be used.
func (c Config) Validate() error {
	var errs []error
	switch c.Lint.MissingPlugin {
	case LintOff, LintWarn, LintError:
	default:
		errs = append(errs, fmt.Errorf("lint.missing_plugin must be off, warn or error, got %q", c.Lint.MissingPlugin))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}
	if !strings.HasSuffix(c.Output.PackageFile, ".go") || strings.ContainsAny(c.Output.PackageFile, `/\`) {
		errs = append(errs, fmt.Errorf("output.package_file must be a bare .go file name, got %q", c.Output.PackageFile))
	}
	if strings.HasSuffix(c.Output.PackageFile, "_test.go") {
		errs = append(errs, fmt.Errorf("output.package_file cannot be a test file"))
	}
	if err := errors.Join(errs...); err != nil {
		if c.Path != "" {
			return fmt.Errorf("%s: %w", c.Path, err)
		}
		return err
	}
	return nil
}

// Find walks up from startDir looking for a config file.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		for _, name := range FileNames {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, true, nil
			} else if !errors.Is(err, os.ErrNotExist) {
				return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Load reads the config file at path. The format follows the extension.
// Unknown keys are errors.
func Load(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var c Config
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(raw))
		dec.KnownFields(true)
		if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
			return Config{}, fmt.Errorf("%s: failed to parse YAML: %w", path, err)
		}
	case ".toml":
		meta, err := toml.Decode(string(raw), &c)
		if err != nil {
			return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, 0, len(undecoded))
			for _, k := range undecoded {
				keys = append(keys, k.String())
			}
			return Config{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
		}
	default:
		return Config{}, fmt.Errorf("%s: unsupported config format", path)
	}

	c.Path = path
	applyDefaults(&c)
	return c, c.Validate()
}

// Discover finds and loads the config governing startDir, or returns the
// defaults when there is none.
func Discover(startDir string) (Config, error) {
	path, ok, err := Find(startDir)
	if err != nil {
		return Config{}, err
	}
	if !ok {
		return Default(), nil
	}
	return Load(path)
}
