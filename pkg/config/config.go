// Package config loads docsearch settings from defaults, a YAML file and the
// environment, in that order of precedence.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/praetorian-inc/docsearch/pkg/enum"
	"github.com/praetorian-inc/docsearch/pkg/regex"
	"gopkg.in/yaml.v3"
)

// FileName is the config file looked up in the working directory.
const FileName = "docsearch.yaml"

// Environment variables that override file settings.
const (
	EnvConfig       = "DOCSEARCH_CONFIG"
	EnvEngine       = "DOCSEARCH_ENGINE"
	EnvWorkers      = "DOCSEARCH_WORKERS"
	EnvMatchTimeout = "DOCSEARCH_MATCH_TIMEOUT"
	EnvOutput       = "DOCSEARCH_OUTPUT"
)

// Config holds every tunable setting.
type Config struct {
	Engine            string        `yaml:"engine"`
	MatchTimeout      time.Duration `yaml:"match_timeout"`
	Workers           int           `yaml:"workers"`
	ParallelThreshold int           `yaml:"parallel_threshold"`
	MinScore          int           `yaml:"min_score"` // threshold for rules that set none
	Rules             string        `yaml:"rules"`     // rule file or directory; empty selects builtin rules
	Ruleset           string        `yaml:"ruleset"`   // builtin ruleset ID
	RulesInclude      []string      `yaml:"rules_include"`
	RulesExclude      []string      `yaml:"rules_exclude"`
	Categories        []string      `yaml:"categories"`
	Extract           bool          `yaml:"extract"`
	MaxFileSize       int64         `yaml:"max_file_size"`
	IncludeHidden     bool          `yaml:"include_hidden"`
	Kinds             []string      `yaml:"kinds"` // document kinds to scan; empty scans all
	Output            string        `yaml:"output"` // store path or postgres:// URL

	// Path is the file the config was read from, empty for defaults only.
	Path string `yaml:"-"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Engine:       regex.DefaultEngine,
		MatchTimeout: regex.DefaultMatchTimeout,
		MinScore:     1,
		Extract:      true,
		MaxFileSize:  10 * 1024 * 1024,
		Output:       "docsearch.db",
	}
}

// Load resolves the config file, applies it over the defaults, then applies
// environment overrides and validates the result. A missing default file is
// not an error; a missing explicit file is.
func Load(explicit string) (*Config, error) {
	cfg := Default()

	path, required := explicit, explicit != ""
	if path == "" {
		if env := os.Getenv(EnvConfig); env != "" {
			path, required = env, true
		} else {
			path = defaultPath()
		}
	}

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			if required || !errors.Is(err, fs.ErrNotExist) {
				return nil, err
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// defaultPath returns the first config file that exists, or "".
func defaultPath() string {
	candidates := []string{FileName}
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		candidates = append(candidates, filepath.Join(dir, "docsearch", "config.yaml"))
	} else if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", "docsearch", "config.yaml"))
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return ""
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := Parse(data, c); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	c.Path = path
	return nil
}

// Parse decodes YAML over the values already in cfg. Unknown keys are
// rejected.
func Parse(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvEngine); v != "" {
		c.Engine = v
	}
	if v := os.Getenv(EnvWorkers); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvWorkers, err)
		}
		c.Workers = n
	}
	if v := os.Getenv(EnvMatchTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvMatchTimeout, err)
		}
		c.MatchTimeout = d
	}
	if v := os.Getenv(EnvOutput); v != "" {
		c.Output = v
	}
	return nil
}

// Validate checks value ranges and the engine name.
func (c *Config) Validate() error {
	if _, err := regex.New(c.Engine, regex.Options{}); err != nil {
		return err
	}
	if c.MatchTimeout < 0 {
		return fmt.Errorf("match_timeout must not be negative")
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative")
	}
	if c.ParallelThreshold < 0 {
		return fmt.Errorf("parallel_threshold must not be negative")
	}
	if c.MinScore < 1 {
		return fmt.Errorf("min_score must be at least 1")
	}
	if c.MaxFileSize <= 0 {
		return fmt.Errorf("max_file_size must be positive")
	}
	if _, err := enum.ParseKinds(c.Kinds); err != nil {
		return fmt.Errorf("kinds: %w", err)
	}
	return nil
}

// DocumentKinds returns the parsed kinds filter, or nil if it does not
// parse. Validate reports the error.
func (c *Config) DocumentKinds() []enum.Kind {
	kinds, _ := enum.ParseKinds(c.Kinds)
	return kinds
}

// NewEngine builds the configured regex engine.
func (c *Config) NewEngine() (regex.Engine, error) {
	return regex.New(c.Engine, regex.Options{MatchTimeout: c.MatchTimeout})
}
