// Package config loads modalkeys configuration.
//
// Settings come from built-in defaults, then a TOML or YAML file, then
// MODALKEYS_* environment variables:
//
//	[input]
//	start_mode = "normal"
//	timeout_ms = 1000
//
//	[mapping]
//	max_depth = 1000
//	owner_priority = ["buffer", "global", "plugin", "builtin"]
//	files = ["~/.config/modalkeys/maps.toml"]
//
//	[macro]
//	store = "sqlite"
//
// MODALKEYS_MAPPING_MAX_DEPTH=50 overrides mapping.max_depth.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/dshills/modalkeys/internal/input/keymap"
	"github.com/dshills/modalkeys/internal/input/mode"
	"github.com/dshills/modalkeys/internal/logging"
)

// EnvPrefix starts every environment override.
const EnvPrefix = "MODALKEYS_"

// ErrValidationFailed indicates a setting with an unusable value.
var ErrValidationFailed = errors.New("validation failed")

// Config is the complete modalkeys configuration.
type Config struct {
	Input   InputConfig   `toml:"input" yaml:"input"`
	Mapping MappingConfig `toml:"mapping" yaml:"mapping"`
	Macro   MacroConfig   `toml:"macro" yaml:"macro"`
	Script  ScriptConfig  `toml:"script" yaml:"script"`
	Log     LogConfig     `toml:"log" yaml:"log"`
}

// InputConfig configures key interpretation.
type InputConfig struct {
	// StartMode is the mode new surfaces open in.
	StartMode string `toml:"start_mode" yaml:"start_mode"`
	// TimeoutMS is how long a host waits before forcing an ambiguous
	// sequence. The engine has no clock; hosts read this value.
	TimeoutMS int `toml:"timeout_ms" yaml:"timeout_ms"`
	// ShowCmd enables the pending-keys display.
	ShowCmd bool `toml:"showcmd" yaml:"showcmd"`
}

// MappingConfig configures the mapping trie.
type MappingConfig struct {
	MaxDepth      int      `toml:"max_depth" yaml:"max_depth"`
	OwnerPriority []string `toml:"owner_priority" yaml:"owner_priority"`
	Leader        string   `toml:"leader" yaml:"leader"`
	Files         []string `toml:"files" yaml:"files"`
}

// MacroConfig configures macro playback and storage.
type MacroConfig struct {
	MaxDepth  int    `toml:"max_depth" yaml:"max_depth"`
	KeyBudget int    `toml:"key_budget" yaml:"key_budget"`
	Store     string `toml:"store" yaml:"store"`
	Path      string `toml:"path" yaml:"path"`
}

// ScriptConfig selects the script engine.
type ScriptConfig struct {
	Engine string `toml:"engine" yaml:"engine"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Input: InputConfig{
			StartMode: mode.Normal.String(),
			TimeoutMS: 1000,
			ShowCmd:   true,
		},
		Mapping: MappingConfig{
			MaxDepth: 1000,
			Leader:   keymap.DefaultLeader,
		},
		Macro: MacroConfig{
			MaxDepth: 1000,
			Store:    "json",
		},
		Script: ScriptConfig{Engine: "lua"},
		Log:    LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads the configuration file at path, which may be empty or
// missing, and applies environment overrides from environ (os.Environ()
// format). The result is validated.
func Load(path string, environ []string) (*Config, error) {
	settings := make(map[string]any)
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		default:
			if settings, err = decodeMap(filepath.Ext(path), data); err != nil {
				return nil, &ParseError{Path: path, Err: err}
			}
		}
	}

	merge(settings, EnvOverrides(EnvPrefix, environ))

	cfg := Default()
	if err := cfg.apply(settings); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decodeMap parses TOML or YAML into a generic settings map.
func decodeMap(ext string, data []byte) (map[string]any, error) {
	settings := make(map[string]any)
	switch strings.ToLower(ext) {
	case ".toml", "":
		if err := toml.Unmarshal(data, &settings); err != nil {
			return nil, err
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &settings); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q", ext)
	}
	return settings, nil
}

// apply overlays settings onto c. The map is round-tripped through TOML
// so that both file formats and environment values share the struct tags.
func (c *Config) apply(settings map[string]any) error {
	if len(settings) == 0 {
		return nil
	}
	data, err := toml.Marshal(settings)
	if err != nil {
		return err
	}
	dec := toml.NewDecoder(strings.NewReader(string(data)))
	dec.DisallowUnknownFields()
	return dec.Decode(c)
}

// Validate checks every setting.
func (c *Config) Validate() error {
	var errs []error
	if _, err := c.StartMode(); err != nil {
		errs = append(errs, err)
	}
	if c.Input.TimeoutMS < 0 {
		errs = append(errs, fmt.Errorf("input.timeout_ms must not be negative"))
	}
	if c.Mapping.MaxDepth < 1 {
		errs = append(errs, fmt.Errorf("mapping.max_depth must be at least 1"))
	}
	if _, err := c.Policy(); err != nil {
		errs = append(errs, fmt.Errorf("mapping.owner_priority: %w", err))
	}
	if c.Macro.MaxDepth < 1 {
		errs = append(errs, fmt.Errorf("macro.max_depth must be at least 1"))
	}
	if c.Macro.KeyBudget < 0 {
		errs = append(errs, fmt.Errorf("macro.key_budget must not be negative"))
	}
	switch c.Macro.Store {
	case "json", "sqlite", "none":
	default:
		errs = append(errs, fmt.Errorf("macro.store must be json, sqlite or none, got %q", c.Macro.Store))
	}
	switch c.Script.Engine {
	case "lua", "js", "none":
	default:
		errs = append(errs, fmt.Errorf("script.engine must be lua, js or none, got %q", c.Script.Engine))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrValidationFailed, errors.Join(errs...))
	}
	return nil
}

// StartMode returns the parsed input.start_mode.
func (c *Config) StartMode() (mode.Mode, error) {
	m, err := mode.Parse(c.Input.StartMode)
	if err != nil {
		return mode.None, fmt.Errorf("input.start_mode: %w", err)
	}
	return m, nil
}

// Timeout returns input.timeout_ms as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Input.TimeoutMS) * time.Millisecond
}

// Policy returns the owner priority policy.
func (c *Config) Policy() (keymap.Policy, error) {
	return keymap.ParsePolicy(c.Mapping.OwnerPriority)
}

// MacroPath returns macro.path, defaulting to a file in the user config
// directory named after the store.
func (c *Config) MacroPath() (string, error) {
	if c.Macro.Path != "" {
		return expandHome(c.Macro.Path), nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get config directory: %w", err)
	}
	name := "macros.json"
	if c.Macro.Store == "sqlite" {
		name = "macros.db"
	}
	return filepath.Join(dir, "modalkeys", name), nil
}

// MappingFiles returns mapping.files with "~" expanded.
func (c *Config) MappingFiles() []string {
	files := make([]string, len(c.Mapping.Files))
	for i, f := range c.Mapping.Files {
		files[i] = expandHome(f)
	}
	return files
}

// Logger builds the logger described by the log section.
func (c *Config) Logger() *logging.Logger {
	cfg := logging.DefaultLoggerConfig()
	cfg.Level = logging.ParseLogLevel(c.Log.Level)
	cfg.Format = c.Log.Format
	return logging.NewLogger(cfg)
}

// DefaultPath returns the default configuration file location.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get config directory: %w", err)
	}
	return filepath.Join(dir, "modalkeys", "config.toml"), nil
}

func expandHome(path string) string {
	rest, ok := strings.CutPrefix(path, "~/")
	if !ok {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, rest)
}

// ParseError represents an error while parsing a configuration file.
type ParseError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("parse error in environment: %v", e.Err)
	}
	return fmt.Sprintf("parse error in %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Err
}
