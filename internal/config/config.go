package config

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dshills/faultline/internal/config/loader"
	"github.com/dshills/faultline/internal/fault"
	"github.com/dshills/faultline/internal/logging"
)

// DefaultHandlerPriority is used for handlers that do not set a priority.
const DefaultHandlerPriority = 10

// Handler types understood by the application.
const (
	HandlerLog     = "log"
	HandlerJSONL   = "jsonl"
	HandlerLua     = "lua"
	HandlerDisplay = "display"
)

// Config is the complete faultline configuration.
type Config struct {
	Display    DisplayConfig    `toml:"display" yaml:"display"`
	Logging    LoggingConfig    `toml:"logging" yaml:"logging"`
	Escalation EscalationConfig `toml:"escalation" yaml:"escalation"`
	Trace      TraceConfig      `toml:"trace" yaml:"trace"`
	Dispatcher DispatcherConfig `toml:"dispatcher" yaml:"dispatcher"`
	Handlers   []HandlerConfig  `toml:"handlers" yaml:"handlers"`
}

// DisplayConfig controls the built-in display handler.
type DisplayConfig struct {
	// Verbose registers the display handler in front of configured handlers.
	Verbose bool `toml:"verbose" yaml:"verbose"`
	// Output is "stdout" or "stderr".
	Output string `toml:"output" yaml:"output"`
}

// LoggingConfig controls the application logger.
type LoggingConfig struct {
	Level string `toml:"level" yaml:"level"`
	// File receives log output. Empty means stderr.
	File string `toml:"file" yaml:"file"`
}

// EscalationConfig lists severities reported as errors instead of events.
type EscalationConfig struct {
	Severities []string `toml:"severities" yaml:"severities"`
}

// TraceConfig controls trace reconstruction.
type TraceConfig struct {
	MaxDepth int `toml:"max_depth" yaml:"max_depth"`
}

// DispatcherConfig controls the dispatch engine.
type DispatcherConfig struct {
	Metrics bool `toml:"metrics" yaml:"metrics"`
}

// HandlerConfig declares one registered handler.
type HandlerConfig struct {
	ID       string `toml:"id" yaml:"id"`
	Type     string `toml:"type" yaml:"type"`
	Priority *int   `toml:"priority" yaml:"priority,omitempty"`
	// Path is the output file for jsonl and the script file for lua.
	Path string `toml:"path" yaml:"path,omitempty"`
	// Script is inline Lua source; it takes precedence over Path.
	Script string `toml:"script" yaml:"script,omitempty"`
	// Claim makes log and jsonl handlers report events as handled.
	Claim bool `toml:"claim" yaml:"claim,omitempty"`
}

// EffectivePriority returns Priority or DefaultHandlerPriority.
func (h HandlerConfig) EffectivePriority() int {
	if h.Priority == nil {
		return DefaultHandlerPriority
	}
	return *h.Priority
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		Display: DisplayConfig{Output: "stdout"},
		Logging: LoggingConfig{Level: "info"},
		Trace:   TraceConfig{MaxDepth: 8},
	}
}

// boolPaths are coerced from integers so FAULTLINE_DISPLAY_VERBOSE=1 works.
var boolPaths = []string{"display.verbose", "dispatcher.metrics"}

// Load resolves defaults, the file at path and FAULTLINE_* variables. An
// empty path or a missing file leaves the defaults in place.
func Load(path string) (*Config, error) {
	return load(path, loader.DefaultFS())
}

func load(path string, fsys loader.ReadFileFS) (*Config, error) {
	var merged map[string]any

	if path != "" {
		format, ok := loader.FormatFor(path)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
		}
		data, err := loader.NewFile(fsys, path, format).Load()
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		merged = loader.DeepMerge(merged, data)
	}

	env, err := loader.NewEnvLoader(loader.DefaultEnvPrefix).Load()
	if err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}
	merged = loader.DeepMerge(merged, env)

	cfg := Default()
	if err := decode(merged, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decode overlays data onto cfg by way of a YAML round trip, so both file
// formats and the environment share the yaml struct tags.
func decode(data map[string]any, cfg *Config) error {
	if len(data) == 0 {
		return nil
	}
	for _, p := range boolPaths {
		coerceBool(data, p)
	}
	raw, err := yaml.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}
	return nil
}

func coerceBool(data map[string]any, path string) {
	section, key, _ := strings.Cut(path, ".")
	m, ok := data[section].(map[string]any)
	if !ok {
		return
	}
	switch n := m[key].(type) {
	case int:
		m[key] = n != 0
	case int64:
		m[key] = n != 0
	case uint64:
		m[key] = n != 0
	}
}

// EscalationMask parses Escalation.Severities.
func (c *Config) EscalationMask() (fault.Mask, error) {
	return fault.ParseMask(c.Escalation.Severities)
}

// LogLevel parses Logging.Level.
func (c *Config) LogLevel() (logging.Level, error) {
	return logging.ParseLevel(c.Logging.Level)
}

// Validate checks the configuration and returns ValidationErrors listing
// every problem, or nil.
func (c *Config) Validate() error {
	var errs ValidationErrors
	add := func(path, msg string, value any) {
		errs = append(errs, &ValidationError{Path: path, Message: msg, Value: value})
	}

	switch c.Display.Output {
	case "", "stdout", "stderr":
	default:
		add("display.output", "must be stdout or stderr", c.Display.Output)
	}
	if _, err := c.LogLevel(); err != nil {
		add("logging.level", "must be debug, info, warn, or error", c.Logging.Level)
	}
	if _, err := c.EscalationMask(); err != nil {
		add("escalation.severities", err.Error(), c.Escalation.Severities)
	}
	if c.Trace.MaxDepth < 0 {
		add("trace.max_depth", "must not be negative", c.Trace.MaxDepth)
	}

	seen := make(map[string]bool, len(c.Handlers))
	for i, h := range c.Handlers {
		prefix := fmt.Sprintf("handlers[%d]", i)
		switch {
		case h.ID == "":
			add(prefix+".id", "is required", h.ID)
		case seen[h.ID]:
			add(prefix+".id", "is a duplicate", h.ID)
		}
		seen[h.ID] = true

		switch h.Type {
		case HandlerLog, HandlerDisplay:
		case HandlerJSONL:
			if h.Path == "" {
				add(prefix+".path", "is required for jsonl handlers", h.Path)
			}
		case HandlerLua:
			if h.Script == "" && h.Path == "" {
				add(prefix+".script", "script or path is required for lua handlers", h.Script)
			}
		default:
			add(prefix+".type", "must be log, jsonl, lua, or display", h.Type)
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// IsValidationError reports whether err came from Validate.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrValidationFailed)
}
