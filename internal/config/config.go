package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/five82/contrail/internal/interp"
	"github.com/five82/contrail/internal/source"
)

// SourceConfig is one entry of the sources list.
type SourceConfig struct {
	Kind        string   `mapstructure:"kind"`
	Name        string   `mapstructure:"name"`
	Path        string   `mapstructure:"path"`
	Pattern     string   `mapstructure:"pattern"`
	Command     string   `mapstructure:"command"`
	Args        []string `mapstructure:"args"`
	RecordStart string   `mapstructure:"record_start"`
	FromStart   bool     `mapstructure:"from_start"`
	Retry       bool     `mapstructure:"retry"`
	Poll        bool     `mapstructure:"poll"`
}

// Spec converts the entry to an adapter spec.
func (s SourceConfig) Spec() source.Spec {
	return source.Spec{
		Kind:        s.Kind,
		Name:        s.Name,
		Path:        s.Path,
		Pattern:     s.Pattern,
		Command:     s.Command,
		Args:        s.Args,
		RecordStart: s.RecordStart,
		FromStart:   s.FromStart,
		Retry:       s.Retry,
		Poll:        s.Poll,
	}
}

// Config is the resolved contrail configuration.
type Config struct {
	Capacity      int            `mapstructure:"capacity"`
	SourcePoll    time.Duration  `mapstructure:"source_poll"`
	InputTick     time.Duration  `mapstructure:"input_tick"`
	CheckInterval time.Duration  `mapstructure:"check_interval"`
	ShutdownGrace time.Duration  `mapstructure:"shutdown_grace"`
	Format        string         `mapstructure:"format"`
	Filter        string         `mapstructure:"filter"`
	Detail        int            `mapstructure:"detail"`
	ShowDebug     bool           `mapstructure:"show_debug"`
	Wrap          bool           `mapstructure:"wrap"`
	LogLevel      string         `mapstructure:"log_level"`
	LogFormat     string         `mapstructure:"log_format"`
	LogFile       string         `mapstructure:"log_file"`
	DebugLines    int            `mapstructure:"debug_lines"`
	Sources       []SourceConfig `mapstructure:"sources"`

	// Path is the config file that was read, or "" when none existed.
	Path string `mapstructure:"-"`
}

const (
	defaultConfigPath    = "~/.config/contrail/config.toml"
	defaultCapacity      = 16384
	defaultSourcePoll    = 100 * time.Millisecond
	defaultInputTick     = 16 * time.Millisecond
	defaultCheckInterval = 25 * time.Millisecond
	defaultShutdownGrace = 250 * time.Millisecond
	defaultDebugLines    = 512

	envPrefix = "CONTRAIL"
)

// flagKeys maps config keys to the command-line flags that override them.
var flagKeys = map[string]string{
	"capacity":       "capacity",
	"format":         "format",
	"filter":         "filter",
	"detail":         "detail",
	"wrap":           "wrap",
	"show_debug":     "debug",
	"source_poll":    "poll",
	"check_interval": "check-interval",
	"log_level":      "log-level",
	"log_file":       "log-file",
}

// Load reads the config file at path (default ~/.config/contrail/config.toml),
// applies CONTRAIL_* environment overrides and any changed flags, and
// validates the result. A missing file is not an error.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	v := viper.New()
	v.SetConfigType("toml")
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for key, name := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	found := false
	if _, err := os.Stat(resolved); err == nil {
		v.SetConfigFile(resolved)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
		found = true
	} else if !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("open config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if found {
		cfg.Path = resolved
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("capacity", defaultCapacity)
	v.SetDefault("source_poll", defaultSourcePoll)
	v.SetDefault("input_tick", defaultInputTick)
	v.SetDefault("check_interval", defaultCheckInterval)
	v.SetDefault("shutdown_grace", defaultShutdownGrace)
	v.SetDefault("format", "auto")
	v.SetDefault("filter", "")
	v.SetDefault("detail", 1)
	v.SetDefault("show_debug", false)
	v.SetDefault("wrap", false)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("log_file", "")
	v.SetDefault("debug_lines", defaultDebugLines)
}

// Default returns the configuration used when no file, environment or flags
// override anything.
func Default() Config {
	return Config{
		Capacity:      defaultCapacity,
		SourcePoll:    defaultSourcePoll,
		InputTick:     defaultInputTick,
		CheckInterval: defaultCheckInterval,
		ShutdownGrace: defaultShutdownGrace,
		Format:        "auto",
		Detail:        1,
		LogLevel:      "info",
		LogFormat:     "json",
		DebugLines:    defaultDebugLines,
	}
}

func (c *Config) normalize() {
	c.Format = strings.ToLower(strings.TrimSpace(c.Format))
	if c.Format == "" {
		c.Format = "auto"
	}
	if c.SourcePoll <= 0 {
		c.SourcePoll = defaultSourcePoll
	}
	if c.InputTick <= 0 {
		c.InputTick = defaultInputTick
	}
	if c.ShutdownGrace <= 0 {
		c.ShutdownGrace = defaultShutdownGrace
	}
	if c.DebugLines <= 0 {
		c.DebugLines = defaultDebugLines
	}
	if strings.TrimSpace(c.LogFile) != "" {
		c.LogFile = mustExpand(c.LogFile)
	}
	for i := range c.Sources {
		s := &c.Sources[i]
		s.Kind = strings.ToLower(strings.TrimSpace(s.Kind))
		if strings.TrimSpace(s.Path) != "" {
			s.Path = mustExpand(s.Path)
		}
	}
}

// Validate rejects settings the viewer cannot start with.
func (c Config) Validate() error {
	if c.Capacity <= 0 {
		return fmt.Errorf("invalid config: capacity must be positive, got %d", c.Capacity)
	}
	if !slices.Contains(interp.Names, c.Format) {
		return fmt.Errorf("invalid config: unknown format %q (want one of %s)", c.Format, strings.Join(interp.Names, ", "))
	}
	for i, s := range c.Sources {
		if !slices.Contains(source.Kinds, s.Kind) {
			return fmt.Errorf("invalid config: sources[%d]: unknown kind %q (want one of %s)", i, s.Kind, strings.Join(source.Kinds, ", "))
		}
		switch s.Kind {
		case source.KindFile, source.KindDir:
			if strings.TrimSpace(s.Path) == "" {
				return fmt.Errorf("invalid config: sources[%d]: %s source needs a path", i, s.Kind)
			}
		case source.KindExec:
			if strings.TrimSpace(s.Command) == "" {
				return fmt.Errorf("invalid config: sources[%d]: exec source needs a command", i)
			}
		}
	}
	return nil
}

// DefaultPath returns the expanded default config file location.
func DefaultPath() string {
	return mustExpand(defaultConfigPath)
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
