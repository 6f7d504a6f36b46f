package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v6"
	"gopkg.in/yaml.v3"

	"github.com/Zuo-Peng/tutortrace/internal/palette"
)

// PaletteEntry overrides or adds one tag color.
type PaletteEntry struct {
	Label string `toml:"label" yaml:"label"`
	Color string `toml:"color" yaml:"color"`
	Side  string `toml:"side" yaml:"side"` // student, assistant or empty
}

type Config struct {
	SessionPaths []string `toml:"sessions" yaml:"sessions" env:"TUTORTRACE_SESSIONS" envSeparator:","`
	UsersPath    string   `toml:"users" yaml:"users" env:"TUTORTRACE_USERS"`
	StorePath    string   `toml:"store" yaml:"store" env:"TUTORTRACE_STORE"`
	DBPath       string   `toml:"db_path" yaml:"db_path" env:"TUTORTRACE_DB"`

	TracePath string `toml:"trace_png" yaml:"trace_png" env:"TUTORTRACE_TRACE_PNG"`
	StatsPNG  string `toml:"stats_png" yaml:"stats_png" env:"TUTORTRACE_STATS_PNG"`
	StatsCSV  string `toml:"stats_csv" yaml:"stats_csv" env:"TUTORTRACE_STATS_CSV"`

	ShowAssistant bool   `toml:"show_assistant" yaml:"show_assistant" env:"TUTORTRACE_SHOW_ASSISTANT"`
	Layout        string `toml:"layout" yaml:"layout" env:"TUTORTRACE_LAYOUT"`
	TutorRule     string `toml:"tutor_rule" yaml:"tutor_rule" env:"TUTORTRACE_TUTOR_RULE"`
	LogLevel      string `toml:"log_level" yaml:"log_level" env:"TUTORTRACE_LOG_LEVEL"`

	FallbackColor string         `toml:"fallback_color" yaml:"fallback_color" env:"TUTORTRACE_FALLBACK_COLOR"`
	Palette       []PaletteEntry `toml:"palette" yaml:"palette"`

	// File the values were read from, empty when only defaults apply.
	Source string `toml:"-" yaml:"-"`
}

func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	path := os.Getenv("TUTORTRACE_CONFIG")
	if path == "" {
		path = filepath.Join(home, ".config", "tutortrace", "config.toml")
	}
	return LoadFrom(path, home)
}

func defaults(home string) *Config {
	return &Config{
		StorePath: "user_messages.json",
		DBPath:    filepath.Join(home, ".config", "tutortrace", "tutortrace.db"),
		TracePath: "user_trace_diagram.png",
		StatsPNG:  "message_statistics.png",
		StatsCSV:  "message_statistics.csv",
		Layout:    "per-user",
		TutorRule: "per-message",
		LogLevel:  "info",
	}
}

// LoadFrom applies defaults, then the file at path when it exists, then the
// TUTORTRACE_* environment. Files ending in .yaml or .yml are YAML, anything
// else TOML.
func LoadFrom(path, home string) (*Config, error) {
	cfg := defaults(home)
	path = expandHome(path, home)

	if _, err := os.Stat(path); err == nil {
		if err := decodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
		cfg.Source = path
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	for i, p := range cfg.SessionPaths {
		cfg.SessionPaths[i] = expandHome(p, home)
	}
	cfg.UsersPath = expandHome(cfg.UsersPath, home)
	cfg.StorePath = expandHome(cfg.StorePath, home)
	cfg.DBPath = expandHome(cfg.DBPath, home)
	cfg.TracePath = expandHome(cfg.TracePath, home)
	cfg.StatsPNG = expandHome(cfg.StatsPNG, home)
	cfg.StatsCSV = expandHome(cfg.StatsCSV, home)

	return cfg, nil
}

func decodeFile(path string, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return yaml.Unmarshal(data, cfg)
	default:
		_, err := toml.DecodeFile(path, cfg)
		return err
	}
}

// BuildPalette layers the configured overrides on top of the default palette.
func (c *Config) BuildPalette() (*palette.Palette, error) {
	base := palette.Default()
	if len(c.Palette) == 0 && c.FallbackColor == "" {
		return base, nil
	}
	overrides := make([]palette.Swatch, 0, len(c.Palette))
	for _, e := range c.Palette {
		side, err := palette.ParseSide(e.Side)
		if err != nil {
			return nil, fmt.Errorf("palette %q: %w", e.Label, err)
		}
		overrides = append(overrides, palette.Swatch{Label: e.Label, Hex: e.Color, Side: side})
	}
	return base.With(overrides, c.FallbackColor)
}

func expandHome(path, home string) string {
	if len(path) > 1 && path[0] == '~' && path[1] == '/' {
		return filepath.Join(home, path[2:])
	}
	return path
}
