package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gobwas/glob"
	"gopkg.in/yaml.v3"
)

// Settings is the application-level configuration: where to sort from and
// to, how to run, and what the watch daemon should do. It is separate from
// the sorter rules document, whose JSON schema is a fixed external
// interface.
type Settings struct {
	Directories struct {
		Source string   `yaml:"source"` // default source directory
		Target string   `yaml:"target"` // default target directory
		Watch  []string `yaml:"watch"`  // directories watched by the daemon
	} `yaml:"directories"`
	Options struct {
		Operation string `yaml:"operation"` // copy or move
		LogLevel  string `yaml:"log_level"`
		TUI       bool   `yaml:"tui"` // interactive progress view for sort runs
	} `yaml:"options"`
	WatchMode struct {
		Enabled  bool     `yaml:"enabled"`
		Interval int      `yaml:"interval"`  // settle delay in seconds before sorting a new file
		Ignore   []string `yaml:"ignore"`    // glob patterns for files the daemon leaves alone
		Target   string   `yaml:"target"`    // overrides directories.target for watch runs
		Move     bool     `yaml:"move"`      // move instead of copy in watch mode
	} `yaml:"watch_mode"`
	SorterConfig string `yaml:"sorter_config"` // path to the JSON rules document
}

// DefaultSettingsPath returns ~/.config/dateisort/settings.yaml.
func DefaultSettingsPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "dateisort", "settings.yaml"), nil
}

// LoadSettings loads the settings from the default location.
func LoadSettings() (*Settings, error) {
	path, err := DefaultSettingsPath()
	if err != nil {
		return nil, err
	}
	return LoadSettingsFile(path)
}

// LoadSettingsFile loads settings from a specific file path. A missing file
// yields the defaults.
func LoadSettingsFile(path string) (*Settings, error) {
	cfg := defaultSettings()
	cfg.SorterConfig = filepath.Join(filepath.Dir(path), "kategorien.json")

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("error reading settings file: %w", err)
	}

	// Decoding over the defaults struct merges: keys absent from the file
	// keep their default value instead of being zeroed.
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing settings file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	return cfg, nil
}

func defaultSettings() *Settings {
	cfg := &Settings{}
	cfg.Options.Operation = "copy"
	cfg.Options.LogLevel = "info"
	cfg.Options.TUI = true
	cfg.WatchMode.Interval = 2
	cfg.WatchMode.Ignore = []string{"*.part", "*.crdownload", "*.tmp", ".*"}
	return cfg
}

// NewSettings returns the default settings.
func NewSettings() *Settings {
	return defaultSettings()
}

// SaveSettings writes the settings as YAML, creating parent directories.
func SaveSettings(cfg *Settings, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}
	return nil
}

// Validate checks the settings for consistency.
func (s *Settings) Validate() error {
	if s == nil {
		return fmt.Errorf("nil settings")
	}
	if s.Options.Operation != "copy" && s.Options.Operation != "move" {
		return fmt.Errorf("invalid operation %q (want copy or move)", s.Options.Operation)
	}
	if s.WatchMode.Enabled && s.WatchMode.Interval < 1 {
		return fmt.Errorf("watch interval must be >= 1 second")
	}
	for _, pattern := range s.WatchMode.Ignore {
		if _, err := glob.Compile(pattern); err != nil {
			return fmt.Errorf("invalid ignore pattern %q: %w", pattern, err)
		}
	}
	return nil
}

// IgnoreGlobs compiles the watch ignore patterns. Validate has already
// checked them, so compile errors only occur for settings built by hand.
func (s *Settings) IgnoreGlobs() ([]glob.Glob, error) {
	globs := make([]glob.Glob, 0, len(s.WatchMode.Ignore))
	for _, pattern := range s.WatchMode.Ignore {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid ignore pattern %q: %w", pattern, err)
		}
		globs = append(globs, g)
	}
	return globs, nil
}
