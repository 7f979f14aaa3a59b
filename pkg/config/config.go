// Package config handles loading and saving sharptree configuration.
//
// Configuration follows the XDG Base Directory layout:
//   - Config: ~/.config/sharptree/config.yaml
//   - State:  ~/.local/state/sharptree/ (expansion state per tree)
//
// A .sharptree.yaml file found in the working directory or one of its parents
// overlays the user config (see Discover).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ViewConfig controls how the tree is projected and edited.
type ViewConfig struct {
	ShowRoot         bool `yaml:"show_root"`
	ShowRootExpander bool `yaml:"show_root_expander"`
	AllowDropOrder   bool `yaml:"allow_drop_order"`
	ShowLines        bool `yaml:"show_lines"`
	ExpandDepth      int  `yaml:"expand_depth"` // levels expanded on first open
}

// FilesConfig controls file-system trees.
type FilesConfig struct {
	ShowHidden bool     `yaml:"show_hidden"`
	Ignore     []string `yaml:"ignore,omitempty"` // names or globs
	Watch      bool     `yaml:"watch"`
}

// StateConfig controls persistence of expansion state.
type StateConfig struct {
	Persist bool `yaml:"persist"`
}

// Config is the top-level configuration for sharptree.
type Config struct {
	View  ViewConfig  `yaml:"view"`
	Files FilesConfig `yaml:"files"`
	State StateConfig `yaml:"state"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		View: ViewConfig{
			ShowRoot:       true,
			AllowDropOrder: true,
			ShowLines:      true,
			ExpandDepth:    1,
		},
		Files: FilesConfig{
			Ignore: []string{".git", "node_modules"},
			Watch:  true,
		},
		State: StateConfig{
			Persist: true,
		},
	}
}

// ConfigDir returns the XDG config directory for sharptree.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "sharptree")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "sharptree")
}

// StateDir returns the XDG state directory for sharptree.
func StateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "sharptree")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "state", "sharptree")
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads the config file from the XDG config directory.
// Returns DefaultConfig if the file doesn't exist.
func Load() (Config, error) {
	path := ConfigPath()
	if path == "" {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads config from a specific path.
// Returns DefaultConfig if the file doesn't exist.
func LoadFrom(path string) (Config, error) {
	return overlay(DefaultConfig(), path)
}

// overlay decodes the file at path on top of cfg. Keys missing from the file
// keep their value from cfg.
func overlay(cfg Config, path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if cfg.View.ExpandDepth < 0 {
		cfg.View.ExpandDepth = 0
	}
	for i := range cfg.Files.Ignore {
		cfg.Files.Ignore[i] = strings.TrimSpace(cfg.Files.Ignore[i])
	}
	return cfg, nil
}

// Save writes the config to the XDG config directory.
func Save(cfg Config) error {
	path := ConfigPath()
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	return SaveTo(cfg, path)
}

// SaveTo writes the config to a specific path.
func SaveTo(cfg Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
