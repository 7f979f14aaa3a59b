package config

import (
	"os"
	"path/filepath"

	"github.com/vanderheijden86/sharptree/pkg/debug"
)

// ProjectFileName is the per-project config overlay.
const ProjectFileName = ".sharptree.yaml"

// Discover loads the user config and overlays the nearest project file found
// by walking up from dir. It returns the merged config and the project file
// path, or "" when none was found.
func Discover(dir string) (Config, string, error) {
	cfg, err := Load()
	if err != nil {
		return cfg, "", err
	}
	path, ok := FindProjectFile(dir)
	if !ok {
		return cfg, "", nil
	}
	debug.Log("config: overlaying %s", path)
	cfg, err = overlay(cfg, path)
	return cfg, path, err
}

// FindProjectFile walks up from dir looking for a .sharptree.yaml file. The
// walk stops at the filesystem root or the user's home directory.
func FindProjectFile(dir string) (string, bool) {
	dir = ExpandHome(dir)
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	home, _ := os.UserHomeDir()

	for {
		candidate := filepath.Join(dir, ProjectFileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break // Reached filesystem root
		}
		// Don't go above home directory
		if home != "" && dir == home {
			break
		}
		dir = parent
	}
	return "", false
}
