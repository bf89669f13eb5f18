// Package xdg provides helpers to resolve XDG Base Directory paths for openiap.
// It implements the XDG Base Directory specification for determining appropriate
// locations for configuration files and other application-specific directories.
//
// The package falls back to the traditional locations when the XDG environment
// variables are not set and creates directories with private permissions.
package xdg

import (
	"os"
	"path/filepath"
)

// AppName is the directory name used under every XDG base directory.
const AppName = "openiap"

// ConfigDir returns the XDG config directory for openiap.
// The directory is created with private permissions (0700) if missing.
// It falls back to ~/.config/openiap when XDG_CONFIG_HOME is unset.
func ConfigDir() (string, error) {
	return ensure("XDG_CONFIG_HOME", ".config")
}

func ensure(env, homeRel string) (string, error) {
	base := os.Getenv(env)
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, homeRel)
	}
	dir := filepath.Join(base, AppName)
	if err := os.MkdirAll(dir, 0o700); err != nil { // private dir
		return "", err
	}
	return dir, nil
}
