// Package config provides XDG path helpers.
package config

import (
	"os"
	"path/filepath"
)

const appName = "katalyst"

// XDGConfigHome returns the XDG config home or a default fallback.
func XDGConfigHome() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".config")
}

// XDGDataHome returns the XDG data home or a default fallback.
func XDGDataHome() string {
	if v := os.Getenv("XDG_DATA_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".local", "share")
}

// DefaultConfigPath returns the default TOML config path.
func DefaultConfigPath() string {
	return filepath.Join(XDGConfigHome(), appName, "config.toml")
}

// DefaultClientDBPath returns the learner's snapshot database.
func DefaultClientDBPath() string {
	return filepath.Join(XDGDataHome(), appName, "client.db")
}

// DefaultClientLogPath returns the learner-side log file.
func DefaultClientLogPath() string {
	return filepath.Join(XDGDataHome(), appName, "client.log")
}

// DefaultServerDBPath returns the server's SQLite database.
func DefaultServerDBPath() string {
	return filepath.Join(XDGDataHome(), appName, "server.db")
}
