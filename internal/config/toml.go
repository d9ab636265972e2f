// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Client ClientConfig `toml:"client"`
	Server ServerConfig `toml:"server"`
}

// ClientConfig maps learner-side settings.
type ClientConfig struct {
	ServerURL *string   `toml:"server-url"`
	APIKey    *string   `toml:"api-key"`
	UserID    *string   `toml:"user-id"`
	SyncScope *string   `toml:"sync-scope"`
	Timeout   *Duration `toml:"timeout"`
}

// ServerConfig maps server-side settings.
type ServerConfig struct {
	Addr      *string `toml:"addr"`
	APIKey    *string `toml:"api-key"`
	Storage   *string `toml:"storage"`
	DBPath    *string `toml:"db-path"`
	RedisAddr *string `toml:"redis-addr"`
	Seed      *bool   `toml:"seed"`
	LogMode   *string `toml:"log-mode"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}
