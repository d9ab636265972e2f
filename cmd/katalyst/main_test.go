package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/katalyst/internal/config"
)

func testCmd(t *testing.T) (*cobra.Command, *string) {
	t.Helper()
	value := "default"
	cmd := &cobra.Command{Use: "x"}
	cmd.Flags().StringVar(&value, "server-url", "default", "")
	return cmd, &value
}

func TestApplyStringConfigPrecedence(t *testing.T) {
	file := "from-file"

	cmd, value := testCmd(t)
	applyStringConfig(cmd, "server-url", value, config.EnvServerURL, &file)
	if *value != "from-file" {
		t.Fatalf("expected file value, got %q", *value)
	}

	t.Setenv(config.EnvServerURL, "from-env")
	cmd, value = testCmd(t)
	applyStringConfig(cmd, "server-url", value, config.EnvServerURL, &file)
	if *value != "from-env" {
		t.Fatalf("expected env value, got %q", *value)
	}

	cmd, value = testCmd(t)
	if err := cmd.Flags().Set("server-url", "from-flag"); err != nil {
		t.Fatalf("set flag: %v", err)
	}
	applyStringConfig(cmd, "server-url", value, config.EnvServerURL, &file)
	if *value != "from-flag" {
		t.Fatalf("expected flag value, got %q", *value)
	}
}

func TestApplyDurationConfigKeepsDefault(t *testing.T) {
	target := 3 * time.Second
	cmd := &cobra.Command{Use: "x"}
	cmd.Flags().DurationVar(&target, "timeout", 3*time.Second, "")
	applyDurationConfig(cmd, "timeout", &target, "", nil)
	if target != 3*time.Second {
		t.Fatalf("expected default timeout, got %v", target)
	}
	applyDurationConfig(cmd, "timeout", &target, "", &config.Duration{Duration: time.Minute})
	if target != time.Minute {
		t.Fatalf("expected file timeout, got %v", target)
	}
}

func TestDefaultConfigTemplateParses(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		t.Fatalf("commented template: %v", err)
	}
	if cfg.Client.ServerURL != nil || cfg.Server.Storage != nil {
		t.Fatalf("expected no values from commented template, got %+v", cfg)
	}

	var lines []string
	for _, line := range strings.Split(defaultConfigTemplate(), "\n") {
		if strings.HasPrefix(line, "# ") && strings.Contains(line, " = ") {
			line = strings.TrimPrefix(line, "# ")
		}
		lines = append(lines, line)
	}
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err = config.LoadConfig(path)
	if err != nil {
		t.Fatalf("uncommented template: %v", err)
	}
	if cfg.Client.ServerURL == nil || *cfg.Client.ServerURL != defaultServerURL {
		t.Fatalf("unexpected server url: %v", cfg.Client.ServerURL)
	}
	if cfg.Client.Timeout == nil || cfg.Client.Timeout.Duration != defaultTimeout {
		t.Fatalf("unexpected timeout: %v", cfg.Client.Timeout)
	}
	if cfg.Server.Storage == nil || *cfg.Server.Storage != defaultStorage {
		t.Fatalf("unexpected storage: %v", cfg.Server.Storage)
	}
	if cfg.Server.Seed == nil || !*cfg.Server.Seed {
		t.Fatalf("expected seed enabled")
	}
}

func TestValidateServeConfig(t *testing.T) {
	serveStorage, serveAPIKey, serveAddr = "postgres", "k", ":1"
	if err := validateServeConfig(); err == nil {
		t.Fatalf("expected unknown storage to fail")
	}
	serveStorage = storageRedis
	if err := validateServeConfig(); err != nil {
		t.Fatalf("expected redis storage to pass, got %v", err)
	}
}
