package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment variables read by the CLI.
const (
	EnvPort      = "PORT"
	EnvAPIKey    = "API_KEY"
	EnvLogMode   = "LOG_MODE"
	EnvStorage   = "KATALYST_STORAGE"
	EnvDBPath    = "KATALYST_DB_PATH"
	EnvRedisAddr = "REDIS_ADDR"
	EnvServerURL = "KATALYST_SERVER_URL"
	EnvUserID    = "KATALYST_USER_ID"
	EnvSyncScope = "KATALYST_SYNC_SCOPE"
)

// EnvString returns the trimmed value of name, or nil when unset or blank.
func EnvString(name string) *string {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return nil
	}
	return &v
}

// EnvBool parses name as a bool, or nil when unset or unparsable.
func EnvBool(name string) *bool {
	v := EnvString(name)
	if v == nil {
		return nil
	}
	b, err := strconv.ParseBool(*v)
	if err != nil {
		return nil
	}
	return &b
}

// EnvDuration parses name as a duration, or nil when unset or unparsable.
func EnvDuration(name string) *time.Duration {
	v := EnvString(name)
	if v == nil {
		return nil
	}
	d, err := time.ParseDuration(*v)
	if err != nil {
		return nil
	}
	return &d
}

// EnvAddr turns PORT into a listen address (":5000"). A value that already
// holds a colon is used as is.
func EnvAddr(name string) *string {
	v := EnvString(name)
	if v == nil {
		return nil
	}
	addr := *v
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}
	return &addr
}
