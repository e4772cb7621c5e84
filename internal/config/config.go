// Package config loads application configuration from an optional TOML file
// and environment variables.
package config

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config holds the application configuration.
type Config struct {
	ListenAddr     string
	DBPath         string
	P4Bin          string
	SecretKey      []byte // 32 bytes, or nil when credential persistence is disabled.
	CommandTimeout time.Duration
	DefaultLimit   int
	LogLevel       slog.Level
}

// fileConfig mirrors Config as it appears in the TOML file.
type fileConfig struct {
	ListenAddr     string `toml:"listen_addr"`
	DBPath         string `toml:"db_path"`
	P4Bin          string `toml:"p4_bin"`
	SecretKey      string `toml:"secret_key"`
	CommandTimeout string `toml:"command_timeout"`
	DefaultLimit   int    `toml:"default_limit"`
	LogLevel       string `toml:"log_level"`
}

// HasSecretKey reports whether ticket persistence is enabled.
func (c *Config) HasSecretKey() bool {
	return len(c.SecretKey) > 0
}

// Load reads configuration and returns a validated Config. When
// P4PANEL_CONFIG names a TOML file it is read first; P4PANEL_* environment
// variables override file values. Defaults: P4PANEL_LISTEN_ADDR
// (127.0.0.1:8080), P4PANEL_DB_PATH (p4panel.db), P4PANEL_P4_BIN (p4),
// P4PANEL_COMMAND_TIMEOUT (0, unbounded), P4PANEL_DEFAULT_LIMIT (50),
// P4PANEL_LOG_LEVEL (info). P4PANEL_SECRET_KEY (64 hex chars) is optional;
// without it the default credential cannot be saved.
func Load() (*Config, error) {
	fc := fileConfig{
		ListenAddr:     "127.0.0.1:8080",
		DBPath:         "p4panel.db",
		P4Bin:          "p4",
		CommandTimeout: "0",
		DefaultLimit:   50,
		LogLevel:       "info",
	}

	if path, ok := os.LookupEnv("P4PANEL_CONFIG"); ok && path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := toml.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	overrideString(&fc.ListenAddr, "P4PANEL_LISTEN_ADDR")
	overrideString(&fc.DBPath, "P4PANEL_DB_PATH")
	overrideString(&fc.P4Bin, "P4PANEL_P4_BIN")
	overrideString(&fc.SecretKey, "P4PANEL_SECRET_KEY")
	overrideString(&fc.CommandTimeout, "P4PANEL_COMMAND_TIMEOUT")
	overrideString(&fc.LogLevel, "P4PANEL_LOG_LEVEL")

	if v, ok := os.LookupEnv("P4PANEL_DEFAULT_LIMIT"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("P4PANEL_DEFAULT_LIMIT has invalid value %q: %w", v, err)
		}
		fc.DefaultLimit = n
	}
	if fc.DefaultLimit <= 0 {
		return nil, fmt.Errorf("default limit must be positive, got %d", fc.DefaultLimit)
	}

	timeout, err := parseTimeout(fc.CommandTimeout)
	if err != nil {
		return nil, err
	}

	key, err := parseSecretKey(fc.SecretKey)
	if err != nil {
		return nil, err
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(fc.LogLevel)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", fc.LogLevel, err)
	}

	return &Config{
		ListenAddr:     fc.ListenAddr,
		DBPath:         fc.DBPath,
		P4Bin:          fc.P4Bin,
		SecretKey:      key,
		CommandTimeout: timeout,
		DefaultLimit:   fc.DefaultLimit,
		LogLevel:       level,
	}, nil
}

func overrideString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}

// parseTimeout accepts a Go duration; "0" or "" means unbounded.
func parseTimeout(v string) (time.Duration, error) {
	v = strings.TrimSpace(v)
	if v == "" || v == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("command timeout has invalid duration %q: %w", v, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("command timeout must not be negative, got %s", d)
	}
	return d, nil
}

// parseSecretKey decodes a 64-character hex string into a 32-byte AES-256 key.
func parseSecretKey(v string) ([]byte, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	key, err := hex.DecodeString(v)
	if err != nil {
		return nil, fmt.Errorf("P4PANEL_SECRET_KEY must be hex-encoded: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("P4PANEL_SECRET_KEY must decode to 32 bytes, got %d", len(key))
	}
	return key, nil
}
