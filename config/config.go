// Package config provides configuration management for VPN Toggle.
// It handles loading, saving, and validating application settings.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/yllada/vpn-toggle/common"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
// All settings are persisted to a YAML file in the user's config directory.
type Config struct {
	// ConfigPath is the OpenVPN configuration file to connect with.
	ConfigPath string `yaml:"config_path"`
	// Binary is the OpenVPN executable, looked up in PATH when not absolute.
	Binary string `yaml:"binary"`
	// PrivilegeHelper runs OpenVPN through a helper such as pkexec or sudo.
	PrivilegeHelper string `yaml:"privilege_helper"`
	// ExtraArgs are appended to the OpenVPN command line.
	ExtraArgs []string `yaml:"extra_args"`
	// AutoRetry reconnects after transient network errors.
	AutoRetry bool `yaml:"auto_retry"`
	// RetryNotice is the wait before the retry is announced.
	RetryNotice time.Duration `yaml:"retry_notice"`
	// RetryDelay is the wait between the announcement and the reconnect.
	RetryDelay time.Duration `yaml:"retry_delay"`
	// ShowNotifications enables desktop notifications for connection events.
	ShowNotifications bool `yaml:"notifications"`
	// Tray shows a system tray indicator.
	Tray bool `yaml:"tray"`
	// History records connection events in a local database.
	History bool `yaml:"history"`
	// LogLevel is one of "debug", "info", "warn" or "error".
	LogLevel string `yaml:"log_level"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		ConfigPath:        defaultOVPNPath(),
		Binary:            common.DefaultBinary,
		AutoRetry:         true,
		RetryNotice:       common.RetryNotice,
		RetryDelay:        common.RetryDelay,
		ShowNotifications: true,
		Tray:              false,
		History:           true,
		LogLevel:          "info",
	}
}

// Load loads the configuration from the default location.
// If the file doesn't exist, it creates one with default values.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom loads the configuration from path, creating it with default
// values when it doesn't exist.
func LoadFrom(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := DefaultConfig()
		if err := cfg.SaveTo(path); err != nil {
			return cfg, err
		}
		return cfg, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: error opening configuration: %w", common.ErrConfigLoad, err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true) // Strict validation: reject unknown fields

	config := DefaultConfig()
	if err := decoder.Decode(config); err != nil {
		return nil, fmt.Errorf("%w: error parsing configuration: %w", common.ErrConfigLoad, err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("%w: invalid configuration: %w", common.ErrConfigLoad, err)
	}

	return config, nil
}

// Validate normalizes configuration values. Out-of-range values fall back
// to their defaults; only a missing OpenVPN config path is an error.
func (c *Config) Validate() error {
	c.ConfigPath = expandHome(strings.TrimSpace(c.ConfigPath))
	if c.ConfigPath == "" {
		return fmt.Errorf("config_path cannot be empty")
	}

	if strings.TrimSpace(c.Binary) == "" {
		c.Binary = common.DefaultBinary
	}
	if strings.ContainsAny(c.PrivilegeHelper, " \t") {
		return fmt.Errorf("privilege_helper must be a single executable, got %q", c.PrivilegeHelper)
	}

	if c.RetryNotice <= 0 {
		c.RetryNotice = common.RetryNotice
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = common.RetryDelay
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
		c.LogLevel = strings.ToLower(c.LogLevel)
	default:
		c.LogLevel = "info" // Fallback to default
	}

	return nil
}

// Save saves the configuration to the default location.
func (c *Config) Save() error {
	path, err := Path()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo saves the configuration to path.
func (c *Config) SaveTo(path string) error {
	// Create directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("%w: error creating config directory: %w", common.ErrConfigSave, err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("%w: error serializing configuration: %w", common.ErrConfigSave, err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("%w: error saving configuration: %w", common.ErrConfigSave, err)
	}

	return nil
}

// Path returns the location of the configuration file.
func Path() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("error getting home directory: %w", err)
	}

	return filepath.Join(homeDir, ".config", common.ConfigDirName, common.ConfigFileName), nil
}

func defaultOVPNPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return common.DefaultOVPNFileName
	}
	return filepath.Join(homeDir, ".config", common.ConfigDirName, common.DefaultOVPNFileName)
}

// expandHome replaces a leading "~/" with the home directory.
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(homeDir, path[2:])
}
