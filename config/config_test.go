package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/yllada/vpn-toggle/common"
)

func TestDefaultConfig(t *testing.T) {
	t.Setenv("HOME", "/home/tester")

	cfg := DefaultConfig()

	if cfg.ConfigPath != "/home/tester/.config/vpn-toggle/config.ovpn" {
		t.Errorf("ConfigPath = %v, want %v", cfg.ConfigPath, "/home/tester/.config/vpn-toggle/config.ovpn")
	}
	if cfg.Binary != "openvpn" {
		t.Errorf("Binary = %v, want openvpn", cfg.Binary)
	}
	if cfg.RetryNotice != 3*time.Second {
		t.Errorf("RetryNotice = %v, want 3s", cfg.RetryNotice)
	}
	if cfg.RetryDelay != time.Second {
		t.Errorf("RetryDelay = %v, want 1s", cfg.RetryDelay)
	}
	if !cfg.AutoRetry || !cfg.ShowNotifications || !cfg.History || cfg.Tray {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadFrom_CreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.Binary != common.DefaultBinary {
		t.Errorf("Binary = %v, want %v", cfg.Binary, common.DefaultBinary)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("config file was not created: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("config file mode = %o, want 600", perm)
	}
}

func TestLoadFrom_ParsesValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `config_path: /etc/openvpn/client/work.ovpn
binary: /usr/sbin/openvpn
privilege_helper: pkexec
extra_args: ["--verb", "4"]
auto_retry: false
retry_notice: 5s
retry_delay: 250ms
notifications: false
tray: true
history: false
log_level: DEBUG
`
	if err := os.WriteFile(path, []byte(data), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if cfg.ConfigPath != "/etc/openvpn/client/work.ovpn" {
		t.Errorf("ConfigPath = %v", cfg.ConfigPath)
	}
	if cfg.Binary != "/usr/sbin/openvpn" || cfg.PrivilegeHelper != "pkexec" {
		t.Errorf("Binary/PrivilegeHelper = %v/%v", cfg.Binary, cfg.PrivilegeHelper)
	}
	if len(cfg.ExtraArgs) != 2 || cfg.ExtraArgs[0] != "--verb" || cfg.ExtraArgs[1] != "4" {
		t.Errorf("ExtraArgs = %v, want [--verb 4]", cfg.ExtraArgs)
	}
	if cfg.AutoRetry || cfg.ShowNotifications || cfg.History || !cfg.Tray {
		t.Errorf("boolean fields not parsed: %+v", cfg)
	}
	if cfg.RetryNotice != 5*time.Second || cfg.RetryDelay != 250*time.Millisecond {
		t.Errorf("retry durations = %v/%v, want 5s/250ms", cfg.RetryNotice, cfg.RetryDelay)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %v, want debug", cfg.LogLevel)
	}
}

func TestLoadFrom_RejectsUnknownFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("theme: dark\n"), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	_, err := LoadFrom(path)
	if !errors.Is(err, common.ErrConfigLoad) {
		t.Errorf("LoadFrom() error = %v, want %v", err, common.ErrConfigLoad)
	}
}

func TestSaveTo_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := DefaultConfig()
	cfg.ConfigPath = "/tmp/office.ovpn"
	cfg.RetryNotice = 10 * time.Second
	cfg.ExtraArgs = []string{"--auth-nocache"}
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo() error = %v", err)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if loaded.ConfigPath != cfg.ConfigPath || loaded.RetryNotice != cfg.RetryNotice {
		t.Errorf("loaded = %+v, want %+v", loaded, cfg)
	}
	if len(loaded.ExtraArgs) != 1 || loaded.ExtraArgs[0] != "--auth-nocache" {
		t.Errorf("ExtraArgs = %v, want [--auth-nocache]", loaded.ExtraArgs)
	}
}

func TestValidate(t *testing.T) {
	t.Setenv("HOME", "/home/tester")

	tests := []struct {
		name    string
		modify  func(*Config)
		check   func(*testing.T, *Config)
		wantErr bool
	}{
		{
			name:   "expands home",
			modify: func(c *Config) { c.ConfigPath = "~/vpn/client.ovpn" },
			check: func(t *testing.T, c *Config) {
				if c.ConfigPath != "/home/tester/vpn/client.ovpn" {
					t.Errorf("ConfigPath = %v, want /home/tester/vpn/client.ovpn", c.ConfigPath)
				}
			},
		},
		{
			name:   "empty binary",
			modify: func(c *Config) { c.Binary = " " },
			check: func(t *testing.T, c *Config) {
				if c.Binary != "openvpn" {
					t.Errorf("Binary = %q, want openvpn", c.Binary)
				}
			},
		},
		{
			name: "non-positive durations",
			modify: func(c *Config) {
				c.RetryNotice = 0
				c.RetryDelay = -time.Second
			},
			check: func(t *testing.T, c *Config) {
				if c.RetryNotice != 3*time.Second || c.RetryDelay != time.Second {
					t.Errorf("durations = %v/%v, want 3s/1s", c.RetryNotice, c.RetryDelay)
				}
			},
		},
		{
			name:   "unknown log level",
			modify: func(c *Config) { c.LogLevel = "verbose" },
			check: func(t *testing.T, c *Config) {
				if c.LogLevel != "info" {
					t.Errorf("LogLevel = %v, want info", c.LogLevel)
				}
			},
		},
		{
			name:    "empty config path",
			modify:  func(c *Config) { c.ConfigPath = "" },
			wantErr: true,
		},
		{
			name:    "helper with arguments",
			modify:  func(c *Config) { c.PrivilegeHelper = "sudo -n" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

func TestPath(t *testing.T) {
	t.Setenv("HOME", "/home/tester")

	path, err := Path()
	if err != nil {
		t.Fatalf("Path() error = %v", err)
	}
	if path != "/home/tester/.config/vpn-toggle/config.yaml" {
		t.Errorf("Path() = %v, want /home/tester/.config/vpn-toggle/config.yaml", path)
	}
}
