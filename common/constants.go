// Package common provides shared constants, types, and utilities
// used across the VPN Toggle application.
package common

import "time"

// Application metadata.
const (
	// AppID is the unique identifier for the application.
	AppID = "com.vpntoggle.app"
	// AppName is the display name of the application.
	AppName = "VPN Toggle"
	// ConfigDirName is the name of the configuration directory.
	ConfigDirName = "vpn-toggle"
)

// File names used by the application.
const (
	ConfigFileName      = "config.yaml"
	DefaultOVPNFileName = "config.ovpn"
	CredentialsFileName = ".credentials"
	HistoryFileName     = "history.db"
	LogFileName         = "vpn-toggle.log"
)

// OpenVPN invocation defaults.
const (
	// DefaultBinary is the executable spawned for a connection.
	DefaultBinary = "openvpn"
	// ConfigFlag precedes the configuration path on the command line.
	ConfigFlag = "--config"
	// AuthUserPassFlag precedes the credentials file on the command line.
	AuthUserPassFlag = "--auth-user-pass"
)

// Default timeouts and intervals.
const (
	// RetryNotice is how long a transient error is shown before the
	// auto-retry notice appears.
	RetryNotice = 3 * time.Second
	// RetryDelay is the delay between the auto-retry notice and the
	// reconnect request.
	RetryDelay = 1 * time.Second
	// NotificationTimeout is the timeout for desktop notification calls.
	NotificationTimeout = 2 * time.Second
)

// Output limits.
const (
	// MaxErrorSnippet is the number of characters of unclassified stderr
	// output carried in an error event.
	MaxErrorSnippet = 100
	// OutputChunkSize is the read buffer size for process pipes.
	OutputChunkSize = 4096
	// EventBuffer is the per-subscriber event channel capacity.
	EventBuffer = 64
)

// UI constants.
const (
	// OutputLines is how many process output lines the TUI keeps.
	OutputLines = 8
	// TrayIconSize is the size of the system tray icon.
	TrayIconSize = 22
)
