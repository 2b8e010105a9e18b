// Package common provides shared constants, types, and utilities
// used across the VPN Toggle application.
package common

// Credentials is the username/password pair handed to OpenVPN through
// an auth-user-pass file.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// CredentialStore defines the interface for credential storage.
// Implementations may use system keyring, encrypted files, etc.
// Keys are absolute OpenVPN configuration paths.
type CredentialStore interface {
	// Store saves credentials for a configuration.
	Store(configPath string, creds Credentials) error
	// Get retrieves credentials for a configuration.
	Get(configPath string) (Credentials, error)
	// Delete removes credentials for a configuration.
	Delete(configPath string) error
}

// Notifier defines the interface for sending notifications.
type Notifier interface {
	// Notify sends a notification with the given title and message.
	Notify(title, message string) error
	// NotifyWithIcon sends a notification with a custom icon.
	NotifyWithIcon(title, message, icon string) error
}

// Logger defines the interface for structured logging.
type Logger interface {
	// Debug logs a debug message.
	Debug(msg string, args ...interface{})
	// Info logs an informational message.
	Info(msg string, args ...interface{})
	// Warn logs a warning message.
	Warn(msg string, args ...interface{})
	// Error logs an error message.
	Error(msg string, args ...interface{})
}
