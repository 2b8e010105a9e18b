// Package common provides shared constants, types, and utilities
// used across the VPN Toggle application.
package common

import "errors"

// Sentinel errors for supervisor operations.
// These can be checked with errors.Is() for proper error handling.
var (
	// Startup errors.
	ErrConfigMissing = errors.New("config file not found")
	ErrNotInstalled  = errors.New("openvpn not installed")
	ErrHelperMissing = errors.New("privilege helper not installed")
	ErrSpawnFailed   = errors.New("failed to start openvpn")
	ErrShutdown      = errors.New("supervisor is shut down")

	// Errors reported by the running process.
	ErrAuthFailed        = errors.New("authentication failed")
	ErrHostUnreachable   = errors.New("cannot reach server")
	ErrConnectionRefused = errors.New("connection refused")
	ErrUnclassified      = errors.New("unclassified openvpn error")
	ErrAbnormalExit      = errors.New("openvpn exited abnormally")

	// Credential errors.
	ErrCredentialsNotFound = errors.New("credentials not found")
	ErrCredentialStorage   = errors.New("failed to store credentials")
	ErrEncryption          = errors.New("encryption error")
	ErrDecryption          = errors.New("decryption error")

	// Configuration errors.
	ErrConfigLoad = errors.New("failed to load configuration")
	ErrConfigSave = errors.New("failed to save configuration")
)

// WrapError wraps an error with additional context.
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return &wrappedError{
		msg: message,
		err: err,
	}
}

type wrappedError struct {
	msg string
	err error
}

func (e *wrappedError) Error() string {
	return e.msg + ": " + e.err.Error()
}

func (e *wrappedError) Unwrap() error {
	return e.err
}
