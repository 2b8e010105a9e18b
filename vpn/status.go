// Package vpn provides VPN connection management functionality.
// This file contains the status and event types published by the Supervisor.
package vpn

import (
	"errors"
	"fmt"
	"time"

	"github.com/yllada/vpn-toggle/common"
)

// Status represents the current state of the supervised connection.
type Status int

const (
	// StatusDisconnected indicates no connection (idle).
	StatusDisconnected Status = iota
	// StatusConnecting indicates OpenVPN has been started.
	StatusConnecting
	// StatusAuthenticating indicates the server sent an auth control message.
	StatusAuthenticating
	// StatusConnected indicates the tunnel is up.
	StatusConnected
	// StatusError indicates the connection failed or reported an error.
	StatusError
)

// String returns a human-readable representation of the status.
func (s Status) String() string {
	switch s {
	case StatusDisconnected:
		return "Disconnected"
	case StatusConnecting:
		return "Connecting..."
	case StatusAuthenticating:
		return "Authenticating..."
	case StatusConnected:
		return "Connected"
	case StatusError:
		return "Error"
	default:
		return "Unknown"
	}
}

// Event is a single status change. Events are values and are never
// modified after they are published.
type Event struct {
	Status Status
	// Message is the user-facing reason for StatusError events.
	Message string
	// Err is the classified error for StatusError events.
	Err error
	// SessionID identifies the OpenVPN process the event belongs to.
	// Empty for events that happen before a process is started.
	SessionID string
	Time      time.Time
}

// String renders the event the way it is shown to the user.
func (e Event) String() string {
	if e.Status == StatusError {
		return "Error: " + e.Message
	}
	return e.Status.String()
}

// IsError reports whether the event carries an error matching target.
func (e Event) IsError(target error) bool {
	return e.Status == StatusError && errors.Is(e.Err, target)
}

// ExitError reports a non-zero exit of the OpenVPN process.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("process exited with code %d", e.Code)
}

func (e *ExitError) Unwrap() error {
	return common.ErrAbnormalExit
}

// OutputError carries an unrecognized stderr chunk.
type OutputError struct {
	Snippet string
}

func (e *OutputError) Error() string {
	return "openvpn: " + e.Snippet
}

func (e *OutputError) Unwrap() error {
	return common.ErrUnclassified
}

// SpawnError reports a failure to start OpenVPN for a reason other than
// a missing executable.
type SpawnError struct {
	Err error
}

func (e *SpawnError) Error() string {
	return "failed to start openvpn: " + e.Err.Error()
}

func (e *SpawnError) Unwrap() []error {
	return []error{common.ErrSpawnFailed, e.Err}
}

// ErrorMessage maps an error to the short message shown to the user.
func ErrorMessage(err error) string {
	var exitErr *ExitError
	var outputErr *OutputError
	var spawnErr *SpawnError

	switch {
	case err == nil:
		return ""
	case errors.Is(err, common.ErrConfigMissing):
		return "Config file not found"
	case errors.Is(err, common.ErrNotInstalled):
		return "OpenVPN not installed"
	case errors.Is(err, common.ErrHelperMissing):
		return "Privilege helper not installed"
	case errors.Is(err, common.ErrAuthFailed):
		return "Authentication failed"
	case errors.Is(err, common.ErrHostUnreachable):
		return "Cannot reach server"
	case errors.Is(err, common.ErrConnectionRefused):
		return "Connection refused"
	case errors.As(err, &exitErr):
		return fmt.Sprintf("Process exited with code %d", exitErr.Code)
	case errors.As(err, &outputErr):
		return outputErr.Snippet
	case errors.As(err, &spawnErr):
		return spawnErr.Err.Error()
	default:
		return err.Error()
	}
}

// NewErrorEvent builds a StatusError event for err.
func NewErrorEvent(err error) Event {
	return Event{
		Status:  StatusError,
		Message: ErrorMessage(err),
		Err:     err,
	}
}
